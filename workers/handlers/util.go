package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"ibtbridge/status"
	"ibtbridge/types"

	log "github.com/sirupsen/logrus"
)

func responseJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func responsePlain(w http.ResponseWriter, data []byte, code int) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	w.Write(data)
}

var codeStatus = map[types.ErrorCode]int{
	types.ProviderUnavailable: http.StatusServiceUnavailable,
	types.UserRejected:        http.StatusForbidden,
	types.WrongNetwork:        http.StatusConflict,
	types.NetworkUnreachable:  http.StatusBadGateway,
	types.OwnerInvalid:        http.StatusBadRequest,
	types.TokenIdUnknown:      http.StatusBadRequest,
	types.MissingField:        http.StatusBadRequest,
	types.MalformedAddress:    http.StatusBadRequest,
	types.NonPositiveAmount:   http.StatusBadRequest,
	types.AmountOutOfRange:    http.StatusBadRequest,
	types.InsufficientFunds:   http.StatusBadRequest,
	types.UserRejectedSigning: http.StatusForbidden,
	types.NetworkRejected:     http.StatusBadGateway,
	types.Reverted:            http.StatusUnprocessableEntity,
	types.OperationInFlight:   http.StatusConflict,
}

// responseError writes err as an APIResponse with the status its code
// maps to. Uncoded errors are internal.
func responseError(w http.ResponseWriter, err error) {
	code := types.CodeOf(err)
	httpStatus, ok := codeStatus[code]
	if !ok {
		httpStatus = http.StatusInternalServerError
	}

	resp := &APIResponse{
		Status:  "error",
		Code:    string(code),
		Message: status.ErrorText(err),
	}
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	if httpStatus == http.StatusInternalServerError {
		log.Printf("Error handling request: %s", err.Error())
	}
	responseJSON(w, resp, httpStatus)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Printf("Error unmarshalling request body: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Cannot unmarshal input JSON",
		}, http.StatusBadRequest)
		return false
	}
	return true
}
