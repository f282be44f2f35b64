package types

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	// connection
	ProviderUnavailable ErrorCode = "provider_unavailable"
	UserRejected        ErrorCode = "user_rejected"
	WrongNetwork        ErrorCode = "wrong_network"

	// read
	NetworkUnreachable ErrorCode = "network_unreachable"
	OwnerInvalid       ErrorCode = "owner_invalid"
	TokenIdUnknown     ErrorCode = "token_id_unknown"

	// validation
	MissingField      ErrorCode = "missing_field"
	MalformedAddress  ErrorCode = "malformed_address"
	NonPositiveAmount ErrorCode = "non_positive_amount"
	AmountOutOfRange  ErrorCode = "amount_out_of_range"
	InsufficientFunds ErrorCode = "insufficient_funds"

	// submission
	UserRejectedSigning ErrorCode = "user_rejected_signing"
	NetworkRejected     ErrorCode = "network_rejected"
	Reverted            ErrorCode = "reverted"
	OperationInFlight   ErrorCode = "operation_in_flight"
)

type coded interface {
	ErrorCode() ErrorCode
}

// CodeOf returns the code of the first coded error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var c coded
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

type ConnectionError struct {
	Code ErrorCode
	Err  error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("connection error: %s", e.Code)
	}
	return fmt.Sprintf("connection error: %s: %s", e.Code, e.Err.Error())
}

func (e *ConnectionError) Unwrap() error        { return e.Err }
func (e *ConnectionError) ErrorCode() ErrorCode { return e.Code }

type ReadError struct {
	Code ErrorCode
	Err  error
}

func (e *ReadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("read error: %s", e.Code)
	}
	return fmt.Sprintf("read error: %s: %s", e.Code, e.Err.Error())
}

func (e *ReadError) Unwrap() error        { return e.Err }
func (e *ReadError) ErrorCode() ErrorCode { return e.Code }

// ValidationError never leaves the process: it blocks submission locally.
type ValidationError struct {
	Code    ErrorCode
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("validation error: %s (%s): %s", e.Code, e.Field, e.Message)
}

func (e *ValidationError) ErrorCode() ErrorCode { return e.Code }

type SubmissionError struct {
	Code ErrorCode
	Err  error
}

func (e *SubmissionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("submission error: %s", e.Code)
	}
	return fmt.Sprintf("submission error: %s: %s", e.Code, e.Err.Error())
}

func (e *SubmissionError) Unwrap() error        { return e.Err }
func (e *SubmissionError) ErrorCode() ErrorCode { return e.Code }

func NewValidationError(code ErrorCode, field, message string) error {
	return &ValidationError{Code: code, Field: field, Message: message}
}
