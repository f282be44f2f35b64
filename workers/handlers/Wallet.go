package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

func (d *Dashboard) SelectSuiNetwork(w http.ResponseWriter, r *http.Request) {
	if d.Networks == nil {
		responseJSON(w, &APIResponse{Status: "error", Message: "No Sui wallet configured"}, http.StatusNotFound)
		return
	}

	var req SelectNetworkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Network == "" {
		responseJSON(w, &APIResponse{Status: "error", Field: "network", Message: "network is required"}, http.StatusBadRequest)
		return
	}

	if err := d.Networks.SelectNetwork(req.Network); err != nil {
		log.Printf("Error selecting Sui network %s: %s", req.Network, err.Error())
		responseJSON(w, &APIResponse{Status: "error", Field: "network", Message: err.Error()}, http.StatusBadRequest)
		return
	}
	responseJSON(w, &APIResponse{Status: "ok"}, http.StatusOK)
}

// SetEVMAccounts emulates the wallet's account switch; an empty list
// locks the wallet.
func (d *Dashboard) SetEVMAccounts(w http.ResponseWriter, r *http.Request) {
	if d.Accounts == nil {
		responseJSON(w, &APIResponse{Status: "error", Message: "No EVM wallet configured"}, http.StatusNotFound)
		return
	}

	var req SetAccountsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	d.Accounts.SetAccounts(req.Accounts)
	responseJSON(w, &APIResponse{Status: "ok"}, http.StatusOK)
}
