package handlers

import "ibtbridge/panel"

type APIResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type APIStateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type APIPanelsResponse struct {
	Status string       `json:"status"`
	Panels []panel.View `json:"panels"`
}

type APISubmitResponse struct {
	Status string         `json:"status"`
	Form   panel.FormView `json:"form"`
}

type SelectNetworkRequest struct {
	Network string `json:"network"`
}

type SetAccountsRequest struct {
	Accounts []string `json:"accounts"`
}
