package handlers

import (
	"net/http"

	"ibtbridge/redis"
)

func (d *Dashboard) State(w http.ResponseWriter, r *http.Request) {
	responseJSON(w, &APIStateResponse{
		Status: "ok",
	}, http.StatusOK)
}

func (d *Dashboard) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if d.JournalEnabled {
		if err := redis.Ping(); err != nil {
			responseJSON(w, &APIResponse{
				Status:  "error",
				Message: "journal unavailable",
			}, http.StatusServiceUnavailable)
			return
		}
	}
	responseJSON(w, &APIResponse{
		Status: "ok",
	}, http.StatusOK)
}
