package handlers

import (
	"net/http"

	"ibtbridge/config"
	"ibtbridge/redis"

	"github.com/go-chi/chi"
)

func (d *Dashboard) GetOperationsByPhase(w http.ResponseWriter, r *http.Request) {
	phase := chi.URLParam(r, "phase")
	if _, ok := config.RedisPhaseSets[phase]; !ok {
		responseJSON(w, &APIResponse{Status: "error", Field: "phase", Message: "Unknown phase"}, http.StatusNotFound)
		return
	}
	if !d.JournalEnabled {
		responseJSON(w, &APIResponse{Status: "error", Message: "Journal is disabled"}, http.StatusNotFound)
		return
	}

	ops, err := redis.FindAllOperationsByPhase(phase)
	if err != nil {
		responseJSON(w, nil, http.StatusInternalServerError)
		return
	}

	responseJSON(w, ops, http.StatusOK)
}

func (d *Dashboard) GetOperationByTxHash(w http.ResponseWriter, r *http.Request) {
	if !d.JournalEnabled {
		responseJSON(w, &APIResponse{Status: "error", Message: "Journal is disabled"}, http.StatusNotFound)
		return
	}

	op, err := redis.FindOperationByTxHash(chi.URLParam(r, "hash"))
	if err != nil {
		responseJSON(w, nil, http.StatusInternalServerError)
		return
	}
	if op == nil {
		responseJSON(w, &APIResponse{Status: "error", Message: "Operation not found"}, http.StatusNotFound)
		return
	}

	responseJSON(w, op, http.StatusOK)
}
