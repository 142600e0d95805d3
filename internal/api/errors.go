package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/doctailor/internal/pipeline"
)

// statusForKind maps a pipeline error kind to the status clients see.
func statusForKind(kind string) int {
	switch kind {
	case "invalid_job":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "malformed":
		return http.StatusUnprocessableEntity
	case "fetch", "rewrite":
		return http.StatusBadGateway
	case "queue_full", "canceled":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	jsonError(w, err.Error(), statusForKind(pipeline.ErrorKind(err)))
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
