package httpapi

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the structured error body every failed request receives.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	body := errorResponse{Error: message}
	if err != nil {
		body.Message = err.Error()
	}
	respondJSON(w, status, body)
}
