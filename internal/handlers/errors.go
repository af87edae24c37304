package handlers

import (
	"encoding/json"
	"net/http"

	"gramtrack/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// respondError writes a JSON error body. The wrapped error is logged but
// never exposed to the client.
func respondError(w http.ResponseWriter, log logger.Logger, status int, userMsg string, err error) {
	if err != nil {
		log.Error(userMsg, logger.Int("status", status), logger.Error(err))
	}
	respondJSON(w, status, errorResponse{Error: userMsg})
}
