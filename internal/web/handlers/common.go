package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/facegate/facegate/internal/fault"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForFault maps a domain error code to an HTTP status. Each outcome
// class gets a distinct status so callers can tell "nobody enrolled"
// from validation problems, upstream failures, and integrity breaks.
func statusForFault(err error) int {
	switch fault.CodeOf(err) {
	case fault.CodeValidation:
		return http.StatusBadRequest
	case fault.CodeNotFound:
		return http.StatusNotFound
	case fault.CodeNoFace:
		return http.StatusUnprocessableEntity
	case fault.CodeInconsistent:
		return http.StatusConflict
	case fault.CodeService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
