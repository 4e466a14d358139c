package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"puntos/internal/core"
)

type apiError struct {
	Status string       `json:"status"`
	Error  errorPayload `json:"error"`
}

type errorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{
		"status": "success",
		"data":   data,
	})
}

func writeError(w http.ResponseWriter, status int, p errorPayload) {
	writeJSON(w, status, apiError{Status: "error", Error: p})
}

// mapDomainError turns a service error into a status code and payload.
// Internal failures never leak their message.
func mapDomainError(err error) (int, errorPayload) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, errorPayload{Code: "VALIDATION_ERROR", Message: verr.Reason, Field: verr.Field}
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity, errorPayload{Code: "VALIDATION_ERROR", Message: err.Error()}
	case errors.Is(err, core.ErrStorageWrite):
		return http.StatusInternalServerError, errorPayload{Code: "STORAGE_WRITE_FAILED", Message: "the record could not be saved"}
	case errors.Is(err, core.ErrConfiguration):
		return http.StatusServiceUnavailable, errorPayload{Code: "CATALOG_UNAVAILABLE", Message: "catalog unavailable"}
	case errors.Is(err, core.ErrDataIntegrity):
		return http.StatusInternalServerError, errorPayload{Code: "DATA_INTEGRITY", Message: "stored records cannot be aggregated"}
	default:
		return http.StatusInternalServerError, errorPayload{Code: "INTERNAL_ERROR", Message: "internal server error"}
	}
}
