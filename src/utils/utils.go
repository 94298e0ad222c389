package utils

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/username/pulabus/backend/src/logger"
)

// JSONErrorResponse is the envelope for all error responses.
type JSONErrorResponse struct {
	Error string `json:"error"`
}

// SendJSONError writes a JSON error payload with the given status code.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(JSONErrorResponse{Error: message}); err != nil {
		logger.L.Error("Failed to encode JSON error response", "error", err)
	}
}

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Error("Failed to encode JSON response", "error", err)
	}
}

// ParseDateParam parses a YYYY-MM-DD query parameter.
func ParseDateParam(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
