package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/username/pulabus/backend/src/logger"
	"github.com/username/pulabus/backend/src/services"
	"github.com/username/pulabus/backend/src/utils"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// ContextualLoggerMiddleware creates a logger carrying a requestID for each request.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// respondServiceError maps the service error taxonomy onto HTTP status codes.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctxLogger := logger.FromContext(r.Context())

	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrUnknownCurrency), errors.Is(err, services.ErrInvalidRate):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidStateTransition):
		utils.SendJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, context.DeadlineExceeded):
		ctxLogger.Error("Request deadline exceeded", "path", r.URL.Path, "error", err)
		utils.SendJSONError(w, "request timed out", http.StatusGatewayTimeout)
	default:
		ctxLogger.Error("Unhandled service error", "path", r.URL.Path, "error", err)
		utils.SendJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}

// parsePeriod reads the startDate/endDate query parameters (YYYY-MM-DD).
func parsePeriod(r *http.Request) (time.Time, time.Time, bool) {
	start, err := utils.ParseDateParam(r.URL.Query().Get("startDate"))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err := utils.ParseDateParam(r.URL.Query().Get("endDate"))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
