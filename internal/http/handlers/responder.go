package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"pickleball-score-service/internal/domain"
	"pickleball-score-service/internal/http/middleware"
	"pickleball-score-service/internal/logging"
	"pickleball-score-service/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, logger *slog.Logger) {
	reqID := middleware.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = r.Header.Get("X-Request-ID")
	}
	body := map[string]string{"error": message}
	if reqID != "" {
		body["requestId"] = reqID
	}
	writeJSON(w, status, body, logger)
}

// writeDomainError maps core errors onto HTTP statuses. Recoverable rule
// violations are client-visible notices, never 500s.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found", logger)
	case errors.Is(err, domain.ErrGameNotComplete),
		errors.Is(err, domain.ErrGameComplete),
		errors.Is(err, domain.ErrMatchNotStarted),
		errors.Is(err, domain.ErrMatchAlreadyStarted),
		errors.Is(err, domain.ErrMatchComplete):
		writeError(w, r, http.StatusConflict, err.Error(), logger)
	case errors.Is(err, domain.ErrOutOfRange),
		errors.Is(err, domain.ErrInvalidConfiguration),
		errors.Is(err, domain.ErrInvalidServerState):
		writeError(w, r, http.StatusBadRequest, err.Error(), logger)
	default:
		if _, ok := store.AsStoreError(err); ok {
			writeError(w, r, http.StatusBadGateway, "storage unavailable", logger)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error", logger)
	}
}

func loggerFromContext(r *http.Request, fallback *slog.Logger) *slog.Logger {
	if r == nil {
		return fallback
	}
	return logging.FromContext(r.Context(), fallback)
}
