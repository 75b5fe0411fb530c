package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"pagecraft/internal/domain"
	"pagecraft/internal/httputil"
)

// handleError maps domain errors to HTTP responses. Errors implementing
// domain.HTTPError choose their own status; sentinel matches cover wrapped
// errors; anything else is a 500 and gets logged with full detail while the
// client sees a generic message.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrExpired):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrPersistence):
		logger.Error("persistence failure", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "storage unavailable")
	default:
		logger.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
