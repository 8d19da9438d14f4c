package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"beneficiary-data/internal/authz"
	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/repository"
	"beneficiary-data/internal/service"

	"go.uber.org/zap"
)

// writeError maps a service error to a status code and envelope. result is
// attached to failures that carry partial data; it may be nil.
func writeError(w http.ResponseWriter, logger *zap.Logger, op string, err error, result any) {
	var fe domain.FieldErrors
	var denied *authz.DeniedError
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusOK, FailWith("please correct the highlighted fields", map[string]string(fe)))
	case errors.As(err, &denied):
		writeJSON(w, http.StatusForbidden, Fail(denied.Reason))
	case errors.Is(err, service.ErrUnauthenticated):
		writeUnauthenticated(w)
	case errors.Is(err, service.ErrInvalidInput):
		writeJSON(w, http.StatusOK, Fail(strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")))
	case errors.Is(err, service.ErrConfirmationRequired):
		// result previews what the confirmed call would do
		writeJSON(w, http.StatusOK, FailWith(err.Error(), result))
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrLastAdmin),
		errors.Is(err, service.ErrFormUnavailable),
		errors.Is(err, errBodyTooLarge):
		writeJSON(w, http.StatusOK, Fail(err.Error()))
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail("not found"))
	case errors.Is(err, service.ErrOperationFailed):
		// already logged with its cause by the service
		writeJSON(w, http.StatusInternalServerError, FailWith(service.ErrOperationFailed.Error(), result))
	default:
		logger.Error(op+" failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, FailWith(service.ErrOperationFailed.Error(), result))
	}
}

func writeUnauthenticated(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, Result[any]{Code: ResultTokenExpired, Type: "error", Message: "please sign in again"})
}
