package api

import (
	"context"
	"errors"
	"net/http"

	"vis2table/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
// NotFound is checked first: engine load failures wrap it.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var unsupported *domain.UnsupportedMarkError
	var missingAxis *domain.MissingAxisMappingError
	var engineLoad *domain.EngineLoadError
	var neverReady *domain.DataNeverReadyError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &unsupported), errors.As(err, &missingAxis):
		return http.StatusUnprocessableEntity
	case errors.As(err, &engineLoad):
		return http.StatusBadGateway
	case errors.As(err, &neverReady):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error is the JSON body of every failed request.
type Error struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	code := httpStatusFromDomainError(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, code, Error{Code: int32(code), Message: msg}) //nolint:gosec // HTTP status codes are always in [100,599]
}
