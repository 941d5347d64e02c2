package dto

import (
	"errors"
	"net/http"
	"strings"

	"github.com/facturador/backend/internal/domain/shared"
)

// Generic error codes for failures outside the domain
const (
	ErrCodeBadRequest  = "BAD_REQUEST"
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeInternal    = "INTERNAL_ERROR"
	ErrCodeTooLarge    = "REQUEST_TOO_LARGE"
	ErrCodeUnavailable = "SERVICE_UNAVAILABLE"
)

// MapDomainError translates a service error into the HTTP status, error
// code and message to respond with. Validation faults map to 400 except the
// not-found family, which maps to 404. State conflicts map to 409. Anything
// uncategorized is an internal error and hides its message.
func MapDomainError(err error) (int, string, string) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred"
	}

	switch domainErr.Kind {
	case shared.KindValidation:
		if isNotFoundCode(domainErr.Code) {
			return http.StatusNotFound, domainErr.Code, domainErr.Message
		}
		return http.StatusBadRequest, domainErr.Code, domainErr.Message
	case shared.KindState:
		return http.StatusConflict, domainErr.Code, domainErr.Message
	default:
		return http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred"
	}
}

func isNotFoundCode(code string) bool {
	return code == ErrCodeNotFound || strings.HasSuffix(code, "_NOT_FOUND")
}
