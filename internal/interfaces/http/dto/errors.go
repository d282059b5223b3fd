package dto

import (
	"errors"
	"net/http"
	"strings"

	"github.com/crm/backend/internal/domain/shared"
)

// General error codes used by the HTTP layer itself
const (
	ErrCodeInternal    = "INTERNAL"
	ErrCodeBadRequest  = "BAD_REQUEST"
	ErrCodeInvalidJSON = "INVALID_JSON"
)

// domainCodeHTTPStatus maps domain error codes to HTTP status codes
var domainCodeHTTPStatus = map[string]int{
	shared.ErrNotFound.Code:            http.StatusNotFound,
	shared.ErrInvalidInput.Code:        http.StatusBadRequest,
	shared.ErrInvalidState.Code:        http.StatusUnprocessableEntity,
	shared.ErrConcurrencyConflict.Code: http.StatusConflict,
	shared.ErrInvariantViolation.Code:  http.StatusUnprocessableEntity,
	"UNKNOWN_KIND":                     http.StatusBadRequest,

	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,
}

// HTTPStatusForCode returns the HTTP status for a domain error code.
// Validation-style codes (INVALID_AMOUNT, INVALID_METHOD, ...) map to
// 400; anything unknown is a 500.
func HTTPStatusForCode(code string) int {
	if status, ok := domainCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// FromError converts an error into a status code and response envelope.
// Domain errors keep their code; anything else is an opaque internal
// error so storage details never leak to clients.
func FromError(err error) (int, Response) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return HTTPStatusForCode(domainErr.Code), NewErrorResponse(domainErr.Code, domainErr.Message)
	}
	return http.StatusInternalServerError, NewErrorResponse(ErrCodeInternal, "Internal server error")
}
