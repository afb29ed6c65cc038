package dto

import (
	"net/http"

	"github.com/storefront/backend/internal/domain/shared"
)

// statusByCode maps domain error codes to HTTP status codes. Codes not
// listed are business-rule violations and answer 422.
var statusByCode = map[string]int{
	"NOT_FOUND":            http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"DUPLICATE_SKU":        http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"UNAUTHORIZED":         http.StatusUnauthorized,
	"INVALID_TOKEN":        http.StatusUnauthorized,
	"INVALID_CREDENTIALS":  http.StatusUnauthorized,
	"FORBIDDEN":            http.StatusForbidden,
	"INVALID_INPUT":        http.StatusBadRequest,
	"VALIDATION_ERROR":     http.StatusBadRequest,
	"QUERY_TIMEOUT":        http.StatusGatewayTimeout,
}

// StatusForDomainError resolves the HTTP status for a domain error.
func StatusForDomainError(err *shared.DomainError) int {
	if status, ok := statusByCode[err.Code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}
