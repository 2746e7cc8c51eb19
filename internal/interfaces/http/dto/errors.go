package dto

import (
	"net/http"
	"strings"

	"github.com/gemerp/backend/internal/domain/shared"
)

// Domain error codes, passed through unchanged from shared.DomainError
const (
	ErrCodeNotFound            = shared.CodeNotFound
	ErrCodeValidation          = shared.CodeValidation
	ErrCodeWriteFailed         = shared.CodeWriteFailed
	ErrCodeStorageUnavailable  = shared.CodeStorageUnavailable
	ErrCodeInvalidState        = shared.CodeInvalidState
	ErrCodeConcurrencyConflict = shared.CodeConcurrencyConflict
	ErrCodeAlreadyExists       = shared.CodeAlreadyExists
)

// Transport error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeRouteNotFound is used when no route matches
	ErrCodeRouteNotFound = "ROUTE_NOT_FOUND"
	// ErrCodeMethodNotAllowed is used when the route exists for other methods only
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeWriteFailed:         http.StatusConflict,
	ErrCodeStorageUnavailable:  http.StatusServiceUnavailable,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeAlreadyExists:       http.StatusConflict,

	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeRouteNotFound:    http.StatusNotFound,
	ErrCodeMethodNotAllowed: http.StatusMethodNotAllowed,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes answer 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping folds older and alternative spellings onto the canonical codes
var LegacyErrorCodeMapping = map[string]string{
	"VALIDATION_ERROR":  ErrCodeValidation,
	"INVALID_INPUT":     ErrCodeValidation,
	"ERR_VALIDATION":    ErrCodeValidation,
	"ERR_NOT_FOUND":     ErrCodeNotFound,
	"WRITE_FAILURE":     ErrCodeWriteFailed,
	"CONFLICT":          ErrCodeWriteFailed,
	"STORAGE_ERROR":     ErrCodeStorageUnavailable,
	"UNAVAILABLE":       ErrCodeStorageUnavailable,
	"INVALID_OPERATION": ErrCodeInvalidState,
	"INVALID_STATUS":    ErrCodeInvalidState,
	"OPTIMISTIC_LOCK":   ErrCodeConcurrencyConflict,
	"DUPLICATE":         ErrCodeAlreadyExists,
	"ERR_INTERNAL":      ErrCodeInternal,
}

// NormalizeErrorCode converts an error code to its canonical form.
// Canonical codes pass through; unknown codes become INTERNAL_ERROR.
func NormalizeErrorCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	if mapped, ok := LegacyErrorCodeMapping[code]; ok {
		return mapped
	}
	return ErrCodeInternal
}
