package shared

import "fmt"

// Error codes carried by DomainError
const (
	CodeNotFound            = "NOT_FOUND"
	CodeValidation          = "VALIDATION_FAILED"
	CodeWriteFailed         = "WRITE_FAILED"
	CodeStorageUnavailable  = "STORAGE_UNAVAILABLE"
	CodeInvalidState        = "INVALID_STATE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeAlreadyExists       = "ALREADY_EXISTS"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, shared.ErrNotFound) matches any not-found error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidation          = NewDomainError(CodeValidation, "Validation failed")
	ErrWriteFailed         = NewDomainError(CodeWriteFailed, "Write did not affect the expected rows")
	ErrStorageUnavailable  = NewDomainError(CodeStorageUnavailable, "Storage is unavailable")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
)

// NewNotFoundError reports a missing or inactive record
func NewNotFoundError(entity string, id any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %v not found", entity, id))
}

// NewValidationError reports malformed or missing input
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewWriteFailedError reports an update that hit no rows
func NewWriteFailedError(format string, args ...any) *DomainError {
	return NewDomainError(CodeWriteFailed, fmt.Sprintf(format, args...))
}

// NewInvalidStateError reports an operation rejected by the current state
func NewInvalidStateError(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidState, fmt.Sprintf(format, args...))
}
