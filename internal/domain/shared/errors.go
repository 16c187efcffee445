package shared

import "fmt"

// DomainError is a business rule failure. Code is stable and reaches API
// clients; Message is for humans.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on Code, so errors.Is(err, ErrInvalidState) holds for any
// INVALID_STATE error whatever its message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// Withf returns an error with e's code and a formatted message
func (e *DomainError) Withf(format string, args ...any) *DomainError {
	return &DomainError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrNotAuthorized = NewDomainError("NOT_AUTHORIZED", "Not authorized to perform this action")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Storage and concurrency failures
var (
	ErrConcurrencyConflict = NewDomainError("CONCURRENT_MODIFICATION", "Resource was modified by another process")
	ErrPersistence         = NewDomainError("PERSISTENCE_ERROR", "Failed to persist changes")
	ErrDuplicateRequest    = NewDomainError("DUPLICATE_REQUEST", "An identical request is already being processed")
)
