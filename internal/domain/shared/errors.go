package shared

// ErrorKind classifies a domain error for callers.
type ErrorKind string

const (
	// KindValidation marks client/input faults: null arguments, out-of-range
	// values, blank mandatory fields, mismatched amounts.
	KindValidation ErrorKind = "VALIDATION"
	// KindState marks business-rule conflicts: operations not allowed in the
	// aggregate's current state.
	KindState ErrorKind = "STATE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewValidationError creates a domain error for a client/input fault
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

// NewStateError creates a domain error for a business-rule conflict
func NewStateError(code, message string) *DomainError {
	return &DomainError{Kind: KindState, Code: code, Message: message}
}

// IsValidationError reports whether err is a validation-kind DomainError
func IsValidationError(err error) bool {
	de, ok := err.(*DomainError)
	return ok && de.Kind == KindValidation
}

// IsStateError reports whether err is a state-kind DomainError
func IsStateError(err error) bool {
	de, ok := err.(*DomainError)
	return ok && de.Kind == KindState
}

// Common domain errors
var (
	ErrNotFound      = NewValidationError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewStateError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput  = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState  = NewStateError("INVALID_STATE", "Operation not allowed in current state")
)
