package internal

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of engine error
type ErrorType int

const (
	// ErrorTypeValidation indicates a bad input record or argument
	ErrorTypeValidation ErrorType = iota
	// ErrorTypeNotFound indicates a single-term lookup miss
	ErrorTypeNotFound
	// ErrorTypeStoreUnavailable indicates a term store collaborator failure
	ErrorTypeStoreUnavailable
	// ErrorTypeCycleDetected indicates a corrupt parent chain
	ErrorTypeCycleDetected
	// ErrorTypeConnection indicates a shared cache connection error
	ErrorTypeConnection
	// ErrorTypeTimeout indicates a timeout during a cache operation
	ErrorTypeTimeout
	// ErrorTypeSerialization indicates a marshaling/unmarshaling error
	ErrorTypeSerialization
	// ErrorTypeKeyInvalid indicates an invalid cache key
	ErrorTypeKeyInvalid
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeStoreUnavailable:
		return "STORE_UNAVAILABLE"
	case ErrorTypeCycleDetected:
		return "CYCLE_DETECTED"
	case ErrorTypeConnection:
		return "CONNECTION"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	case ErrorTypeSerialization:
		return "SERIALIZATION"
	case ErrorTypeKeyInvalid:
		return "KEY_INVALID"
	default:
		return "UNKNOWN"
	}
}

// EngineError represents an engine-specific error with context.
// Key carries the cache key involved, when there is one; Reason carries
// the machine-readable rejection reason for validation errors.
type EngineError struct {
	Type    ErrorType
	Key     string
	Reason  string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("taxonomy engine error [%s] for key '%s': %s", e.Type.String(), e.Key, e.Message)
	}
	return fmt.Sprintf("taxonomy engine error [%s]: %s", e.Type.String(), e.Message)
}

// Unwrap returns the underlying cause error
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error type
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Type == t.Type
	}
	return false
}

// NewEngineError creates a new EngineError
func NewEngineError(errType ErrorType, key, message string, cause error) *EngineError {
	return &EngineError{
		Type:    errType,
		Key:     key,
		Message: message,
		Cause:   cause,
	}
}

// NewValidationError creates a validation error with a machine-readable reason
func NewValidationError(reason, message string) *EngineError {
	return &EngineError{
		Type:    ErrorTypeValidation,
		Reason:  reason,
		Message: message,
	}
}

// NewNotFoundError creates a not found error for a cache key or lookup
func NewNotFoundError(key string) *EngineError {
	return NewEngineError(ErrorTypeNotFound, key, "term not found", nil)
}

// NewStoreUnavailableError creates a term store failure error
func NewStoreUnavailableError(message string, cause error) *EngineError {
	return NewEngineError(ErrorTypeStoreUnavailable, "", message, cause)
}

// NewCycleDetectedError creates a corrupt parent chain error. The message
// names the term ids along the offending path.
func NewCycleDetectedError(message string) *EngineError {
	return NewEngineError(ErrorTypeCycleDetected, "", message, nil)
}

// NewConnectionError creates a shared cache connection error
func NewConnectionError(message string, cause error) *EngineError {
	return NewEngineError(ErrorTypeConnection, "", message, cause)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(key, message string, cause error) *EngineError {
	return NewEngineError(ErrorTypeTimeout, key, message, cause)
}

// NewSerializationError creates a serialization error
func NewSerializationError(key, message string, cause error) *EngineError {
	return NewEngineError(ErrorTypeSerialization, key, message, cause)
}

// NewKeyInvalidError creates a key validation error
func NewKeyInvalidError(key, message string) *EngineError {
	return NewEngineError(ErrorTypeKeyInvalid, key, message, nil)
}

// IsErrorType checks if the error is an EngineError of the given type
func IsErrorType(err error, errType ErrorType) bool {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Type == errType
	}
	return false
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return IsErrorType(err, ErrorTypeValidation)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return IsErrorType(err, ErrorTypeNotFound)
}

// IsStoreUnavailableError checks if the error is a term store failure
func IsStoreUnavailableError(err error) bool {
	return IsErrorType(err, ErrorTypeStoreUnavailable)
}

// IsCycleDetectedError checks if the error is a parent cycle error
func IsCycleDetectedError(err error) bool {
	return IsErrorType(err, ErrorTypeCycleDetected)
}

// IsConnectionError checks if the error is a connection error
func IsConnectionError(err error) bool {
	return IsErrorType(err, ErrorTypeConnection)
}
