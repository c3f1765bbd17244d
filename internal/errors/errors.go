package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound         = newError(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = newError(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation       = newError(ErrCodeValidation, "validation error")
	ErrHTTPClient       = newError(ErrCodeHTTPClient, "http client error")
	ErrGatewayTransport = newError(ErrCodeGatewayTransport, "payment gateway unreachable")
	ErrInvalidResponse  = newError(ErrCodeInvalidResponse, "invalid payment gateway response")
	ErrPersistence      = newError(ErrCodePersistence, "persistence error")
	ErrConfiguration    = newError(ErrCodeConfiguration, "configuration error")
	ErrSystem           = newError(ErrCodeSystemError, "system error")
)

const (
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeValidation       = "validation_error"
	ErrCodeHTTPClient       = "http_client_error"
	ErrCodeGatewayTransport = "gateway_transport_error"
	ErrCodeInvalidResponse  = "invalid_gateway_response"
	ErrCodePersistence      = "persistence_error"
	ErrCodeConfiguration    = "configuration_error"
	ErrCodeSystemError      = "system_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func newError(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

// New creates a new InternalError with the given code and message
func New(code string, message string) *InternalError {
	return newError(code, message)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err error, reference error) bool {
	return errors.Is(err, reference)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsGatewayTransport checks if an error is a gateway transport error
func IsGatewayTransport(err error) bool {
	return errors.Is(err, ErrGatewayTransport)
}

// IsInvalidResponse checks if an error is an invalid gateway response error
func IsInvalidResponse(err error) bool {
	return errors.Is(err, ErrInvalidResponse)
}

// IsPersistence checks if an error is a persistence error
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// Code extracts the machine-readable code from an error, if any
func Code(err error) string {
	var internal *InternalError
	if errors.As(err, &internal) {
		return internal.Code
	}
	return ErrCodeSystemError
}
