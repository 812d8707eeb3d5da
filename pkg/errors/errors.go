package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrInternal
	ErrMalformedRecord
	ErrRemote
	ErrTimeout
	ErrConnection
	ErrMalformedResponse
	ErrPersistence
)

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NotFoundMsg(message string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: message,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// MalformedRecord flags an upstream resource that fails strict parsing.
// It is collected per-record during population, never surfaced to callers.
func MalformedRecord(message string, err error) *AppError {
	return &AppError{
		Code:    ErrMalformedRecord,
		Message: message,
		Err:     err,
	}
}

// Remote wraps a non-2xx status from the upstream FHIR server.
func Remote(statusCode int) *AppError {
	return &AppError{
		Code:    ErrRemote,
		Message: fmt.Sprintf("FHIR server returned an error: %d", statusCode),
	}
}

func Timeout(err error) *AppError {
	return &AppError{
		Code:    ErrTimeout,
		Message: "FHIR server request timed out",
		Err:     err,
	}
}

func Connection(err error) *AppError {
	return &AppError{
		Code:    ErrConnection,
		Message: "failed to connect to FHIR server",
		Err:     err,
	}
}

func MalformedResponse(err error) *AppError {
	return &AppError{
		Code:    ErrMalformedResponse,
		Message: "FHIR server returned an undecodable body",
		Err:     err,
	}
}

func Persistence(err error) *AppError {
	return &AppError{
		Code:    ErrPersistence,
		Message: "database error while saving data",
		Err:     err,
	}
}

// Code extracts the ErrorCode from err, or ErrInternal when err is not
// an AppError.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return Code(err) == code
}
