// Package apperror defines the domain errors shared by every layer.
//
// Services return these errors; only the HTTP layer decides which status code
// and wire code each one becomes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation error")
	ErrConflict             = errors.New("conflict")
	ErrForbidden            = errors.New("forbidden")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrRegistrationDisabled = errors.New("registration disabled")
	ErrRateLimited          = errors.New("rate limited")
)

// Codes that distinguish the different ways a request can fail authentication.
// All of them are reported as 401.
const (
	CodeAuthRequired      = "AUTH_REQUIRED"
	CodeInvalidAuthHeader = "INVALID_AUTH_HEADER"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeAuthFailed        = "AUTH_FAILED"
)

type AppError struct {
	Err     error  // sentinel this error matches with errors.Is
	Message string // human-readable, safe to show to clients
	Field   string // optional: request field that caused the error
	Code    string // optional: overrides the default wire code for Err
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %q already exists", resource, key),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an authentication failure carrying one of the Code*
// constants above.
func Unauthorized(code, message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
		Code:    code,
	}
}

func RegistrationDisabled() *AppError {
	return &AppError{
		Err:     ErrRegistrationDisabled,
		Message: "Registration is disabled",
	}
}

// RateLimited reports that the caller has used up its request allowance.
func RateLimited() *AppError {
	return &AppError{
		Err:     ErrRateLimited,
		Message: "Too many requests, please try again later",
	}
}
