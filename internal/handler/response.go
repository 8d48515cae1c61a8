package handler

// RESPONSE HELPERS:
// Every endpoint answers through writeJSON or writeError so the wire format
// stays uniform. Errors always have the shape
//
//	{"error": "Folder not found", "code": "NOT_FOUND"}
//
// where "error" is safe to show to a user and "code" is stable for clients
// to branch on.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/bookmarks/internal/apperror"
	"github.com/sakif/bookmarks/internal/repository"
)

// Wire codes.
const (
	CodeInvalidInput         = "INVALID_INPUT"
	CodeForbidden            = "FORBIDDEN"
	CodeRegistrationDisabled = "REGISTRATION_DISABLED"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeRateLimited          = "RATE_LIMITED"
	CodeDBError              = "DB_ERROR"
	CodeServerError          = "SERVER_ERROR"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON sets the headers, then the status, then encodes the body. Once
// the body starts, headers can no longer change.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// WriteError maps err to a status and code and writes the error body.
// Middleware outside this package (auth, rate limiting) uses it so their
// failures look like every other error.
func WriteError(w http.ResponseWriter, err error) {
	writeError(w, err, "Internal server error")
}

// writeError is WriteError with a route-specific message for 500s. The
// underlying error is logged but never sent: it may contain SQL or paths.
func writeError(w http.ResponseWriter, err error, fallback string) {
	status, code := classify(err)

	msg := fallback
	if status < http.StatusInternalServerError {
		msg = http.StatusText(status)
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			msg = appErr.Message
		}
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
	}

	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// classify walks err's chain with errors.Is. Authentication errors carry
// their specific code on the AppError.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, apperror.ErrUnauthorized):
		code := apperror.CodeAuthFailed
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code != "" {
			code = appErr.Code
		}
		return http.StatusUnauthorized, code
	case errors.Is(err, apperror.ErrRegistrationDisabled):
		return http.StatusForbidden, CodeRegistrationDisabled
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, apperror.ErrRateLimited):
		return http.StatusTooManyRequests, CodeRateLimited
	case errors.Is(err, repository.ErrStorage):
		return http.StatusInternalServerError, CodeDBError
	default:
		return http.StatusInternalServerError, CodeServerError
	}
}
