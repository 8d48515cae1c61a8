// Package middleware holds the HTTP middleware the router wraps around the
// handlers: request logging, rate limiting and CORS.
//
// Every middleware has the usual shape:
//
//	func(next http.Handler) http.Handler
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/bookmarks/internal/auth"
)

// responseWriter records the status code and body size, which
// http.ResponseWriter does not expose after the fact.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// requestTags collects attributes that are only known further down the
// chain. Logger puts one in the context; TagUser fills it in.
type requestTags struct {
	userID int64
}

type tagsKey struct{}

// Logger logs one line per request: method, path, status, duration, bytes,
// the chi request id and, for authenticated routes, the user id. Server
// errors log at Error and client errors at Warn.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK, // if WriteHeader is never called
			}
			tags := &requestTags{}
			ctx := context.WithValue(r.Context(), tagsKey{}, tags)

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
			}
			if id := chimiddleware.GetReqID(r.Context()); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if tags.userID != 0 {
				attrs = append(attrs, slog.Int64("user_id", tags.userID))
			}

			logger.LogAttrs(r.Context(), levelFor(wrapped.statusCode), "request completed", attrs...)
		})
	}
}

// TagUser copies the authenticated user id into the request log line. Mount
// it after auth.RequireAuth.
func TagUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tags, ok := r.Context().Value(tagsKey{}).(*requestTags); ok {
			if id, ok := auth.IdentityFromContext(r.Context()); ok {
				tags.userID = id.UserID
			}
		}
		next.ServeHTTP(w, r)
	})
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
