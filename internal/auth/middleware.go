package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/bookmarks/internal/apperror"
)

// contextKey is unexported so no other package can read or overwrite the
// identity stored under it.
type contextKey string

const identityKey contextKey = "identity"

// FailFunc writes an error response. The handler package supplies one so
// auth failures share the API's error body.
type FailFunc func(w http.ResponseWriter, err error)

// RequireAuth guards protected routes.
//
// The Authorization header is checked in this order:
//
//	missing                         → AUTH_REQUIRED
//	not exactly "Bearer <token>"    → INVALID_AUTH_HEADER
//	token fails Validate            → INVALID_TOKEN
//
// All three are 401s. On success the Identity is stored in the request
// context and the next handler runs.
func RequireAuth(tokens *TokenService, fail FailFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := Authenticate(r, tokens)
			if err != nil {
				fail(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Authenticate extracts and validates the bearer token on r.
func Authenticate(r *http.Request, tokens *TokenService) (*Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, apperror.Unauthorized(apperror.CodeAuthRequired, "Authorization header required")
	}

	token, ok := bearerToken(header)
	if !ok {
		return nil, apperror.Unauthorized(apperror.CodeInvalidAuthHeader, "Invalid authorization header")
	}

	id, err := tokens.Validate(token)
	if err != nil {
		return nil, apperror.Unauthorized(apperror.CodeInvalidToken, "Invalid or expired token")
	}
	return id, nil
}

// bearerToken splits "Bearer <token>". The header must have exactly two
// space-separated parts and the scheme must be "Bearer".
func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller stored by RequireAuth.
//
// Usage in handlers:
//
//	id, ok := auth.IdentityFromContext(r.Context())
//	if !ok {
//	    // route was not behind RequireAuth
//	}
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}
