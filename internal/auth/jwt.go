// Package auth issues and checks the credentials used by the bookmarks API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. The client POSTs a username and password to /login (or completes the
//     optional GitHub sign-in).
//  2. The server answers with a signed JWT.
//  3. The client sends it back on every protected call as
//     "Authorization: Bearer <token>".
//  4. RequireAuth validates the signature and expiry and puts the caller's
//     Identity in the request context. No database lookup is involved.
//
// TOKEN PAYLOAD:
//
//	{"sub":"42","username":"alice","iss":"bookmarks","iat":...,"exp":...}
//
// "sub" holds the numeric user id as a decimal string, the standard place
// for "who this token belongs to". The username rides along so /me can
// answer without touching storage.
//
// Because tokens are stateless, a deleted user's token stays valid until it
// expires. The default lifetime is 7 days (JWT_EXPIRES).
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "bookmarks"

// DefaultTokenTTL is used when NewTokenService is given a non-positive ttl.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Identity is the authenticated caller, recovered from a valid token.
type Identity struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
}

// TokenService signs and verifies HS256 tokens with a shared secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; in production use 32 random bytes, e.g. $(openssl rand -hex 32).
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload: the registered claims plus the username.
type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TTL reports how long freshly issued tokens stay valid.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate issues a token for the user with the configured lifetime.
func (s *TokenService) Generate(userID int64, username string) (string, error) {
	return s.GenerateWithDuration(userID, username, s.ttl)
}

// GenerateWithDuration issues a token that expires after d. Tests use a
// negative d to get an already-expired token.
func (s *TokenService) GenerateWithDuration(userID int64, username string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses tokenStr and returns the identity it carries.
//
// The jwt library checks the signature, the expiry (which must be present)
// and the issuer. WithValidMethods pins the algorithm to HS256 so a token
// with "alg":"none" or an RSA header is rejected before the key is used.
func (s *TokenService) Validate(tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("auth: token subject %q is not a user id", c.Subject)
	}

	return &Identity{UserID: id, Username: c.Username}, nil
}
