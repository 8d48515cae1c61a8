package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/bookmarks/internal/apperror"
	"github.com/sakif/bookmarks/internal/auth"
	"github.com/sakif/bookmarks/internal/model"
	"github.com/sakif/bookmarks/internal/service"
)

// AuthService is the part of service.AuthService the handler needs.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*service.AuthResult, error)
	LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*service.AuthResult, error)
}

// GitHubProvider is satisfied by *auth.GitHubProvider.
type GitHubProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

var _ GitHubProvider = (*auth.GitHubProvider)(nil)

const stateCookie = "oauth_state"

// AuthHandler serves registration, password login and the optional GitHub
// sign-in flow. Every successful sign-in answers with a bearer token in the
// body; nothing is stored in cookies except the short-lived OAuth state.
//
//   - HandleRegister       → create a password account
//   - HandleLogin          → exchange credentials for a token
//   - HandleMe             → echo the identity carried by the token
//   - HandleGitHubLogin    → redirect the browser to GitHub
//   - HandleGitHubCallback → exchange GitHub's code for a token
type AuthHandler struct {
	auth   AuthService
	github GitHubProvider // nil when GitHub sign-in is not configured
	logger *slog.Logger
}

func NewAuthHandler(authService AuthService, github GitHubProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, github: github, logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// HandleRegister creates an account.
//
// HTTP: POST /register
// REQUEST BODY: {"username": "alice", "password": "s3cret"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err, "Failed to register user")
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Username: user.Username})
}

// HandleLogin issues a bearer token for valid credentials.
//
// HTTP: POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: res.Token})
}

// HandleMe returns the identity from the caller's token without touching
// storage.
//
// HTTP: GET /me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id := mustIdentity(r)
	writeJSON(w, http.StatusOK, userResponse{ID: id.UserID, Username: id.Username})
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// The random state goes into an HttpOnly cookie and comes back as a query
// parameter; HandleGitHubCallback rejects the request unless they match.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		WriteError(w, errGitHubDisabled)
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow and answers with a token.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		WriteError(w, errGitHubDisabled)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("github callback: state mismatch")
		WriteError(w, apperror.ValidationFailed("state", "Invalid OAuth state"))
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if denied := r.URL.Query().Get("error"); denied != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", denied))
		WriteError(w, apperror.Unauthorized(apperror.CodeAuthFailed, "GitHub authorization was denied"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		WriteError(w, apperror.ValidationFailed("code", "Missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, err, "GitHub sign-in failed")
		return
	}

	res, err := h.auth.LoginGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, err, "GitHub sign-in failed")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: res.Token})
}

var errGitHubDisabled = &apperror.AppError{
	Err:     apperror.ErrNotFound,
	Message: "GitHub sign-in is not configured",
}
