package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sakif/bookmarks/internal/apperror"
	"github.com/sakif/bookmarks/internal/auth"
	"github.com/sakif/bookmarks/internal/events"
	"github.com/sakif/bookmarks/internal/model"
	"github.com/sakif/bookmarks/internal/repository"
)

const MaxUsernameLength = 64

// loginFailedMessage is shared by every login failure so the response never
// tells an unknown username apart from a wrong password.
const loginFailedMessage = "Invalid username or password"

// AuthService registers accounts and exchanges credentials for tokens.
//
//	AuthHandler (HTTP) → AuthService → UserRepository
//	                                 ↘ TokenService, PasswordService
type AuthService struct {
	users               repository.UserRepository
	tokens              *auth.TokenService
	passwords           *auth.PasswordService
	registrationEnabled bool
	effects             sideEffects
	logger              *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	registrationEnabled bool,
	publisher events.Publisher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:               users,
		tokens:              tokens,
		passwords:           passwords,
		registrationEnabled: registrationEnabled,
		effects:             newSideEffects(nil, publisher, logger),
		logger:              logger,
	}
}

// AuthResult bundles the signed-in user with the token issued for them.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a password account.
//
// Order matters: malformed input is reported first, then the registration
// gate, then a taken username. A disabled deployment therefore still tells a
// client its request was malformed.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	if !s.registrationEnabled {
		return nil, apperror.RegistrationDisabled()
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	u := &model.User{Username: username, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to register user", slog.String("error", err.Error()))
		}
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("user_id", u.ID),
		slog.String("username", u.Username),
	)
	s.effects.publish(ctx, events.New(events.UserRegistered, u.ID, u.ID))
	return u, nil
}

// Login checks a username and password and issues a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	u, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, apperror.ErrNotFound) {
		s.passwords.VerifyDummy(password)
		return nil, loginFailed()
	}
	if err != nil {
		return nil, err
	}

	if err := s.passwords.Verify(u.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrMismatch) {
			s.logger.Error("stored password hash is unusable",
				slog.Int64("user_id", u.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, loginFailed()
	}

	return s.issue(u)
}

// LoginGitHub signs in the account linked to a GitHub profile, creating it
// on first use. New accounts are named "gh-<login>" and count as
// registrations, so they honour the registration gate.
func (s *AuthService) LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil || gh.ID == 0 {
		return nil, errors.New("service/auth: GitHub profile is required")
	}

	u, err := s.users.GetUserByGitHubID(ctx, gh.ID)
	if err == nil {
		s.logger.Info("user authenticated via GitHub", slog.Int64("user_id", u.ID))
		return s.issue(u)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	if !s.registrationEnabled {
		return nil, apperror.RegistrationDisabled()
	}

	githubID := gh.ID
	u = &model.User{Username: githubUsername(gh.Login), GitHubID: &githubID}
	err = s.users.CreateUser(ctx, u)
	if errors.Is(err, apperror.ErrConflict) {
		// A password account already owns the name; disambiguate with the
		// immutable GitHub id.
		suffix := "-" + strconv.FormatInt(gh.ID, 10)
		u.Username = truncateRunes(githubUsername(gh.Login), MaxUsernameLength-len(suffix)) + suffix
		err = s.users.CreateUser(ctx, u)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered via GitHub",
		slog.Int64("user_id", u.ID),
		slog.String("username", u.Username),
	)
	s.effects.publish(ctx, events.New(events.UserRegistered, u.ID, u.ID).With("provider", "github"))
	return s.issue(u)
}

func (s *AuthService) issue(u *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(u.ID, u.Username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", u.ID, err)
	}
	return &AuthResult{User: u, Token: token}, nil
}

func validateCredentials(username, password string) error {
	if username == "" || password == "" {
		return apperror.ValidationFailed("username", "username/password required")
	}
	return nil
}

func loginFailed() error {
	return apperror.Unauthorized(apperror.CodeAuthFailed, loginFailedMessage)
}

func githubUsername(login string) string {
	return truncateRunes("gh-"+strings.ToLower(login), MaxUsernameLength)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
