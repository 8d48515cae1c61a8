package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/bookmarks/internal/apperror"
	"github.com/sakif/bookmarks/internal/model"
	"github.com/sakif/bookmarks/internal/repository"
)

const userColumns = `id, username, password_hash, github_id, created_at`

// CreateUser inserts a new account. The username UNIQUE constraint is the
// only uniqueness check: a lookup-then-insert would race with concurrent
// registrations.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	u.CreatedAt = now()

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, github_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		u.Username,
		u.PasswordHash,
		idArg(u.GitHubID),
		u.CreatedAt,
	)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return apperror.Conflict("username", u.Username)
		}
		return repository.Failure(s.dialect.Name+": creating user", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return repository.Failure(s.dialect.Name+": reading user id", err)
	}
	u.ID = id
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, repository.Failure(fmt.Sprintf("%s: getting user %d", s.dialect.Name, id), err)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("user %q not found", username),
		}
	}
	if err != nil {
		return nil, repository.Failure(s.dialect.Name+": getting user by username", err)
	}
	return u, nil
}

func (s *Store) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ?`, githubID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("user not found with github id %d", githubID),
		}
	}
	if err != nil {
		return nil, repository.Failure(s.dialect.Name+": getting user by github id", err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &githubID, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.GitHubID = nullableID(githubID)
	return &u, nil
}
