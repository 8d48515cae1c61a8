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

func (s *Store) CreateFolder(ctx context.Context, f *model.Folder) error {
	f.CreatedAt = now()

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO folders (name, parent_id, user_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		f.Name,
		idArg(f.ParentID),
		f.UserID,
		f.CreatedAt,
	)
	if err != nil {
		return repository.Failure(s.dialect.Name+": creating folder", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return repository.Failure(s.dialect.Name+": reading folder id", err)
	}
	f.ID = id
	return nil
}

func (s *Store) GetFolder(ctx context.Context, id int64) (*model.Folder, error) {
	var (
		f        model.Folder
		parentID sql.NullInt64
	)
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, name, parent_id, user_id, created_at FROM folders WHERE id = ?`,
		id,
	).Scan(&f.ID, &f.Name, &parentID, &f.UserID, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("folder", id)
	}
	if err != nil {
		return nil, repository.Failure(fmt.Sprintf("%s: getting folder %d", s.dialect.Name, id), err)
	}
	f.ParentID = nullableID(parentID)
	return &f, nil
}

// ListFolders orders by name with id as a tie-breaker so that sibling order
// is stable across calls.
func (s *Store) ListFolders(ctx context.Context, userID int64) ([]model.Folder, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, parent_id, user_id, created_at
		 FROM folders
		 WHERE user_id = ?
		 ORDER BY name, id`,
		userID,
	)
	if err != nil {
		return nil, repository.Failure(s.dialect.Name+": listing folders", err)
	}
	defer rows.Close()

	folders := []model.Folder{}
	for rows.Next() {
		var (
			f        model.Folder
			parentID sql.NullInt64
		)
		if err := rows.Scan(&f.ID, &f.Name, &parentID, &f.UserID, &f.CreatedAt); err != nil {
			return nil, repository.Failure(s.dialect.Name+": scanning folder row", err)
		}
		f.ParentID = nullableID(parentID)
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.Failure(s.dialect.Name+": iterating folders", err)
	}
	return folders, nil
}

// DeleteFolder relies on ON DELETE CASCADE for child folders and bookmarks.
// Zero affected rows means the folder vanished after the caller looked it
// up; that is reported as not found, not as a failure.
func (s *Store) DeleteFolder(ctx context.Context, id int64) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return repository.Failure(fmt.Sprintf("%s: deleting folder %d", s.dialect.Name, id), err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return repository.Failure(s.dialect.Name+": checking rows affected", err)
	}
	if n == 0 {
		return apperror.NotFound("folder", id)
	}
	return nil
}
