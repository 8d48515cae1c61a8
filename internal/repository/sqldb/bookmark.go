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

func (s *Store) CreateBookmark(ctx context.Context, b *model.Bookmark) error {
	b.CreatedAt = now()

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO bookmarks (title, url, folder_id, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		b.Title,
		b.URL,
		idArg(b.FolderID),
		b.UserID,
		b.CreatedAt,
	)
	if err != nil {
		return repository.Failure(s.dialect.Name+": creating bookmark", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return repository.Failure(s.dialect.Name+": reading bookmark id", err)
	}
	b.ID = id
	return nil
}

func (s *Store) GetBookmark(ctx context.Context, id int64) (*model.Bookmark, error) {
	var (
		b        model.Bookmark
		folderID sql.NullInt64
	)
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, title, url, folder_id, user_id, created_at FROM bookmarks WHERE id = ?`,
		id,
	).Scan(&b.ID, &b.Title, &b.URL, &folderID, &b.UserID, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("bookmark", id)
	}
	if err != nil {
		return nil, repository.Failure(fmt.Sprintf("%s: getting bookmark %d", s.dialect.Name, id), err)
	}
	b.FolderID = nullableID(folderID)
	return &b, nil
}

// ListBookmarks returns newest first; id breaks ties between rows created
// within the same microsecond.
func (s *Store) ListBookmarks(ctx context.Context, userID int64) ([]model.Bookmark, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, title, url, folder_id, user_id, created_at
		 FROM bookmarks
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, repository.Failure(s.dialect.Name+": listing bookmarks", err)
	}
	defer rows.Close()

	bookmarks := []model.Bookmark{}
	for rows.Next() {
		var (
			b        model.Bookmark
			folderID sql.NullInt64
		)
		if err := rows.Scan(&b.ID, &b.Title, &b.URL, &folderID, &b.UserID, &b.CreatedAt); err != nil {
			return nil, repository.Failure(s.dialect.Name+": scanning bookmark row", err)
		}
		b.FolderID = nullableID(folderID)
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.Failure(s.dialect.Name+": iterating bookmarks", err)
	}
	return bookmarks, nil
}

func (s *Store) DeleteBookmark(ctx context.Context, id int64) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return repository.Failure(fmt.Sprintf("%s: deleting bookmark %d", s.dialect.Name, id), err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return repository.Failure(s.dialect.Name+": checking rows affected", err)
	}
	if n == 0 {
		return apperror.NotFound("bookmark", id)
	}
	return nil
}
