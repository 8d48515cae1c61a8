// Package repository declares the storage contracts used by the service layer.
//
// Services depend on these interfaces only. The concrete backends live in
// the sqlite and mysql sub-packages and are selected at startup by
// internal/storage.
package repository

import (
	"context"
	"errors"

	"github.com/sakif/bookmarks/internal/model"
)

// ErrStorage marks failures raised by a storage backend (connection loss,
// constraint errors we don't translate, scan failures). The HTTP layer
// reports these as DB_ERROR without exposing the underlying message.
var ErrStorage = errors.New("storage failure")

// StorageError wraps a backend error so that it matches both ErrStorage and
// the original cause.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// Failure wraps err as a StorageError for operation op.
func Failure(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// UserRepository reads and writes user accounts.
type UserRepository interface {
	// CreateUser inserts u and fills in ID and CreatedAt.
	// Returns apperror.ErrConflict when the username is taken.
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
}

// FolderRepository reads and writes folders.
type FolderRepository interface {
	CreateFolder(ctx context.Context, f *model.Folder) error
	GetFolder(ctx context.Context, id int64) (*model.Folder, error)
	// ListFolders returns every folder owned by userID ordered by name.
	ListFolders(ctx context.Context, userID int64) ([]model.Folder, error)
	// DeleteFolder removes the folder together with its descendants and
	// their bookmarks. Returns apperror.ErrNotFound when nothing was deleted.
	DeleteFolder(ctx context.Context, id int64) error
}

// BookmarkRepository reads and writes bookmarks.
type BookmarkRepository interface {
	CreateBookmark(ctx context.Context, b *model.Bookmark) error
	GetBookmark(ctx context.Context, id int64) (*model.Bookmark, error)
	// ListBookmarks returns every bookmark owned by userID, newest first.
	ListBookmarks(ctx context.Context, userID int64) ([]model.Bookmark, error)
	DeleteBookmark(ctx context.Context, id int64) error
}

// Store is a complete storage client. It is constructed once at startup,
// injected into every service and closed on shutdown.
type Store interface {
	UserRepository
	FolderRepository
	BookmarkRepository

	Ping(ctx context.Context) error
	Close() error
}
