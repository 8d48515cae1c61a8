package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sakif/bookmarks/internal/apperror"
	"github.com/sakif/bookmarks/internal/events"
	"github.com/sakif/bookmarks/internal/model"
	"github.com/sakif/bookmarks/internal/repository"
)

const (
	MaxBookmarkTitleLength = 500
	MaxBookmarkURLLength   = 2048
)

type BookmarkService struct {
	bookmarks repository.BookmarkRepository
	folders   repository.FolderRepository
	effects   sideEffects
	logger    *slog.Logger
}

func NewBookmarkService(
	bookmarks repository.BookmarkRepository,
	folders repository.FolderRepository,
	cache StructureCache,
	publisher events.Publisher,
	logger *slog.Logger,
) *BookmarkService {
	return &BookmarkService{
		bookmarks: bookmarks,
		folders:   folders,
		effects:   newSideEffects(cache, publisher, logger),
		logger:    logger,
	}
}

// Create saves a bookmark for userID, at the root when folderID is nil.
func (s *BookmarkService) Create(ctx context.Context, userID int64, title, rawURL string, folderID *int64) (*model.Bookmark, error) {
	title, rawURL, err := validateBookmark(title, rawURL)
	if err != nil {
		return nil, err
	}
	if err := checkOwnFolder(ctx, s.folders, userID, folderID, "folderId"); err != nil {
		return nil, err
	}

	b := &model.Bookmark{Title: title, URL: rawURL, FolderID: folderID, UserID: userID}
	if err := s.bookmarks.CreateBookmark(ctx, b); err != nil {
		s.logger.Error("failed to create bookmark",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating bookmark: %w", err)
	}

	s.logger.Info("bookmark created",
		slog.Int64("id", b.ID),
		slog.Int64("user_id", userID),
	)
	s.effects.changed(ctx, userID, events.New(events.BookmarkCreated, userID, b.ID).With("url", b.URL))
	return b, nil
}

func (s *BookmarkService) Delete(ctx context.Context, userID, id int64) error {
	_, err := authorizeOwner(ctx, "Bookmark", userID,
		func(ctx context.Context) (*model.Bookmark, error) { return s.bookmarks.GetBookmark(ctx, id) },
		func(ctx context.Context) error { return s.bookmarks.DeleteBookmark(ctx, id) },
	)
	if err != nil {
		if errors.Is(err, apperror.ErrForbidden) {
			s.logger.Warn("bookmark delete denied",
				slog.Int64("id", id),
				slog.Int64("user_id", userID),
			)
		}
		return err
	}

	s.logger.Info("bookmark deleted",
		slog.Int64("id", id),
		slog.Int64("user_id", userID),
	)
	s.effects.changed(ctx, userID, events.New(events.BookmarkDeleted, userID, id))
	return nil
}

// validateBookmark trims and checks a title and URL. The URL must be
// absolute: a scheme plus either a host or an opaque part (mailto:, etc).
func validateBookmark(title, rawURL string) (string, string, error) {
	title = strings.TrimSpace(title)
	rawURL = strings.TrimSpace(rawURL)

	if title == "" || rawURL == "" {
		return "", "", apperror.ValidationFailed("title", "Bookmark title and URL are required")
	}
	if utf8.RuneCountInString(title) > MaxBookmarkTitleLength {
		return "", "", apperror.ValidationFailed("title",
			fmt.Sprintf("Bookmark title must be %d characters or less", MaxBookmarkTitleLength))
	}
	if len(rawURL) > MaxBookmarkURLLength {
		return "", "", apperror.ValidationFailed("url",
			fmt.Sprintf("Bookmark URL must be %d characters or less", MaxBookmarkURLLength))
	}

	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || (u.Host == "" && u.Opaque == "") {
		return "", "", apperror.ValidationFailed("url", "Bookmark URL must be an absolute URL")
	}
	return title, rawURL, nil
}
