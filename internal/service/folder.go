package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/bookmarks/internal/apperror"
	"github.com/sakif/bookmarks/internal/events"
	"github.com/sakif/bookmarks/internal/model"
	"github.com/sakif/bookmarks/internal/repository"
)

const MaxFolderNameLength = 255

type FolderService struct {
	folders repository.FolderRepository
	effects sideEffects
	logger  *slog.Logger
}

func NewFolderService(
	folders repository.FolderRepository,
	cache StructureCache,
	publisher events.Publisher,
	logger *slog.Logger,
) *FolderService {
	return &FolderService{
		folders: folders,
		effects: newSideEffects(cache, publisher, logger),
		logger:  logger,
	}
}

// Create adds a folder for userID. parentID nil puts it at the root;
// otherwise the parent must be one of the caller's own folders.
func (s *FolderService) Create(ctx context.Context, userID int64, name string, parentID *int64) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "Folder name is required")
	}
	if utf8.RuneCountInString(name) > MaxFolderNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("Folder name must be %d characters or less", MaxFolderNameLength))
	}
	if err := checkOwnFolder(ctx, s.folders, userID, parentID, "parentId"); err != nil {
		return nil, err
	}

	f := &model.Folder{Name: name, ParentID: parentID, UserID: userID}
	if err := s.folders.CreateFolder(ctx, f); err != nil {
		s.logger.Error("failed to create folder",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating folder: %w", err)
	}

	s.logger.Info("folder created",
		slog.Int64("id", f.ID),
		slog.Int64("user_id", userID),
	)
	s.effects.changed(ctx, userID, events.New(events.FolderCreated, userID, f.ID).With("name", f.Name))
	return f, nil
}

// Delete removes one of the caller's folders together with everything
// nested inside it.
func (s *FolderService) Delete(ctx context.Context, userID, id int64) error {
	_, err := authorizeOwner(ctx, "Folder", userID,
		func(ctx context.Context) (*model.Folder, error) { return s.folders.GetFolder(ctx, id) },
		func(ctx context.Context) error { return s.folders.DeleteFolder(ctx, id) },
	)
	if err != nil {
		if errors.Is(err, apperror.ErrForbidden) {
			s.logger.Warn("folder delete denied",
				slog.Int64("id", id),
				slog.Int64("user_id", userID),
			)
		}
		return err
	}

	s.logger.Info("folder deleted",
		slog.Int64("id", id),
		slog.Int64("user_id", userID),
	)
	s.effects.changed(ctx, userID, events.New(events.FolderDeleted, userID, id))
	return nil
}

// checkOwnFolder accepts a nil id. A non-nil id must name a folder owned by
// userID; a missing folder and someone else's folder get the same error so
// the response reveals nothing about other accounts.
func checkOwnFolder(ctx context.Context, folders repository.FolderRepository, userID int64, id *int64, field string) error {
	if id == nil {
		return nil
	}
	invalid := apperror.ValidationFailed(field, fmt.Sprintf("%s must reference one of your folders", field))
	if *id <= 0 {
		return invalid
	}

	f, err := folders.GetFolder(ctx, *id)
	if errors.Is(err, apperror.ErrNotFound) {
		return invalid
	}
	if err != nil {
		return err
	}
	if f.UserID != userID {
		return invalid
	}
	return nil
}
