package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/bookmarks/internal/model"
	"github.com/sakif/bookmarks/internal/repository"
	"github.com/sakif/bookmarks/internal/tree"
)

// StructureService serves a user's complete folder tree.
type StructureService struct {
	folders   repository.FolderRepository
	bookmarks repository.BookmarkRepository
	cache     StructureCache
	logger    *slog.Logger
}

func NewStructureService(
	folders repository.FolderRepository,
	bookmarks repository.BookmarkRepository,
	cache StructureCache,
	logger *slog.Logger,
) *StructureService {
	if cache == nil {
		cache = NoCache{}
	}
	return &StructureService{folders: folders, bookmarks: bookmarks, cache: cache, logger: logger}
}

// Get returns userID's tree. An unknown user simply has an empty tree.
// Cache failures are logged and the tree is rebuilt from storage; the cache
// is only filled when its generation could be read.
func (s *StructureService) Get(ctx context.Context, userID int64) (model.Structure, error) {
	cached, gen, ok, err := s.cache.Get(ctx, userID)
	fill := err == nil
	if err != nil {
		s.logger.Warn("structure cache read failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	} else if ok {
		return cached, nil
	}

	st, err := s.load(ctx, userID)
	if err != nil {
		return model.Structure{}, err
	}

	if fill {
		if err := s.cache.Set(ctx, userID, gen, st); err != nil {
			s.logger.Warn("structure cache write failed",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}
	return st, nil
}

func (s *StructureService) load(ctx context.Context, userID int64) (model.Structure, error) {
	folders, err := s.folders.ListFolders(ctx, userID)
	if err != nil {
		return model.Structure{}, fmt.Errorf("listing folders: %w", err)
	}
	bookmarks, err := s.bookmarks.ListBookmarks(ctx, userID)
	if err != nil {
		return model.Structure{}, fmt.Errorf("listing bookmarks: %w", err)
	}
	return tree.Build(folders, bookmarks), nil
}
