package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/bookmarks/internal/events"
	"github.com/sakif/bookmarks/internal/model"
	"github.com/sakif/bookmarks/internal/netscape"
	"github.com/sakif/bookmarks/internal/repository"
	"github.com/sakif/bookmarks/internal/tree"
)

// ImportResult counts what an import created. Links with a missing or
// unusable URL are skipped rather than failing the whole file.
type ImportResult struct {
	Folders   int `json:"folders"`
	Bookmarks int `json:"bookmarks"`
	Skipped   int `json:"skipped"`
}

// TransferService moves bookmarks in and out as Netscape bookmark files.
type TransferService struct {
	folders   repository.FolderRepository
	bookmarks repository.BookmarkRepository
	effects   sideEffects
	logger    *slog.Logger
}

func NewTransferService(
	folders repository.FolderRepository,
	bookmarks repository.BookmarkRepository,
	cache StructureCache,
	publisher events.Publisher,
	logger *slog.Logger,
) *TransferService {
	return &TransferService{
		folders:   folders,
		bookmarks: bookmarks,
		effects:   newSideEffects(cache, publisher, logger),
		logger:    logger,
	}
}

// Import recreates root's folders and links under the caller's root level.
// Rows are written one at a time; if storage fails part way, what was
// written so far stays and the error is returned.
func (s *TransferService) Import(ctx context.Context, userID int64, root *netscape.Folder) (*ImportResult, error) {
	res := &ImportResult{}
	err := s.importFolder(ctx, userID, nil, root, res)

	if res.Folders > 0 || res.Bookmarks > 0 {
		s.logger.Info("bookmarks imported",
			slog.Int64("user_id", userID),
			slog.Int("folders", res.Folders),
			slog.Int("bookmarks", res.Bookmarks),
			slog.Int("skipped", res.Skipped),
		)
		s.effects.changed(ctx, userID, events.New(events.BookmarksImported, userID, 0).
			With("folders", res.Folders).
			With("bookmarks", res.Bookmarks))
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *TransferService) importFolder(ctx context.Context, userID int64, parentID *int64, src *netscape.Folder, res *ImportResult) error {
	for _, l := range src.Links {
		title := strings.TrimSpace(l.Title)
		if title == "" {
			title = l.URL
		}
		title, rawURL, err := validateBookmark(truncateRunes(title, MaxBookmarkTitleLength), l.URL)
		if err != nil {
			res.Skipped++
			continue
		}
		b := &model.Bookmark{Title: title, URL: rawURL, FolderID: parentID, UserID: userID}
		if err := s.bookmarks.CreateBookmark(ctx, b); err != nil {
			return fmt.Errorf("importing bookmark: %w", err)
		}
		res.Bookmarks++
	}

	for _, sub := range src.Folders {
		name := strings.TrimSpace(sub.Name)
		if name == "" {
			name = "Untitled"
		}
		f := &model.Folder{Name: truncateRunes(name, MaxFolderNameLength), ParentID: parentID, UserID: userID}
		if err := s.folders.CreateFolder(ctx, f); err != nil {
			return fmt.Errorf("importing folder: %w", err)
		}
		res.Folders++

		id := f.ID
		if err := s.importFolder(ctx, userID, &id, sub, res); err != nil {
			return err
		}
	}
	return nil
}

// Export returns the caller's whole tree as a Netscape document root.
func (s *TransferService) Export(ctx context.Context, userID int64) (*netscape.Folder, error) {
	folders, err := s.folders.ListFolders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	bookmarks, err := s.bookmarks.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing bookmarks: %w", err)
	}

	st := tree.Build(folders, bookmarks)
	root := &netscape.Folder{Links: toLinks(st.Bookmarks)}
	for _, n := range st.Folders {
		root.Folders = append(root.Folders, toNetscape(n))
	}
	return root, nil
}

func toNetscape(n *model.FolderNode) *netscape.Folder {
	f := &netscape.Folder{Name: n.Name, AddDate: n.CreatedAt, Links: toLinks(n.Bookmarks)}
	for _, c := range n.Children {
		f.Folders = append(f.Folders, toNetscape(c))
	}
	return f
}

func toLinks(bs []model.Bookmark) []netscape.Link {
	links := make([]netscape.Link, 0, len(bs))
	for _, b := range bs {
		links = append(links, netscape.Link{Title: b.Title, URL: b.URL, AddDate: b.CreatedAt})
	}
	return links
}
