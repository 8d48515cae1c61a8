package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/bookmarks/internal/model"
)

type BookmarkService interface {
	Create(ctx context.Context, userID int64, title, rawURL string, folderID *int64) (*model.Bookmark, error)
	Delete(ctx context.Context, userID, id int64) error
}

type BookmarkHandler struct {
	bookmarks BookmarkService
	logger    *slog.Logger
}

func NewBookmarkHandler(bookmarks BookmarkService, logger *slog.Logger) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks, logger: logger}
}

type createBookmarkRequest struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	FolderID *int64 `json:"folderId"`
}

// HandleCreate saves a bookmark, optionally inside one of the caller's
// folders.
//
// HTTP: POST /bookmarks
// REQUEST BODY: {"title": "Go", "url": "https://go.dev", "folderId": 3}
func (h *BookmarkHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id := mustIdentity(r)

	var req createBookmarkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	bookmark, err := h.bookmarks.Create(r.Context(), id.UserID, req.Title, req.URL, req.FolderID)
	if err != nil {
		writeError(w, err, "Failed to create bookmark")
		return
	}
	writeJSON(w, http.StatusCreated, bookmark)
}

// HandleDelete removes one of the caller's bookmarks.
//
// HTTP: DELETE /bookmarks/{id}
func (h *BookmarkHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := mustIdentity(r)

	bookmarkID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.bookmarks.Delete(r.Context(), id.UserID, bookmarkID); err != nil {
		writeError(w, err, "Failed to delete bookmark")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Bookmark deleted successfully"})
}
