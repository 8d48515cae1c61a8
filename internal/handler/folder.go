package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/bookmarks/internal/auth"
	"github.com/sakif/bookmarks/internal/model"
)

// FolderService is the part of service.FolderService the handler needs.
type FolderService interface {
	Create(ctx context.Context, userID int64, name string, parentID *int64) (*model.Folder, error)
	Delete(ctx context.Context, userID, id int64) error
}

// FolderHandler serves folder creation and deletion. Both routes sit behind
// auth.RequireAuth, so the caller's identity is always in the context.
type FolderHandler struct {
	folders FolderService
	logger  *slog.Logger
}

func NewFolderHandler(folders FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{folders: folders, logger: logger}
}

type createFolderRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parentId"`
}

// HandleCreate creates a folder for the caller.
//
// HTTP: POST /folders
// REQUEST BODY: {"name": "Work", "parentId": null}
func (h *FolderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id := mustIdentity(r)

	var req createFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	folder, err := h.folders.Create(r.Context(), id.UserID, req.Name, req.ParentID)
	if err != nil {
		writeError(w, err, "Failed to create folder")
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

// HandleDelete removes one of the caller's folders along with everything
// inside it.
//
// HTTP: DELETE /folders/{id}
func (h *FolderHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := mustIdentity(r)

	folderID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.folders.Delete(r.Context(), id.UserID, folderID); err != nil {
		writeError(w, err, "Failed to delete folder")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Folder deleted successfully"})
}

// mustIdentity reads the identity placed by auth.RequireAuth. A route
// mounted without that middleware is a wiring bug.
func mustIdentity(r *http.Request) *auth.Identity {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		panic("handler: route requires auth.RequireAuth")
	}
	return id
}
