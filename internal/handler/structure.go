package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/bookmarks/internal/model"
)

type StructureService interface {
	Get(ctx context.Context, userID int64) (model.Structure, error)
}

type StructureHandler struct {
	structure StructureService
	logger    *slog.Logger
}

func NewStructureHandler(structure StructureService, logger *slog.Logger) *StructureHandler {
	return &StructureHandler{structure: structure, logger: logger}
}

// HandleGet returns a user's folder tree and root-level bookmarks. The
// route is public; an id with no data yields empty lists.
//
// HTTP: GET /users/{id}/structure
func (h *StructureHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	structure, err := h.structure.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err, "Failed to retrieve user structure")
		return
	}
	writeJSON(w, http.StatusOK, structure)
}
