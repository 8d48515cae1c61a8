package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/bookmarks/internal/apperror"
	"github.com/sakif/bookmarks/internal/netscape"
	"github.com/sakif/bookmarks/internal/service"
)

// maxImportBytes caps uploaded bookmark files. Browser exports of a few
// thousand links stay well under it.
const maxImportBytes = 5 << 20

type TransferService interface {
	Import(ctx context.Context, userID int64, root *netscape.Folder) (*service.ImportResult, error)
	Export(ctx context.Context, userID int64) (*netscape.Folder, error)
}

// TransferHandler moves bookmarks in and out in the Netscape bookmark file
// format every browser can import and export.
type TransferHandler struct {
	transfer TransferService
	logger   *slog.Logger
}

func NewTransferHandler(transfer TransferService, logger *slog.Logger) *TransferHandler {
	return &TransferHandler{transfer: transfer, logger: logger}
}

// HandleImport reads a bookmark file from the raw request body and recreates
// it under the caller's root level.
//
// HTTP: POST /bookmarks/import
func (h *TransferHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	id := mustIdentity(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	root, err := netscape.Parse(r.Body)
	if err != nil {
		var sizeErr *http.MaxBytesError
		if errors.As(err, &sizeErr) {
			WriteError(w, apperror.ValidationFailed("body",
				fmt.Sprintf("Bookmark file must be %d bytes or fewer", sizeErr.Limit)))
			return
		}
		h.logger.Warn("unreadable bookmark file", slog.String("error", err.Error()))
		WriteError(w, apperror.ValidationFailed("body", "Request body is not a bookmark file"))
		return
	}

	res, err := h.transfer.Import(r.Context(), id.UserID, root)
	if err != nil {
		writeError(w, err, "Failed to import bookmarks")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleExport downloads the caller's bookmarks as a bookmark file.
//
// HTTP: GET /export
func (h *TransferHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	id := mustIdentity(r)

	root, err := h.transfer.Export(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err, "Failed to export bookmarks")
		return
	}

	// Render fully before writing so a failure can still become a JSON error.
	var buf bytes.Buffer
	if err := netscape.Write(&buf, root); err != nil {
		writeError(w, err, "Failed to export bookmarks")
		return
	}

	filename := fmt.Sprintf("bookmarks-%s.html", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("export write failed", slog.String("error", err.Error()))
	}
}
