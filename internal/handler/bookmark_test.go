package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/sakif/bookmarks/internal/handler"
	"github.com/sakif/bookmarks/internal/model"
	"github.com/sakif/bookmarks/internal/repository"
)

func mountBookmarks(h *handler.BookmarkHandler) func(chi.Router) {
	return func(r chi.Router) {
		r.With(asUser(100, "alice")).Post("/bookmarks", h.HandleCreate)
		r.With(asUser(100, "alice")).Delete("/bookmarks/{id}", h.HandleDelete)
	}
}

func TestBookmarkHandler_HandleCreate(t *testing.T) {
	t.Run("created at root", func(t *testing.T) {
		fake := &fakeBookmarks{bookmark: &model.Bookmark{ID: 1, Title: "Go", URL: "https://go.dev", UserID: 100, CreatedAt: fixedTime}}
		h := handler.NewBookmarkHandler(fake, discardLogger)

		rr := serve(t, mountBookmarks(h), http.MethodPost, "/bookmarks", `{"title":"Go","url":"https://go.dev"}`)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "Go", fake.gotTitle)
		assert.Equal(t, "https://go.dev", fake.gotURL)
		assert.Nil(t, fake.gotFolder)
		assert.JSONEq(t,
			`{"id":1,"title":"Go","url":"https://go.dev","folderId":null,"userId":100,"createdAt":"2024-05-01T12:00:00Z"}`,
			rr.Body.String())
	})

	t.Run("storage failure is DB_ERROR", func(t *testing.T) {
		fake := &fakeBookmarks{err: repository.Failure("CreateBookmark", errors.New("database is locked"))}
		h := handler.NewBookmarkHandler(fake, discardLogger)

		rr := serve(t, mountBookmarks(h), http.MethodPost, "/bookmarks", `{"title":"Go","url":"https://go.dev"}`)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"error":"Failed to create bookmark","code":"DB_ERROR"}`, rr.Body.String())
	})
}

func TestBookmarkHandler_HandleDelete(t *testing.T) {
	fake := &fakeBookmarks{}
	h := handler.NewBookmarkHandler(fake, discardLogger)

	rr := serve(t, mountBookmarks(h), http.MethodDelete, "/bookmarks/42", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Bookmark deleted successfully"}`, rr.Body.String())
	assert.Equal(t, int64(100), fake.gotUserID)
	assert.Equal(t, int64(42), fake.gotID)
}
