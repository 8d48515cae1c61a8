package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/bookmarks/internal/auth"
	"github.com/sakif/bookmarks/internal/model"
	"github.com/sakif/bookmarks/internal/netscape"
	"github.com/sakif/bookmarks/internal/service"
)

// =============================================================================
// Service fakes
// =============================================================================

type fakeFolders struct {
	gotUserID int64
	gotName   string
	gotParent *int64
	gotID     int64
	folder    *model.Folder
	err       error
}

func (f *fakeFolders) Create(_ context.Context, userID int64, name string, parentID *int64) (*model.Folder, error) {
	f.gotUserID, f.gotName, f.gotParent = userID, name, parentID
	if f.err != nil {
		return nil, f.err
	}
	return f.folder, nil
}

func (f *fakeFolders) Delete(_ context.Context, userID, id int64) error {
	f.gotUserID, f.gotID = userID, id
	return f.err
}

type fakeBookmarks struct {
	gotUserID int64
	gotTitle  string
	gotURL    string
	gotFolder *int64
	gotID     int64
	bookmark  *model.Bookmark
	err       error
}

func (f *fakeBookmarks) Create(_ context.Context, userID int64, title, rawURL string, folderID *int64) (*model.Bookmark, error) {
	f.gotUserID, f.gotTitle, f.gotURL, f.gotFolder = userID, title, rawURL, folderID
	if f.err != nil {
		return nil, f.err
	}
	return f.bookmark, nil
}

func (f *fakeBookmarks) Delete(_ context.Context, userID, id int64) error {
	f.gotUserID, f.gotID = userID, id
	return f.err
}

type fakeStructure struct {
	gotUserID int64
	structure model.Structure
	err       error
}

func (f *fakeStructure) Get(_ context.Context, userID int64) (model.Structure, error) {
	f.gotUserID = userID
	return f.structure, f.err
}

type fakeAuth struct {
	user   *model.User
	result *service.AuthResult
	err    error
	gotGH  *auth.GitHubUser
}

func (f *fakeAuth) Register(context.Context, string, string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeAuth) Login(context.Context, string, string) (*service.AuthResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAuth) LoginGitHub(_ context.Context, gh *auth.GitHubUser) (*service.AuthResult, error) {
	f.gotGH = gh
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeGitHub struct {
	user *auth.GitHubUser
	err  error
}

func (f *fakeGitHub) AuthURL(state string) string {
	return "https://github.example/login/oauth/authorize?state=" + state
}

func (f *fakeGitHub) Exchange(context.Context, string) (*auth.GitHubUser, error) {
	return f.user, f.err
}

type fakeTransfer struct {
	imported *netscape.Folder
	result   *service.ImportResult
	export   *netscape.Folder
	err      error
}

func (f *fakeTransfer) Import(_ context.Context, _ int64, root *netscape.Folder) (*service.ImportResult, error) {
	f.imported = root
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeTransfer) Export(context.Context, int64) (*netscape.Folder, error) {
	return f.export, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

// =============================================================================
// Helpers
// =============================================================================

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func ptr(v int64) *int64 { return &v }

// asUser injects an identity the way auth.RequireAuth does.
func asUser(id int64, username string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.WithIdentity(r.Context(), &auth.Identity{UserID: id, Username: username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// serve runs a single request through a chi router so URL params resolve.
func serve(t *testing.T, mount func(chi.Router), method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	mount(r)

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}
