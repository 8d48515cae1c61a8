package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/sakif/bookmarks/internal/apperror"
	"github.com/sakif/bookmarks/internal/auth"
	"github.com/sakif/bookmarks/internal/events"
	"github.com/sakif/bookmarks/internal/model"
	"github.com/sakif/bookmarks/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeStore is an in-memory repository.Store. Set err to make every call
// fail, or one of the narrower fields to fail a single operation.
type fakeStore struct {
	users     map[int64]*model.User
	folders   map[int64]*model.Folder
	bookmarks map[int64]*model.Bookmark
	nextID    int64

	err          error
	createErr    error
	deleteErr    error // returned by DeleteFolder / DeleteBookmark
	createCalls  int
	deleteCalls  int
	lookupsByKey map[string]int
}

var errDiskFull = repository.Failure("insert", errors.New("disk full"))

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[int64]*model.User{},
		folders:      map[int64]*model.Folder{},
		bookmarks:    map[int64]*model.Bookmark{},
		lookupsByKey: map[string]int{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateUser(_ context.Context, u *model.User) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return apperror.Conflict("username", u.Username)
		}
	}
	u.ID = f.id()
	u.CreatedAt = time.Now().UTC()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	f.lookupsByKey["username:"+username]++
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (f *fakeStore) GetUserByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.GitHubID != nil && *u.GitHubID == githubID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (f *fakeStore) CreateFolder(_ context.Context, folder *model.Folder) error {
	f.createCalls++
	if f.err != nil {
		return f.err
	}
	if f.createErr != nil {
		return f.createErr
	}
	folder.ID = f.id()
	folder.CreatedAt = time.Now().UTC()
	cp := *folder
	f.folders[folder.ID] = &cp
	return nil
}

func (f *fakeStore) GetFolder(_ context.Context, id int64) (*model.Folder, error) {
	if f.err != nil {
		return nil, f.err
	}
	if folder, ok := f.folders[id]; ok {
		cp := *folder
		return &cp, nil
	}
	return nil, apperror.NotFound("folder", id)
}

func (f *fakeStore) ListFolders(_ context.Context, userID int64) ([]model.Folder, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Folder{}
	for _, folder := range f.folders {
		if folder.UserID == userID {
			out = append(out, *folder)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) DeleteFolder(_ context.Context, id int64) error {
	f.deleteCalls++
	if f.err != nil {
		return f.err
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.folders[id]; !ok {
		return apperror.NotFound("folder", id)
	}
	f.cascade(id)
	return nil
}

func (f *fakeStore) cascade(id int64) {
	delete(f.folders, id)
	for bid, b := range f.bookmarks {
		if b.FolderID != nil && *b.FolderID == id {
			delete(f.bookmarks, bid)
		}
	}
	for cid, c := range f.folders {
		if c.ParentID != nil && *c.ParentID == id {
			f.cascade(cid)
		}
	}
}

func (f *fakeStore) CreateBookmark(_ context.Context, b *model.Bookmark) error {
	f.createCalls++
	if f.err != nil {
		return f.err
	}
	if f.createErr != nil {
		return f.createErr
	}
	b.ID = f.id()
	b.CreatedAt = time.Now().UTC()
	cp := *b
	f.bookmarks[b.ID] = &cp
	return nil
}

func (f *fakeStore) GetBookmark(_ context.Context, id int64) (*model.Bookmark, error) {
	if f.err != nil {
		return nil, f.err
	}
	if b, ok := f.bookmarks[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, apperror.NotFound("bookmark", id)
}

func (f *fakeStore) ListBookmarks(_ context.Context, userID int64) ([]model.Bookmark, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Bookmark{}
	for _, b := range f.bookmarks {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) DeleteBookmark(_ context.Context, id int64) error {
	f.deleteCalls++
	if f.err != nil {
		return f.err
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.bookmarks[id]; !ok {
		return apperror.NotFound("bookmark", id)
	}
	delete(f.bookmarks, id)
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return f.err }
func (f *fakeStore) Close() error               { return nil }

var _ repository.Store = (*fakeStore)(nil)

// seedFolder inserts a folder directly, bypassing the service.
func (f *fakeStore) seedFolder(userID int64, name string, parentID *int64) int64 {
	id := f.id()
	f.folders[id] = &model.Folder{ID: id, Name: name, ParentID: parentID, UserID: userID}
	return id
}

func (f *fakeStore) seedBookmark(userID int64, title string, folderID *int64) int64 {
	id := f.id()
	f.bookmarks[id] = &model.Bookmark{ID: id, Title: title, URL: "https://example.com/" + title, FolderID: folderID, UserID: userID}
	return id
}

// fakeCache keeps entries per (user, generation) like cache.Structure,
// records invalidations and can be told to fail.
type fakeCache struct {
	entries     map[int64]model.Structure // current generation only
	gens        map[int64]int64
	invalidated []int64
	err         error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[int64]model.Structure{}, gens: map[int64]int64{}}
}

func (c *fakeCache) Get(_ context.Context, userID int64) (model.Structure, int64, bool, error) {
	if c.err != nil {
		return model.Structure{}, 0, false, c.err
	}
	s, ok := c.entries[userID]
	return s, c.gens[userID], ok, nil
}

func (c *fakeCache) Set(_ context.Context, userID, gen int64, s model.Structure) error {
	if c.err != nil {
		return c.err
	}
	if gen == c.gens[userID] {
		c.entries[userID] = s
	}
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, userID int64) error {
	c.invalidated = append(c.invalidated, userID)
	c.gens[userID]++
	delete(c.entries, userID)
	return c.err
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func ptr(v int64) *int64 { return &v }
