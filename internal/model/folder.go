package model

import "time"

// Folder is a named container owned by one user.
// ParentID nil means the folder sits at the root level.
type Folder struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ParentID  *int64    `json:"parentId"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Bookmark is a titled URL owned by one user.
// FolderID nil means the bookmark sits at the root level.
type Bookmark struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	FolderID  *int64    `json:"folderId"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// FolderNode is a Folder decorated with its direct children and bookmarks.
// It is rebuilt on every read and never persisted.
//
// Children holds pointers so nesting can be assembled in a single pass:
// a node appended to its parent keeps receiving its own children afterwards.
type FolderNode struct {
	Folder
	Children  []*FolderNode `json:"children"`
	Bookmarks []Bookmark    `json:"bookmarks"`
}

// Structure is one user's complete hierarchy: top-level folders plus the
// bookmarks that are not inside any folder.
type Structure struct {
	Folders   []*FolderNode `json:"folders"`
	Bookmarks []Bookmark    `json:"bookmarks"`
}

func (f *Folder) OwnerID() int64   { return f.UserID }
func (b *Bookmark) OwnerID() int64 { return b.UserID }
