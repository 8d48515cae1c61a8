// Package tree assembles a user's flat folder and bookmark rows into the
// nested Structure served by the API.
//
// Build is a pure function: it performs no I/O, never mutates its inputs and
// is safe to call from any goroutine. It runs in O(F+B) time and space.
package tree

import "github.com/sakif/bookmarks/internal/model"

// resolution states used while walking parent chains
const (
	unvisited uint8 = iota
	visiting
	resolved
)

// Build reconstructs the folder hierarchy for one user.
//
// Placement rules:
//   - a folder whose parent is nil or not present in folders is top-level
//   - a bookmark whose folder is nil or not present in folders is a root bookmark
//   - siblings keep the relative order they had in the input slices
//
// Parent chains that loop back on themselves are cut where the loop is first
// detected: the folder that is re-entered while its own chain is still being
// resolved becomes top-level. Every input folder and bookmark therefore
// appears exactly once, and the result is always a finite tree.
//
// When two folders share an id, the first one wins and the rest are ignored.
func Build(folders []model.Folder, bookmarks []model.Bookmark) model.Structure {
	nodes := make(map[int64]*model.FolderNode, len(folders))
	order := make([]*model.FolderNode, 0, len(folders))

	for _, f := range folders {
		if _, dup := nodes[f.ID]; dup {
			continue
		}
		f.ParentID = cloneID(f.ParentID)
		n := &model.FolderNode{
			Folder:    f,
			Children:  []*model.FolderNode{},
			Bookmarks: []model.Bookmark{},
		}
		nodes[f.ID] = n
		order = append(order, n)
	}

	lookup := func(n *model.FolderNode) *model.FolderNode {
		if n.ParentID == nil {
			return nil
		}
		return nodes[*n.ParentID]
	}

	parent := make(map[*model.FolderNode]*model.FolderNode, len(order))
	state := make(map[*model.FolderNode]uint8, len(order))

	for _, start := range order {
		var path []*model.FolderNode
		for cur := start; cur != nil && state[cur] == unvisited; {
			state[cur] = visiting
			path = append(path, cur)

			p := lookup(cur)
			parent[cur] = p
			if p != nil && state[p] == visiting {
				// p is already on this walk, so the chain is a loop.
				parent[p] = nil
				break
			}
			cur = p
		}
		for _, n := range path {
			state[n] = resolved
		}
	}

	s := model.Structure{
		Folders:   []*model.FolderNode{},
		Bookmarks: []model.Bookmark{},
	}

	for _, n := range order {
		if p := parent[n]; p != nil {
			p.Children = append(p.Children, n)
		} else {
			s.Folders = append(s.Folders, n)
		}
	}

	for _, b := range bookmarks {
		b.FolderID = cloneID(b.FolderID)
		if b.FolderID != nil {
			if n, ok := nodes[*b.FolderID]; ok {
				n.Bookmarks = append(n.Bookmarks, b)
				continue
			}
		}
		s.Bookmarks = append(s.Bookmarks, b)
	}

	return s
}

// Walk visits every folder node depth-first, parents before children.
// depth is 0 for top-level folders.
func Walk(s model.Structure, fn func(n *model.FolderNode, depth int)) {
	var visit func(nodes []*model.FolderNode, depth int)
	visit = func(nodes []*model.FolderNode, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			visit(n.Children, depth+1)
		}
	}
	visit(s.Folders, 0)
}

// Count returns how many folders and bookmarks s contains at any depth.
func Count(s model.Structure) (folders, bookmarks int) {
	bookmarks = len(s.Bookmarks)
	Walk(s, func(n *model.FolderNode, _ int) {
		folders++
		bookmarks += len(n.Bookmarks)
	})
	return folders, bookmarks
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
