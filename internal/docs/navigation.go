package docs

import (
	"path"
	"strings"
)

// NavKind discriminates navigation nodes.
type NavKind string

const (
	NavPage   NavKind = "page"
	NavFolder NavKind = "folder"
)

// NavNode is a navigation tree entry: a page link or a folder of entries.
//
// Page nodes use Title and Route. Folder nodes use Title, Name, Path (the
// root-relative directory, which is also its ordering branch key) and Children.
type NavNode struct {
	Kind     NavKind   `json:"kind"`
	Title    string    `json:"title"`
	Route    string    `json:"route,omitempty"`
	Name     string    `json:"name,omitempty"`
	Path     string    `json:"path,omitempty"`
	Children []NavNode `json:"children,omitempty"`
}

// ID returns the stable ordering identifier: the route for pages and
// "folder:<name>" for folders.
func (n NavNode) ID() string {
	if n.Kind == NavFolder {
		return "folder:" + n.Name
	}
	return n.Route
}

type folderBuilder struct {
	name    string
	path    string
	title   string
	entries []*navEntry
	folders map[string]*folderBuilder
}

type navEntry struct {
	page   *Page
	folder *folderBuilder
}

func newFolder(name, dir string) *folderBuilder {
	return &folderBuilder{name: name, path: dir, folders: map[string]*folderBuilder{}}
}

// BuildNavigation builds the navigation tree for pages.
//
// Pages are grouped by the directory of their source file; folders appear at
// the position of their first page in route order. An index or README page
// becomes its folder's first child and lends the folder its title.
func BuildNavigation(pages []Page) []NavNode {
	root := newFolder("", "")

	for i := range pages {
		p := &pages[i]
		dir := path.Dir(p.SourceFile)
		folder := root
		if dir != "." {
			folder = root.descend(strings.Split(dir, "/"))
		}
		if folder != root && indexPriority(p.SourceFile) != priorityOther && folder.title == "" {
			folder.title = p.Title
		}
		folder.entries = append(folder.entries, &navEntry{page: p})
	}

	return root.nodes()
}

func (f *folderBuilder) descend(segments []string) *folderBuilder {
	current := f
	for _, seg := range segments {
		child, ok := current.folders[seg]
		if !ok {
			child = newFolder(seg, path.Join(current.path, seg))
			current.folders[seg] = child
			current.entries = append(current.entries, &navEntry{folder: child})
		}
		current = child
	}
	return current
}

func (f *folderBuilder) nodes() []NavNode {
	out := make([]NavNode, 0, len(f.entries))
	for _, e := range f.entries {
		if e.page != nil {
			out = append(out, NavNode{Kind: NavPage, Title: e.page.Title, Route: e.page.Route})
			continue
		}
		title := e.folder.title
		if title == "" {
			title = Capitalize(e.folder.name)
		}
		out = append(out, NavNode{
			Kind:     NavFolder,
			Title:    title,
			Name:     e.folder.name,
			Path:     e.folder.path,
			Children: e.folder.nodes(),
		})
	}
	return out
}
