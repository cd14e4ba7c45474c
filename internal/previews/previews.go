package previews

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/prev/internal/logfields"
)

const (
	// Dir is the folder under the project root holding preview sources.
	Dir = "previews"

	// RoutePrefix prefixes every preview route.
	RoutePrefix = "/_preview/"

	// ArtifactFile is the file name of a built preview.
	ArtifactFile = "index.html"
)

// entryPriority lists the preferred entry file names, best first.
var entryPriority = []string{"App.tsx", "App.jsx", "index.tsx", "index.jsx", "main.tsx", "main.jsx"}

// Preview is one isolated component demo.
type Preview struct {
	Name  string   `json:"name"`
	Route string   `json:"route"`
	Entry string   `json:"entry,omitempty"`
	Files []string `json:"files,omitempty"` // Relative to the preview folder

	Dir          string `json:"-"`
	ArtifactPath string `json:"-"`
}

// Route returns the route of the named preview.
func Route(name string) string {
	return RoutePrefix + name
}

// Scan discovers source previews under rootDir/previews.
//
// A folder is a preview when it directly contains one of the preferred entry
// files. Nested folders keep their separators in the name (card/variants).
// A missing previews directory yields an empty list.
func Scan(rootDir string) ([]Preview, error) {
	base := filepath.Join(rootDir, Dir)
	if !isDir(base) {
		return []Preview{}, nil
	}

	var out []Preview
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("Skipping unreadable preview path", logfields.Path(p), logfields.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == "node_modules" {
			return filepath.SkipDir
		}
		if p == base {
			return nil
		}
		if !hasPreferredEntry(p) {
			return nil
		}

		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		files, err := listFiles(p)
		if err != nil {
			slog.Warn("Skipping preview", logfields.Preview(name), logfields.Error(err))
			return nil
		}
		out = append(out, Preview{
			Name:  name,
			Route: Route(name),
			Entry: selectEntry(files),
			Files: files,
			Dir:   p,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPreviewsWalkFailed, base, err)
	}

	sortByName(out)
	slog.Debug("Previews discovered", logfields.Path(base), logfields.Count(len(out)))
	return ensureSlice(out), nil
}

// ScanArtifacts discovers built previews: every index.html below dir, named
// by its folder path relative to dir.
func ScanArtifacts(dir string) ([]Preview, error) {
	if !isDir(dir) {
		return []Preview{}, nil
	}

	var out []Preview
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != ArtifactFile {
			return nil
		}

		rel, err := filepath.Rel(dir, filepath.Dir(p))
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if name == "." {
			name = filepath.Base(dir)
		}
		out = append(out, Preview{
			Name:         name,
			Route:        Route(name),
			Dir:          filepath.Dir(p),
			ArtifactPath: p,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPreviewsWalkFailed, dir, err)
	}

	sortByName(out)
	return ensureSlice(out), nil
}

// FindByName returns the preview with name.
func FindByName(list []Preview, name string) (Preview, bool) {
	for _, p := range list {
		if p.Name == name {
			return p, true
		}
	}
	return Preview{}, false
}

func hasPreferredEntry(dir string) bool {
	for _, name := range entryPriority {
		if st, err := os.Stat(filepath.Join(dir, name)); err == nil && !st.IsDir() {
			return true
		}
	}
	return false
}

// selectEntry picks the entry among slash-separated relative paths, which
// must be sorted.
func selectEntry(files []string) string {
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f] = true
	}
	for _, name := range entryPriority {
		if present[name] {
			return name
		}
	}
	for _, exts := range [][]string{{".tsx", ".jsx"}, {".ts", ".js"}} {
		for _, f := range files {
			ext := path.Ext(f)
			if ext == exts[0] || ext == exts[1] {
				return f
			}
		}
	}
	return ""
}

func sortByName(list []Preview) {
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
}

func ensureSlice(list []Preview) []Preview {
	if list == nil {
		return []Preview{}
	}
	return list
}

func isDir(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}
