package docs

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	derrors "git.home.luguber.info/inful/prev/internal/docs/errors"
	"git.home.luguber.info/inful/prev/internal/frontmatter"
	"git.home.luguber.info/inful/prev/internal/logfields"
)

// Page is one documentation unit resolved from a Markdown/MDX source file.
type Page struct {
	Route       string          `json:"route"`
	Title       string          `json:"title"`
	SourceFile  string          `json:"file"` // Slash-separated, relative to the scan root
	Description string          `json:"description,omitempty"`
	Frontmatter frontmatter.Map `json:"frontmatter,omitempty"`
	Hidden      bool            `json:"hidden,omitempty"`
}

// ScanOptions tunes which directories are eligible.
type ScanOptions struct {
	// Include opts dot-prefixed directories into the scan, by name or root-relative path.
	Include []string
}

// excludedDirs never contain documentation pages.
var excludedDirs = map[string]bool{
	"node_modules": true,
	"dist":         true,
	".cache":       true,
	"previews":     true,
}

type resolved struct {
	page     Page
	priority int
}

// Scan walks rootDir for .md/.mdx pages and resolves them to routes.
//
// A missing root yields an empty list. Files that cannot be read are skipped
// with a warning. The result is sorted by route.
func Scan(rootDir string, opts ScanOptions) ([]Page, error) {
	if st, err := os.Stat(rootDir); err != nil || !st.IsDir() {
		slog.Warn("Documentation root not found", logfields.Path(rootDir))
		return []Page{}, nil
	}

	include := normalizeIncludes(opts.Include)
	byRoute := map[string]*resolved{}

	err := filepath.WalkDir(rootDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("Skipping unreadable path", logfields.Path(p), logfields.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(rootDir, p)
		if err != nil {
			return fmt.Errorf("%w: %w", derrors.ErrInvalidRelativePath, err)
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && skipDir(rel, d.Name(), include) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isPageFile(d.Name()) || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if path.Dir(rel) == "." && isIgnoredRootFile(d.Name()) {
			return nil
		}

		page, err := loadPage(p, rel)
		if err != nil {
			slog.Warn("Skipping page", logfields.File(rel), logfields.Error(err))
			return nil
		}

		prio := indexPriority(rel)
		if existing, ok := byRoute[page.Route]; ok {
			if !outranks(prio, existing.priority) {
				slog.Debug("Route collision, keeping existing page",
					logfields.Route(page.Route),
					slog.String("kept", existing.page.SourceFile),
					slog.String("dropped", rel))
				return nil
			}
			slog.Debug("Route collision, replacing page",
				logfields.Route(page.Route),
				slog.String("kept", rel),
				slog.String("dropped", existing.page.SourceFile))
		}
		byRoute[page.Route] = &resolved{page: page, priority: prio}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrDocsDirWalkFailed, rootDir, err)
	}

	pages := make([]Page, 0, len(byRoute))
	for _, r := range byRoute {
		pages = append(pages, r.page)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Route < pages[j].Route })

	slog.Debug("Pages discovered", logfields.Path(rootDir), logfields.Count(len(pages)))
	return pages, nil
}

func loadPage(absPath, rel string) (Page, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %s: %w", derrors.ErrFileReadFailed, rel, err)
	}

	doc := frontmatter.Parse(string(content))
	page := Page{
		Route:      RouteFor(rel),
		Title:      deriveTitle(doc, rel),
		SourceFile: rel,
		Hidden:     doc.Frontmatter.Bool("hidden"),
	}
	if desc, ok := doc.Frontmatter.String("description"); ok {
		page.Description = desc
	}
	if len(doc.Frontmatter) > 0 {
		page.Frontmatter = doc.Frontmatter
	}
	return page, nil
}

// skipDir reports whether a directory (root-relative rel) must not be walked.
func skipDir(rel, name string, include map[string]bool) bool {
	if excludedDirs[name] && path.Dir(rel) == "." {
		return true
	}
	if name == "node_modules" {
		return true
	}
	if strings.HasPrefix(name, ".") {
		return !include[rel] && !include[name]
	}
	return false
}

func normalizeIncludes(include []string) map[string]bool {
	out := make(map[string]bool, len(include))
	for _, inc := range include {
		inc = strings.TrimSpace(filepath.ToSlash(inc))
		inc = strings.TrimPrefix(inc, "./")
		inc = strings.TrimSuffix(inc, "/")
		if inc != "" {
			out[inc] = true
		}
	}
	return out
}

// isPageFile checks if a file is a Markdown or MDX page.
func isPageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".mdx"
}

// isIgnoredRootFile checks if a root-level file is conventionally not documentation.
// README stays eligible: it becomes the root index when no index page exists.
func isIgnoredRootFile(filename string) bool {
	base := strings.ToUpper(strings.TrimSuffix(filename, filepath.Ext(filename)))
	switch base {
	case "CHANGELOG", "CONTRIBUTING", "LICENSE", "CODE_OF_CONDUCT", "SECURITY":
		return true
	}
	return false
}

// FindByRoute returns the page resolved to route.
func FindByRoute(pages []Page, route string) (Page, error) {
	for _, p := range pages {
		if p.Route == route {
			return p, nil
		}
	}
	return Page{}, fmt.Errorf("%w: %s", derrors.ErrPageNotFound, route)
}
