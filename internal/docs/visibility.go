package docs

import (
	"log/slog"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FilterVisible returns the pages eligible for navigation rendering.
//
// A page is dropped when its frontmatter marks it hidden or when its source
// file or route matches one of the glob patterns. Dropped pages stay
// resolvable by route; this only affects listing.
func FilterVisible(pages []Page, patterns []string) []Page {
	visible := make([]Page, 0, len(pages))
	for _, p := range pages {
		if p.Hidden || matchesAny(p, patterns) {
			continue
		}
		visible = append(visible, p)
	}
	return visible
}

func matchesAny(p Page, patterns []string) bool {
	route := strings.TrimPrefix(p.Route, "/")
	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(strings.TrimSpace(pattern), "/")
		if pattern == "" {
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			slog.Warn("Ignoring invalid hide pattern", slog.String("pattern", pattern))
			continue
		}
		if ok, _ := doublestar.Match(pattern, p.SourceFile); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, route); ok && route != "" {
			return true
		}
	}
	return false
}
