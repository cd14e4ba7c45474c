package docs

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	priorityOther  = 0
	priorityIndex  = 1
	priorityReadme = 2
)

// RouteFor maps a root-relative page path to its URL route.
//
// The result depends only on the path: the extension is stripped, index and
// README files (case-insensitive) resolve to their directory, and everything
// else keeps its path. Routes are NFC-normalized.
func RouteFor(rel string) string {
	rel = norm.NFC.String(strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(rel, "\\", "/")), "/"))
	withoutExt := strings.TrimSuffix(rel, path.Ext(rel))

	if isIndexName(path.Base(withoutExt)) {
		dir := path.Dir(withoutExt)
		if dir == "." {
			return "/"
		}
		return "/" + dir
	}
	return "/" + withoutExt
}

func isIndexName(base string) bool {
	return strings.EqualFold(base, "index") || strings.EqualFold(base, "readme")
}

// indexPriority ranks files competing for the same route: index beats readme,
// other files never displace an existing page.
func indexPriority(rel string) int {
	base := path.Base(rel)
	base = strings.TrimSuffix(base, path.Ext(base))
	switch {
	case strings.EqualFold(base, "index"):
		return priorityIndex
	case strings.EqualFold(base, "readme"):
		return priorityReadme
	default:
		return priorityOther
	}
}

// outranks reports whether a candidate with priority next replaces a page
// already resolved with priority current.
func outranks(next, current int) bool {
	if next == priorityOther {
		return false
	}
	return current == priorityOther || next < current
}
