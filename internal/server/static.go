package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/prev/internal/build"
	"git.home.luguber.info/inful/prev/internal/docs"
	derrors "git.home.luguber.info/inful/prev/internal/foundation/errors"
)

func staticPath(dist, rel string) string {
	return filepath.Join(dist, filepath.FromSlash(rel))
}

func pagesHash(pages []docs.Page) string {
	return docs.ComputePagesHash(pages)
}

// handleStatic serves a production build: files as-is, directories through
// their index.html, anything else through 404.html.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	dist := s.opts.DistDir
	clean := path.Clean("/" + r.URL.Path)

	candidates := []string{clean, path.Join(clean, "index.html")}
	for _, c := range candidates {
		full := staticPath(dist, strings.TrimPrefix(c, "/"))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			if strings.HasPrefix(c, "/"+build.DataDir+"/") {
				w.Header().Set("Cache-Control", "no-cache")
			}
			http.ServeFile(w, r, full)
			return
		}
	}

	notFound := staticPath(dist, "404.html")
	data, err := os.ReadFile(notFound) // #nosec G304 -- fixed name below the dist dir
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.NotFoundError("not found").WithContext("path", clean).Build())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(data)
}

// staticPageCount reads the page count of a production build.
func (s *Server) staticPageCount() int {
	data, err := os.ReadFile(staticPath(s.opts.DistDir, build.PagesFile))
	if err != nil {
		return 0
	}
	var module struct {
		Pages []json.RawMessage `json:"pages"`
	}
	if json.Unmarshal(data, &module) != nil {
		return 0
	}
	return len(module.Pages)
}
