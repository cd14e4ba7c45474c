package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/prev/internal/docs"
	derrors "git.home.luguber.info/inful/prev/internal/foundation/errors"
	"git.home.luguber.info/inful/prev/internal/ordering"
	"git.home.luguber.info/inful/prev/internal/previews"
	"git.home.luguber.info/inful/prev/internal/server/responses"
	"git.home.luguber.info/inful/prev/internal/templates"
	"git.home.luguber.info/inful/prev/internal/version"
)

// maxOrderBody bounds POST /__prev/config bodies.
const maxOrderBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := responses.HealthResponse{
		Status:    "healthy",
		Mode:      string(s.opts.Mode),
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(s.started).Seconds(),
	}
	if list, err := s.cache.Previews(); err == nil {
		resp.Previews = len(list)
	}
	if s.opts.Mode == ModeStatic {
		resp.Pages = s.staticPageCount()
	} else if pages, err := s.cache.Pages(); err == nil {
		resp.Pages = len(pages)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	switch r.PathValue("file") {
	case "app.js":
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		_, _ = w.Write(templates.AppScript())
	case "app.css":
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		_, _ = w.Write(templates.Stylesheet())
	default:
		s.errorAdapter.WriteErrorResponse(w, r, derrors.NotFoundError("asset not found").
			WithContext("file", r.PathValue("file")).Build())
	}
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	cfg := s.Config()
	order, err := s.orders.Load()
	if err != nil {
		order = ordering.Record{}
	}
	module, err := s.cache.Module(cfg.Hidden, order)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.WrapError(err, derrors.CategoryDocs, "page scan failed").Build())
		return
	}
	writeJSON(w, http.StatusOK, module)
}

func (s *Server) handlePreviews(w http.ResponseWriter, r *http.Request) {
	list, err := s.cache.Previews()
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.WrapError(err, derrors.CategoryPreview, "preview scan failed").Build())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	route := "/" + strings.TrimSuffix(r.PathValue("route"), "/")
	pages, err := s.cache.Pages()
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.WrapError(err, derrors.CategoryDocs, "page scan failed").Build())
		return
	}
	page, err := docs.FindByRoute(pages, route)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.NotFoundError("page not found").WithContext("route", route).Build())
		return
	}

	// #nosec G304 -- SourceFile comes from a scan of root.
	source, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(page.SourceFile)))
	if err != nil {
		// Deleted since the last scan.
		s.cache.InvalidatePages()
		s.errorAdapter.WriteErrorResponse(w, r, derrors.NotFoundError("page not found").WithContext("route", route).Build())
		return
	}
	fragment, err := s.renderer.Render(page, source)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.WrapError(err, derrors.CategoryDocs, "render failed").
			WithContext("file", page.SourceFile).Build())
		return
	}

	etag := `"` + fragment.Fingerprint + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, fragment)
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Config())
}

func (s *Server) handleOrderUpdate(w http.ResponseWriter, r *http.Request) {
	var req responses.OrderUpdateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOrderBody))
	if err := dec.Decode(&req); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("invalid order update body").
			WithContext("error", err.Error()).Build())
		return
	}
	if req.Order == nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("order is required").Build())
		return
	}

	ids := ordering.NormalizeIDs(req.Order)
	if err := s.orders.Save(req.Path, ids); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to save order").Build())
		return
	}
	writeJSON(w, http.StatusOK, responses.OrderUpdateResponse{Status: "ok", Path: req.Path, Order: ids})
}

func (s *Server) writeShell(w http.ResponseWriter, r *http.Request, title string, status int) {
	cfg := s.Config()
	doc, err := templates.Shell(templates.ShellData{
		Title:        title,
		Theme:        string(cfg.Theme),
		ContentWidth: string(cfg.ContentWidth),
		Mode:         templates.ModeDev,
	})
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.InternalError("shell render failed").Build())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write(doc)
}

// handleShell serves the app shell for every page route. Unknown routes get
// the shell with a 404 status; it renders its own not-found state.
func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	route := r.URL.Path
	if len(route) > 1 {
		route = strings.TrimSuffix(route, "/")
	}
	pages, _ := s.cache.Pages()
	if page, err := docs.FindByRoute(pages, route); err == nil {
		s.writeShell(w, r, page.Title, http.StatusOK)
		return
	}
	s.writeShell(w, r, "Not found", http.StatusNotFound)
}

func (s *Server) handlePreviewShell(w http.ResponseWriter, r *http.Request) {
	s.servePreviewShell(w, r, strings.TrimSuffix(r.PathValue("name"), "/"))
}

// handleRuntimeShell serves the shell outside /_preview/. The preview is
// named by the name query parameter.
func (s *Server) handleRuntimeShell(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(r.URL.Query().Get("name"), "/")
	if name == "" {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("missing preview name").Build())
		return
	}
	s.servePreviewShell(w, r, name)
}

func (s *Server) servePreviewShell(w http.ResponseWriter, r *http.Request, name string) {
	list, err := s.cache.Previews()
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.WrapError(err, derrors.CategoryPreview, "preview scan failed").Build())
		return
	}
	if _, ok := previews.FindByName(list, name); !ok {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.NotFoundError("preview not found").WithContext("name", name).Build())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(templates.RuntimeShell())
}

func (s *Server) handleRuntimeScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	_, _ = w.Write(templates.RuntimeScript())
}

func (s *Server) handlePreviewConfig(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(r.PathValue("name"), "/")
	cfg, err := previews.Load(s.root, name)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, classifyPreviewError(err, name))
		return
	}
	if s.Config().Tailwind {
		cfg.Tailwind = true
	}
	writeJSON(w, http.StatusOK, cfg)
}

func classifyPreviewError(err error, name string) error {
	switch {
	case errors.Is(err, previews.ErrInvalidName):
		return derrors.WrapError(err, derrors.CategoryValidation, "invalid preview name").WithContext("name", name).Build()
	case errors.Is(err, previews.ErrPreviewNotFound), errors.Is(err, previews.ErrNoEntry):
		return derrors.WrapError(err, derrors.CategoryNotFound, "preview not found").WithContext("name", name).Build()
	default:
		return derrors.WrapError(err, derrors.CategoryPreview, "preview load failed").WithContext("name", name).Build()
	}
}
