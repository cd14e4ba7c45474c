package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	if s.opts.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{}))
	}

	if s.opts.Mode == ModeStatic {
		mux.HandleFunc("GET /__prev/previews", s.handlePreviews)
		mux.HandleFunc("GET /", s.handleStatic)
		return s.mchain(mux)
	}

	mux.HandleFunc("GET /__prev/assets/{file}", s.handleAsset)
	mux.HandleFunc("GET /__prev/pages", s.handlePages)
	mux.HandleFunc("GET /__prev/previews", s.handlePreviews)
	mux.HandleFunc("GET /__prev/content/{route...}", s.handleContent)
	mux.HandleFunc("GET /__prev/config", s.handleConfig)
	mux.HandleFunc("POST /__prev/config", s.handleOrderUpdate)
	mux.Handle("GET /__prev/livereload", s.hub)

	mux.HandleFunc("GET /_preview/{name...}", s.handlePreviewShell)
	mux.HandleFunc("GET /_preview-runtime/{$}", s.handleRuntimeShell)
	mux.HandleFunc("GET /_preview-runtime/runtime.js", s.handleRuntimeScript)
	mux.HandleFunc("GET /_preview-runtime/ws", s.handleSandbox)
	mux.HandleFunc("GET /_preview-config/{name...}", s.handlePreviewConfig)

	mux.HandleFunc("GET /", s.handleShell)
	return s.mchain(mux)
}
