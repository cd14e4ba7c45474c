// Package server implements prev's HTTP surface: the app shell, the JSON
// navigation module, rendered page content, preview runtime sessions over
// websockets, livereload, health and metrics.
//
// A Server runs in one of two modes. Dev mode serves a project root, scanning
// it through a site.Cache that file changes invalidate. Static mode serves the
// output of a production build.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/prev/internal/build"
	"git.home.luguber.info/inful/prev/internal/compiler"
	"git.home.luguber.info/inful/prev/internal/config"
	"git.home.luguber.info/inful/prev/internal/events"
	derrors "git.home.luguber.info/inful/prev/internal/foundation/errors"
	"git.home.luguber.info/inful/prev/internal/logfields"
	"git.home.luguber.info/inful/prev/internal/metrics"
	"git.home.luguber.info/inful/prev/internal/ordering"
	"git.home.luguber.info/inful/prev/internal/render"
	"git.home.luguber.info/inful/prev/internal/sandbox"
	smw "git.home.luguber.info/inful/prev/internal/server/middleware"
	"git.home.luguber.info/inful/prev/internal/server/responses"
	"git.home.luguber.info/inful/prev/internal/site"
	"git.home.luguber.info/inful/prev/internal/watch"
)

// Mode selects what a Server serves.
type Mode string

const (
	ModeDev    Mode = "dev"
	ModeStatic Mode = "static"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Options configure a Server.
type Options struct {
	// Root is the project directory.
	Root string
	// Config is the initial configuration. Dev mode reloads it on change.
	Config *config.Config
	// LoadConfig reloads the configuration of Root. Defaults to config.Load;
	// the CLI passes a loader that keeps --include flags.
	LoadConfig func(root string) (*config.Config, error)
	Mode       Mode
	// DistDir is the build output served in static mode.
	DistDir string
	// Orders persists sidebar order updates. Defaults to the config file.
	Orders ordering.Store
	// Registry exposes /metrics when set.
	Registry  *prometheus.Registry
	Recorder  metrics.Recorder
	Publisher events.Publisher
}

// Server manages prev's HTTP endpoints.
type Server struct {
	opts         Options
	root         string
	cache        *site.Cache
	renderer     *render.Renderer
	hub          *LiveReloadHub
	recorder     metrics.Recorder
	publisher    events.Publisher
	orders       ordering.Store
	errorAdapter *derrors.HTTPErrorAdapter
	started      time.Time

	mu      sync.RWMutex
	cfg     *config.Config
	runtime *sandbox.Runtime

	// middleware chain
	mchain func(http.Handler) http.Handler
}

// New constructs a Server.
func New(opts Options) *Server {
	if opts.Mode == "" {
		opts.Mode = ModeDev
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.Load
	}
	if opts.Orders == nil {
		opts.Orders = ordering.NewConfigStore(opts.Root)
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NoopPublisher{}
	}
	recorder := metrics.OrNoop(opts.Recorder)

	cacheOpts := site.Options{Include: opts.Config.Include, Recorder: recorder}
	if opts.Mode == ModeStatic {
		cacheOpts.ArtifactsDir = staticPath(opts.DistDir, build.PreviewDir)
	}

	s := &Server{
		opts:         opts,
		root:         opts.Root,
		cache:        site.New(opts.Root, cacheOpts),
		renderer:     render.New(),
		hub:          NewLiveReloadHub(),
		recorder:     recorder,
		publisher:    opts.Publisher,
		orders:       opts.Orders,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
		started:      time.Now(),
		cfg:          opts.Config,
	}
	s.runtime = s.newRuntime(opts.Config)
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter, recorder)
	return s
}

func (s *Server) newRuntime(cfg *config.Config) *sandbox.Runtime {
	comp := compiler.New(compiler.Options{
		CDNBase:  cfg.CDN.Base,
		Pins:     cfg.CDN.Pins,
		Tailwind: cfg.Tailwind,
		Recorder: s.recorder,
	})
	return sandbox.NewRuntime(comp, sandbox.WithRuntimeRecorder(s.recorder))
}

// Config returns the active configuration.
func (s *Server) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Server) sandboxRuntime() *sandbox.Runtime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runtime
}

// Hub returns the livereload hub.
func (s *Server) Hub() *LiveReloadHub { return s.hub }

// Cache returns the scan cache.
func (s *Server) Cache() *site.Cache { return s.cache }

// HandleChange applies a watcher change set: reloads configuration,
// invalidates scans and notifies connected clients.
func (s *Server) HandleChange(_ context.Context, c watch.Change) {
	if c.Empty() {
		return
	}
	if c.Config {
		cfg, err := s.opts.LoadConfig(s.root)
		if err != nil {
			slog.Warn("Config reload failed; keeping previous configuration", logfields.Error(err))
		} else {
			s.mu.Lock()
			s.cfg = cfg
			s.runtime = s.newRuntime(cfg)
			s.mu.Unlock()
			s.cache.SetInclude(cfg.Include)
			slog.Info("Configuration reloaded", slog.Any("include", cfg.Include))
		}
	}

	switch {
	case c.Config || (c.Pages && len(c.Previews) > 0):
		s.cache.InvalidateAll()
	case c.Pages:
		s.cache.InvalidatePages()
	case len(c.Previews) > 0:
		s.cache.InvalidatePreviews()
	}

	ev := responses.ReloadEvent{Pages: c.Pages, Config: c.Config, Previews: c.Previews}
	if pages, err := s.cache.Pages(); err == nil {
		ev.Hash = pagesHash(pages)
	}
	s.hub.Broadcast(ev)
	slog.Info("Change detected",
		slog.Bool("pages", c.Pages),
		slog.Bool("config", c.Config),
		slog.Any("previews", c.Previews),
		logfields.Count(len(c.Paths)))

	events.Notify(s.publisher, &events.Event{Type: events.TypeChange, Root: s.root, Paths: c.Paths, Success: true})
}

// Serve accepts connections on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		s.hub.Shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// ListenAndServe listens on addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	slog.Info("Server listening", logfields.URL("http://"+ln.Addr().String()), slog.String("mode", string(s.opts.Mode)))
	return s.Serve(ctx, ln)
}
