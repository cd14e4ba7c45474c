package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/prev/internal/cache"
	"git.home.luguber.info/inful/prev/internal/config"
	"git.home.luguber.info/inful/prev/internal/events"
	derrors "git.home.luguber.info/inful/prev/internal/foundation/errors"
	"git.home.luguber.info/inful/prev/internal/git"
	"git.home.luguber.info/inful/prev/internal/logfields"
	"git.home.luguber.info/inful/prev/internal/metrics"
	"git.home.luguber.info/inful/prev/internal/server"
	"git.home.luguber.info/inful/prev/internal/watch"
)

// cleanInterval is how often the dev server prunes stale caches.
const cleanInterval = time.Hour

// DevCmd starts the development server with file watching and live reload.
type DevCmd struct {
	Dir  string `arg:"" optional:"" help:"Project directory (default: current directory)."`
	Port int    `short:"p" name:"port" help:"Port to listen on (default: config port or a random free port)."`
	Host string `name:"host" default:"localhost" help:"Interface to bind."`
}

func (d *DevCmd) Run(_ *Global, root *CLI) error {
	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dir, err := root.ResolveRoot(d.Dir)
	if err != nil {
		return err
	}
	cfg, err := root.LoadProject(dir)
	if err != nil {
		return err
	}

	cacheRoot := cache.DefaultRoot()
	if cacheDir, err := cache.Ensure(cacheRoot, dir); err != nil {
		slog.Warn("Cache directory unavailable", logfields.Error(err))
	} else {
		slog.Debug("Using cache directory", logfields.Path(cacheDir), logfields.Branch(git.CurrentBranch(dir)))
	}
	sched, err := cache.NewScheduler()
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "failed to create scheduler").Build()
	}
	if _, err := sched.ScheduleClean(cleanInterval, cacheRoot, cfg.Cache.MaxAgeDays); err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "failed to schedule cache cleaning").Build()
	}
	sched.Start(sigctx)
	defer func() { _ = sched.Stop(context.Background()) }()

	publisher := openPublisher(cfg)
	defer func() { _ = publisher.Close() }()

	reg := prometheus.NewRegistry()
	srv := server.New(server.Options{
		Root:       dir,
		Config:     cfg,
		LoadConfig: root.LoadProject,
		Mode:       server.ModeDev,
		Registry:   reg,
		Recorder:   metrics.NewPrometheusRecorder(reg),
		Publisher:  publisher,
	})

	w, err := watch.New(dir, watch.Options{Include: cfg.Include})
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to watch project").
			WithContext("dir", dir).Build()
	}
	defer func() { _ = w.Close() }()
	go func() {
		if err := w.Run(sigctx, reloadingHandler(srv, w)); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Watcher stopped", logfields.Error(err))
		}
	}()

	return listenAndServe(sigctx, srv, d.Host, pickPort(d.Port, cfg), true)
}

// reloadingHandler passes change sets to srv and keeps the watcher's
// include list in step with reloaded configuration.
func reloadingHandler(srv *server.Server, w *watch.Watcher) watch.Handler {
	return func(ctx context.Context, c watch.Change) {
		srv.HandleChange(ctx, c)
		if !c.Config {
			return
		}
		if err := w.SetInclude(srv.Config().Include); err != nil {
			slog.Warn("Failed to watch included directories", logfields.Error(err))
		}
	}
}

// pickPort prefers the flag, then the configured port. Zero asks for a random port.
func pickPort(flag int, cfg *config.Config) int {
	if flag > 0 {
		return flag
	}
	return cfg.Port
}

// openPublisher connects the configured NATS publisher. Notifications are
// optional, so connection failures fall back to dropping events.
func openPublisher(cfg *config.Config) events.Publisher {
	p, err := events.New(cfg.NATS.URL, cfg.NATS.Subject)
	if err != nil {
		slog.Warn("Event notifications disabled", logfields.URL(cfg.NATS.URL), logfields.Error(err))
		return events.NoopPublisher{}
	}
	return p
}

func listenAndServe(ctx context.Context, srv *server.Server, host string, port int, dev bool) error {
	if port <= 0 {
		p, err := cache.RandomPort(cache.MinPort, cache.MaxPort)
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryNetwork, "no free port").Build()
		}
		port = p
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryNetwork, "failed to listen").
			WithContext("addr", addr).Build()
	}
	printBanner(fmt.Sprintf("http://%s/", addr), dev)
	slog.Info("Server listening", logfields.URL("http://"+ln.Addr().String()))

	if err := srv.Serve(ctx, ln); err != nil {
		return derrors.WrapError(err, derrors.CategoryRuntime, "server failed").Build()
	}
	return nil
}
