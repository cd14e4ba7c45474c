package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	derrors "git.home.luguber.info/inful/prev/internal/foundation/errors"
	"git.home.luguber.info/inful/prev/internal/metrics"
	"git.home.luguber.info/inful/prev/internal/server"
)

// ServeCmd serves a production build without watching sources.
type ServeCmd struct {
	Dir    string `arg:"" optional:"" help:"Project directory (default: current directory)."`
	Output string `short:"o" name:"output" default:"dist" help:"Build directory, relative to the project."`
	Port   int    `short:"p" name:"port" help:"Port to listen on (default: config port or a random free port)."`
	Host   string `name:"host" default:"localhost" help:"Interface to bind."`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dir, err := root.ResolveRoot(s.Dir)
	if err != nil {
		return err
	}
	cfg, err := root.LoadProject(dir)
	if err != nil {
		return err
	}

	dist := s.Output
	if !filepath.IsAbs(dist) {
		dist = filepath.Join(dir, dist)
	}
	if _, err := os.Stat(filepath.Join(dist, "index.html")); err != nil {
		return derrors.NotFoundError("no production build found; run 'prev build' first").
			WithContext("dir", dist).Build()
	}

	reg := prometheus.NewRegistry()
	srv := server.New(server.Options{
		Root:     dir,
		Config:   cfg,
		Mode:     server.ModeStatic,
		DistDir:  dist,
		Registry: reg,
		Recorder: metrics.NewPrometheusRecorder(reg),
	})
	return listenAndServe(sigctx, srv, s.Host, pickPort(s.Port, cfg), false)
}
