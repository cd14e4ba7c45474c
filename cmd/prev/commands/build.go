package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/prev/internal/build"
	"git.home.luguber.info/inful/prev/internal/cache"
	"git.home.luguber.info/inful/prev/internal/config"
	derrors "git.home.luguber.info/inful/prev/internal/foundation/errors"
	"git.home.luguber.info/inful/prev/internal/logfields"
	"git.home.luguber.info/inful/prev/internal/storage"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Dir         string `arg:"" optional:"" help:"Project directory (default: current directory)."`
	Output      string `short:"o" name:"output" default:"dist" help:"Output directory, relative to the project."`
	Concurrency int    `short:"j" name:"concurrency" help:"Parallel preview compiles (default: one per CPU)."`
	NoCache     bool   `name:"no-cache" help:"Recompile every preview instead of reusing cached artifacts."`
	Strict      bool   `name:"strict" help:"Exit non-zero when any preview fails to compile."`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dir, err := root.ResolveRoot(b.Dir)
	if err != nil {
		return err
	}
	cfg, err := root.LoadProject(dir)
	if err != nil {
		return err
	}
	out := b.Output
	if !filepath.IsAbs(out) {
		out = filepath.Join(dir, out)
	}

	fmt.Println()
	fmt.Println("  prev build")
	fmt.Println()
	fmt.Println("  Building your documentation site...")

	svc := build.NewService()
	if store := openStore(sigctx, dir, cfg); store != nil {
		defer func() { _ = store.Close() }()
		svc = svc.WithStore(store)
	}
	publisher := openPublisher(cfg)
	defer func() { _ = publisher.Close() }()
	svc = svc.WithPublisher(publisher)

	res, err := svc.Run(sigctx, build.Request{
		Root:      dir,
		OutputDir: out,
		Config:    cfg,
		Options:   build.Options{Concurrency: b.Concurrency, NoCache: b.NoCache},
	})
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryBuild, "build failed").
			WithContext("output", out).Build()
	}

	printResult(res)
	if b.Strict && !res.Status.IsSuccess() {
		return derrors.BuildError(fmt.Sprintf("%d preview(s) failed to compile", len(res.Failures))).Build()
	}
	return nil
}

// openStore opens the artifact cache for dir and prunes entries older than
// the configured cache age. Builds proceed uncached when it is unavailable.
func openStore(ctx context.Context, dir string, cfg *config.Config) storage.ArtifactStore {
	cacheDir, err := cache.Ensure(cache.DefaultRoot(), dir)
	if err != nil {
		slog.Warn("Artifact cache disabled", logfields.Error(err))
		return nil
	}
	store, err := storage.NewSQLiteStore(filepath.Join(cacheDir, "artifacts.db"))
	if err != nil {
		slog.Warn("Artifact cache disabled", logfields.Error(err))
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -cfg.Cache.MaxAgeDays)
	if n, err := store.Prune(ctx, cutoff); err != nil {
		slog.Warn("Artifact cache prune failed", logfields.Error(err))
	} else if n > 0 {
		slog.Debug("Pruned cached artifacts", logfields.Count(int(n)))
	}
	return store
}

func printResult(res *build.Result) {
	fmt.Println()
	fmt.Printf("  %d page(s), %d preview(s), %d from cache in %s\n",
		res.Pages, res.Previews, res.CacheHits, res.Duration.Round(time.Millisecond))
	for _, f := range res.Failures {
		fmt.Printf("  ✗ %s: %s\n", f.Name, f.Error)
	}
	fmt.Println()
	fmt.Printf("  Done! Your site is ready in %s\n", res.OutputPath)
	fmt.Println("  You can deploy this folder anywhere.")
	fmt.Println()
}
