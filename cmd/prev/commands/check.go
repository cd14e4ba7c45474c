package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/prev/internal/compiler"
	derrors "git.home.luguber.info/inful/prev/internal/foundation/errors"
	"git.home.luguber.info/inful/prev/internal/logfields"
	"git.home.luguber.info/inful/prev/internal/previews"
	"git.home.luguber.info/inful/prev/internal/sandbox"
)

// CheckCmd compiles previews through the same host and runtime handshake the
// browser uses, without a browser.
type CheckCmd struct {
	Names   []string      `arg:"" optional:"" help:"Previews to check (default: all)."`
	Timeout time.Duration `name:"timeout" default:"30s" help:"Per-preview wait for a build result."`
}

// CheckOutcome is the result of checking one preview.
type CheckOutcome struct {
	Name     string
	Snapshot sandbox.Snapshot
	Err      error
}

// OK reports whether the preview compiled.
func (o CheckOutcome) OK() bool {
	return o.Err == nil && o.Snapshot.State == sandbox.StateReady
}

func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dir, err := root.ResolveRoot("")
	if err != nil {
		return err
	}
	cfg, err := root.LoadProject(dir)
	if err != nil {
		return err
	}

	names := c.Names
	if len(names) == 0 {
		list, err := previews.Scan(dir)
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryPreview, "failed to discover previews").Build()
		}
		for _, p := range list {
			names = append(names, p.Name)
		}
	}
	if len(names) == 0 {
		fmt.Println("No previews found")
		return nil
	}

	rt := sandbox.NewRuntime(compiler.New(compiler.Options{
		CDNBase:  cfg.CDN.Base,
		Pins:     cfg.CDN.Pins,
		Tailwind: cfg.Tailwind,
	}))
	outcomes := CheckPreviews(sigctx, rt, dir, names, c.Timeout)

	failed := 0
	for _, o := range outcomes {
		switch {
		case o.OK():
			fmt.Printf("  ✓ %s (%dms)\n", o.Name, o.Snapshot.BuildTime)
		case o.Err != nil:
			failed++
			fmt.Printf("  ✗ %s: %v\n", o.Name, o.Err)
		default:
			failed++
			fmt.Printf("  ✗ %s: %s\n", o.Name, o.Snapshot.Error)
		}
	}
	if failed > 0 {
		return derrors.CompileError(fmt.Sprintf("%d of %d preview(s) failed", failed, len(outcomes))).Build()
	}
	return nil
}

// CheckPreviews runs one sandbox session per name, in order.
func CheckPreviews(ctx context.Context, rt *sandbox.Runtime, dir string, names []string, timeout time.Duration) []CheckOutcome {
	fetcher := sandbox.ConfigFetcherFunc(func(_ context.Context, name string) (*previews.PreviewConfig, error) {
		return previews.Load(dir, name)
	})

	out := make([]CheckOutcome, 0, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			break
		}
		snap, err := sandbox.Check(ctx, rt, fetcher, name, timeout)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Debug("Preview check did not finish", logfields.Preview(name), logfields.Error(err))
		}
		out = append(out, CheckOutcome{Name: name, Snapshot: snap, Err: err})
	}
	return out
}
