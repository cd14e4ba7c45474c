package compiler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/prev/internal/logfields"
	"git.home.luguber.info/inful/prev/internal/metrics"
	"git.home.luguber.info/inful/prev/internal/previews"
)

// DefaultCDNBase serves bare imports.
const DefaultCDNBase = "https://esm.sh"

// Options configure a Compiler.
type Options struct {
	// CDNBase is the URL prefix for bare imports, without trailing slash.
	CDNBase string
	// Pins maps package names to the version appended to their CDN URL.
	// react and react-dom default to 18.
	Pins map[string]string
	// Minify enables esbuild whitespace, identifier and syntax minification.
	Minify bool
	// Tailwind adds the Tailwind browser script to every standalone document.
	Tailwind bool
	// Recorder receives compile timings.
	Recorder metrics.Recorder
}

// Compiler builds preview file sets. It is safe for concurrent use.
type Compiler struct {
	opts Options
}

// New returns a Compiler, filling unset options with defaults.
func New(opts Options) *Compiler {
	if opts.CDNBase == "" {
		opts.CDNBase = DefaultCDNBase
	}
	opts.CDNBase = strings.TrimSuffix(opts.CDNBase, "/")

	pins := map[string]string{"react": "18", "react-dom": "18"}
	for pkg, v := range opts.Pins {
		pins[pkg] = v
	}
	opts.Pins = pins
	opts.Recorder = metrics.OrNoop(opts.Recorder)

	return &Compiler{opts: opts}
}

// CacheKey identifies the artifact BuildHTML would produce for cfg with this
// compiler's settings.
func (c *Compiler) CacheKey(cfg previews.PreviewConfig) string {
	pkgs := make([]string, 0, len(c.opts.Pins))
	for pkg := range c.opts.Pins {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	h := sha256.New()
	fmt.Fprintf(h, "%s\n%s\n%t\n%t\n", cfg.Hash(), c.opts.CDNBase, c.opts.Minify, c.opts.Tailwind || cfg.Tailwind)
	for _, pkg := range pkgs {
		fmt.Fprintf(h, "%s@%s\n", pkg, c.opts.Pins[pkg])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Build satisfies the sandbox runtime's builder contract.
func (c *Compiler) Build(ctx context.Context, cfg previews.PreviewConfig) previews.BuildResult {
	return c.Bundle(ctx, cfg)
}

// Bundle compiles cfg into a single ES module. Failures are reported in the
// result, never returned or panicked.
func (c *Compiler) Bundle(ctx context.Context, cfg previews.PreviewConfig) (result previews.BuildResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = previews.BuildResult{Error: fmt.Sprintf("internal compiler error: %v", r)}
		}
		result.BuildTime = time.Since(start).Milliseconds()

		outcome := metrics.ResultSuccess
		if !result.Success {
			outcome = metrics.ResultFailed
		}
		c.opts.Recorder.ObserveCompileDuration(metrics.ModeOnDemand, time.Since(start), outcome)
	}()

	code, err := c.bundle(ctx, cfg)
	if err != nil {
		return previews.BuildResult{Error: err.Error()}
	}
	return previews.BuildResult{Success: true, Code: code}
}

func (c *Compiler) bundle(ctx context.Context, cfg previews.PreviewConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entry, ok := cfg.File(cfg.Entry)
	if !ok || len(cfg.Files) == 0 {
		return "", fmt.Errorf("Entry file not found: %s", cfg.Entry)
	}

	opts := api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   entryWrapper(entry),
			Loader:     api.LoaderTSX,
			ResolveDir: "/",
			Sourcefile: "prev-entry.tsx",
		},
		Bundle:            true,
		Write:             false,
		Format:            api.FormatESModule,
		JSX:               api.JSXAutomatic,
		JSXImportSource:   "react",
		Target:            api.ES2020,
		MinifyWhitespace:  c.opts.Minify,
		MinifyIdentifiers: c.opts.Minify,
		MinifySyntax:      c.opts.Minify,
		LogLevel:          api.LogLevelSilent,
		Plugins:           []api.Plugin{c.plugin(newVFS(cfg))},
	}

	bctx, cerr := api.Context(opts)
	if cerr != nil {
		return "", errors.New(formatMessages(cerr.Errors))
	}
	defer bctx.Dispose()

	stop := context.AfterFunc(ctx, bctx.Cancel)
	defer stop()

	res := bctx.Rebuild()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(res.Errors) > 0 {
		return "", errors.New(formatMessages(res.Errors))
	}
	for _, w := range res.Warnings {
		slog.Debug("Compiler warning", slog.String("message", w.Text))
	}

	for _, f := range res.OutputFiles {
		if strings.HasSuffix(f.Path, ".js") {
			return string(f.Contents), nil
		}
	}
	if len(res.OutputFiles) > 0 {
		return string(res.OutputFiles[0].Contents), nil
	}
	return "", nil
}

// HTMLResult is the outcome of an ahead-of-time build.
type HTMLResult struct {
	HTML  string `json:"html"`
	Error string `json:"error,omitempty"`
}

// BuildHTML compiles cfg and inlines the bundle into a standalone document.
// On failure HTML is empty and Error carries the diagnostic text.
func (c *Compiler) BuildHTML(ctx context.Context, cfg previews.PreviewConfig) (result HTMLResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = HTMLResult{Error: fmt.Sprintf("internal compiler error: %v", r)}
		}
		outcome := metrics.ResultSuccess
		if result.Error != "" {
			outcome = metrics.ResultFailed
		}
		c.opts.Recorder.ObserveCompileDuration(metrics.ModeAOT, time.Since(start), outcome)
	}()

	code, err := c.bundle(ctx, cfg)
	if err != nil {
		slog.Debug("Preview build failed", logfields.File(cfg.Entry), logfields.Error(err))
		return HTMLResult{Error: err.Error()}
	}
	return HTMLResult{HTML: standaloneHTML(code, c.opts.Tailwind || cfg.Tailwind)}
}

func formatMessages(msgs []api.Message) string {
	formatted := api.FormatMessages(msgs, api.FormatMessagesOptions{Kind: api.ErrorMessage})
	return strings.TrimSpace(strings.Join(formatted, "\n"))
}
