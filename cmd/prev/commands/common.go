package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/prev/internal/config"
	derrors "git.home.luguber.info/inful/prev/internal/foundation/errors"
	"git.home.luguber.info/inful/prev/internal/logfields"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Cwd     string           `short:"c" name:"cwd" help:"Project directory (overrides the positional directory)" type:"path"`
	Include []string         `short:"i" name:"include" help:"Include a dot-prefixed directory in the docs (repeatable)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Dev    DevCmd    `cmd:"" default:"withargs" help:"Start the development server (default)"`
	Build  BuildCmd  `cmd:"" help:"Build the static site"`
	Serve  ServeCmd  `cmd:"" aliases:"preview" help:"Serve a production build"`
	Create CreateCmd `cmd:"" help:"Create a preview in previews/<name>/"`
	Clean  CleanCmd  `cmd:"" help:"Remove old cache directories"`
	Check  CheckCmd  `cmd:"" help:"Compile previews through a headless sandbox session"`
	Pages  PagesCmd  `cmd:"" help:"List discovered pages and the navigation tree"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// ResolveRoot returns the absolute project directory.
// Priority: --cwd > positional directory > working directory.
func (c *CLI) ResolveRoot(positional string) (string, error) {
	dir := c.Cwd
	if dir == "" {
		dir = positional
	}
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", derrors.WrapError(err, derrors.CategoryValidation, "invalid project directory").
			WithContext("dir", dir).Build()
	}
	st, err := os.Stat(abs)
	if err != nil || !st.IsDir() {
		return "", derrors.ValidationError("project directory does not exist").
			WithContext("dir", abs).Build()
	}
	return abs, nil
}

// LoadProject loads .env files and the configuration of root. Includes given
// on the command line are appended to the configured ones.
func (c *CLI) LoadProject(root string) (*config.Config, error) {
	loaded, err := config.LoadEnv(root)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to load environment file").
			WithContext("dir", root).Build()
	}
	for _, p := range loaded {
		slog.Debug("Loaded environment file", logfields.Path(p))
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to load configuration").
			WithContext("dir", root).Build()
	}
	cfg.Include = mergeIncludes(cfg.Include, c.Include)
	return cfg, nil
}

func mergeIncludes(configured, flags []string) []string {
	seen := make(map[string]bool, len(configured)+len(flags))
	out := make([]string, 0, len(configured)+len(flags))
	for _, list := range [][]string{configured, flags} {
		for _, inc := range list {
			if inc == "" || seen[inc] {
				continue
			}
			seen[inc] = true
			out = append(out, inc)
		}
	}
	return out
}

// printBanner writes the short startup message shown by dev and serve.
func printBanner(url string, dev bool) {
	fmt.Println()
	fmt.Println("  prev")
	fmt.Println()
	if dev {
		fmt.Println("  Your docs are ready! Open in your browser:")
	} else {
		fmt.Println("  Previewing your production build:")
	}
	fmt.Printf("  %s\n", url)
	fmt.Println()
	if dev {
		fmt.Println("  Edit your .md/.mdx files and see changes instantly.")
	}
	fmt.Println("  Press Ctrl+C to stop.")
	fmt.Println()
}
