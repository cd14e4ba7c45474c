package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Layout of the output directory, slash-separated and relative to its root.
const (
	DataDir      = "__prev"
	PagesFile    = DataDir + "/pages.json"
	PreviewsFile = DataDir + "/previews.json"
	ConfigFile   = DataDir + "/config.json"
	AssetsDir    = DataDir + "/assets"
	ContentDir   = DataDir + "/content"
	PreviewDir   = "_preview"
)

// ContentFile returns the fragment file of a page route.
func ContentFile(route string) string {
	if route == "/" || route == "" {
		return ContentDir + "/index.json"
	}
	return ContentDir + route + ".json"
}

// ShellFile returns the shell document written for a page route.
func ShellFile(route string) string {
	return path.Join(strings.TrimPrefix(route, "/"), "index.html")
}

// PreviewFile returns the artifact path of a preview.
func PreviewFile(name string) string {
	return path.Join(PreviewDir, name, "index.html")
}

type writer struct {
	root string
}

func (w writer) bytes(rel string, data []byte) error {
	full := filepath.Join(w.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrOutput, filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrOutput, rel, err)
	}
	return nil
}

func (w writer) json(rel string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrOutput, rel, err)
	}
	return w.bytes(rel, data)
}

// resetDir empties dir, creating it when missing. It refuses to clear the
// filesystem root or the project root itself.
func resetDir(dir, projectRoot string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	rootAbs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	if abs == filepath.Dir(abs) || abs == rootAbs {
		return fmt.Errorf("%w: refusing to clear %s", ErrOutput, abs)
	}
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("%w: clear %s: %w", ErrOutput, abs, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrOutput, abs, err)
	}
	return nil
}
