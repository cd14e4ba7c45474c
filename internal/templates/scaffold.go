package templates

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"

	"git.home.luguber.info/inful/prev/internal/previews"
)

//go:embed scaffold/*.tmpl
var scaffoldFS embed.FS

// ErrPreviewExists is returned when the scaffold target directory already exists.
var ErrPreviewExists = errors.New("preview already exists")

// DefaultPreviewName is used when no name is given.
const DefaultPreviewName = "example"

var scaffoldFiles = []struct{ tmpl, out string }{
	{"scaffold/App.tsx.tmpl", "App.tsx"},
	{"scaffold/styles.css.tmpl", "styles.css"},
}

// PreviewName turns user input into a directory-safe preview name.
func PreviewName(raw string) string {
	name := slug.Make(raw)
	if name == "" {
		return DefaultPreviewName
	}
	return name
}

// ScaffoldPreview creates previews/<name>/ with a React entry and stylesheet.
// It fails when the directory exists. Returned paths are root-relative.
func ScaffoldPreview(rootDir, name string) ([]string, error) {
	rel := filepath.Join(previews.Dir, name)
	dir := filepath.Join(rootDir, rel)
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrPreviewExists, dir)
	}

	data := map[string]any{"Name": name}
	written := make([]string, 0, len(scaffoldFiles))
	for _, f := range scaffoldFiles {
		body, err := scaffoldFS.ReadFile(f.tmpl)
		if err != nil {
			return written, fmt.Errorf("read scaffold %s: %w", f.tmpl, err)
		}
		content, err := RenderTemplateBody(string(body), data)
		if err != nil {
			return written, err
		}
		if _, err := WriteGeneratedFile(rootDir, filepath.Join(rel, f.out), content); err != nil {
			return written, err
		}
		written = append(written, filepath.ToSlash(filepath.Join(rel, f.out)))
	}
	return written, nil
}
