package previews

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Load reads the named preview folder into a PreviewConfig.
//
// Every supported file is included, sorted by path. Nested folders that are
// previews of their own are left out, as is node_modules.
func Load(rootDir, name string) (*PreviewConfig, error) {
	dir, err := resolveDir(rootDir, name)
	if err != nil {
		return nil, err
	}

	paths, err := listFiles(dir)
	if err != nil {
		return nil, err
	}

	cfg := &PreviewConfig{Files: make([]PreviewFile, 0, len(paths))}
	for _, rel := range paths {
		content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("read preview file %s/%s: %w", name, rel, err)
		}
		typ, _ := TypeFor(rel)
		cfg.Files = append(cfg.Files, PreviewFile{Path: rel, Content: string(content), Type: typ})
	}

	cfg.Entry = selectEntry(paths)
	if cfg.Entry == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoEntry, name)
	}
	return cfg, nil
}

// resolveDir maps a preview name to its folder, refusing names that leave
// the previews root.
func resolveDir(rootDir, name string) (string, error) {
	name = strings.Trim(strings.ReplaceAll(name, "\\", "/"), "/")
	if name == "" || path.IsAbs(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}

	dir := filepath.Join(rootDir, Dir, filepath.FromSlash(name))
	if !isDir(dir) {
		return "", fmt.Errorf("%w: %s", ErrPreviewNotFound, name)
	}
	return dir, nil
}

// listFiles returns the supported files below dir as sorted slash paths.
func listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == dir {
				return nil
			}
			if d.Name() == "node_modules" || strings.HasPrefix(d.Name(), ".") || hasPreferredEntry(p) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := TypeFor(d.Name()); !ok {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
