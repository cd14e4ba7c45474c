// Package cache manages per-project, per-branch cache directories.
package cache

import (
	"crypto/sha1" //nolint:gosec // key derivation only, not security sensitive
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/prev/internal/git"
	"git.home.luguber.info/inful/prev/internal/logfields"
)

// DefaultRoot returns ~/.cache/prev, or a temp dir fallback when the home directory is unknown.
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "prev-cache")
	}
	return filepath.Join(home, ".cache", "prev")
}

// Key derives the cache directory name for a project root and branch.
func Key(root, branch string) string {
	sum := sha1.Sum([]byte(root + ":" + branch)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])[:12]
}

// Dir returns the cache directory for root under cacheRoot. An empty branch
// is resolved from the repository containing root.
func Dir(cacheRoot, root, branch string) string {
	if cacheRoot == "" {
		cacheRoot = DefaultRoot()
	}
	if branch == "" {
		branch = git.CurrentBranch(root)
	}
	return filepath.Join(cacheRoot, Key(root, branch))
}

// Ensure creates the cache directory for root and returns its path.
func Ensure(cacheRoot, root string) (string, error) {
	dir := Dir(cacheRoot, root, "")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return dir, nil
}

// Clean removes cache directories under cacheRoot whose modification time is
// older than maxAgeDays. A missing cacheRoot removes nothing.
func Clean(cacheRoot string, maxAgeDays int) (int, error) {
	if cacheRoot == "" {
		cacheRoot = DefaultRoot()
	}
	entries, err := os.ReadDir(cacheRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read cache root: %w", err)
	}

	maxAge := time.Duration(maxAgeDays) * 24 * time.Hour
	now := time.Now()
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		full := filepath.Join(cacheRoot, e.Name())
		info, statErr := os.Stat(full)
		if statErr != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}
		if rmErr := os.RemoveAll(full); rmErr != nil {
			slog.Warn("Failed to remove cache dir", logfields.Path(full), logfields.Error(rmErr))
			continue
		}
		removed++
	}
	return removed, nil
}
