// Package watch observes a project root and reports debounced, classified
// change sets.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/prev/internal/config"
	"git.home.luguber.info/inful/prev/internal/logfields"
	"git.home.luguber.info/inful/prev/internal/previews"
	"git.home.luguber.info/inful/prev/internal/util/sets"
)

// DefaultDebounce is the quiet period before a change set is delivered.
const DefaultDebounce = 300 * time.Millisecond

// Change is a coalesced set of file events.
type Change struct {
	Pages    bool
	Config   bool
	Previews []string // Top-level preview folders touched, sorted
	Paths    []string // Root-relative paths, sorted
}

// Empty reports whether the change touches nothing relevant.
func (c Change) Empty() bool {
	return !c.Pages && !c.Config && len(c.Previews) == 0
}

// Handler receives change sets. Calls are serialized.
type Handler func(ctx context.Context, c Change)

// Watcher watches a project root recursively.
type Watcher struct {
	root     string
	debounce time.Duration
	fs       *fsnotify.Watcher

	incMu   sync.RWMutex
	include sets.Set[string]

	mu      sync.Mutex
	pending pendingChange
	timer   *time.Timer
	ready   chan struct{}
}

type pendingChange struct {
	pages    bool
	config   bool
	previews sets.Set[string]
	paths    sets.Set[string]
}

// Options configure a Watcher.
type Options struct {
	Debounce time.Duration
	// Include opts dot-prefixed directories in, matching the page scan.
	Include []string
}

// New creates a watcher for root. Close releases it.
func New(root string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	w := &Watcher{
		root:     root,
		include:  includeSet(opts.Include),
		debounce: opts.Debounce,
		fs:       fsw,
		ready:    make(chan struct{}, 1),
	}
	if err := w.addDirsRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func includeSet(include []string) sets.Set[string] {
	out := sets.New[string]()
	for _, inc := range include {
		inc = strings.TrimPrefix(strings.Trim(filepath.ToSlash(inc), "/"), "./")
		if inc != "" {
			out.Add(inc)
		}
	}
	return out
}

// SetInclude replaces the opted-in dot directories and starts watching the
// ones that were not watched before.
func (w *Watcher) SetInclude(include []string) error {
	next := includeSet(include)
	w.incMu.Lock()
	added := false
	for _, inc := range sets.Sorted(next) {
		if !w.include.Has(inc) {
			added = true
		}
	}
	w.include = next
	w.incMu.Unlock()

	if !added {
		return nil
	}
	return w.addDirsRecursive(w.root)
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fs.Close()
}

// Run delivers change sets to h until ctx ends or the watcher closes.
func (w *Watcher) Run(ctx context.Context, h Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		case <-w.ready:
			if c := w.take(); !c.Empty() {
				h(ctx, c)
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if w.ignored(rel) {
		return
	}

	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(ev.Name)
		}
	}

	kind, preview := Classify(rel)
	if kind == KindNone {
		return
	}
	slog.Debug("File change detected", logfields.Path(rel), slog.String("op", ev.Op.String()))
	w.record(kind, preview, rel)
}

// record adds one classified path and restarts the debounce timer.
func (w *Watcher) record(kind Kind, preview, rel string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := &w.pending
	if p.paths == nil {
		p.paths = sets.New[string]()
		p.previews = sets.New[string]()
	}
	p.paths.Add(rel)
	switch kind {
	case KindPage:
		p.pages = true
	case KindConfig:
		p.config = true
	case KindPreview:
		p.previews.Add(preview)
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.ready <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) take() Change {
	w.mu.Lock()
	p := w.pending
	w.pending = pendingChange{}
	w.mu.Unlock()

	return Change{
		Pages:    p.pages,
		Config:   p.config,
		Previews: sets.Sorted(p.previews),
		Paths:    sets.Sorted(p.paths),
	}
}

func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(w.root, p)
		if rel != "." && w.ignored(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			slog.Warn("Watch add failed", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

// ignored reports paths no change handler cares about: build output,
// dependencies, editor droppings and dot paths other than the config file.
func (w *Watcher) ignored(rel string) bool {
	if rel == config.FileName || rel == config.AltFileName {
		return false
	}
	w.incMu.RLock()
	defer w.incMu.RUnlock()
	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		switch seg {
		case "node_modules", ".git":
			return true
		case "dist", ".cache":
			if i == 0 {
				return true
			}
		}
		if strings.HasPrefix(seg, ".") && !w.include.Has(strings.Join(segments[:i+1], "/")) && !w.include.Has(seg) {
			return true
		}
	}
	return isEditorTemp(segments[len(segments)-1])
}

func isEditorTemp(base string) bool {
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) ||
		base == "Thumbs.db"
}

// Kind classifies a changed path.
type Kind int

const (
	KindNone Kind = iota
	KindPage
	KindPreview
	KindConfig
)

// Classify maps a root-relative path to the cache it invalidates. For
// preview files it also returns the top-level preview folder name.
func Classify(rel string) (Kind, string) {
	rel = filepath.ToSlash(rel)
	if rel == config.FileName || rel == config.AltFileName {
		return KindConfig, ""
	}
	if rest, ok := strings.CutPrefix(rel, previews.Dir+"/"); ok {
		name, _, _ := strings.Cut(rest, "/")
		if name == "" {
			return KindNone, ""
		}
		return KindPreview, name
	}
	ext := strings.ToLower(filepath.Ext(rel))
	if ext == ".md" || ext == ".mdx" || ext == "" {
		return KindPage, ""
	}
	return KindNone, ""
}
