// Package site owns the scan results a running server works from: the page
// and preview lists, cached until a file change invalidates them.
package site

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"git.home.luguber.info/inful/prev/internal/docs"
	"git.home.luguber.info/inful/prev/internal/logfields"
	"git.home.luguber.info/inful/prev/internal/metrics"
	"git.home.luguber.info/inful/prev/internal/previews"
)

// Options configure a Cache.
type Options struct {
	Include  []string
	Recorder metrics.Recorder
	// ArtifactsDir switches preview discovery to built artifacts below it.
	ArtifactsDir string
}

// Cache holds the latest page and preview scans of a project root. Each kind
// is rescanned in full on the first read after its invalidation.
type Cache struct {
	root     string
	opts     Options
	recorder metrics.Recorder

	mu            sync.RWMutex
	pages         []docs.Page
	pagesValid    bool
	previews      []previews.Preview
	previewsValid bool
}

func New(root string, opts Options) *Cache {
	return &Cache{root: root, opts: opts, recorder: metrics.OrNoop(opts.Recorder)}
}

// Root returns the project root.
func (c *Cache) Root() string { return c.root }

// Pages returns the cached page scan, scanning when needed.
func (c *Cache) Pages() ([]docs.Page, error) {
	c.mu.RLock()
	if c.pagesValid {
		pages := c.pages
		c.mu.RUnlock()
		return pages, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pagesValid {
		return c.pages, nil
	}

	start := time.Now()
	pages, err := docs.Scan(c.root, docs.ScanOptions{Include: c.opts.Include})
	if err != nil {
		return nil, err
	}
	c.recorder.ObserveScanDuration("pages", time.Since(start))
	c.recorder.SetDiscovered("pages", len(pages))
	slog.Debug("Pages scanned", logfields.Count(len(pages)), logfields.DurationMS(float64(time.Since(start).Milliseconds())))

	c.pages, c.pagesValid = pages, true
	return pages, nil
}

// Previews returns the cached preview scan, scanning when needed.
func (c *Cache) Previews() ([]previews.Preview, error) {
	c.mu.RLock()
	if c.previewsValid {
		list := c.previews
		c.mu.RUnlock()
		return list, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.previewsValid {
		return c.previews, nil
	}

	start := time.Now()
	var (
		list []previews.Preview
		err  error
	)
	if c.opts.ArtifactsDir != "" {
		list, err = previews.ScanArtifacts(c.opts.ArtifactsDir)
	} else {
		list, err = previews.Scan(c.root)
	}
	if err != nil {
		return nil, err
	}
	c.recorder.ObserveScanDuration("previews", time.Since(start))
	c.recorder.SetDiscovered("previews", len(list))

	c.previews, c.previewsValid = list, true
	return list, nil
}

// SetInclude replaces the opted-in dot directories and drops the page scan.
func (c *Cache) SetInclude(include []string) {
	c.mu.Lock()
	c.opts.Include = slices.Clone(include)
	c.pagesValid = false
	c.mu.Unlock()
	c.recorder.IncCacheInvalidation("pages")
}

// InvalidatePages drops the page scan.
func (c *Cache) InvalidatePages() {
	c.mu.Lock()
	c.pagesValid = false
	c.mu.Unlock()
	c.recorder.IncCacheInvalidation("pages")
}

// InvalidatePreviews drops the preview scan.
func (c *Cache) InvalidatePreviews() {
	c.mu.Lock()
	c.previewsValid = false
	c.mu.Unlock()
	c.recorder.IncCacheInvalidation("previews")
}

// InvalidateAll drops every scan.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.pagesValid = false
	c.previewsValid = false
	c.mu.Unlock()
	c.recorder.IncCacheInvalidation("all")
}
