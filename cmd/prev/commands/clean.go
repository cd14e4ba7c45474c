package commands

import (
	"fmt"

	"git.home.luguber.info/inful/prev/internal/cache"
	"git.home.luguber.info/inful/prev/internal/config"
	derrors "git.home.luguber.info/inful/prev/internal/foundation/errors"
)

// CleanCmd removes stale per-project caches.
type CleanCmd struct {
	Days     int    `short:"d" name:"days" default:"30" help:"Remove caches not used for this many days."`
	CacheDir string `name:"cache-dir" help:"Cache root (default: ~/.cache/prev)." type:"path"`
}

func (c *CleanCmd) Run(_ *Global, _ *CLI) error {
	days := c.Days
	if days < 0 {
		days = config.DefaultMaxAgeDays
	}
	n, err := cache.Clean(c.CacheDir, days)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to clean caches").Build()
	}
	fmt.Printf("Removed %d cache director%s older than %d day(s)\n", n, plural(n, "y", "ies"), days)
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
