package site

import (
	"git.home.luguber.info/inful/prev/internal/docs"
	"git.home.luguber.info/inful/prev/internal/ordering"
)

// Module is the navigation data served to the app shell. Pages lists every
// resolved page so hidden ones stay reachable by route; Sidebar only holds
// visible pages, arranged by the saved order.
type Module struct {
	Pages   []docs.Page    `json:"pages"`
	Sidebar []docs.NavNode `json:"sidebar"`
	Hash    string         `json:"hash"`
}

// Module assembles the navigation module from the cached pages.
func (c *Cache) Module(hidden []string, order ordering.Record) (Module, error) {
	pages, err := c.Pages()
	if err != nil {
		return Module{}, err
	}

	sidebar := ordering.ApplyTree(docs.BuildNavigation(docs.FilterVisible(pages, hidden)), order)
	if sidebar == nil {
		sidebar = []docs.NavNode{}
	}
	return Module{Pages: pages, Sidebar: sidebar, Hash: docs.ComputePagesHash(pages)}, nil
}
