package docs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// pageManifest is the hashed view of a page; content changes that do not
// alter routing or metadata keep the hash stable.
type pageManifest struct {
	Route       string `json:"route"`
	Title       string `json:"title"`
	File        string `json:"file"`
	Description string `json:"description,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
}

// ComputePagesHash computes a deterministic hash for a scanned page list.
// Pages are expected in scan order (sorted by route).
func ComputePagesHash(pages []Page) string {
	if len(pages) == 0 {
		h := sha256.Sum256([]byte("empty-page-set"))
		return hex.EncodeToString(h[:])
	}

	entries := make([]pageManifest, 0, len(pages))
	for _, p := range pages {
		entries = append(entries, pageManifest{
			Route:       p.Route,
			Title:       p.Title,
			File:        p.SourceFile,
			Description: p.Description,
			Hidden:      p.Hidden,
		})
	}

	data, err := json.Marshal(entries)
	if err != nil {
		// Marshal of plain strings cannot fail; fall back to a fixed marker.
		data = []byte("unhashable-page-set")
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
