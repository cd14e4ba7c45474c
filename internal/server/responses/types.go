// Package responses defines API payload types used by prev HTTP handlers.
package responses

import "time"

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Mode      string    `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
	Pages     int       `json:"pages"`
	Previews  int       `json:"previews"`
}

// OrderUpdateRequest is the body of POST /__prev/config. Path is the
// navigation branch ("root" or a folder path); Order lists item identifiers.
type OrderUpdateRequest struct {
	Path  string   `json:"path"`
	Order []string `json:"order"`
}

// OrderUpdateResponse acknowledges a saved order.
type OrderUpdateResponse struct {
	Status string   `json:"status"`
	Path   string   `json:"path"`
	Order  []string `json:"order"`
}

// ReloadEvent is the payload of one livereload message.
type ReloadEvent struct {
	Hash     string   `json:"hash"`
	Pages    bool     `json:"pages,omitempty"`
	Config   bool     `json:"config,omitempty"`
	Previews []string `json:"previews,omitempty"`
}
