// Package git resolves repository state used to key per-branch caches.
package git
