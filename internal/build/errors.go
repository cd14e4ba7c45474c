package build

import "errors"

// Sentinel errors for high-level build failures. They are always wrapped with
// context at the call site.
var (
	ErrOutput    = errors.New("prev: output error")
	ErrDiscovery = errors.New("prev: discovery error")
	ErrPreview   = errors.New("prev: preview build error")
)
