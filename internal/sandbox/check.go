package sandbox

import (
	"context"
	"time"
)

// Check runs one headless host and runtime session for the named preview over
// an in-memory pipe and returns the host's final status.
func Check(ctx context.Context, rt *Runtime, fetcher ConfigFetcher, name string, timeout time.Duration) (Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hostEnd, runtimeEnd := Pipe()
	defer hostEnd.Close()

	host := NewHost(name, hostEnd, fetcher)
	defer host.Detach()

	go func() { _ = rt.Serve(ctx, runtimeEnd) }()
	go func() { _ = host.Run(ctx) }()

	return host.Await(ctx, timeout)
}
