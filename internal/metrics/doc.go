// Package metrics provides observability hooks for page scans, preview
// compiles, sandbox sessions and production builds.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay optional:
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	srv := server.New(cfg, server.WithRecorder(recorder))
//
// HTTPHandler exposes a registry for scraping on /metrics.
package metrics
