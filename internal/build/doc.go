// Package build provides the production build pipeline for prev.
//
// A build scans pages and previews, renders every page into a JSON fragment
// next to a copy of the app shell, and compiles every preview ahead of time
// into a standalone HTML document. Compiled previews are cached by content
// hash in an optional artifact store, so unchanged previews skip esbuild on
// the next build.
//
// Preview failures do not abort a build. They are collected, written as
// diagnostic documents in place of the preview, and reported in the Result.
package build
