// Package compiler bundles preview file sets with esbuild.
//
// All input comes from an in-memory file set: bare package imports are
// rewritten to external CDN URLs, relative imports resolve against the file
// set, and style sheets become script modules that inject a <style> element.
// Bundle serves on-demand compiles inside a sandbox session; BuildHTML
// produces standalone HTML artifacts for production builds.
package compiler
