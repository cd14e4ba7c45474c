// Package templates provides the documents prev serves and writes: the app
// shell, the generic preview runtime shell, their scripts, and the scaffold
// used to create new previews.
//
// Assets are embedded at build time. Shell documents are rendered with
// html/template; scaffold files with text/template and strict missing keys.
package templates
