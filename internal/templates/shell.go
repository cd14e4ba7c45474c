package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed assets/*
var assets embed.FS

// Mode selects how the app shell loads its data.
type Mode string

const (
	// ModeDev fetches live JSON endpoints and subscribes to change events.
	ModeDev Mode = "dev"
	// ModeStatic fetches the JSON files written by a production build.
	ModeStatic Mode = "static"
)

// ShellData parameterizes the app shell document.
type ShellData struct {
	Title        string
	Theme        string
	ContentWidth string
	Mode         Mode
}

var shellTemplate = template.Must(template.ParseFS(assets, "assets/shell.html"))

// Shell renders the app shell served for every page route.
func Shell(data ShellData) ([]byte, error) {
	if data.Title == "" {
		data.Title = "Documentation"
	}
	if data.Mode == "" {
		data.Mode = ModeDev
	}
	var buf bytes.Buffer
	if err := shellTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render shell: %w", err)
	}
	return buf.Bytes(), nil
}

// RuntimeShell returns the generic preview runtime document. The same document
// serves every preview; it learns the preview name from its own URL.
func RuntimeShell() []byte { return mustAsset("assets/runtime.html") }

// AppScript returns the app shell client script.
func AppScript() []byte { return mustAsset("assets/app.js") }

// RuntimeScript returns the preview runtime client script.
func RuntimeScript() []byte { return mustAsset("assets/runtime.js") }

// Stylesheet returns the app shell stylesheet.
func Stylesheet() []byte { return mustAsset("assets/app.css") }

func mustAsset(name string) []byte {
	b, err := assets.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("templates: missing embedded asset %s", name))
	}
	return b
}
