package compiler

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/prev/internal/previews"
)

func sampleConfig() previews.PreviewConfig {
	return previews.PreviewConfig{
		Entry: "App.tsx",
		Files: []previews.PreviewFile{
			{Path: "App.tsx", Type: previews.TypeTSX, Content: `import { Button } from './components/Button'
import { Star } from 'lucide-react'
import './styles.css'

export default function App() {
  return <Button label="Hi"><Star /></Button>
}
`},
			{Path: "components/Button.tsx", Type: previews.TypeTSX, Content: `import { theme } from '../theme'

export function Button({ label, children }: { label: string; children?: any }) {
  return <button className={theme.button}>{label}{children}</button>
}
`},
			{Path: "theme.ts", Type: previews.TypeTS, Content: `export const theme = { button: 'btn-primary' }`},
			{Path: "styles.css", Type: previews.TypeCSS, Content: ".btn-primary::before { content: `$x`; }"},
		},
	}
}

func TestBundle_ResolutionPolicy(t *testing.T) {
	c := New(Options{})
	res := c.Bundle(context.Background(), sampleConfig())

	require.True(t, res.Success, res.Error)
	assert.Empty(t, res.Error)
	assert.Contains(t, res.Code, "https://esm.sh/react@18/jsx-runtime")
	assert.Contains(t, res.Code, "https://esm.sh/react-dom@18/client")
	assert.Contains(t, res.Code, "https://esm.sh/lucide-react")
	assert.Contains(t, res.Code, "btn-primary")
	assert.Contains(t, res.Code, "createRoot")
	assert.Contains(t, res.Code, "document.head.appendChild")
	assert.GreaterOrEqual(t, res.BuildTime, int64(0))
}

func TestBundle_SideEffectEntry(t *testing.T) {
	cfg := previews.PreviewConfig{
		Entry: "main.ts",
		Files: []previews.PreviewFile{
			{Path: "main.ts", Type: previews.TypeTS, Content: `document.body.dataset.ready = "yes"`},
		},
	}

	res := New(Options{}).Bundle(context.Background(), cfg)
	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.Code, `"yes"`)
	assert.NotContains(t, res.Code, "createRoot")
}

func TestBundle_MissingRelativeImport(t *testing.T) {
	cfg := previews.PreviewConfig{
		Entry: "App.tsx",
		Files: []previews.PreviewFile{
			{Path: "App.tsx", Type: previews.TypeTSX, Content: "import './missing'\nexport default () => null"},
		},
	}

	res := New(Options{}).Bundle(context.Background(), cfg)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "missing")
}

func TestBundle_SyntaxErrorIsReadable(t *testing.T) {
	cfg := previews.PreviewConfig{
		Entry: "App.tsx",
		Files: []previews.PreviewFile{
			{Path: "App.tsx", Type: previews.TypeTSX, Content: "export default function App( {"},
		},
	}

	res := New(Options{}).Bundle(context.Background(), cfg)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "App.tsx")
}

func TestBundle_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New(Options{}).Bundle(ctx, sampleConfig())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "canceled")
}

func TestBuildHTML(t *testing.T) {
	c := New(Options{Minify: true, Tailwind: true})
	res := c.BuildHTML(context.Background(), sampleConfig())

	require.Empty(t, res.Error)
	assert.True(t, strings.HasPrefix(res.HTML, "<!DOCTYPE html>"))
	assert.Contains(t, res.HTML, TailwindScript)
	assert.Contains(t, res.HTML, `<div id="root"></div>`)
	assert.Contains(t, res.HTML, `<script type="module">`)
	assert.Contains(t, res.HTML, "https://esm.sh/react@18")
}

func TestBuildHTML_EntryNotFound(t *testing.T) {
	cfg := previews.PreviewConfig{
		Entry: "App.tsx",
		Files: []previews.PreviewFile{{Path: "index.tsx", Type: previews.TypeTSX, Content: "export default 1"}},
	}

	res := New(Options{}).BuildHTML(context.Background(), cfg)
	assert.Equal(t, HTMLResult{HTML: "", Error: "Entry file not found: App.tsx"}, res)

	res = New(Options{}).BuildHTML(context.Background(), previews.PreviewConfig{Entry: "App.tsx"})
	assert.Equal(t, "Entry file not found: App.tsx", res.Error)
}

func TestCDNURL(t *testing.T) {
	c := New(Options{CDNBase: "https://cdn.example.com/", Pins: map[string]string{"@radix-ui/react-dialog": "1"}})

	tests := map[string]string{
		"react":                   "https://cdn.example.com/react@18",
		"react-dom/client":        "https://cdn.example.com/react-dom@18/client",
		"lodash/debounce":         "https://cdn.example.com/lodash/debounce",
		"@radix-ui/react-dialog":  "https://cdn.example.com/@radix-ui/react-dialog@1",
		"@scope/pkg/deep/path.js": "https://cdn.example.com/@scope/pkg/deep/path.js",
		"clsx":                    "https://cdn.example.com/clsx",
	}
	for importPath, want := range tests {
		assert.Equal(t, want, c.cdnURL(importPath), importPath)
	}
}

func TestVFSResolve(t *testing.T) {
	fs := vfs{
		"App.tsx":             {Path: "App.tsx"},
		"lib/index.ts":        {Path: "lib/index.ts"},
		"lib/util.js":         {Path: "lib/util.js"},
		"styles.css":          {Path: "styles.css"},
		"components/Card.jsx": {Path: "components/Card.jsx"},
	}

	tests := []struct {
		from, importPath, want string
		ok                     bool
	}{
		{".", "./App", "App.tsx", true},
		{".", "./App.tsx", "App.tsx", true},
		{".", "./lib", "lib/index.ts", true},
		{".", "./lib/", "lib/index.ts", true},
		{".", "./styles", "styles.css", true},
		{"lib", "./util", "lib/util.js", true},
		{"components", "../lib/util", "lib/util.js", true},
		{".", "../outside", "", false},
		{".", "./nope", "", false},
	}
	for _, tt := range tests {
		got, ok := fs.resolve(tt.from, tt.importPath)
		assert.Equal(t, tt.ok, ok, tt.importPath)
		assert.Equal(t, tt.want, got, tt.importPath)
	}
}

func TestStyleModuleEscapes(t *testing.T) {
	out := styleModule("a::before { content: `x` } .b { --v: ${y}; } .c { content: \"\\201C\" }")
	assert.Contains(t, out, "\\`x\\`")
	assert.Contains(t, out, "\\${y}")
	assert.Contains(t, out, `\\201C`)
}

func TestEntryWrapper(t *testing.T) {
	mount := entryWrapper(previews.PreviewFile{Path: "App.tsx", Content: "export  default function App() {}"})
	assert.Contains(t, mount, `import App from "./App.tsx"`)
	assert.Contains(t, mount, "createRoot")

	plain := entryWrapper(previews.PreviewFile{Path: "main.ts", Content: "console.log(1)"})
	assert.Equal(t, "import \"./main.ts\"\n", plain)
}

func TestStandaloneHTMLEscapesScriptClose(t *testing.T) {
	html := standaloneHTML(`const s = "</script>";`, false)
	assert.NotContains(t, html, TailwindScript)
	assert.Contains(t, html, `"<\/script>"`)
}

func TestErrorHTMLEscapes(t *testing.T) {
	out := ErrorHTML("card", "Unexpected <div>")
	assert.Contains(t, out, "Unexpected &lt;div&gt;")
	assert.Contains(t, out, `Preview "card" failed`)
}

func TestCacheKey(t *testing.T) {
	cfg := sampleConfig()
	a := New(Options{})
	b := New(Options{Pins: map[string]string{"lucide-react": "0.400"}})

	assert.Equal(t, a.CacheKey(cfg), New(Options{}).CacheKey(cfg))
	assert.NotEqual(t, a.CacheKey(cfg), b.CacheKey(cfg))
	assert.NotEqual(t, a.CacheKey(cfg), New(Options{Minify: true}).CacheKey(cfg))

	changed := cfg.WithFiles([]previews.PreviewFile{{Path: "App.tsx", Content: "export default () => null"}})
	assert.NotEqual(t, a.CacheKey(cfg), a.CacheKey(changed))
}
