package previews

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func namesOf(list []Preview) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.Name)
	}
	return out
}

func TestScan_NestedPreviews(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"previews/button/App.tsx":                 "export default () => null",
		"previews/button/styles.css":              ".btn{}",
		"previews/card/variants/index.jsx":        "export default () => null",
		"previews/card/README.md":                 "# not a preview",
		"previews/node_modules/dep/App.tsx":       "x",
		"previews/button/node_modules/x/main.tsx": "x",
	})

	list, err := Scan(root)
	require.NoError(t, err)
	require.Equal(t, []string{"button", "card/variants"}, namesOf(list))

	assert.Equal(t, "/_preview/button", list[0].Route)
	assert.Equal(t, "App.tsx", list[0].Entry)
	assert.Equal(t, []string{"App.tsx", "styles.css"}, list[0].Files)
	assert.Equal(t, "/_preview/card/variants", list[1].Route)
	assert.Equal(t, "index.jsx", list[1].Entry)
}

func TestScan_MissingDirectory(t *testing.T) {
	list, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestScanArtifacts(t *testing.T) {
	dist := filepath.Join(t.TempDir(), "_preview")
	writeTree(t, dist, map[string]string{
		"button/index.html":        "<html></html>",
		"card/variants/index.html": "<html></html>",
		"card/variants/other.html": "<html></html>",
	})

	list, err := ScanArtifacts(dist)
	require.NoError(t, err)
	require.Equal(t, []string{"button", "card/variants"}, namesOf(list))
	assert.Equal(t, "/_preview/card/variants", list[1].Route)
	assert.Equal(t, filepath.Join(dist, "card", "variants", "index.html"), list[1].ArtifactPath)
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"previews/card/main.tsx":              "import './theme'",
		"previews/card/App.tsx":               "export default function App() { return null }",
		"previews/card/theme.css":             "body{}",
		"previews/card/data/items.json":       "[]",
		"previews/card/notes.md":              "ignored",
		"previews/card/variants/App.tsx":      "nested preview",
		"previews/card/components/Button.tsx": "export const Button = 1",
	})

	cfg, err := Load(root, "card")
	require.NoError(t, err)
	assert.Equal(t, "App.tsx", cfg.Entry)

	var paths []string
	for _, f := range cfg.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"App.tsx", "components/Button.tsx", "data/items.json", "main.tsx", "theme.css"}, paths)

	css, ok := cfg.File("theme.css")
	require.True(t, ok)
	assert.Equal(t, TypeCSS, css.Type)
	assert.Equal(t, "body{}", css.Content)
}

func TestLoad_Errors(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"previews/styles-only/a.css": "body{}",
	})

	_, err := Load(root, "../etc")
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = Load(root, "")
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = Load(root, "missing")
	require.ErrorIs(t, err, ErrPreviewNotFound)

	_, err = Load(root, "styles-only")
	require.ErrorIs(t, err, ErrNoEntry)
}

func TestSelectEntry(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"priority order", []string{"App.jsx", "App.tsx", "index.tsx"}, "App.tsx"},
		{"index before main", []string{"index.jsx", "main.tsx"}, "index.jsx"},
		{"first jsx-like file", []string{"a.ts", "b.jsx", "c.tsx"}, "b.jsx"},
		{"scripts last", []string{"a.css", "lib.js", "util.ts"}, "lib.js"},
		{"nothing compilable", []string{"a.css", "b.json"}, ""},
		{"nested files fall back to extension order", []string{"sub/App.tsx", "z.js"}, "sub/App.tsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectEntry(tt.files))
		})
	}
}

func TestPreviewConfig_WithFiles(t *testing.T) {
	cfg := PreviewConfig{
		Entry: "App.tsx",
		Files: []PreviewFile{
			{Path: "App.tsx", Content: "v1", Type: TypeTSX},
			{Path: "b.css", Content: "x", Type: TypeCSS},
		},
	}

	next := cfg.WithFiles([]PreviewFile{
		{Path: "App.tsx", Content: "v2"},
		{Path: "a.ts", Content: "new"},
	})

	require.Len(t, next.Files, 3)
	assert.Equal(t, "App.tsx", next.Files[0].Path)
	added, ok := next.File("a.ts")
	require.True(t, ok)
	assert.Equal(t, TypeTS, added.Type)
	app, _ := next.File("App.tsx")
	assert.Equal(t, "v2", app.Content)
	assert.Equal(t, TypeTSX, app.Type)

	old, _ := cfg.File("App.tsx")
	assert.Equal(t, "v1", old.Content)
	assert.NotEqual(t, cfg.Hash(), next.Hash())
}
