package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShell(t *testing.T) {
	out, err := Shell(ShellData{Title: "Docs <beta>", Theme: "dark", ContentWidth: "full", Mode: ModeStatic})
	require.NoError(t, err)
	html := string(out)
	assert.Contains(t, html, "<title>Docs &lt;beta&gt;</title>")
	assert.Contains(t, html, `data-theme="dark"`)
	assert.Contains(t, html, `data-mode="static"`)
	assert.Contains(t, html, `data-content-width="full"`)
	assert.Contains(t, html, "/__prev/assets/app.js")
}

func TestShell_Defaults(t *testing.T) {
	out, err := Shell(ShellData{})
	require.NoError(t, err)
	assert.Contains(t, string(out), `data-mode="dev"`)
	assert.Contains(t, string(out), "<title>Documentation</title>")
}

func TestEmbeddedAssets(t *testing.T) {
	assert.Contains(t, string(RuntimeShell()), "/_preview-runtime/runtime.js")
	assert.Contains(t, string(RuntimeScript()), "'init'")
	assert.Contains(t, string(AppScript()), "/__prev/livereload")
	assert.NotEmpty(t, Stylesheet())
}

func TestRuntimeScript_HostBehaviour(t *testing.T) {
	script := string(RuntimeScript())

	// Name from ?name= when loaded at /_preview-runtime/.
	assert.Contains(t, script, "new URLSearchParams(location.search).get('name')")
	// Bounded wait for a build reply.
	assert.Contains(t, script, "const buildTimeoutMs = 30000")
	assert.Contains(t, script, "'no build result within '")
	assert.Equal(t, 2, strings.Count(script, "armBuildTimer()\n"), "armed after each init")
	// Reloads resend the full configuration.
	assert.NotContains(t, script, "type: 'update'")
}

func TestRenderTemplateBody(t *testing.T) {
	out, err := RenderTemplateBody("{{ title .Name }}", map[string]any{"Name": "button-demo"})
	require.NoError(t, err)
	assert.Equal(t, "Button Demo", out)

	_, err = RenderTemplateBody("{{ .Missing }}", map[string]any{})
	require.Error(t, err)

	_, err = RenderTemplateBody("{{ .Name", map[string]any{})
	require.Error(t, err)
}

func TestWriteGeneratedFile(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteGeneratedFile(dir, "a/b.txt", "hello")
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	_, err = WriteGeneratedFile(dir, "a/b.txt", "again")
	require.ErrorIs(t, err, ErrFileExists)

	_, err = WriteGeneratedFile(dir, "../escape.txt", "x")
	require.Error(t, err)
	_, err = WriteGeneratedFile(dir, "/abs.txt", "x")
	require.Error(t, err)
	_, err = WriteGeneratedFile("", "a.txt", "x")
	require.Error(t, err)
}

func TestPreviewName(t *testing.T) {
	assert.Equal(t, "my-button", PreviewName("My Button"))
	assert.Equal(t, "card-demo", PreviewName("Card Demo!"))
	assert.Equal(t, DefaultPreviewName, PreviewName("   "))
}

func TestScaffoldPreview(t *testing.T) {
	root := t.TempDir()

	files, err := ScaffoldPreview(root, "button-demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"previews/button-demo/App.tsx", "previews/button-demo/styles.css"}, files)

	app, err := os.ReadFile(filepath.Join(root, "previews", "button-demo", "App.tsx"))
	require.NoError(t, err)
	assert.Contains(t, string(app), "export default function App()")
	assert.Contains(t, string(app), "Button Demo")
	assert.Contains(t, string(app), "import './styles.css'")

	_, err = ScaffoldPreview(root, "button-demo")
	require.ErrorIs(t, err, ErrPreviewExists)
}
