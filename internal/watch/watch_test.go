package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/prev/internal/util/sets"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		rel     string
		kind    Kind
		preview string
	}{
		{".prev.yaml", KindConfig, ""},
		{".prev.yml", KindConfig, ""},
		{"guide/intro.mdx", KindPage, ""},
		{"README.md", KindPage, ""},
		{"guide", KindPage, ""},
		{"previews/button/App.tsx", KindPreview, "button"},
		{"previews/card/variants/index.tsx", KindPreview, "card"},
		{"previews/", KindNone, ""},
		{"assets/logo.png", KindNone, ""},
	}
	for _, tt := range tests {
		kind, preview := Classify(tt.rel)
		assert.Equal(t, tt.kind, kind, tt.rel)
		assert.Equal(t, tt.preview, preview, tt.rel)
	}
}

func TestIgnored(t *testing.T) {
	w := &Watcher{include: sets.New(".c3")}

	assert.False(t, w.ignored(".prev.yaml"))
	assert.False(t, w.ignored("guide/intro.md"))
	assert.False(t, w.ignored(".c3/notes.md"))
	assert.True(t, w.ignored("node_modules/x/readme.md"))
	assert.True(t, w.ignored("dist/index.html"))
	assert.True(t, w.ignored(".git/HEAD"))
	assert.True(t, w.ignored(".hidden/notes.md"))
	assert.True(t, w.ignored("guide/intro.md~"))
	assert.True(t, w.ignored("guide/.intro.md.swp"))
	assert.False(t, w.ignored("guide/dist/page.md"))
}

func TestChange_Empty(t *testing.T) {
	assert.True(t, Change{Paths: []string{"x.png"}}.Empty())
	assert.False(t, Change{Pages: true}.Empty())
	assert.False(t, Change{Previews: []string{"button"}}.Empty())
}

func TestWatcher_DebouncesAndClassifies(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "previews", "button"), 0o755))

	w, err := New(root, Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	changes := make(chan Change, 4)
	go func() {
		_ = w.Run(ctx, func(_ context.Context, c Change) { changes <- c })
	}()

	require.NoError(t, os.WriteFile(filepath.Join(root, "index.md"), []byte("# Home"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "previews", "button", "App.tsx"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".prev.yaml"), []byte("theme: dark"), 0o644))

	merged := Change{}
	deadline := time.After(5 * time.Second)
	for !(merged.Pages && merged.Config && len(merged.Previews) > 0) {
		select {
		case c := <-changes:
			merged.Pages = merged.Pages || c.Pages
			merged.Config = merged.Config || c.Config
			merged.Previews = append(merged.Previews, c.Previews...)
		case <-deadline:
			t.Fatalf("incomplete change set: %+v", merged)
		}
	}
	assert.Contains(t, merged.Previews, "button")
}

func TestWatcher_SetIncludeWatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	notes := filepath.Join(root, ".notes")
	require.NoError(t, os.MkdirAll(filepath.Join(notes, "drafts"), 0o755))

	w, err := New(root, Options{})
	require.NoError(t, err)
	defer w.Close()

	assert.True(t, w.ignored(".notes/todo.md"))
	assert.NotContains(t, w.fs.WatchList(), notes)

	require.NoError(t, w.SetInclude([]string{"./.notes/"}))
	assert.False(t, w.ignored(".notes/todo.md"))
	assert.Contains(t, w.fs.WatchList(), notes)
	assert.Contains(t, w.fs.WatchList(), filepath.Join(notes, "drafts"))

	require.NoError(t, w.SetInclude(nil))
	assert.True(t, w.ignored(".notes/todo.md"))
}
