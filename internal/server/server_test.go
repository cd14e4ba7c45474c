package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/prev/internal/config"
	derrors "git.home.luguber.info/inful/prev/internal/foundation/errors"
	"git.home.luguber.info/inful/prev/internal/metrics"
	"git.home.luguber.info/inful/prev/internal/ordering"
	"git.home.luguber.info/inful/prev/internal/previews"
	"git.home.luguber.info/inful/prev/internal/sandbox"
	"git.home.luguber.info/inful/prev/internal/server/responses"
	"git.home.luguber.info/inful/prev/internal/site"
	"git.home.luguber.info/inful/prev/internal/watch"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
}

type fixture struct {
	root   string
	orders *ordering.MemoryStore
	server *Server
	http   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"index.md":                  "# Home\n\nWelcome.\n",
		"guide/a.md":                "# Alpha\n",
		"guide/b.md":                "# Beta\n",
		"internal/notes.md":         "# Notes\n",
		"previews/button/App.tsx":   "export default function App() { return <button>ok</button> }\n",
		"previews/button/style.css": "button { color: red; }\n",
	})

	cfg := config.Default()
	cfg.Hidden = []string{"internal/**"}
	orders := ordering.NewMemoryStore()
	reg := prometheus.NewRegistry()
	s := New(Options{
		Root:     root,
		Config:   cfg,
		Orders:   orders,
		Registry: reg,
		Recorder: metrics.NewPrometheusRecorder(reg),
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Hub().Shutdown()
		srv.Close()
	})
	return &fixture{root: root, orders: orders, server: s, http: srv}
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.http.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func sidebarIDs(m site.Module) []string {
	ids := make([]string, 0, len(m.Sidebar))
	for _, n := range m.Sidebar {
		ids = append(ids, ordering.ItemID(n))
	}
	return ids
}

func TestPagesModule(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/__prev/pages")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decode[site.Module](t, resp)

	assert.Len(t, m.Pages, 4, "hidden pages stay routable")
	assert.NotContains(t, sidebarIDs(m), "folder:internal")
	assert.Contains(t, sidebarIDs(m), "folder:guide")
	assert.NotEmpty(t, m.Hash)
}

func TestOrderUpdate(t *testing.T) {
	f := newFixture(t)

	body := `{"path":"root","order":["folder:guide","/"]}`
	resp, err := http.Post(f.http.URL+"/__prev/config", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ack := decode[responses.OrderUpdateResponse](t, resp)
	assert.Equal(t, []string{"folder:guide", "/"}, ack.Order)

	record, err := f.orders.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"folder:guide", "/"}, record[ordering.RootBranch])

	m := decode[site.Module](t, f.get(t, "/__prev/pages"))
	assert.Equal(t, []string{"folder:guide", "/"}, sidebarIDs(m))
}

func TestOrderUpdate_Invalid(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.http.URL+"/__prev/config", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2, err := http.Post(f.http.URL+"/__prev/config", "application/json", strings.NewReader(`{"path":"root"}`))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestContent_ETag(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/__prev/content/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	fragment := decode[map[string]any](t, resp)
	assert.Equal(t, "/", fragment["route"])
	assert.Contains(t, fragment["html"], "Welcome.")

	req, err := http.NewRequest(http.MethodGet, f.http.URL+"/__prev/content/", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	again, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer again.Body.Close()
	assert.Equal(t, http.StatusNotModified, again.StatusCode)
}

func TestContent_NotFound(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/__prev/content/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[derrors.HTTPErrorResponse](t, resp)
	assert.Equal(t, string(derrors.CategoryNotFound), body.Code)
}

func TestShell(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/guide/a")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	html, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(html), "<title>Alpha</title>")
	assert.Contains(t, string(html), `data-mode="dev"`)

	assert.Equal(t, http.StatusNotFound, f.get(t, "/nope").StatusCode)
	assert.Equal(t, http.StatusOK, f.get(t, "/__prev/assets/app.js").StatusCode)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/__prev/assets/other.js").StatusCode)
}

func TestPreviewRoutes(t *testing.T) {
	f := newFixture(t)

	list := decode[[]previews.Preview](t, f.get(t, "/__prev/previews"))
	require.Len(t, list, 1)
	assert.Equal(t, "button", list[0].Name)

	resp := f.get(t, "/_preview/button")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	html, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(html), "/_preview-runtime/runtime.js")
	assert.Equal(t, http.StatusNotFound, f.get(t, "/_preview/missing").StatusCode)
	assert.Equal(t, http.StatusOK, f.get(t, "/_preview-runtime/?name=button").StatusCode)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/_preview-runtime/").StatusCode)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/_preview-runtime/?name=missing").StatusCode)

	cfg := decode[previews.PreviewConfig](t, f.get(t, "/_preview-config/button"))
	assert.Equal(t, "App.tsx", cfg.Entry)
	assert.True(t, cfg.Tailwind)
	assert.Len(t, cfg.Files, 2)

	assert.Equal(t, http.StatusNotFound, f.get(t, "/_preview-config/missing").StatusCode)
}

func TestSandboxSession(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/_preview-runtime/ws?name=button"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	conn.SetReadLimit(maxSandboxMessage)
	ch := sandbox.WebSocket(conn)
	defer ch.Close()

	fetcher := sandbox.ConfigFetcherFunc(func(_ context.Context, name string) (*previews.PreviewConfig, error) {
		return previews.Load(f.root, name)
	})
	host := sandbox.NewHost("button", ch, fetcher)
	go func() { _ = host.Run(ctx) }()

	snap, err := host.Await(ctx, 15*time.Second)
	require.NoError(t, err)
	assert.Equal(t, sandbox.StateReady, snap.State, snap.Error)
	assert.True(t, snap.InitSent)
}

func TestLiveReload(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.http.URL+"/__prev/livereload", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	writeTree(t, f.root, map[string]string{"guide/c.md": "# Gamma\n"})
	f.server.HandleChange(ctx, watch.Change{Pages: true, Paths: []string{"guide/c.md"}})

	var data string
	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			break
		}
	}
	var ev responses.ReloadEvent
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.True(t, ev.Pages)
	assert.NotEmpty(t, ev.Hash)

	m := decode[site.Module](t, f.get(t, "/__prev/pages"))
	assert.Len(t, m.Pages, 5)
}

func TestHandleChange_ReloadsConfig(t *testing.T) {
	f := newFixture(t)
	writeTree(t, f.root, map[string]string{config.FileName: "theme: dark\n"})

	f.server.HandleChange(context.Background(), watch.Change{Config: true})
	assert.Equal(t, config.ThemeDark, f.server.Config().Theme)

	got := decode[config.Config](t, f.get(t, "/__prev/config"))
	assert.Equal(t, config.ThemeDark, got.Theme)
}

func routesOf(m site.Module) []string {
	out := make([]string, 0, len(m.Pages))
	for _, p := range m.Pages {
		out = append(out, p.Route)
	}
	return out
}

func TestHandleChange_ReloadAppliesInclude(t *testing.T) {
	f := newFixture(t)
	writeTree(t, f.root, map[string]string{".notes/todo.md": "# Todo\n"})
	assert.NotContains(t, routesOf(decode[site.Module](t, f.get(t, "/__prev/pages"))), "/.notes/todo")

	writeTree(t, f.root, map[string]string{config.FileName: "include: [.notes]\n"})
	f.server.HandleChange(context.Background(), watch.Change{Config: true})

	assert.Equal(t, []string{".notes"}, f.server.Config().Include)
	assert.Contains(t, routesOf(decode[site.Module](t, f.get(t, "/__prev/pages"))), "/.notes/todo")
}

func TestHandleChange_ReloadKeepsLoaderIncludes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"index.md":       "# Home\n",
		".drafts/wip.md": "# WIP\n",
		config.FileName:  "theme: light\n",
	})
	withFlags := func(dir string) (*config.Config, error) {
		cfg, err := config.Load(dir)
		if err != nil {
			return nil, err
		}
		cfg.Include = append(cfg.Include, ".drafts")
		return cfg, nil
	}
	cfg, err := withFlags(root)
	require.NoError(t, err)
	s := New(Options{Root: root, Config: cfg, LoadConfig: withFlags, Orders: ordering.NewMemoryStore()})
	t.Cleanup(s.Hub().Shutdown)

	pages, err := s.Cache().Pages()
	require.NoError(t, err)
	require.Len(t, pages, 2)

	writeTree(t, root, map[string]string{config.FileName: "theme: dark\n"})
	s.HandleChange(context.Background(), watch.Change{Config: true})

	assert.Equal(t, config.ThemeDark, s.Config().Theme)
	assert.Equal(t, []string{".drafts"}, s.Config().Include)
	pages, err = s.Cache().Pages()
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	health := decode[responses.HealthResponse](t, f.get(t, "/health"))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 4, health.Pages)
	assert.Equal(t, 1, health.Previews)

	resp := f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "prev_http_request_duration_seconds")
}

func TestStaticMode(t *testing.T) {
	dist := t.TempDir()
	writeTree(t, dist, map[string]string{
		"index.html":               "<html>home</html>",
		"guide/index.html":         "<html>guide</html>",
		"404.html":                 "<html>missing</html>",
		"__prev/pages.json":        `{"pages":[{"route":"/"},{"route":"/guide"}],"sidebar":[]}`,
		"_preview/card/index.html": "<html>card</html>",
	})
	s := New(Options{Root: t.TempDir(), Mode: ModeStatic, DistDir: dist})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	get := func(p string) (int, string) {
		resp, err := http.Get(srv.URL + p)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	code, body := get("/guide")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "<html>guide</html>", body)

	code, body = get("/_preview/card/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "<html>card</html>", body)

	code, body = get("/nowhere")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "<html>missing</html>", body)

	code, body = get("/__prev/previews")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"name":"card"`)

	code, body = get("/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"pages":2`)
}
