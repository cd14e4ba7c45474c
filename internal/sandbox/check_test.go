package sandbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/prev/internal/previews"
)

func TestCheck_Success(t *testing.T) {
	var builds atomic.Int32
	snap, err := Check(context.Background(), NewRuntime(echoBuilder(&builds)), staticFetcher(buttonConfig), "button", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, int64(3), snap.BuildTime)
	assert.True(t, snap.InitSent)
	assert.Equal(t, int32(1), builds.Load())
}

func TestCheck_BuildFailure(t *testing.T) {
	var builds atomic.Int32
	cfg := previews.PreviewConfig{Entry: "App.tsx"}
	snap, err := Check(context.Background(), NewRuntime(echoBuilder(&builds)), staticFetcher(cfg), "empty", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, "Entry file not found: App.tsx", snap.Error)
}

func TestCheck_Timeout(t *testing.T) {
	slow := BuilderFunc(func(ctx context.Context, _ previews.PreviewConfig) previews.BuildResult {
		<-ctx.Done()
		return previews.BuildResult{Error: ctx.Err().Error()}
	})
	snap, err := Check(context.Background(), NewRuntime(slow), staticFetcher(buttonConfig), "button", 30*time.Millisecond)
	require.ErrorIs(t, err, ErrBuildTimeout)
	assert.Equal(t, StateError, snap.State)
}

func TestWebSocketChannel(t *testing.T) {
	var builds atomic.Int32
	rt := NewRuntime(echoBuilder(&builds))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		ch := WebSocket(conn)
		defer ch.Close()
		_ = rt.Serve(r.Context(), ch)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	ch := WebSocket(conn)
	defer ch.Close()

	host := NewHost("button", ch, staticFetcher(buttonConfig))
	go func() { _ = host.Run(ctx) }()

	snap, err := host.Await(ctx, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, int64(3), snap.BuildTime)
}
