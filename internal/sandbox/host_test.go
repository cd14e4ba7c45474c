package sandbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/prev/internal/previews"
)

// recordingChannel captures messages sent by a host.
type recordingChannel struct {
	mu   sync.Mutex
	sent []Message
}

func (c *recordingChannel) Send(_ context.Context, m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, m)
	return nil
}

func (c *recordingChannel) Receive(ctx context.Context) (Message, error) {
	<-ctx.Done()
	return Message{}, ctx.Err()
}

func (c *recordingChannel) Close() error { return nil }

func (c *recordingChannel) count(t MessageType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.sent {
		if m.Type == t {
			n++
		}
	}
	return n
}

func staticFetcher(cfg previews.PreviewConfig) ConfigFetcher {
	return ConfigFetcherFunc(func(context.Context, string) (*previews.PreviewConfig, error) {
		return &cfg, nil
	})
}

var buttonConfig = previews.PreviewConfig{
	Entry: "App.tsx",
	Files: []previews.PreviewFile{{Path: "App.tsx", Content: "export default () => null", Type: previews.TypeTSX}},
}

func TestHost_IdempotentHandshake(t *testing.T) {
	ctx := context.Background()
	ch := &recordingChannel{}
	host := NewHost("button", ch, staticFetcher(buttonConfig))

	assert.Equal(t, StateBooting, host.Status().State)

	require.NoError(t, host.HandleMessage(ctx, Ready()))
	assert.Equal(t, StateBuilding, host.Status().State)
	require.NoError(t, host.HandleMessage(ctx, Ready()))
	require.NoError(t, host.HandleMessage(ctx, Built(previews.BuildResult{Success: true, BuildTime: 120})))

	assert.Equal(t, 1, ch.count(TypeInit))
	snap := host.Status()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, int64(120), snap.BuildTime)
	assert.True(t, snap.InitSent)
	assert.Empty(t, snap.Error)

	require.Len(t, ch.sent, 1)
	assert.Equal(t, buttonConfig, *ch.sent[0].Config)
}

func TestHost_ReentrantResults(t *testing.T) {
	ctx := context.Background()
	host := NewHost("button", &recordingChannel{}, staticFetcher(buttonConfig))
	require.NoError(t, host.HandleMessage(ctx, Ready()))

	require.NoError(t, host.HandleMessage(ctx, Built(previews.BuildResult{Success: false, Error: "Unexpected token"})))
	assert.Equal(t, Snapshot{State: StateError, Error: "Unexpected token", InitSent: true}, host.Status())

	require.NoError(t, host.HandleMessage(ctx, Built(previews.BuildResult{Success: true, BuildTime: 40})))
	assert.Equal(t, Snapshot{State: StateReady, BuildTime: 40, InitSent: true}, host.Status())

	require.NoError(t, host.HandleMessage(ctx, Failure("runtime crashed")))
	assert.Equal(t, StateError, host.Status().State)
	assert.Equal(t, "runtime crashed", host.Status().Error)
}

func TestHost_DetachIgnoresLateMessages(t *testing.T) {
	ctx := context.Background()
	ch := &recordingChannel{}
	host := NewHost("button", ch, staticFetcher(buttonConfig))
	require.NoError(t, host.HandleMessage(ctx, Ready()))

	host.Detach()
	require.NoError(t, host.HandleMessage(ctx, Built(previews.BuildResult{Success: true, BuildTime: 5})))
	require.NoError(t, host.Update(ctx, nil))

	assert.Equal(t, StateBuilding, host.Status().State)
	assert.Equal(t, 0, ch.count(TypeUpdate))
}

func TestHost_FetchFailureAllowsRetry(t *testing.T) {
	ctx := context.Background()
	ch := &recordingChannel{}
	calls := 0
	fetcher := ConfigFetcherFunc(func(context.Context, string) (*previews.PreviewConfig, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("connection refused")
		}
		cfg := buttonConfig
		return &cfg, nil
	})
	host := NewHost("button", ch, fetcher)

	require.Error(t, host.HandleMessage(ctx, Ready()))
	assert.Equal(t, StateError, host.Status().State)
	assert.False(t, host.Status().InitSent)

	require.NoError(t, host.HandleMessage(ctx, Ready()))
	assert.Equal(t, 1, ch.count(TypeInit))
	assert.Equal(t, StateBuilding, host.Status().State)
}

func TestHost_UpdateRequiresInit(t *testing.T) {
	ctx := context.Background()
	ch := &recordingChannel{}
	host := NewHost("button", ch, staticFetcher(buttonConfig))

	require.NoError(t, host.Update(ctx, []previews.PreviewFile{{Path: "App.tsx"}}))
	assert.Equal(t, 0, ch.count(TypeUpdate))

	require.NoError(t, host.HandleMessage(ctx, Ready()))
	require.NoError(t, host.HandleMessage(ctx, Built(previews.BuildResult{Success: true})))
	require.NoError(t, host.Update(ctx, []previews.PreviewFile{{Path: "App.tsx"}}))
	assert.Equal(t, 1, ch.count(TypeUpdate))
	assert.Equal(t, StateBuilding, host.Status().State)
}

func TestHost_AwaitTimeout(t *testing.T) {
	ctx := context.Background()
	host := NewHost("button", &recordingChannel{}, staticFetcher(buttonConfig))
	require.NoError(t, host.HandleMessage(ctx, Ready()))

	snap, err := host.Await(ctx, 20*time.Millisecond)
	require.ErrorIs(t, err, ErrBuildTimeout)
	assert.Equal(t, StateError, snap.State)
	assert.Contains(t, snap.Error, "no build result within 20ms")
}

func TestHost_AwaitWakesOnResult(t *testing.T) {
	ctx := context.Background()
	host := NewHost("button", &recordingChannel{}, staticFetcher(buttonConfig))
	require.NoError(t, host.HandleMessage(ctx, Ready()))

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = host.HandleMessage(ctx, Built(previews.BuildResult{Success: true, BuildTime: 7}))
	}()

	snap, err := host.Await(ctx, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, int64(7), snap.BuildTime)
}
