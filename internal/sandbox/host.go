package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/prev/internal/logfields"
	"git.home.luguber.info/inful/prev/internal/metrics"
	"git.home.luguber.info/inful/prev/internal/previews"
)

// DefaultBuildTimeout bounds how long a host waits for a build result.
const DefaultBuildTimeout = 30 * time.Second

// ErrBuildTimeout indicates the runtime produced no result in time.
var ErrBuildTimeout = errors.New("sandbox: no build result")

// State is the host's view of one embedded runtime.
type State string

const (
	StateBooting     State = "booting"
	StateConfiguring State = "configuring"
	StateBuilding    State = "building"
	StateReady       State = "ready"
	StateError       State = "error"
)

// ConfigFetcher loads a preview configuration out of band.
type ConfigFetcher interface {
	FetchConfig(ctx context.Context, name string) (*previews.PreviewConfig, error)
}

// ConfigFetcherFunc adapts a function to ConfigFetcher.
type ConfigFetcherFunc func(ctx context.Context, name string) (*previews.PreviewConfig, error)

func (f ConfigFetcherFunc) FetchConfig(ctx context.Context, name string) (*previews.PreviewConfig, error) {
	return f(ctx, name)
}

// Snapshot is a point-in-time copy of host status.
type Snapshot struct {
	State     State  `json:"state"`
	BuildTime int64  `json:"buildTime,omitempty"`
	Error     string `json:"error,omitempty"`
	InitSent  bool   `json:"initSent"`
}

// Host drives the handshake for one embedded runtime and tracks its status.
type Host struct {
	id       string
	preview  string
	ch       Channel
	fetcher  ConfigFetcher
	recorder metrics.Recorder

	mu          sync.Mutex
	state       State
	buildTime   int64
	errText     string
	initPending bool
	initSent    bool
	detached    bool
	changed     chan struct{}
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithHostRecorder sets the metrics recorder.
func WithHostRecorder(r metrics.Recorder) HostOption {
	return func(h *Host) { h.recorder = metrics.OrNoop(r) }
}

// NewHost creates a host for the named preview talking over ch.
func NewHost(preview string, ch Channel, fetcher ConfigFetcher, opts ...HostOption) *Host {
	h := &Host{
		id:       uuid.NewString(),
		preview:  preview,
		ch:       ch,
		fetcher:  fetcher,
		recorder: metrics.NoopRecorder{},
		state:    StateBooting,
		changed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Status returns a snapshot of the host's state.
func (h *Host) Status() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *Host) snapshotLocked() Snapshot {
	return Snapshot{State: h.state, BuildTime: h.buildTime, Error: h.errText, InitSent: h.initSent}
}

// setLocked transitions state and wakes waiters. Callers hold h.mu.
func (h *Host) setLocked(state State, buildTime int64, errText string) {
	h.state = state
	h.buildTime = buildTime
	h.errText = errText
	close(h.changed)
	h.changed = make(chan struct{})
}

// HandleMessage applies one message from the runtime. Messages after Detach,
// repeated ready messages, and types a host does not receive are ignored.
func (h *Host) HandleMessage(ctx context.Context, m Message) error {
	h.mu.Lock()
	if h.detached {
		h.mu.Unlock()
		return nil
	}
	h.recorder.IncSandboxMessage("in", string(m.Type))

	switch m.Type {
	case TypeReady:
		if h.initSent || h.initPending {
			h.mu.Unlock()
			slog.Debug("Ignoring repeated ready", logfields.Preview(h.preview), logfields.Session(h.id))
			return nil
		}
		h.initPending = true
		h.setLocked(StateConfiguring, 0, "")
		h.mu.Unlock()
		return h.sendInit(ctx)

	case TypeBuilt:
		if m.Result == nil {
			h.mu.Unlock()
			return nil
		}
		if m.Result.Success {
			h.setLocked(StateReady, m.Result.BuildTime, "")
		} else {
			h.setLocked(StateError, 0, m.Result.Error)
		}
		h.mu.Unlock()
		return nil

	case TypeError:
		h.setLocked(StateError, 0, m.Error)
		h.mu.Unlock()
		return nil

	default:
		h.mu.Unlock()
		return nil
	}
}

func (h *Host) sendInit(ctx context.Context) error {
	cfg, err := h.fetcher.FetchConfig(ctx, h.preview)
	if err == nil && cfg == nil {
		err = fmt.Errorf("%w: %s", previews.ErrPreviewNotFound, h.preview)
	}
	if err == nil {
		err = h.ch.Send(ctx, Init(*cfg))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.initPending = false
	if err != nil {
		slog.Warn("Preview handshake failed", logfields.Preview(h.preview), logfields.Session(h.id), logfields.Error(err))
		if !h.detached {
			h.setLocked(StateError, 0, err.Error())
		}
		return err
	}
	h.initSent = true
	h.recorder.IncSandboxMessage("out", string(TypeInit))
	if !h.detached && h.state == StateConfiguring {
		h.setLocked(StateBuilding, 0, "")
	}
	return nil
}

// Update pushes changed files to the runtime for a rebuild.
func (h *Host) Update(ctx context.Context, files []previews.PreviewFile) error {
	h.mu.Lock()
	if h.detached || !h.initSent {
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	if err := h.ch.Send(ctx, Update(files)); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.recorder.IncSandboxMessage("out", string(TypeUpdate))
	if !h.detached {
		h.setLocked(StateBuilding, 0, "")
	}
	return nil
}

// Detach stops the host from reacting to further messages.
func (h *Host) Detach() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detached = true
}

// Run receives messages until the channel closes or ctx ends.
func (h *Host) Run(ctx context.Context) error {
	for {
		m, err := h.ch.Receive(ctx)
		if err != nil {
			if isIgnorable(err) {
				slog.Debug("Ignoring invalid sandbox message", logfields.Session(h.id), logfields.Error(err))
				continue
			}
			if errors.Is(err, ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := h.HandleMessage(ctx, m); err != nil && ctx.Err() != nil {
			return nil
		}
	}
}

// Await blocks until the runtime reports a result (ready or error) or the
// timeout expires. On expiry the host moves to the error state. A zero
// timeout uses DefaultBuildTimeout.
func (h *Host) Await(ctx context.Context, timeout time.Duration) (Snapshot, error) {
	if timeout <= 0 {
		timeout = DefaultBuildTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		h.mu.Lock()
		if h.state == StateReady || h.state == StateError {
			snap := h.snapshotLocked()
			h.mu.Unlock()
			return snap, nil
		}
		changed := h.changed
		h.mu.Unlock()

		select {
		case <-changed:
		case <-timer.C:
			h.mu.Lock()
			msg := fmt.Sprintf("sandbox: no build result within %s", timeout)
			h.setLocked(StateError, 0, msg)
			snap := h.snapshotLocked()
			h.mu.Unlock()
			return snap, fmt.Errorf("%w within %s", ErrBuildTimeout, timeout)
		case <-ctx.Done():
			return h.Status(), ctx.Err()
		}
	}
}
