package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/prev/internal/logfields"
	"git.home.luguber.info/inful/prev/internal/metrics"
	"git.home.luguber.info/inful/prev/internal/previews"
)

// Builder compiles a preview configuration. *compiler.Compiler satisfies it.
type Builder interface {
	Build(ctx context.Context, cfg previews.PreviewConfig) previews.BuildResult
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, cfg previews.PreviewConfig) previews.BuildResult

func (f BuilderFunc) Build(ctx context.Context, cfg previews.PreviewConfig) previews.BuildResult {
	return f(ctx, cfg)
}

// Runtime is the isolated side of the protocol. It holds no preview data of
// its own: everything it builds arrives through init and update messages.
type Runtime struct {
	builder  Builder
	recorder metrics.Recorder
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeRecorder sets the metrics recorder.
func WithRuntimeRecorder(r metrics.Recorder) RuntimeOption {
	return func(rt *Runtime) { rt.recorder = metrics.OrNoop(r) }
}

func NewRuntime(b Builder, opts ...RuntimeOption) *Runtime {
	rt := &Runtime{builder: b, recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Serve runs one session over ch: announce ready, then build on every init
// or update until the channel closes or ctx ends.
func (r *Runtime) Serve(ctx context.Context, ch Channel) error {
	session := uuid.NewString()
	log := slog.With(logfields.Session(session))

	r.recorder.AddSandboxSessions(1)
	defer r.recorder.AddSandboxSessions(-1)

	if err := r.send(ctx, ch, Ready()); err != nil {
		return closedOrErr(ctx, err)
	}
	log.Debug("Sandbox runtime ready")

	var current *previews.PreviewConfig
	for {
		m, err := ch.Receive(ctx)
		if err != nil {
			if isIgnorable(err) {
				log.Debug("Ignoring invalid sandbox message", logfields.Error(err))
				continue
			}
			return closedOrErr(ctx, err)
		}

		switch m.Type {
		case TypeInit:
			cfg := *m.Config
			current = &cfg
			log.Debug("Sandbox runtime configured", logfields.File(cfg.Entry), logfields.Count(len(cfg.Files)))
		case TypeUpdate:
			if current == nil {
				if err := r.send(ctx, ch, Failure("update received before init")); err != nil {
					return closedOrErr(ctx, err)
				}
				continue
			}
			next := current.WithFiles(m.Files)
			current = &next
		default:
			continue
		}

		if err := r.send(ctx, ch, r.build(ctx, *current)); err != nil {
			return closedOrErr(ctx, err)
		}
	}
}

// build compiles cfg and converts a panicking builder into an error message.
func (r *Runtime) build(ctx context.Context, cfg previews.PreviewConfig) (reply Message) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Sandbox build panicked", slog.Any("panic", rec))
			reply = Failure(fmt.Sprintf("build crashed: %v", rec))
		}
	}()
	return Built(r.builder.Build(ctx, cfg))
}

func (r *Runtime) send(ctx context.Context, ch Channel, m Message) error {
	if err := ch.Send(ctx, m); err != nil {
		return err
	}
	r.recorder.IncSandboxMessage("out", string(m.Type))
	return nil
}

func closedOrErr(ctx context.Context, err error) error {
	if errors.Is(err, ErrClosed) || ctx.Err() != nil {
		return nil
	}
	return err
}
