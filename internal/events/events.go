// Package events publishes change and build notifications to NATS.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/prev/internal/logfields"
	"git.home.luguber.info/inful/prev/internal/retry"
)

// ErrEncode is returned when an event cannot be serialized.
var ErrEncode = errors.New("failed to marshal event")

// Type names an event kind. It is appended to the configured subject.
type Type string

const (
	TypeChange      Type = "change"
	TypeBuild       Type = "build"
	TypePreviewFail Type = "preview_failed"
)

// Event is the JSON payload published for each notification.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Root      string    `json:"root,omitempty"`
	BuildID   string    `json:"build_id,omitempty"`
	Commit    string    `json:"commit,omitempty"`
	Preview   string    `json:"preview,omitempty"`
	Paths     []string  `json:"paths,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Pages     int       `json:"pages,omitempty"`
	Previews  int       `json:"previews,omitempty"`
}

// Publisher delivers events. Publish errors are not fatal to callers.
type Publisher interface {
	Publish(ctx context.Context, ev *Event) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *Event) error { return nil }
func (NoopPublisher) Close() error                          { return nil }

// Subject returns the subject an event type is published on.
func Subject(base string, t Type) string {
	if base == "" {
		return string(t)
	}
	return base + "." + string(t)
}

// NATSPublisher publishes events on core NATS subjects.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	once    sync.Once
}

// New connects to url and returns a publisher. An empty url yields a NoopPublisher.
func New(url, subject string) (Publisher, error) {
	if url == "" {
		return NoopPublisher{}, nil
	}
	conn, err := nats.Connect(url,
		nats.Name("prev"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS publisher connected", logfields.URL(url), slog.String("subject", subject))
	return NewFromConn(conn, subject), nil
}

// NewFromConn wraps an existing connection.
func NewFromConn(conn *nats.Conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject}
}

func (p *NATSPublisher) Publish(ctx context.Context, ev *Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	subject := Subject(p.subject, ev.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	slog.Debug("Published event", slog.String("subject", subject), slog.String("type", string(ev.Type)))
	return nil
}

func (p *NATSPublisher) Close() error {
	p.once.Do(func() {
		if p.conn != nil {
			if err := p.conn.Drain(); err != nil {
				p.conn.Close()
			}
		}
	})
	return nil
}

// Notify publishes ev, retrying transient failures within a short timeout,
// and logs failures instead of returning them.
func Notify(p Publisher, ev *Event) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := retry.DefaultPolicy().Do(ctx, func(ctx context.Context) error {
		err := p.Publish(ctx, ev)
		if errors.Is(err, ErrEncode) || errors.Is(err, nats.ErrConnectionClosed) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		slog.Warn("Failed to publish event", slog.String("type", string(ev.Type)), logfields.Error(err))
	}
}
