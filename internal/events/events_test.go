package events

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	events []*Event
	err    error
}

func (c *capturePublisher) Publish(_ context.Context, ev *Event) error {
	c.events = append(c.events, ev)
	return c.err
}

func (c *capturePublisher) Close() error { return nil }

func TestNew_EmptyURLIsNoop(t *testing.T) {
	p, err := New("", "prev.events")
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, p)
	require.NoError(t, p.Publish(context.Background(), &Event{Type: TypeChange}))
	require.NoError(t, p.Close())
}

func TestNew_UnreachableServer(t *testing.T) {
	_, err := New("nats://127.0.0.1:1", "prev.events")
	require.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "prev.events.build", Subject("prev.events", TypeBuild))
	assert.Equal(t, "change", Subject("", TypeChange))
}

func TestNotify(t *testing.T) {
	ok := &capturePublisher{}
	Notify(ok, &Event{Type: TypeBuild, BuildID: "b1"})
	require.Len(t, ok.events, 1)
	assert.Equal(t, "b1", ok.events[0].BuildID)

	Notify(nil, &Event{Type: TypeBuild})
}

func TestNotify_RetriesTransientFailures(t *testing.T) {
	c := &capturePublisher{err: errors.New("offline")}
	Notify(c, &Event{Type: TypeBuild})
	assert.Len(t, c.events, 3)

	c = &capturePublisher{err: fmt.Errorf("%w: bad payload", ErrEncode)}
	Notify(c, &Event{Type: TypeBuild})
	assert.Len(t, c.events, 1)
}
