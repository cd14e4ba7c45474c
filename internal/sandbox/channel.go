package sandbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/websocket"
)

// Channel carries protocol messages between host and runtime.
type Channel interface {
	Send(ctx context.Context, m Message) error
	Receive(ctx context.Context) (Message, error)
	Close() error
}

type pipeEnd struct {
	in     <-chan []byte
	out    chan<- []byte
	done   chan struct{}
	closer *sync.Once
}

// Pipe returns two connected in-memory channel ends. Messages are encoded on
// send and decoded on receive, so ends share no memory.
func Pipe() (hostEnd, runtimeEnd Channel) {
	a := make(chan []byte, 16)
	b := make(chan []byte, 16)
	done := make(chan struct{})
	once := &sync.Once{}
	return &pipeEnd{in: a, out: b, done: done, closer: once},
		&pipeEnd{in: b, out: a, done: done, closer: once}
}

func (p *pipeEnd) Send(ctx context.Context, m Message) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	select {
	case <-p.done:
		return ErrClosed
	default:
	}
	select {
	case p.out <- data:
		return nil
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipeEnd) Receive(ctx context.Context) (Message, error) {
	select {
	case data := <-p.in:
		return Decode(data)
	case <-p.done:
		return Message{}, ErrClosed
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (p *pipeEnd) Close() error {
	p.closer.Do(func() { close(p.done) })
	return nil
}

type wsChannel struct {
	conn *websocket.Conn
}

// WebSocket wraps a websocket connection as a Channel using text frames.
func WebSocket(conn *websocket.Conn) Channel {
	return &wsChannel{conn: conn}
}

func (w *wsChannel) Send(ctx context.Context, m Message) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	if err := w.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return w.translate(err)
	}
	return nil
}

func (w *wsChannel) Receive(ctx context.Context) (Message, error) {
	typ, data, err := w.conn.Read(ctx)
	if err != nil {
		return Message{}, w.translate(err)
	}
	if typ != websocket.MessageText {
		return Message{}, ErrMalformed
	}
	return Decode(data)
}

func (w *wsChannel) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "")
}

func (w *wsChannel) translate(err error) error {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return err
}
