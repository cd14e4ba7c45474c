package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"

	"git.home.luguber.info/inful/prev/internal/previews"
)

// MessageType discriminates protocol messages.
type MessageType string

const (
	TypeInit   MessageType = "init"
	TypeUpdate MessageType = "update"
	TypeReady  MessageType = "ready"
	TypeBuilt  MessageType = "built"
	TypeError  MessageType = "error"
)

var (
	// ErrUnknownType indicates a message whose type is not part of the protocol.
	ErrUnknownType = errors.New("sandbox: unknown message type")

	// ErrMalformed indicates a message missing its payload or not valid JSON.
	ErrMalformed = errors.New("sandbox: malformed message")

	// ErrClosed indicates the channel was closed.
	ErrClosed = errors.New("sandbox: channel closed")
)

// Message is one protocol message. Which payload field is set depends on Type.
type Message struct {
	Type   MessageType             `json:"type"`
	Config *previews.PreviewConfig `json:"config,omitempty"`
	Files  []previews.PreviewFile  `json:"files,omitempty"`
	Result *previews.BuildResult   `json:"result,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

func Init(cfg previews.PreviewConfig) Message { return Message{Type: TypeInit, Config: &cfg} }

func Update(files []previews.PreviewFile) Message {
	if files == nil {
		files = []previews.PreviewFile{}
	}
	return Message{Type: TypeUpdate, Files: files}
}

func Ready() Message { return Message{Type: TypeReady} }

func Built(result previews.BuildResult) Message { return Message{Type: TypeBuilt, Result: &result} }

func Failure(text string) Message { return Message{Type: TypeError, Error: text} }

// MarshalJSON keeps the files array on update messages even when empty.
func (m Message) MarshalJSON() ([]byte, error) {
	type plain Message
	if m.Type != TypeUpdate {
		return json.Marshal(plain(m))
	}
	files := m.Files
	if files == nil {
		files = []previews.PreviewFile{}
	}
	return json.Marshal(struct {
		Type  MessageType            `json:"type"`
		Files []previews.PreviewFile `json:"files"`
	}{Type: m.Type, Files: files})
}

// Validate checks that the message type is known and its payload present.
func (m Message) Validate() error {
	switch m.Type {
	case TypeReady:
		return nil
	case TypeInit:
		if m.Config == nil {
			return fmt.Errorf("%w: init without config", ErrMalformed)
		}
	case TypeUpdate:
		if m.Files == nil {
			return fmt.Errorf("%w: update without files", ErrMalformed)
		}
	case TypeBuilt:
		if m.Result == nil {
			return fmt.Errorf("%w: built without result", ErrMalformed)
		}
	case TypeError:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	return nil
}

// Encode serializes a valid message.
func Encode(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// Decode parses and validates a message.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// isIgnorable reports protocol errors that receivers skip instead of aborting on.
func isIgnorable(err error) bool {
	return errors.Is(err, ErrUnknownType) || errors.Is(err, ErrMalformed)
}
