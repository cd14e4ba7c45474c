package server

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/prev/internal/logfields"
	"git.home.luguber.info/inful/prev/internal/sandbox"
)

// maxSandboxMessage bounds one protocol frame; init carries every preview file.
const maxSandboxMessage = 16 << 20

// handleSandbox upgrades to a websocket and runs one sandbox runtime session
// on it. The browser document is the host; the session ends when it disconnects.
func (s *Server) handleSandbox(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
	if err != nil {
		slog.Debug("Sandbox websocket accept failed", logfields.Error(err))
		return
	}
	conn.SetReadLimit(maxSandboxMessage)

	id := uuid.NewString()
	log := slog.With(logfields.Session(id), logfields.Preview(r.URL.Query().Get("name")))
	log.Debug("Sandbox session started")

	s.recorder.AddSandboxSessions(1)
	defer s.recorder.AddSandboxSessions(-1)

	ch := sandbox.WebSocket(conn)
	defer func() { _ = ch.Close() }()

	if err := s.sandboxRuntime().Serve(r.Context(), ch); err != nil {
		log.Warn("Sandbox session ended with error", logfields.Error(err))
		_ = conn.Close(websocket.StatusInternalError, "runtime error")
		return
	}
	log.Debug("Sandbox session closed")
}
