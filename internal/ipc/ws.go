package ipc

import (
	"context"
	"io"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/mark3labs/mcp-go/server"

	"fluorite-flake/pkg/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The dashboard is loopback-only; browser origin checks do not apply.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades the connection and runs a stdio-framed MCP
// session over text messages, one JSON-RPC message per frame.
func (s *Server) handleWebSocket(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AuthToken != "" {
			token := r.Header.Get("Authorization")
			if token != "Bearer "+s.cfg.AuthToken && r.URL.Query().Get("token") != s.cfg.AuthToken {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warn("IPC", "WebSocket upgrade failed: %v", err)
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			session := server.NewStdioServer(s.mcp)
			rw := newWSStream(conn)
			if err := session.Listen(ctx, rw, rw); err != nil && ctx.Err() == nil {
				logging.Debug("IPC", "WebSocket session ended: %v", err)
			}
		}()
	}
}

// wsStream adapts a websocket connection to the line-delimited byte stream
// the stdio server expects. Reads concatenate frames with newlines; each
// written line goes out as one frame.
type wsStream struct {
	conn    *websocket.Conn
	pending []byte
	buffer  []byte
}

func newWSStream(conn *websocket.Conn) *wsStream {
	return &wsStream{conn: conn}
}

func (w *wsStream) Read(p []byte) (int, error) {
	if len(w.pending) == 0 {
		_, frame, err := w.conn.ReadMessage()
		if err != nil {
			return 0, io.EOF
		}
		w.pending = append(frame, '\n')
	}
	n := copy(p, w.pending)
	w.pending = w.pending[n:]
	return n, nil
}

func (w *wsStream) Write(p []byte) (int, error) {
	written := len(p)
	w.buffer = append(w.buffer, p...)
	for {
		idx := -1
		for i, b := range w.buffer {
			if b == '\n' {
				idx = i
				break
			}
		}
		if idx < 0 {
			return written, nil
		}
		line := w.buffer[:idx]
		w.buffer = w.buffer[idx+1:]
		if len(line) == 0 {
			continue
		}
		if err := w.conn.WriteMessage(websocket.TextMessage, line); err != nil {
			return written, err
		}
	}
}
