// Package transport bridges a gorilla/websocket connection to a
// session.Session: a read pump decodes inbound frames and feeds the
// session, a write pump drains the session's outbound queue back onto the
// wire.
package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voicetyped/vad-gateway/internal/session"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second

	maxMessageBytes = 1 << 20 // 1 MiB: generous for a 1024-byte PCM chunk cadence
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The gateway is consumed by arbitrary browser and native clients across
	// origins; origin checking is left to an edge proxy, not this handler.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Deps is everything a Handler needs to construct a Session per connection.
type Deps struct {
	Manager       *session.Manager
	NewSession    func(clientID string, conn session.Conn) *session.Session
	DrainTimeout  time.Duration
}

// Handler upgrades HTTP requests to WebSocket connections and runs each
// connection's read/write pumps for its lifetime.
type Handler struct {
	deps Deps
}

// NewHandler builds a Handler from deps.
func NewHandler(deps Deps) *Handler {
	if deps.DrainTimeout <= 0 {
		deps.DrainTimeout = 5 * time.Second
	}
	return &Handler{deps: deps}
}

// wsConn adapts *websocket.Conn to session.Conn. Only Close is needed: all
// writes happen from writePump, the connection's sole writer.
type wsConn struct {
	ws *websocket.Conn
}

func (c *wsConn) Close() error { return c.ws.Close() }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "websocket upgrade failed", slog.Any("error", err))
		return
	}

	clientID := session.NextClientID()
	sess := h.deps.NewSession(clientID, &wsConn{ws: conn})
	h.deps.Manager.Add(sess)

	slog.Info("session connected", slog.String("client_id", clientID))
	sess.HandleConnect()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go writePump(conn, sess)
	readPump(ctx, conn, sess)

	sess.Close(h.deps.DrainTimeout)
	h.deps.Manager.Remove(clientID)
	slog.Info("session disconnected", slog.String("client_id", clientID))
}

// readPump owns conn's only reader; it is the single inbound goroutine a
// Session requires for its frame-splitter/FSM/merger pipeline to stay
// race-free. It exits when ReadMessage returns an error (the connection
// closed, or the read deadline passed without a pong); ctx is only handed on
// to HandleAudio. The caller is then responsible for flush/close.
func readPump(ctx context.Context, conn *websocket.Conn, sess *session.Session) {
	conn.SetReadLimit(maxMessageBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			sess.HandleAudio(ctx, data)
		case websocket.TextMessage:
			sess.HandleText(data)
		}
	}
}

// writePump owns conn's only writer, multiplexing the session's outbound
// message queue with periodic keepalive pings.
func writePump(conn *websocket.Conn, sess *session.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sess.SendQueue():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
