package channel

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/starford/filedock/internal/protocol"
)

const writeWait = 10 * time.Second

// WebSocket is a Port over a websocket connection. Each text frame carries
// one protocol envelope.
type WebSocket struct {
	conn   *websocket.Conn
	inbox  chan protocol.Message
	done   chan struct{}
	logger *slog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// NewWebSocket wraps conn and starts reading from it.
func NewWebSocket(conn *websocket.Conn, opts ...Option) *WebSocket {
	o := buildOptions(opts)
	ws := &WebSocket{
		conn:   conn,
		inbox:  make(chan protocol.Message, o.inboxSize),
		done:   make(chan struct{}),
		logger: o.logger,
	}
	go ws.readLoop()
	return ws
}

func (ws *WebSocket) readLoop() {
	defer ws.Close()
	for {
		_, data, err := ws.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ws.logger.Warn("channel: websocket read failed", slog.String("error", err.Error()))
			}
			return
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			ws.logger.Warn("channel: rejected frame", slog.String("error", err.Error()))
			continue
		}
		if u, ok := msg.(protocol.Unknown); ok {
			ws.logger.Warn("channel: unknown message type", slog.String("type", u.Type))
		}
		if deliver(ws.inbox, ws.done, msg, ws.logger) != nil {
			return
		}
	}
}

// Send writes msg as one text frame.
func (ws *WebSocket) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	select {
	case <-ws.done:
		return ErrClosed
	default:
	}
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	_ = ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		ws.logger.Warn("channel: websocket write failed", slog.String("error", err.Error()))
		return ErrClosed
	}
	return nil
}

// Receive returns the inbox of decoded messages.
func (ws *WebSocket) Receive() <-chan protocol.Message {
	return ws.inbox
}

// Done is closed when the connection ends.
func (ws *WebSocket) Done() <-chan struct{} {
	return ws.done
}

// Close sends a close frame and releases the connection.
func (ws *WebSocket) Close() error {
	var err error
	ws.closeOnce.Do(func() {
		close(ws.done)
		ws.writeMu.Lock()
		_ = ws.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		ws.writeMu.Unlock()
		err = ws.conn.Close()
	})
	return err
}
