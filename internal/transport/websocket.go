package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Frame types on the wire. Every websocket message is one JSON frame.
const (
	frameHello   = "hello"   // client -> server, handshake identity
	frameEvent   = "event"   // server -> client, named push
	frameRequest = "request" // client -> server, expects an ack
	frameAck     = "ack"     // server -> client, references a request ID
)

type frame struct {
	Type  string          `json:"type"`
	ID    string          `json:"id,omitempty"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Config holds websocket connection tuning.
type Config struct {
	URL          string
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	PingInterval time.Duration
}

// DefaultConfig returns the connection tuning used in production.
func DefaultConfig(url string) Config {
	return Config{
		URL:          url,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  60 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

// WebSocket is the gorilla/websocket-backed Transport.
type WebSocket struct {
	config Config

	onEvent     EventHandler
	onLifecycle LifecycleHandler

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]AckHandler
	closed  bool

	// writeMu serializes writers; gorilla allows one at a time.
	writeMu sync.Mutex
}

// NewWebSocket creates an unconnected websocket transport.
func NewWebSocket(config Config) *WebSocket {
	return &WebSocket{
		config:  config,
		pending: make(map[string]AckHandler),
	}
}

func (w *WebSocket) Subscribe(onEvent EventHandler, onLifecycle LifecycleHandler) {
	w.onEvent = onEvent
	w.onLifecycle = onLifecycle
}

// Connect dials the server, sends the handshake identity, and starts
// the read pump. The connect lifecycle signal fires before Connect
// returns.
func (w *WebSocket) Connect(ctx context.Context, auth Auth) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.config.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", w.config.URL, err)
	}

	hello, err := json.Marshal(auth)
	if err != nil {
		conn.Close()
		return fmt.Errorf("marshal handshake: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
	if err := conn.WriteJSON(frame{Type: frameHello, Data: hello}); err != nil {
		conn.Close()
		return fmt.Errorf("send handshake: %w", err)
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		conn.Close()
		return fmt.Errorf("transport closed")
	}
	if w.conn != nil {
		w.conn.Close()
	}
	w.conn = conn
	w.mu.Unlock()

	go w.readPump(conn)
	go w.pinger(conn)

	log.Debug().Str("url", w.config.URL).Bool("resuming", auth.SessionID != "").Msg("websocket connected")

	if w.onLifecycle != nil {
		w.onLifecycle(SignalConnect)
	}
	return nil
}

// Request sends a named request frame and registers the ack handler
// under a fresh correlation ID.
func (w *WebSocket) Request(event string, data any, ack AckHandler) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %q request: %w", event, err)
	}

	w.mu.Lock()
	conn := w.conn
	if conn == nil {
		w.mu.Unlock()
		return fmt.Errorf("request %q: not connected", event)
	}
	id := uuid.NewString()
	if ack != nil {
		w.pending[id] = ack
	}
	w.mu.Unlock()

	w.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
	err = conn.WriteJSON(frame{Type: frameRequest, ID: id, Event: event, Data: raw})
	w.writeMu.Unlock()
	if err != nil {
		w.mu.Lock()
		delete(w.pending, id)
		w.mu.Unlock()
		return fmt.Errorf("send %q request: %w", event, err)
	}

	log.Debug().Str("event", event).Str("id", id).Msg("request sent")
	return nil
}

func (w *WebSocket) Close() error {
	w.mu.Lock()
	w.closed = true
	conn := w.conn
	w.conn = nil
	pending := w.pending
	w.pending = make(map[string]AckHandler)
	w.mu.Unlock()

	// The read pump no longer matches this connection, so requests in
	// flight get their one guaranteed ack here.
	for _, ack := range pending {
		ack(ErrorResult("transport closed"))
	}

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// readPump delivers frames sequentially until the connection dies,
// then fails outstanding acks and fires the disconnect signal.
func (w *WebSocket) readPump(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket closed unexpectedly")
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))

		var f frame
		if err := json.Unmarshal(message, &f); err != nil {
			log.Warn().Err(err).Msg("dropping unparseable frame")
			continue
		}

		switch f.Type {
		case frameEvent:
			log.Debug().Str("event", f.Event).Msg("event received")
			if w.onEvent != nil {
				w.onEvent(f.Event, f.Data)
			}
		case frameAck:
			w.mu.Lock()
			ack := w.pending[f.ID]
			delete(w.pending, f.ID)
			w.mu.Unlock()
			if ack != nil {
				var result Result
				if err := json.Unmarshal(f.Data, &result); err != nil {
					result = ErrorResult(fmt.Sprintf("unparseable acknowledgement: %v", err))
				}
				ack(result)
			}
		default:
			log.Debug().Str("type", f.Type).Msg("ignoring unknown frame type")
		}
	}

	w.teardown(conn)
}

// teardown clears connection state for one dead connection. A newer
// connection established by a reconnect is left alone.
func (w *WebSocket) teardown(conn *websocket.Conn) {
	w.mu.Lock()
	current := w.conn == conn
	if current {
		w.conn = nil
	}
	closed := w.closed
	pending := w.pending
	if current {
		w.pending = make(map[string]AckHandler)
	}
	w.mu.Unlock()

	conn.Close()
	if !current {
		return
	}

	for _, ack := range pending {
		ack(ErrorResult("connection lost"))
	}
	if !closed && w.onLifecycle != nil {
		w.onLifecycle(SignalDisconnect)
	}
}

func (w *WebSocket) pinger(conn *websocket.Conn) {
	ticker := time.NewTicker(w.config.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		w.mu.Lock()
		current := w.conn == conn
		w.mu.Unlock()
		if !current {
			return
		}
		w.writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
		err := conn.WriteMessage(websocket.PingMessage, nil)
		w.writeMu.Unlock()
		if err != nil {
			log.Debug().Err(err).Msg("ping failed")
			return
		}
	}
}
