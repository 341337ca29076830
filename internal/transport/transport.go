// Package transport provides the persistent named-event channel to the
// poker server: ordered server pushes, request/acknowledgement pairs,
// and connection lifecycle signals.
package transport

import (
	"context"
	"encoding/json"
)

// Signal is a connection lifecycle notification.
type Signal int

const (
	SignalConnect Signal = iota
	SignalDisconnect
)

func (s Signal) String() string {
	if s == SignalConnect {
		return "connect"
	}
	return "disconnect"
}

// Auth carries the handshake identity: a resumable session token, or a
// chosen username for a fresh session. Exactly one should be set.
type Auth struct {
	SessionID string `json:"sessionID,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Result is a tagged command acknowledgement. RoomID is populated on
// successful "create room" acks.
type Result struct {
	Type   string `json:"type"`
	Error  string `json:"error,omitempty"`
	RoomID string `json:"roomID,omitempty"`
}

// OK reports whether the acknowledgement carries a success tag.
func (r Result) OK() bool { return r.Type == "OK" }

// OKResult is the plain success acknowledgement.
func OKResult() Result { return Result{Type: "OK"} }

// ErrorResult builds an error-tagged acknowledgement.
func ErrorResult(msg string) Result { return Result{Type: "Error", Error: msg} }

// EventHandler receives one named server event with its raw payload.
type EventHandler func(name string, data json.RawMessage)

// LifecycleHandler receives connect/disconnect signals.
type LifecycleHandler func(sig Signal)

// AckHandler receives the acknowledgement of one outbound request.
type AckHandler func(Result)

// Transport is a single long-lived bidirectional connection delivering
// named events in server order. Implementations must invoke handlers
// sequentially, one at a time.
type Transport interface {
	// Subscribe registers the two handlers. Called exactly once,
	// before the first Connect.
	Subscribe(onEvent EventHandler, onLifecycle LifecycleHandler)
	// Connect establishes the connection and performs the handshake
	// with the given identity.
	Connect(ctx context.Context, auth Auth) error
	// Request sends a named request; ack is invoked exactly once with
	// the server's acknowledgement (or a synthesized error result if
	// the connection drops first).
	Request(event string, data any, ack AckHandler) error
	Close() error
}
