// Package engine owns the realtime session: it drives the single
// server connection through its lifecycle, resumes sessions across
// reconnects, folds server events into local state, and publishes an
// immutable snapshot after every change. Commands back to the server
// go through the same engine (commands.go).
package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/pokerpad/pokerpad/internal/credstore"
	"github.com/pokerpad/pokerpad/internal/state"
	"github.com/pokerpad/pokerpad/internal/transport"
)

// DefaultReconnectDelay is the fixed period of the reconnect loop.
const DefaultReconnectDelay = 5 * time.Second

const sessionEvent = "session"

// Snapshot is the published view of the engine after one state change.
// Slices and pointers are never mutated after publication.
type Snapshot struct {
	Status       state.Status
	Session      *state.Session
	Room         *state.Room
	CurrentRound *state.CurrentRound
	Rounds       []state.Round
	Users        []state.User
	LocalUser    *state.User
	Votes        []state.Vote
	LocalVote    *state.Vote
	Messages     []state.Message
}

// Engine is constructed once per process; it registers its transport
// handlers at construction and is torn down with Close.
type Engine struct {
	tr    transport.Transport
	creds credstore.Store
	clock clockwork.Clock
	delay time.Duration

	onSnapshot func(Snapshot)
	onNotice   func(string)

	mu      sync.Mutex
	baseCtx context.Context
	status  state.Status
	session *state.Session
	st      state.State
	closed  bool

	// Single pending reconnect timer, re-armed on every disconnect
	// and cancelled when superseded.
	reconnectTimer  clockwork.Timer
	reconnectCancel chan struct{}
}

// Option tunes engine construction.
type Option func(*Engine)

// WithClock injects the clock driving the reconnect timer.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithReconnectDelay overrides the fixed reconnect period.
func WithReconnectDelay(d time.Duration) Option {
	return func(e *Engine) { e.delay = d }
}

// WithSnapshotFunc registers the presentation-layer callback invoked
// after every published snapshot. The callback must not call back into
// the engine.
func WithSnapshotFunc(fn func(Snapshot)) Option {
	return func(e *Engine) { e.onSnapshot = fn }
}

// WithNoticeFunc registers the transient-notification callback for
// command failures.
func WithNoticeFunc(fn func(string)) Option {
	return func(e *Engine) { e.onNotice = fn }
}

// New wires the engine to its transport and credential store. Handler
// registration happens here, exactly once.
func New(tr transport.Transport, creds credstore.Store, opts ...Option) *Engine {
	e := &Engine{
		tr:      tr,
		creds:   creds,
		clock:   clockwork.NewRealClock(),
		delay:   DefaultReconnectDelay,
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	tr.Subscribe(e.handleEvent, e.handleLifecycle)
	return e
}

// Start reads the persisted credential once and, if one exists,
// initiates a resumed connection. With no credential the engine stays
// disconnected until Connect is called with a username.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	e.baseCtx = ctx
	e.mu.Unlock()

	token, err := e.creds.Session()
	if err != nil {
		log.Warn().Err(err).Msg("could not read stored session, starting fresh")
		return nil
	}
	if token == "" {
		log.Info().Msg("no stored session, waiting for explicit connect")
		return nil
	}
	return e.connect(transport.Auth{SessionID: token})
}

// Connect starts a fresh session under the chosen username. Any
// pending reconnect attempt is superseded.
func (e *Engine) Connect(username string) error {
	return e.connect(transport.Auth{Username: username})
}

// Close tears the engine down: the reconnect timer is cancelled and
// the connection closed. No further signals are processed.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.cancelReconnectLocked()
	e.mu.Unlock()
	return e.tr.Close()
}

// Snapshot returns the current published state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) connect(auth transport.Auth) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.cancelReconnectLocked()
	e.status = state.StatusConnecting
	ctx := e.baseCtx
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emit(snap)

	if err := e.tr.Connect(ctx, auth); err != nil {
		log.Warn().Err(err).Msg("connection attempt failed")
		e.mu.Lock()
		e.status = state.StatusDisconnected
		e.scheduleReconnectLocked()
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.emit(snap)
		return err
	}
	return nil
}

func (e *Engine) handleLifecycle(sig transport.Signal) {
	switch sig {
	case transport.SignalConnect:
		e.mu.Lock()
		e.cancelReconnectLocked()
		e.status = state.StatusConnected
		room := e.st.LastRoomID
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.emit(snap)

		if room != "" {
			// Best-effort rejoin; failure is logged, not fatal.
			e.Join(room, func(r transport.Result) {
				log.Info().Str("room", room).Bool("ok", r.OK()).Str("error", r.Error).Msg("rejoin acknowledged")
			})
		}

	case transport.SignalDisconnect:
		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return
		}
		e.status = state.StatusDisconnected
		e.scheduleReconnectLocked()
		snap := e.snapshotLocked()
		e.mu.Unlock()
		log.Info().Dur("retry_in", e.delay).Msg("disconnected from server")
		e.emit(snap)
	}
}

func (e *Engine) handleEvent(name string, data json.RawMessage) {
	if name == sessionEvent {
		e.handleSession(data)
		return
	}

	e.mu.Lock()
	e.st = state.Reduce(e.st, state.Event{Name: name, Data: data})
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emit(snap)
}

// handleSession records the server-issued session. The in-memory
// credential is updated and persisted before the lock is released, so
// a later reconnect can never read a stale token.
func (e *Engine) handleSession(data json.RawMessage) {
	var sess state.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		log.Warn().Err(err).Msg("dropping malformed session event")
		return
	}

	e.mu.Lock()
	e.session = &sess
	if err := e.creds.SetSession(sess.SessionID); err != nil {
		log.Warn().Err(err).Msg("could not persist session credential")
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	log.Info().Str("user_id", sess.UserID).Msg("session established")
	e.emit(snap)
}

// scheduleReconnectLocked arms the single-shot reconnect timer,
// replacing any pending one.
func (e *Engine) scheduleReconnectLocked() {
	e.cancelReconnectLocked()

	timer := e.clock.NewTimer(e.delay)
	cancel := make(chan struct{})
	e.reconnectTimer = timer
	e.reconnectCancel = cancel

	go func() {
		select {
		case <-timer.Chan():
			e.reconnect(cancel)
		case <-cancel:
			stopAndDrainTimer(timer)
		}
	}()
}

func (e *Engine) cancelReconnectLocked() {
	if e.reconnectCancel != nil {
		close(e.reconnectCancel)
		e.reconnectCancel = nil
		e.reconnectTimer = nil
	}
}

// reconnect runs when the timer fires: re-read the credential and, if
// one exists, attempt to resume. A missing credential ends the loop
// until an explicit Connect.
//
// cancel identifies the timer that fired. A fire that lost the race
// with a superseding transition must not touch the fields, which by
// then belong to a newer timer; clearing them here would strand that
// timer beyond the reach of cancelReconnectLocked and seed a second
// retry loop.
func (e *Engine) reconnect(cancel chan struct{}) {
	e.mu.Lock()
	if e.reconnectCancel != cancel {
		e.mu.Unlock()
		return
	}
	e.reconnectTimer = nil
	e.reconnectCancel = nil
	if e.closed || e.status != state.StatusDisconnected {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	token, err := e.creds.Session()
	if err != nil {
		log.Warn().Err(err).Msg("could not read stored session for reconnect")
		return
	}
	if token == "" {
		return
	}

	log.Info().Msg("attempting reconnect")
	// A failed attempt re-enters the retry loop via connect.
	_ = e.connect(transport.Auth{SessionID: token})
}

func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Status:       e.status,
		Session:      e.session,
		Room:         e.st.Room,
		CurrentRound: e.st.CurrentRound,
		Rounds:       e.st.Rounds,
		Users:        e.st.Users,
		LocalUser:    e.st.LocalUser,
		Votes:        e.st.Votes,
		LocalVote:    e.st.LocalVote,
		Messages:     e.st.Messages,
	}
}

func (e *Engine) emit(snap Snapshot) {
	if e.onSnapshot != nil {
		e.onSnapshot(snap)
	}
}

func (e *Engine) notify(msg string) {
	log.Warn().Str("notice", msg).Msg("command failed")
	if e.onNotice != nil {
		e.onNotice(msg)
	}
}
