package engine

import (
	"github.com/rs/zerolog/log"

	"github.com/pokerpad/pokerpad/internal/state"
	"github.com/pokerpad/pokerpad/internal/transport"
)

// Outbound request names.
const (
	requestJoin       = "join"
	requestCreateRoom = "create room"
	requestVote       = "vote"
	requestNewRound   = "new round"
	requestEndVote    = "end vote"
	requestUpdateUser = "update user"
)

// RoundOptions configures a new round.
type RoundOptions struct {
	Name       string   `json:"name"`
	Anonymous  bool     `json:"anonymous"`
	Candidates []string `json:"candidates,omitempty"`
	MaxVotes   int      `json:"maxVotes,omitempty"`
}

// Join asks to enter a room. The ack may be nil; error acks always
// surface as a notice either way.
func (e *Engine) Join(roomID string, ack transport.AckHandler) {
	e.request(requestJoin, roomID, ack)
}

// CreateRoom creates a room of the given game kind. The kind is
// validated before anything is sent.
func (e *Engine) CreateRoom(name, game string, ack transport.AckHandler) {
	kind, err := state.ParseGameKind(game)
	if err != nil {
		e.deliver(ack, transport.ErrorResult(err.Error()))
		return
	}
	payload := struct {
		Name string         `json:"name"`
		Game state.GameKind `json:"game"`
	}{Name: name, Game: kind}
	e.request(requestCreateRoom, payload, ack)
}

// CreateRoomAndJoin creates a room and, on a success ack, immediately
// joins it with the server-assigned room ID. The caller's ack receives
// the join result (or the failed create result).
func (e *Engine) CreateRoomAndJoin(name, game string, ack transport.AckHandler) {
	e.CreateRoom(name, game, func(r transport.Result) {
		if !r.OK() || r.RoomID == "" {
			e.deliver(ack, r)
			return
		}
		e.Join(r.RoomID, ack)
	})
}

// Vote casts the local user's score for the current round.
func (e *Engine) Vote(score, roomID string, ack transport.AckHandler) {
	payload := struct {
		Room  string `json:"room"`
		Score string `json:"score"`
	}{Room: roomID, Score: score}
	e.request(requestVote, payload, ack)
}

// NewRound archives the current round and starts the next one.
func (e *Engine) NewRound(roomID string, opts RoundOptions, ack transport.AckHandler) {
	payload := struct {
		Room string `json:"room"`
		RoundOptions
	}{Room: roomID, RoundOptions: opts}
	e.request(requestNewRound, payload, ack)
}

// EndVote flips the current round, revealing the cards.
func (e *Engine) EndVote(roomID string, ack transport.AckHandler) {
	e.request(requestEndVote, roomID, ack)
}

// UpdateUser pushes the local user's profile.
func (e *Engine) UpdateUser(user state.User, ack transport.AckHandler) {
	e.request(requestUpdateUser, user, ack)
}

// request sends one outbound request, guaranteeing the ack is invoked
// exactly once: with the server's result, or with a synthesized error
// when the request could not be sent at all.
func (e *Engine) request(event string, data any, ack transport.AckHandler) {
	wrapped := func(r transport.Result) {
		if !r.OK() {
			e.notify(r.Error)
		} else {
			log.Debug().Str("request", event).Msg("acknowledged")
		}
		if ack != nil {
			ack(r)
		}
	}
	if err := e.tr.Request(event, data, wrapped); err != nil {
		wrapped(transport.ErrorResult(err.Error()))
	}
}

// deliver routes a locally synthesized result through the same notice
// path a server ack would take.
func (e *Engine) deliver(ack transport.AckHandler, r transport.Result) {
	if !r.OK() {
		e.notify(r.Error)
	}
	if ack != nil {
		ack(r)
	}
}
