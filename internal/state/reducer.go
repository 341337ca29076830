package state

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// Server event names consumed by the reducer. Lifecycle signals
// (connect/disconnect) and the session event are owned by the
// connection layer and never reach Reduce.
const (
	EventMessage      = "message"
	EventMessages     = "messages"
	EventRoom         = "room"
	EventVote         = "vote"
	EventVotes        = "votes"
	EventRounds       = "rounds"
	EventCurrentRound = "current round"
	EventUser         = "user"
	EventUserUpdated  = "user updated"
	EventUsers        = "users"
)

// Event is one named server push with its raw payload.
type Event struct {
	Name string
	Data json.RawMessage
}

// State is the authoritative local aggregate rebuilt from server events.
// Collections arrive as wholesale snapshots so that a resync after a
// reconnect gap is always safe.
type State struct {
	Room         *Room
	CurrentRound *CurrentRound
	Rounds       []Round
	Users        []User
	LocalUser    *User
	Votes        []Vote
	LocalVote    *Vote
	Messages     []Message

	// LastRoomID survives a room being re-sent and is used by the
	// connection layer to rejoin after a reconnect.
	LastRoomID string
}

// Reduce folds one event into the state and returns the next state.
// It never mutates its input and never fails: malformed payloads leave
// the state unchanged. Identical payloads applied twice yield the same
// state.
func Reduce(s State, evt Event) State {
	switch evt.Name {
	case EventRoom:
		var room Room
		if !decode(evt, &room) {
			return s
		}
		s.Room = &room
		s.LastRoomID = room.RoomID

	case EventUsers:
		var payload struct {
			Users []User `json:"users"`
		}
		if !decode(evt, &payload) {
			return s
		}
		s.Users = payload.Users

	case EventUser:
		var user User
		if !decode(evt, &user) {
			return s
		}
		s.LocalUser = &user

	case EventUserUpdated:
		var user User
		if !decode(evt, &user) {
			return s
		}
		s.Users = patchUser(s.Users, user)

	case EventVotes:
		var payload struct {
			Votes []Vote `json:"votes"`
		}
		if !decode(evt, &payload) {
			return s
		}
		s.Votes = payload.Votes

	case EventVote:
		var vote Vote
		if !decode(evt, &vote) {
			return s
		}
		s.LocalVote = &vote

	case EventRounds:
		var payload struct {
			Rounds []Round `json:"rounds"`
		}
		if !decode(evt, &payload) {
			return s
		}
		s.Rounds = payload.Rounds
		// A new round list means whatever round the local vote was
		// cast in is no longer current.
		s.LocalVote = nil

	case EventCurrentRound:
		var round CurrentRound
		if !decode(evt, &round) {
			return s
		}
		s.CurrentRound = &round

	case EventMessage:
		var dto messageDTO
		if !decode(evt, &dto) {
			return s
		}
		msgs := make([]Message, 0, len(s.Messages)+1)
		msgs = append(msgs, s.Messages...)
		s.Messages = append(msgs, dto.message())

	case EventMessages:
		var payload struct {
			Messages []messageDTO `json:"messages"`
		}
		if !decode(evt, &payload) {
			return s
		}
		msgs := make([]Message, len(payload.Messages))
		for i, dto := range payload.Messages {
			msgs[i] = dto.message()
		}
		s.Messages = msgs

	default:
		log.Debug().Str("event", evt.Name).Msg("ignoring unknown event")
	}

	return s
}

func decode(evt Event, v any) bool {
	if err := json.Unmarshal(evt.Data, v); err != nil {
		log.Warn().Err(err).Str("event", evt.Name).Msg("dropping malformed event payload")
		return false
	}
	return true
}

// patchUser replaces the matching entry without touching the rest.
// An unknown userID is a no-op: the authoritative users snapshot will
// catch up on its own.
func patchUser(users []User, updated User) []User {
	for i, u := range users {
		if u.UserID == updated.UserID {
			next := make([]User, len(users))
			copy(next, users)
			next[i] = updated
			return next
		}
	}
	return users
}

type messageDTO struct {
	From    string `json:"from"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

func (d messageDTO) message() Message {
	return Message{From: d.From, Content: d.Content, Date: ParseTimestamp(d.Date)}
}

// Timestamp renderings the server has been observed to send.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 UTC",
	"2006-01-02 15:04:05 UTC",
}

// ParseTimestamp converts a transport timestamp into a structured
// instant. An unparseable value yields the zero time rather than an
// error; the transcript keeps the entry either way.
func ParseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	log.Debug().Str("date", s).Msg("unparseable message timestamp")
	return time.Time{}
}
