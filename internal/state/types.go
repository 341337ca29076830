package state

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of the single server connection.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Session is the resumable identity issued by the server at handshake.
// The sessionID is reused as the resumption credential for every
// reconnection attempt until the server rejects it.
type Session struct {
	SessionID string `json:"sessionID"`
	UserID    string `json:"userID"`
}

// GameKind selects the voting vocabulary of a room.
type GameKind string

const (
	GameEffort GameKind = "effort"
	GameRetro  GameKind = "retro"
)

// ParseGameKind parses a game kind case-insensitively.
func ParseGameKind(s string) (GameKind, error) {
	switch strings.ToLower(s) {
	case "effort":
		return GameEffort, nil
	case "retro":
		return GameRetro, nil
	default:
		return "", fmt.Errorf("unknown game kind %q", s)
	}
}

// User is one known participant, keyed by its stable UserID.
type User struct {
	UserID   string `json:"userID"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Cardback string `json:"cardback,omitempty"`
}

// Room is the single active room for this connection.
type Room struct {
	RoomID string   `json:"roomID"`
	Name   string   `json:"name"`
	Game   GameKind `json:"game"`
}

// Vote is one participant's score for the current round.
type Vote struct {
	UserID string `json:"userID"`
	Score  string `json:"score"`
}

// Round is a finished round in the room history, oldest first.
type Round struct {
	Name  string `json:"name"`
	Votes []Vote `json:"votes"`
}

// CurrentRound is the active round. Flipped only ever goes false to true
// within a round; a replacement round starts unflipped again.
type CurrentRound struct {
	Name       string   `json:"name"`
	Flipped    bool     `json:"flipped"`
	Anonymous  bool     `json:"anonymous"`
	Candidates []string `json:"candidates"`
	MaxVotes   int      `json:"maxVotes"`
}

// Message is one chat transcript entry.
type Message struct {
	From    string    `json:"from"`
	Content string    `json:"content"`
	Date    time.Time `json:"date"`
}
