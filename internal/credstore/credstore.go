// Package credstore persists the resumable session credential in
// durable client-local storage. The engine reads it once at cold start
// and rewrites it on every session event; it is never deleted here.
package credstore

// Store is the durable key/value contract the engine depends on.
type Store interface {
	// Session returns the persisted session token, or "" when none
	// has been stored yet.
	Session() (string, error)
	// SetSession overwrites the persisted session token.
	SetSession(id string) error
	Close() error
}

const sessionKey = "sessionID"

// An earlier client serialized the literal string "undefined" into
// storage; treat it the same as an absent credential.
const missingSentinel = "undefined"

func normalize(value string) string {
	if value == missingSentinel {
		return ""
	}
	return value
}
