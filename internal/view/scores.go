package view

import "github.com/pokerpad/pokerpad/internal/state"

// DefaultCandidates is the effort-game voting vocabulary.
var DefaultCandidates = []string{"coffee", "unknown", "infinite", "1", "2", "4", "8", "16"}

// Glyphs for the well-known categorical scores plus the two pseudo
// states a card can be in before the reveal.
var scoreGlyphs = map[string]string{
	"coffee":   "\u2615\ufe0f", // hot beverage
	"unknown":  "\u2753",       // question mark
	"infinite": "\u267e\ufe0f", // infinity
	"picking":  "\U0001f914",   // thinking face
	"cardback": "\U0001f92b",   // shushing face
}

// Glyph maps a raw score to its display glyph. Unrecognized scores,
// numeric ones included, pass through as their literal string.
func Glyph(score string) string {
	if g, ok := scoreGlyphs[score]; ok {
		return g
	}
	return score
}

// CardGlyph renders a player card to a single glyph.
func CardGlyph(card PlayerCard) string {
	switch card.State {
	case Hidden:
		return Glyph("cardback")
	case Revealed:
		return Glyph(card.Score)
	default:
		return Glyph("picking")
	}
}

// Candidates returns the scores offered to the local voter for the
// current round, falling back to the effort vocabulary when the round
// does not carry its own.
func Candidates(round *state.CurrentRound) []string {
	if round != nil && len(round.Candidates) > 0 {
		return round.Candidates
	}
	return DefaultCandidates
}
