// Package view derives presentation-ready vote views from the raw
// round state: per-player card states before and after a reveal, and
// the anonymized score sequence for rounds configured that way.
package view

import (
	"sort"
	"strconv"

	"github.com/pokerpad/pokerpad/internal/state"
)

// CardState is what a player's card shows right now.
type CardState int

const (
	// Picking: no vote recorded yet.
	Picking CardState = iota
	// Hidden: a vote exists but the round is not flipped.
	Hidden
	// Revealed: the round is flipped and the score is visible.
	Revealed
)

// PlayerCard is one user's card in the identified (non-anonymous) view.
// Score is only set when State is Revealed.
type PlayerCard struct {
	UserID string
	Name   string
	State  CardState
	Score  string
}

// PlayerCards computes the card shown for every known user. Raw scores
// are never exposed unless the round is flipped, even when the vote
// collection already holds them locally.
func PlayerCards(users []state.User, votes []state.Vote, round *state.CurrentRound) []PlayerCard {
	flipped := round != nil && round.Flipped
	cards := make([]PlayerCard, len(users))
	for i, u := range users {
		card := PlayerCard{UserID: u.UserID, Name: u.Name}
		if vote, ok := findVote(votes, u.UserID); ok {
			if flipped {
				card.State = Revealed
				card.Score = vote.Score
			} else {
				card.State = Hidden
			}
		}
		cards[i] = card
	}
	return cards
}

// AnonymousScores returns the revealed scores stripped of identity,
// sorted ascending. It returns nil unless the round is both flipped and
// anonymous.
//
// The sort key is the score parsed as an integer; a non-numeric score
// falls back to the character code of its first character, which
// interleaves qualitative labels after small numeric estimates in a
// stable, reproducible order.
func AnonymousScores(votes []state.Vote, round *state.CurrentRound) []string {
	if round == nil || !round.Flipped || !round.Anonymous {
		return nil
	}
	scores := make([]string, len(votes))
	for i, v := range votes {
		scores[i] = v.Score
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scoreSortKey(scores[i]) < scoreSortKey(scores[j])
	})
	return scores
}

func scoreSortKey(score string) int {
	if n, err := strconv.Atoi(score); err == nil {
		return n
	}
	for _, r := range score {
		return int(r)
	}
	return 0
}

func findVote(votes []state.Vote, userID string) (state.Vote, bool) {
	for _, v := range votes {
		if v.UserID == userID {
			return v, true
		}
	}
	return state.Vote{}, false
}

// DisplayName resolves a userID against the users collection, echoing
// the identifier itself when the user is unknown (e.g. a voter in the
// round history who has since left).
func DisplayName(users []state.User, userID string) string {
	for _, u := range users {
		if u.UserID == userID {
			return u.Name
		}
	}
	return userID
}
