// Package boardgen deals fresh 25-card boards.
package boardgen

import (
	"math/rand"

	"github.com/mkarlsen/codenames/codenames"
)

// New deals a board for a match where starter goes first: 25 distinct
// words drawn uniformly from the pool, 9 for the starting team, 8 for
// the other, 1 assassin, 7 neutral, shuffled so that board position
// carries no information about team assignment.
//
// The pool must hold at least codenames.Size unique words; the wordlist
// package guarantees that at startup.
func New(starter codenames.Team, words []string, r *rand.Rand) *codenames.Board {
	first, second := codenames.CardRed, codenames.CardBlue
	if starter == codenames.TeamBlue {
		first, second = second, first
	}

	types := make([]codenames.CardType, 0, codenames.Size)
	for i := 0; i < codenames.CardTarget(starter, starter); i++ {
		types = append(types, first)
	}
	for i := 0; i < codenames.CardTarget(starter.Other(), starter); i++ {
		types = append(types, second)
	}
	types = append(types, codenames.CardAssassin)
	for len(types) < codenames.Size {
		types = append(types, codenames.CardNeutral)
	}

	// Pick words at random from the pool.
	selected := make([]string, codenames.Size)
	for i, idx := range r.Perm(len(words))[:codenames.Size] {
		selected[i] = words[idx]
	}

	cards := make([]codenames.Card, codenames.Size)
	for i, ti := range r.Perm(len(types)) {
		cards[i] = codenames.Card{
			Word: selected[i],
			Type: types[ti],
		}
	}

	return &codenames.Board{Cards: cards}
}
