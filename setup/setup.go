// Package setup tracks who has claimed which seat before a game starts.
package setup

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mkarlsen/codenames/codenames"
)

// Setup wraps a pre-game lobby's persisted state with the claim and
// finalize operations. Like the game engine, it is reconstructed from
// storage for every player action.
type Setup struct {
	s *codenames.SetupState
}

// New creates an empty lobby.
func New(id codenames.GameID) *Setup {
	return &Setup{s: &codenames.SetupState{
		ID: id,
		Roles: map[codenames.Role]codenames.PlayerID{
			codenames.RoleRedSpymaster:  "",
			codenames.RoleRedOperative:  "",
			codenames.RoleBlueSpymaster: "",
			codenames.RoleBlueOperative: "",
		},
		LastActivity: time.Now(),
	}}
}

// FromState wraps a lobby loaded from storage.
func FromState(s *codenames.SetupState) *Setup {
	return &Setup{s: s}
}

// State exposes the persisted form for saving.
func (s *Setup) State() *codenames.SetupState {
	return s.s
}

// ClaimRole gives a seat (or a spot in the random pool) to a player,
// removing them from any seat or pool spot they held before. Claiming a
// seat the player already holds is a no-op; claiming a seat someone else
// holds fails with ErrRoleTaken. The returned bool reports whether
// anything changed.
func (s *Setup) ClaimRole(p codenames.PlayerID, role codenames.Role) (bool, error) {
	if !role.Valid() {
		return false, fmt.Errorf("unknown role %q", role)
	}
	if p == "" {
		return false, fmt.Errorf("empty player id")
	}

	if role == codenames.RoleRandom {
		for _, pooled := range s.s.RandomPool {
			if pooled == p {
				return false, nil
			}
		}
		s.removePlayer(p)
		s.s.RandomPool = append(s.s.RandomPool, p)
	} else {
		if s.s.Roles[role] == p {
			return false, nil
		}
		if s.s.Roles[role] != "" {
			return false, codenames.ErrRoleTaken
		}
		s.removePlayer(p)
		s.s.Roles[role] = p
	}

	s.s.LastActivity = time.Now()
	return true, nil
}

func (s *Setup) removePlayer(p codenames.PlayerID) {
	for i, pooled := range s.s.RandomPool {
		if pooled == p {
			s.s.RandomPool = append(s.s.RandomPool[:i], s.s.RandomPool[i+1:]...)
			break
		}
	}
	for role, holder := range s.s.Roles {
		if holder == p {
			s.s.Roles[role] = ""
		}
	}
}

// PlayerCount is filled seats plus the random pool.
func (s *Setup) PlayerCount() int {
	n := len(s.s.RandomPool)
	for _, p := range s.s.Roles {
		if p != "" {
			n++
		}
	}
	return n
}

// Ready reports whether the lobby has enough players to start.
func (s *Setup) Ready() bool {
	return s.PlayerCount() >= codenames.PlayersNeeded
}

// Participants returns everyone in the lobby, seats first, then the
// random pool in join order.
func (s *Setup) Participants() []codenames.PlayerID {
	var out []codenames.PlayerID
	for _, r := range codenames.GameRoles {
		if p := s.s.Roles[r]; p != "" {
			out = append(out, p)
		}
	}
	return append(out, s.s.RandomPool...)
}

// Finalize shuffles the random pool into the unfilled seats and returns
// the completed role map the match is created from. Fails with
// ErrNotEnoughPlayers below four players; that's defensive, since
// callers start the game the moment the count reaches four.
func (s *Setup) Finalize(r *rand.Rand) (map[codenames.Role]codenames.PlayerID, error) {
	if s.PlayerCount() < codenames.PlayersNeeded {
		return nil, codenames.ErrNotEnoughPlayers
	}

	var unfilled []codenames.Role
	for _, role := range codenames.GameRoles {
		if s.s.Roles[role] == "" {
			unfilled = append(unfilled, role)
		}
	}

	pool := append([]codenames.PlayerID(nil), s.s.RandomPool...)
	r.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	roles := make(map[codenames.Role]codenames.PlayerID, len(codenames.GameRoles))
	for role, p := range s.s.Roles {
		roles[role] = p
	}
	for i, p := range pool {
		if i >= len(unfilled) {
			break
		}
		roles[unfilled[i]] = p
	}

	return roles, nil
}
