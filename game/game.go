// Package game implements the turn-based Codenames state machine: clue
// submission, card guessing, turn rotation and win detection.
//
// A Game is reconstructed from its persisted state for every player
// action; nothing here survives between actions. Callers are expected
// to hold the per-game lock (see keylock) around load, action and save.
package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/mkarlsen/codenames/codenames"
)

// Namer resolves a player to a display name for narration lines. A nil
// Namer falls back to the raw player ID.
type Namer func(codenames.PlayerID) string

// Game wraps a match's persisted state with the rules.
type Game struct {
	s    *codenames.GameState
	name Namer
}

// New validates and initializes a match from a completed setup.
func New(id codenames.GameID, roles map[codenames.Role]codenames.PlayerID, b *codenames.Board, starting codenames.Team, namer Namer) (*Game, error) {
	if err := validateBoard(b, starting); err != nil {
		return nil, fmt.Errorf("invalid board given: %w", err)
	}
	for _, r := range codenames.GameRoles {
		if roles[r] == "" {
			return nil, fmt.Errorf("role %q has no player", r)
		}
	}

	history := make(map[codenames.Role][]string, len(codenames.GameRoles))
	for _, r := range codenames.GameRoles {
		history[r] = []string{}
	}

	return &Game{
		s: &codenames.GameState{
			ID:           id,
			Roles:        roles,
			StartingTeam: starting,
			Board:        b,
			TurnOrder: []codenames.Role{
				codenames.Spymaster(starting),
				codenames.Operative(starting),
				codenames.Spymaster(starting.Other()),
				codenames.Operative(starting.Other()),
			},
			Turn:         1,
			History:      history,
			LastActivity: time.Now(),
		},
		name: namer,
	}, nil
}

// FromState wraps a match loaded from storage.
func FromState(s *codenames.GameState, namer Namer) *Game {
	return &Game{s: s, name: namer}
}

// State exposes the persisted form for saving.
func (g *Game) State() *codenames.GameState {
	return g.s
}

// validateBoard checks the card counts the generator must have dealt.
func validateBoard(b *codenames.Board, starting codenames.Team) error {
	if b == nil || len(b.Cards) != codenames.Size {
		return fmt.Errorf("board must contain %d cards", codenames.Size)
	}

	got := make(map[codenames.CardType]int)
	for _, c := range b.Cards {
		got[c.Type]++
	}
	want := map[codenames.CardType]int{
		codenames.CardRed:      codenames.CardTarget(codenames.TeamRed, starting),
		codenames.CardBlue:     codenames.CardTarget(codenames.TeamBlue, starting),
		codenames.CardNeutral:  7,
		codenames.CardAssassin: 1,
	}
	for ct, wc := range want {
		if gc := got[ct]; gc != wc {
			return fmt.Errorf("got %d cards of type %q, want %d", gc, ct, wc)
		}
	}
	return nil
}

// Result tells the caller what to do after a successful action.
type Result struct {
	// TurnEnded means the action rotated the turn: the old messages
	// should get one last "final" edit and every role gets a fresh
	// message for the new turn.
	TurnEnded bool
	// Finished means the action ended the match.
	Finished bool
	// Winner is only meaningful when Finished is set.
	Winner codenames.Team
	// Rematch means a participant tapped the assassin on a finished
	// board: seed a brand-new setup with the same participants.
	Rematch     bool
	RequestedBy codenames.PlayerID
}

// CurrentRole is whose turn it is right now.
func (g *Game) CurrentRole() codenames.Role {
	return g.s.TurnOrder[0]
}

// RoleOf returns the seat a player occupies.
func (g *Game) RoleOf(p codenames.PlayerID) (codenames.Role, bool) {
	for role, holder := range g.s.Roles {
		if holder == p {
			return role, true
		}
	}
	return codenames.Role(""), false
}

// Finished reports whether the match has ended.
func (g *Game) Finished() bool {
	return g.s.Finished
}

// GiveClue handles a spymaster submitting a clue word and a number of
// guesses it permits (zero meaning unlimited), then passes the turn to
// their operative.
func (g *Game) GiveClue(actor codenames.PlayerID, word string, number int) (*Result, error) {
	if g.s.Finished {
		return nil, codenames.ErrGameFinished
	}
	role, ok := g.RoleOf(actor)
	if !ok {
		return nil, fmt.Errorf("player %q is not in game %q", actor, g.s.ID)
	}
	if role != g.CurrentRole() || !role.IsSpymaster() {
		return nil, codenames.ErrNotYourTurn
	}
	if number < 0 {
		return nil, codenames.ErrInvalidNumber
	}

	team, _ := role.Team()
	clue := strings.ToUpper(strings.TrimSpace(word))
	g.narrate(fmt.Sprintf("%s gave the %s team a clue: %s %d.", g.playerName(role), team, clue, number))

	g.s.ClueWord = clue
	g.s.ClueCount = number
	g.advanceTurn()
	return &Result{TurnEnded: true}, nil
}

// GuessCard handles an operative choosing a card. Choosing a card that
// is already revealed means "end my turn now". Choosing the assassin on
// a finished board is a rematch request, allowed for any original
// participant at any time.
func (g *Game) GuessCard(actor codenames.PlayerID, word string) (*Result, error) {
	idx := g.s.Board.CardNamed(word)
	if idx < 0 {
		return nil, fmt.Errorf("no card named %q in game %q", word, g.s.ID)
	}
	card := &g.s.Board.Cards[idx]

	if g.s.Finished {
		if card.Type != codenames.CardAssassin {
			return nil, codenames.ErrGameFinished
		}
		if _, ok := g.RoleOf(actor); !ok {
			return nil, fmt.Errorf("player %q is not in game %q", actor, g.s.ID)
		}
		return &Result{Rematch: true, RequestedBy: actor}, nil
	}

	role, ok := g.RoleOf(actor)
	if !ok {
		return nil, fmt.Errorf("player %q is not in game %q", actor, g.s.ID)
	}
	if role != g.CurrentRole() || !role.IsOperative() {
		return nil, codenames.ErrNotYourTurn
	}

	if card.Revealed {
		return g.endTurnEarly(role)
	}

	card.Revealed = true
	g.s.GuessCount++
	g.s.LastActivity = time.Now()
	g.narrate(fmt.Sprintf("%s guessed %s %s.", g.playerName(role), card.Word, card.Type.Emoji()))

	if winner, byAssassin, won := g.winner(); won {
		g.finish(winner, byAssassin)
		return &Result{Finished: true, Winner: winner}, nil
	}

	if g.s.ClueCount != 0 && g.s.GuessCount > g.s.ClueCount {
		g.narrate("Reached the maximum number of guesses for this turn.")
		g.advanceTurn()
		return &Result{TurnEnded: true}, nil
	}

	team, _ := role.Team()
	if cardTeam, isTeamCard := card.Type.Team(); isTeamCard && cardTeam == team {
		// A correct guess within budget grants another guess.
		return &Result{}, nil
	}

	g.advanceTurn()
	return &Result{TurnEnded: true}, nil
}

// EndTurn lets the acting operative stop guessing. It is the same move
// as choosing an already-revealed card.
func (g *Game) EndTurn(actor codenames.PlayerID) (*Result, error) {
	if g.s.Finished {
		return nil, codenames.ErrGameFinished
	}
	role, ok := g.RoleOf(actor)
	if !ok {
		return nil, fmt.Errorf("player %q is not in game %q", actor, g.s.ID)
	}
	if role != g.CurrentRole() || !role.IsOperative() {
		return nil, codenames.ErrNotYourTurn
	}
	return g.endTurnEarly(role)
}

func (g *Game) endTurnEarly(role codenames.Role) (*Result, error) {
	if g.s.GuessCount == 0 {
		return nil, codenames.ErrNoGuessesYet
	}
	g.narrate(fmt.Sprintf("%s finished guessing.", g.playerName(role)))
	g.advanceTurn()
	return &Result{TurnEnded: true}, nil
}

// advanceTurn rotates the turn order left by one and resets the
// per-turn guess counter.
func (g *Game) advanceTurn() {
	g.s.GuessCount = 0
	g.s.TurnOrder = append(g.s.TurnOrder[1:], g.s.TurnOrder[0])
	g.s.Turn++
	g.s.LastActivity = time.Now()
}

// winner scans the whole board. The assassin always takes precedence:
// if it is revealed, the team opposing the currently acting operative
// wins immediately, whatever else the same guess completed.
func (g *Game) winner() (codenames.Team, bool, bool) {
	for _, c := range g.s.Board.Cards {
		if c.Revealed && c.Type == codenames.CardAssassin {
			team, _ := g.CurrentRole().Team()
			return team.Other(), true, true
		}
	}

	for _, team := range []codenames.Team{codenames.TeamRed, codenames.TeamBlue} {
		ct := codenames.CardRed
		if team == codenames.TeamBlue {
			ct = codenames.CardBlue
		}
		if g.s.Board.Revealed(ct) == codenames.CardTarget(team, g.s.StartingTeam) {
			return team, false, true
		}
	}

	return codenames.Team(""), false, false
}

func (g *Game) finish(winner codenames.Team, byAssassin bool) {
	g.s.Finished = true
	if byAssassin {
		g.narrate(fmt.Sprintf("The %s team picked the assassin, so the %s team wins.", winner.Other(), winner))
	} else {
		g.narrate(fmt.Sprintf("All the %s cards have been guessed, so the %s team wins.", winner, winner))
	}
	g.narrate("The game has ended. Choose the assassin card to request a rematch.")
	g.s.LastActivity = time.Now()
}

// narrate appends a line to every seat's history.
func (g *Game) narrate(line string) {
	for _, r := range codenames.GameRoles {
		g.s.History[r] = append(g.s.History[r], line)
	}
}

// ResetHistories clears every seat's narration log. The coordinator
// calls this when it issues fresh per-turn messages, so each turn's
// messages start with a clean log.
func (g *Game) ResetHistories() {
	for _, r := range codenames.GameRoles {
		g.s.History[r] = []string{}
	}
}

// NarrationFor renders a seat's narration. Unless the game is over or
// this is the final edit of an ending turn, a status line is appended
// telling the viewer what is happening right now; this is the one line
// where the four seats' narratives diverge.
func (g *Game) NarrationFor(role codenames.Role, finalEdit bool) string {
	lines := append([]string(nil), g.s.History[role]...)
	if g.s.Finished || finalEdit {
		return strings.Join(lines, "\n")
	}

	current := g.CurrentRole()
	team, _ := current.Team()
	if current == role {
		if current.IsSpymaster() {
			lines = append(lines, fmt.Sprintf("Please think of a clue for the %s team. Choose any card when you are ready to enter the clue.", team))
		} else {
			lines = append(lines, "Please choose cards matching the given clue. Choose a card that has already been revealed to end your turn.")
		}
	} else {
		if current.IsSpymaster() {
			lines = append(lines, fmt.Sprintf("%s is currently thinking of a clue for the %s team...", g.playerName(current), team))
		} else {
			lines = append(lines, fmt.Sprintf("%s is currently choosing cards for the %s team...", g.playerName(current), team))
		}
	}
	return strings.Join(lines, "\n")
}

// CardsLeft renders the unrevealed card count as "red - blue".
func (g *Game) CardsLeft() string {
	red := codenames.CardTarget(codenames.TeamRed, g.s.StartingTeam) - g.s.Board.Revealed(codenames.CardRed)
	blue := codenames.CardTarget(codenames.TeamBlue, g.s.StartingTeam) - g.s.Board.Revealed(codenames.CardBlue)
	return fmt.Sprintf("%d - %d", red, blue)
}

func (g *Game) playerName(role codenames.Role) string {
	p := g.s.Roles[role]
	if g.name == nil {
		return string(p)
	}
	return g.name(p)
}
