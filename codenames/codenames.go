// Package codenames holds the core types shared by every part of the game:
// teams, roles, cards, boards and the persisted document shapes.
package codenames

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// Rows is the number of rows of cards in Codenames.
	Rows = 5
	// Columns is the number of columns of cards in Codenames.
	Columns = 5
	// Size is the total number of cards on a Codenames board.
	Size = Rows * Columns

	// PlayersNeeded is how many occupied role slots it takes to start a game.
	PlayersNeeded = 4
)

type (
	// GameID identifies a single setup or match.
	GameID string
	// PlayerID identifies a participant. It comes from the presentation
	// layer and is opaque to the engine.
	PlayerID string
	// MessageID identifies an outbound message holding a game view. The
	// store keeps a reverse index from these back to their GameID so
	// player actions can be routed to the right game.
	MessageID string
)

// Team is one of the two competing sides.
type Team string

const (
	TeamRed  = Team("RED")
	TeamBlue = Team("BLUE")
)

func (t Team) String() string {
	return strings.ToLower(string(t))
}

// Other returns the opposing team.
func (t Team) Other() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// CardType is the affiliation of a card.
type CardType string

const (
	CardRed      = CardType("RED")
	CardBlue     = CardType("BLUE")
	CardNeutral  = CardType("NEUTRAL")
	CardAssassin = CardType("ASSASSIN")
)

// Emoji returns the glyph used for the card type in text views and
// narration lines.
func (ct CardType) Emoji() string {
	switch ct {
	case CardRed:
		return "🟥"
	case CardBlue:
		return "🟦"
	case CardAssassin:
		return "💀"
	}
	return "⬜"
}

// Team returns the team a card type belongs to, if any.
func (ct CardType) Team() (Team, bool) {
	switch ct {
	case CardRed:
		return TeamRed, true
	case CardBlue:
		return TeamBlue, true
	}
	return Team(""), false
}

// Role is one of the four seats at the table, plus the transient RANDOM
// pseudo-role used only while a game is being set up.
type Role string

const (
	RoleRedSpymaster  = Role("RED_SPYMASTER")
	RoleRedOperative  = Role("RED_OPERATIVE")
	RoleBlueSpymaster = Role("BLUE_SPYMASTER")
	RoleBlueOperative = Role("BLUE_OPERATIVE")
	// RoleRandom is only valid during setup. Players in the random pool
	// are shuffled into whatever seats are left when the game starts.
	RoleRandom = Role("RANDOM")
)

// GameRoles is the four real seats, in the order unfilled seats are
// handed out to the random pool.
var GameRoles = []Role{
	RoleRedSpymaster,
	RoleRedOperative,
	RoleBlueSpymaster,
	RoleBlueOperative,
}

// Valid reports whether r names a claimable role, RANDOM included.
func (r Role) Valid() bool {
	switch r {
	case RoleRedSpymaster, RoleRedOperative, RoleBlueSpymaster, RoleBlueOperative, RoleRandom:
		return true
	}
	return false
}

func (r Role) IsSpymaster() bool {
	return r == RoleRedSpymaster || r == RoleBlueSpymaster
}

func (r Role) IsOperative() bool {
	return r == RoleRedOperative || r == RoleBlueOperative
}

// Team returns which team the role plays for. RANDOM has no team.
func (r Role) Team() (Team, bool) {
	switch r {
	case RoleRedSpymaster, RoleRedOperative:
		return TeamRed, true
	case RoleBlueSpymaster, RoleBlueOperative:
		return TeamBlue, true
	}
	return Team(""), false
}

func (r Role) String() string {
	switch r {
	case RoleRedSpymaster:
		return "Red Spymaster"
	case RoleRedOperative:
		return "Red Operative"
	case RoleBlueSpymaster:
		return "Blue Spymaster"
	case RoleBlueOperative:
		return "Blue Operative"
	case RoleRandom:
		return "Random"
	}
	return ""
}

// Spymaster returns the spymaster seat for a team.
func Spymaster(t Team) Role {
	if t == TeamRed {
		return RoleRedSpymaster
	}
	return RoleBlueSpymaster
}

// Operative returns the operative seat for a team.
func Operative(t Team) Role {
	if t == TeamRed {
		return RoleRedOperative
	}
	return RoleBlueOperative
}

// Card is a single word on the board. Word and Type never change after
// the board is dealt; Revealed flips false->true exactly once.
type Card struct {
	Word     string   `json:"word"`
	Type     CardType `json:"type"`
	Revealed bool     `json:"revealed"`
}

// Board is the 25-card layout for one match. The zeroth card is the
// top-left, the fourth the top-right, the twenty-fourth the bottom-right.
type Board struct {
	Cards []Card `json:"cards"`
}

// CardNamed returns the index of the card with the given word, matched
// case-insensitively, or -1 if no card has it.
func (b *Board) CardNamed(word string) int {
	for i, c := range b.Cards {
		if strings.EqualFold(c.Word, word) {
			return i
		}
	}
	return -1
}

// MaxWordLen is the length of the longest word on the board. Text views
// pad every label to this width.
func (b *Board) MaxWordLen() int {
	max := 0
	for _, c := range b.Cards {
		if len(c.Word) > max {
			max = len(c.Word)
		}
	}
	return max
}

// Revealed counts revealed cards of the given type.
func (b *Board) Revealed(ct CardType) int {
	n := 0
	for _, c := range b.Cards {
		if c.Revealed && c.Type == ct {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	cards := make([]Card, len(b.Cards))
	copy(cards, b.Cards)
	return &Board{Cards: cards}
}

// CardTarget returns how many cards of a team's color are on the board,
// which depends on which team went first.
func CardTarget(t, starting Team) int {
	if t == starting {
		return 9
	}
	return 8
}

// Clue is a word and a count from a spymaster. A count of zero means the
// operatives may keep guessing without limit.
type Clue struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

func (c *Clue) String() string {
	return c.Word + " " + strconv.Itoa(c.Count)
}

// ParseClue parses a clue of the form "Muffins 3".
func ParseClue(in string) (*Clue, error) {
	in = strings.TrimSpace(in)
	i := strings.LastIndex(in, " ")
	if i < 0 {
		return nil, fmt.Errorf("malformed clue %q, want something like 'Muffins 3'", in)
	}
	word, countStr := strings.TrimSpace(in[:i]), in[i+1:]
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return nil, fmt.Errorf("malformed clue count %q: %w", countStr, err)
	}
	return &Clue{Word: word, Count: count}, nil
}

// ViewMode is a player's preferred board representation.
type ViewMode string

const (
	ViewImage   = ViewMode("image")
	ViewButtons = ViewMode("buttons")
)

// RGB is a player-supplied card color override.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// PlayerSettings are per-player presentation preferences. Nil color
// fields fall back to the default palette.
type PlayerSettings struct {
	ViewMode          ViewMode `json:"view_mode"`
	GuessConfirmation bool     `json:"guess_confirmation"`
	RedColor          *RGB     `json:"red_color,omitempty"`
	BlueColor         *RGB     `json:"blue_color,omitempty"`
	AssassinColor     *RGB     `json:"assassin_color,omitempty"`
	NeutralColor      *RGB     `json:"neutral_color,omitempty"`
}

// DefaultSettings is what a player gets before they change anything.
func DefaultSettings() *PlayerSettings {
	return &PlayerSettings{ViewMode: ViewImage}
}

// Clone deep-copies the settings, color overrides included, so a caller
// can't reach back into a store's copy through the pointers.
func (p *PlayerSettings) Clone() *PlayerSettings {
	sc := *p
	sc.RedColor = p.RedColor.clone()
	sc.BlueColor = p.BlueColor.clone()
	sc.AssassinColor = p.AssassinColor.clone()
	sc.NeutralColor = p.NeutralColor.clone()
	return &sc
}

func (c *RGB) clone() *RGB {
	if c == nil {
		return nil
	}
	sc := *c
	return &sc
}

// Color returns the override for a card type, or nil.
func (s *PlayerSettings) Color(ct CardType) *RGB {
	if s == nil {
		return nil
	}
	switch ct {
	case CardRed:
		return s.RedColor
	case CardBlue:
		return s.BlueColor
	case CardAssassin:
		return s.AssassinColor
	case CardNeutral:
		return s.NeutralColor
	}
	return nil
}

// SetupState is the persisted form of a pre-game lobby: which player
// holds each seat (empty string means unfilled) and who opted into
// random assignment.
type SetupState struct {
	ID           GameID            `json:"id"`
	Roles        map[Role]PlayerID `json:"roles"`
	RandomPool   []PlayerID        `json:"random_pool"`
	Messages     []MessageID       `json:"messages"`
	LastActivity time.Time         `json:"last_activity"`
}

// GameState is the persisted form of a live match.
type GameState struct {
	ID           GameID            `json:"id"`
	Roles        map[Role]PlayerID `json:"roles"`
	StartingTeam Team              `json:"starting_team"`
	Board        *Board            `json:"board"`
	// TurnOrder is a cyclic list of the four seats. TurnOrder[0] is
	// whose turn it is right now.
	TurnOrder  []Role `json:"turn_order"`
	Turn       int    `json:"turn"`
	GuessCount int    `json:"guess_count"`
	ClueWord   string `json:"clue_word"`
	// ClueCount is how many guesses the pending clue permits. Zero means
	// unlimited.
	ClueCount int `json:"clue_count"`
	// History is an append-only narration log, one independent copy per
	// seat so each player's view can diverge in its status line.
	History      map[Role][]string `json:"history"`
	Finished     bool              `json:"finished"`
	Messages     []MessageID       `json:"messages"`
	LastActivity time.Time         `json:"last_activity"`
}

// Clone returns a deep copy of the setup state.
func (s *SetupState) Clone() *SetupState {
	if s == nil {
		return nil
	}
	sc := *s
	sc.Roles = make(map[Role]PlayerID, len(s.Roles))
	for r, p := range s.Roles {
		sc.Roles[r] = p
	}
	sc.RandomPool = append([]PlayerID(nil), s.RandomPool...)
	sc.Messages = append([]MessageID(nil), s.Messages...)
	return &sc
}

// Clone returns a deep copy of the game state.
func (g *GameState) Clone() *GameState {
	if g == nil {
		return nil
	}
	gc := *g
	gc.Roles = make(map[Role]PlayerID, len(g.Roles))
	for r, p := range g.Roles {
		gc.Roles[r] = p
	}
	gc.Board = g.Board.Clone()
	gc.TurnOrder = append([]Role(nil), g.TurnOrder...)
	gc.History = make(map[Role][]string, len(g.History))
	for r, lines := range g.History {
		gc.History[r] = append([]string(nil), lines...)
	}
	gc.Messages = append([]MessageID(nil), g.Messages...)
	return &gc
}

// Participants returns every player in the role map, in seat order.
func (g *GameState) Participants() []PlayerID {
	var out []PlayerID
	for _, r := range GameRoles {
		if p, ok := g.Roles[r]; ok && p != "" {
			out = append(out, p)
		}
	}
	return out
}
