// Package session coordinates player actions against stored games: it
// owns the load-mutate-save cycle, turns engine results into outbound
// updates, and keeps just-finished games around long enough to honor
// rematch requests.
package session

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/mkarlsen/codenames/boardgen"
	"github.com/mkarlsen/codenames/codenames"
	"github.com/mkarlsen/codenames/game"
	"github.com/mkarlsen/codenames/keylock"
	"github.com/mkarlsen/codenames/names"
	"github.com/mkarlsen/codenames/render"
	"github.com/mkarlsen/codenames/setup"
	"github.com/mkarlsen/codenames/wordlist"
)

// Broadcaster delivers updates to connected players. *hub.Hub
// implements it.
type Broadcaster interface {
	ToGame(codenames.GameID, interface{}) error
	ToPlayer(codenames.GameID, codenames.PlayerID, interface{}) error
}

// Notifier receives unexpected failures for operator attention. Rule
// violations by players never go through it.
type Notifier interface {
	Notify(msg string)
}

// LogNotifier writes escalations to the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(msg string) {
	log.Printf("[operator] %s", msg)
}

// Coordinator runs every player action as lock -> load -> mutate ->
// save -> broadcast.
type Coordinator struct {
	store codenames.Store
	b     Broadcaster
	names names.Resolver
	words *wordlist.List
	n     Notifier

	locks *keylock.KeyLock

	mu sync.Mutex
	r  *rand.Rand
	// finished keeps ended games, which are removed from the store, so
	// an assassin tap on their final board can still request a rematch.
	finished map[codenames.GameID]*codenames.GameState
	// finishedMsgs indexes the final boards' messages.
	finishedMsgs map[codenames.MessageID]codenames.GameID
}

func New(store codenames.Store, b Broadcaster, nr names.Resolver, words *wordlist.List, r *rand.Rand, n Notifier) *Coordinator {
	if n == nil {
		n = LogNotifier{}
	}
	return &Coordinator{
		store:        store,
		b:            b,
		names:        nr,
		words:        words,
		n:            n,
		locks:        keylock.New(),
		r:            r,
		finished:     make(map[codenames.GameID]*codenames.GameState),
		finishedMsgs: make(map[codenames.MessageID]codenames.GameID),
	}
}

// Update is the per-player view pushed after every action, and returned
// from view requests.
type Update struct {
	GameID codenames.GameID `json:"game_id"`

	// Setup is set while the game is still gathering players.
	Setup *SetupView `json:"setup,omitempty"`
	// Game is set once the match is live.
	Game *GameView `json:"game,omitempty"`

	// RematchID announces a fresh lobby seeded from a finished game.
	RematchID codenames.GameID `json:"rematch_id,omitempty"`
	// Message carries announcement text that isn't part of a game's
	// narration, like rematch invites.
	Message string `json:"message,omitempty"`
}

// SetupView shows who holds which seat while players are joining.
type SetupView struct {
	Roles       map[codenames.Role]string `json:"roles"`
	RandomPool  []string                  `json:"random_pool"`
	PlayerCount int                       `json:"player_count"`
}

// GameView is one seat's view of a live or just-ended match. It always
// carries the board in the viewer's preferred format: the button grid
// inline, or a URL for the PNG.
type GameView struct {
	Role          codenames.Role     `json:"role"`
	Narration     string             `json:"narration"`
	IsCurrentTurn bool               `json:"is_current_turn"`
	ViewMode      codenames.ViewMode `json:"view_mode"`
	// Buttons is the viewer's button grid, set when their view mode is
	// buttons. Card types are disclosed by the viewer's role.
	Buttons []render.Button `json:"buttons,omitempty"`
	// BoardURL fetches the viewer's PNG board, set when their view mode
	// is image. The version token changes with every reveal, so stale
	// fetches can be cached away.
	BoardURL  string `json:"board_url,omitempty"`
	CardsLeft string `json:"cards_left"`
	Turn      int    `json:"turn"`
	Finished  bool   `json:"finished"`
	// Final marks the last edit of a turn's messages; the next update
	// starts a fresh message.
	Final bool `json:"final,omitempty"`
}

// NewGame creates an empty lobby and returns its ID.
func (c *Coordinator) NewGame() (codenames.GameID, error) {
	id := codenames.NewGameID()
	doc := codenames.NewStored(setup.New(id).State(), nil)
	if err := c.store.Save(doc); err != nil {
		return "", fmt.Errorf("failed to save new game: %w", err)
	}
	return id, nil
}

// ClaimRole seats a player in a lobby. When the fourth player sits
// down, the lobby finalizes into a live match: the board is dealt, the
// random pool is shuffled into the open seats, and the first turn goes
// to the starting team's spymaster.
func (c *Coordinator) ClaimRole(gID codenames.GameID, p codenames.PlayerID, role codenames.Role) error {
	unlock := c.locks.Lock(gID)
	defer unlock()

	doc, err := c.store.Load(gID)
	if err != nil {
		return fmt.Errorf("failed to load game %q: %w", gID, err)
	}
	if doc.Setup == nil {
		return codenames.ErrGameStarted
	}

	st := setup.FromState(doc.Setup)
	changed, err := st.ClaimRole(p, role)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if !st.Ready() {
		touch(doc)
		if err := c.store.Save(doc); err != nil {
			return fmt.Errorf("failed to save game %q: %w", gID, err)
		}
		c.broadcastSetup(doc)
		return nil
	}

	g, err := c.startGame(gID, st)
	if err != nil {
		return err
	}
	doc.Setup = nil
	doc.Game = g.State()
	doc.Game.Messages = nil
	if err := c.store.Save(doc); err != nil {
		return fmt.Errorf("failed to save started game %q: %w", gID, err)
	}
	c.broadcastGame(gID, g, false)
	return nil
}

func (c *Coordinator) startGame(gID codenames.GameID, st *setup.Setup) (*game.Game, error) {
	c.mu.Lock()
	roles, err := st.Finalize(c.r)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	starting := codenames.RandomTeam(c.r)
	board := boardgen.New(starting, c.words.Words(), c.r)
	c.mu.Unlock()

	g, err := game.New(gID, roles, board, starting, c.names.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to start game %q: %w", gID, err)
	}
	return g, nil
}

// GiveClue handles a spymaster submitting a clue.
func (c *Coordinator) GiveClue(gID codenames.GameID, actor codenames.PlayerID, word string, number int) error {
	return c.act(gID, actor, func(g *game.Game) (*game.Result, error) {
		return g.GiveClue(actor, word, number)
	})
}

// GuessCard handles an operative choosing a card, including the
// end-my-turn and rematch interpretations.
func (c *Coordinator) GuessCard(gID codenames.GameID, actor codenames.PlayerID, word string) error {
	return c.act(gID, actor, func(g *game.Game) (*game.Result, error) {
		return g.GuessCard(actor, word)
	})
}

// EndTurn handles an operative stopping early.
func (c *Coordinator) EndTurn(gID codenames.GameID, actor codenames.PlayerID) error {
	return c.act(gID, actor, func(g *game.Game) (*game.Result, error) {
		return g.EndTurn(actor)
	})
}

func (c *Coordinator) act(gID codenames.GameID, actor codenames.PlayerID, fn func(*game.Game) (*game.Result, error)) error {
	unlock := c.locks.Lock(gID)
	defer unlock()

	doc, err := c.store.Load(gID)
	if errors.Is(err, codenames.ErrGameNotFound) {
		// The game may have just ended; its last board still answers
		// rematch requests.
		return c.actFinished(gID, fn)
	} else if err != nil {
		return fmt.Errorf("failed to load game %q: %w", gID, err)
	}
	if doc.Game == nil {
		return codenames.ErrNotYourTurn
	}

	g := game.FromState(doc.Game, c.names.Name)
	res, err := fn(g)
	if err != nil {
		return err
	}

	switch {
	case res.Rematch:
		return c.rematch(gID, res.RequestedBy, g.State())
	case res.Finished:
		if err := c.store.Delete(gID); err != nil {
			return fmt.Errorf("failed to remove finished game %q: %w", gID, err)
		}
		c.stashFinished(g.State())
		c.broadcastGame(gID, g, false)
		return nil
	case res.TurnEnded:
		c.broadcastGame(gID, g, true)
		g.ResetHistories()
		doc.Game.Messages = nil
		touch(doc)
		if err := c.store.Save(doc); err != nil {
			return fmt.Errorf("failed to save game %q: %w", gID, err)
		}
		c.broadcastGame(gID, g, false)
		return nil
	default:
		touch(doc)
		if err := c.store.Save(doc); err != nil {
			return fmt.Errorf("failed to save game %q: %w", gID, err)
		}
		c.broadcastGame(gID, g, false)
		return nil
	}
}

// actFinished runs an action against a game that already ended. Only
// the assassin-tap rematch request can succeed here.
func (c *Coordinator) actFinished(gID codenames.GameID, fn func(*game.Game) (*game.Result, error)) error {
	c.mu.Lock()
	gs, ok := c.finished[gID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("game %q: %w", gID, codenames.ErrGameNotFound)
	}

	res, err := fn(game.FromState(gs, c.names.Name))
	if err != nil {
		return err
	}
	if !res.Rematch {
		return codenames.ErrGameFinished
	}
	return c.rematch(gID, res.RequestedBy, gs)
}

// rematch seeds a brand-new lobby and invites the old game's
// participants to claim seats in it.
func (c *Coordinator) rematch(oldID codenames.GameID, requestedBy codenames.PlayerID, gs *codenames.GameState) error {
	newID, err := c.NewGame()
	if err != nil {
		return fmt.Errorf("failed to create rematch of game %q: %w", oldID, err)
	}

	update := &Update{
		GameID:    oldID,
		RematchID: newID,
		Message:   fmt.Sprintf("%s has requested a rematch.", c.names.Name(requestedBy)),
	}
	for _, p := range gs.Participants() {
		if err := c.b.ToPlayer(oldID, p, update); err != nil {
			c.escalate(fmt.Errorf("failed to send rematch invite for game %q: %w", oldID, err))
		}
	}
	return nil
}

// stashFinished keeps an ended game's final state addressable for
// rematch requests. The idle reaper never sees these; they die with the
// process.
func (c *Coordinator) stashFinished(gs *codenames.GameState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished[gs.ID] = gs
	for _, mID := range gs.Messages {
		c.finishedMsgs[mID] = gs.ID
	}
}

// ResolveMessage routes an inbound message identifier to its game,
// checking live games first and then the just-finished stash.
func (c *Coordinator) ResolveMessage(mID codenames.MessageID) (codenames.GameID, error) {
	gID, err := c.store.ResolveMessage(mID)
	if err == nil {
		return gID, nil
	}
	if !errors.Is(err, codenames.ErrMessageNotFound) {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gID, ok := c.finishedMsgs[mID]; ok {
		return gID, nil
	}
	return "", codenames.ErrMessageNotFound
}

// BindMessage records that an outbound message shows the given game, so
// later actions on that message can be routed back to it.
func (c *Coordinator) BindMessage(gID codenames.GameID, mID codenames.MessageID) error {
	unlock := c.locks.Lock(gID)
	defer unlock()

	doc, err := c.store.Load(gID)
	if errors.Is(err, codenames.ErrGameNotFound) {
		c.mu.Lock()
		defer c.mu.Unlock()
		gs, ok := c.finished[gID]
		if !ok {
			return fmt.Errorf("failed to bind message to game %q: %w", gID, codenames.ErrGameNotFound)
		}
		gs.Messages = append(gs.Messages, mID)
		c.finishedMsgs[mID] = gID
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to load game %q: %w", gID, err)
	}

	if doc.Setup != nil {
		doc.Setup.Messages = append(doc.Setup.Messages, mID)
	} else {
		doc.Game.Messages = append(doc.Game.Messages, mID)
	}
	if err := c.store.Save(doc); err != nil {
		return fmt.Errorf("failed to save game %q: %w", gID, err)
	}
	return nil
}

// View renders the current state of a game for one player.
func (c *Coordinator) View(gID codenames.GameID, viewer codenames.PlayerID) (*Update, error) {
	doc, err := c.store.Load(gID)
	if errors.Is(err, codenames.ErrGameNotFound) {
		c.mu.Lock()
		gs, ok := c.finished[gID]
		c.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("failed to load game %q: %w", gID, err)
		}
		return c.gameUpdate(gID, game.FromState(gs, c.names.Name), viewer, false)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load game %q: %w", gID, err)
	}

	if doc.Setup != nil {
		return c.setupUpdate(doc), nil
	}
	return c.gameUpdate(gID, game.FromState(doc.Game, c.names.Name), viewer, false)
}

// GameState returns the raw state of a live or just-finished game, for
// board rendering.
func (c *Coordinator) GameState(gID codenames.GameID) (*codenames.GameState, error) {
	doc, err := c.store.Load(gID)
	if err == nil {
		if doc.Game == nil {
			return nil, fmt.Errorf("game %q has not started", gID)
		}
		return doc.Game, nil
	}
	if !errors.Is(err, codenames.ErrGameNotFound) {
		return nil, fmt.Errorf("failed to load game %q: %w", gID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gs, ok := c.finished[gID]; ok {
		return gs.Clone(), nil
	}
	return nil, fmt.Errorf("game %q: %w", gID, codenames.ErrGameNotFound)
}

func (c *Coordinator) setupUpdate(doc *codenames.Stored) *Update {
	view := &SetupView{
		Roles:       make(map[codenames.Role]string, len(doc.Setup.Roles)),
		PlayerCount: setup.FromState(doc.Setup).PlayerCount(),
	}
	for role, p := range doc.Setup.Roles {
		if p != "" {
			view.Roles[role] = c.names.Name(p)
		}
	}
	for _, p := range doc.Setup.RandomPool {
		view.RandomPool = append(view.RandomPool, c.names.Name(p))
	}
	return &Update{GameID: doc.ID(), Setup: view}
}

func (c *Coordinator) gameUpdate(gID codenames.GameID, g *game.Game, viewer codenames.PlayerID, final bool) (*Update, error) {
	role, ok := g.RoleOf(viewer)
	if !ok {
		return nil, fmt.Errorf("player %q is not in game %q", viewer, gID)
	}

	settings, err := c.store.Settings(viewer)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings for player %q: %w", viewer, err)
	}

	gs := g.State()
	view := &GameView{
		Role:          role,
		Narration:     g.NarrationFor(role, final),
		IsCurrentTurn: g.CurrentRole() == role && !g.Finished(),
		ViewMode:      settings.ViewMode,
		CardsLeft:     g.CardsLeft(),
		Turn:          gs.Turn,
		Finished:      gs.Finished,
		Final:         final,
	}
	switch settings.ViewMode {
	case codenames.ViewButtons:
		view.Buttons = render.Buttons(gs.Board, role, gs.Finished)
	default:
		revealed := 0
		for _, card := range gs.Board.Cards {
			if card.Revealed {
				revealed++
			}
		}
		view.BoardURL = fmt.Sprintf("/api/game/%s/board?v=%d.%d", gID, gs.Turn, revealed)
	}

	return &Update{GameID: gID, Game: view}, nil
}

func (c *Coordinator) broadcastSetup(doc *codenames.Stored) {
	if err := c.b.ToGame(doc.ID(), c.setupUpdate(doc)); err != nil {
		c.escalate(fmt.Errorf("failed to broadcast setup for game %q: %w", doc.ID(), err))
	}
}

func (c *Coordinator) broadcastGame(gID codenames.GameID, g *game.Game, final bool) {
	for role, p := range g.State().Roles {
		if !role.Valid() || role == codenames.RoleRandom {
			continue
		}
		update, err := c.gameUpdate(gID, g, p, final)
		if err != nil {
			c.escalate(err)
			continue
		}
		if err := c.b.ToPlayer(gID, p, update); err != nil {
			c.escalate(fmt.Errorf("failed to send update for game %q to player %q: %w", gID, p, err))
		}
	}
}

// escalate reports a system failure to the operator, never to players.
func (c *Coordinator) escalate(err error) {
	log.Printf("session: %v", err)
	c.n.Notify(err.Error())
}

// nowFn is swapped out in tests.
var nowFn = time.Now

func touch(doc *codenames.Stored) {
	now := nowFn()
	if doc.Setup != nil {
		doc.Setup.LastActivity = now
	}
	if doc.Game != nil {
		doc.Game.LastActivity = now
	}
}
