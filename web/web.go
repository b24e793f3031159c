// Package web exposes the game over HTTP: JSON endpoints for player
// actions, a PNG board renderer, and a websocket feed of game updates.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/websocket"
	"github.com/mkarlsen/codenames/codenames"
	"github.com/mkarlsen/codenames/hub"
	"github.com/mkarlsen/codenames/render"
	"github.com/mkarlsen/codenames/session"
)

type Srv struct {
	sc    *securecookie.SecureCookie
	h     *hub.Hub
	mux   *mux.Router
	c     *session.Coordinator
	store codenames.Store
	n     session.Notifier
}

// New returns an initialized server. Cookie keys are loaded from
// keyDir, generated on first run.
func New(c *session.Coordinator, store codenames.Store, h *hub.Hub, n session.Notifier, keyDir string) (*Srv, error) {
	sc, err := loadKeys(keyDir)
	if err != nil {
		return nil, err
	}
	if n == nil {
		n = session.LogNotifier{}
	}

	s := &Srv{
		sc:    sc,
		h:     h,
		c:     c,
		store: store,
		n:     n,
	}

	s.mux = s.initMux()

	return s, nil
}

func (s *Srv) initMux() *mux.Router {
	m := mux.NewRouter()
	// New player.
	m.HandleFunc("/api/user", s.handleError(s.serveCreateUser)).Methods("POST")
	// Load player.
	m.HandleFunc("/api/user", s.handleError(s.serveUser)).Methods("GET")
	// Player view settings.
	m.HandleFunc("/api/user/settings", s.handleError(s.serveSettings)).Methods("GET")
	m.HandleFunc("/api/user/settings", s.handleError(s.serveSaveSettings)).Methods("POST")
	// New game lobby.
	m.HandleFunc("/api/game", s.handleError(s.serveCreateGame)).Methods("POST")
	// Get the caller's view of a game.
	m.HandleFunc("/api/game/{id}", s.handleError(s.serveGame)).Methods("GET")
	// Claim a seat in a lobby.
	m.HandleFunc("/api/game/{id}/claim", s.handleError(s.serveClaim)).Methods("POST")
	// Submit a clue.
	m.HandleFunc("/api/game/{id}/clue", s.handleError(s.serveClue)).Methods("POST")
	// Guess a card.
	m.HandleFunc("/api/game/{id}/guess", s.handleError(s.serveGuess)).Methods("POST")
	// Stop guessing early.
	m.HandleFunc("/api/game/{id}/end-turn", s.handleError(s.serveEndTurn)).Methods("POST")
	// The board, as buttons or as a PNG.
	m.HandleFunc("/api/game/{id}/board", s.handleError(s.serveBoard)).Methods("GET")
	// Bind an outbound message to a game.
	m.HandleFunc("/api/game/{id}/message", s.handleError(s.serveBindMessage)).Methods("POST")
	// Resolve a message back to its game.
	m.HandleFunc("/api/message/{id}", s.handleError(s.serveResolveMessage)).Methods("GET")

	// WebSocket feed of game updates.
	m.HandleFunc("/api/game/{id}/ws", s.handleError(s.serveWS)).Methods("GET")

	return m
}

func (s *Srv) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleError maps handler failures onto responses: rule violations go
// back to the player verbatim, anything else is logged and escalated
// and the player only sees a generic failure.
func (s *Srv) handleError(fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		switch {
		case codenames.IsRuleError(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, errUnauthenticated):
			http.Error(w, "Not logged in", http.StatusUnauthorized)
		case errors.Is(err, codenames.ErrGameNotFound), errors.Is(err, codenames.ErrMessageNotFound):
			http.Error(w, "Not found", http.StatusNotFound)
		case errors.Is(err, errBadRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
			s.n.Notify(err.Error())
			http.Error(w, "Something went wrong", http.StatusInternalServerError)
		}
	}
}

var (
	errUnauthenticated = errors.New("no player auth")
	errBadRequest      = errors.New("bad request")
)

func (s *Srv) serveCreateUser(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fmt.Errorf("%w: no name given", errBadRequest)
	}

	// Returning players keep their identity and just update the name.
	pID, err := s.loadPlayer(r)
	if err != nil || pID == "" {
		pID = codenames.PlayerID(codenames.NewGameID())
	}
	if err := s.store.SaveName(pID, name); err != nil {
		return fmt.Errorf("failed to save player name: %w", err)
	}

	encoded, err := s.sc.Encode("auth", pID)
	if err != nil {
		return fmt.Errorf("failed to encode auth cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:  "Authorization",
		Value: encoded,
	})

	return jsonResp(w, struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}{string(pID), name})
}

func (s *Srv) serveUser(w http.ResponseWriter, r *http.Request) error {
	pID, err := s.requirePlayer(r)
	if err != nil {
		return err
	}

	name, err := s.store.Name(pID)
	if errors.Is(err, codenames.ErrPlayerNotFound) {
		return errUnauthenticated
	} else if err != nil {
		return fmt.Errorf("failed to load player name: %w", err)
	}

	return jsonResp(w, struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}{string(pID), name})
}

func (s *Srv) serveSettings(w http.ResponseWriter, r *http.Request) error {
	pID, err := s.requirePlayer(r)
	if err != nil {
		return err
	}

	settings, err := s.store.Settings(pID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	return jsonResp(w, settings)
}

func (s *Srv) serveSaveSettings(w http.ResponseWriter, r *http.Request) error {
	pID, err := s.requirePlayer(r)
	if err != nil {
		return err
	}

	var settings codenames.PlayerSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	switch settings.ViewMode {
	case codenames.ViewImage, codenames.ViewButtons:
	default:
		return fmt.Errorf("%w: unknown view mode %q", errBadRequest, settings.ViewMode)
	}

	if err := s.store.SaveSettings(pID, &settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return jsonResp(w, settings)
}

func (s *Srv) serveCreateGame(w http.ResponseWriter, r *http.Request) error {
	if _, err := s.requirePlayer(r); err != nil {
		return err
	}

	id, err := s.c.NewGame()
	if err != nil {
		return err
	}

	return jsonResp(w, struct {
		ID string `json:"id"`
	}{string(id)})
}

func (s *Srv) serveGame(w http.ResponseWriter, r *http.Request) error {
	pID, err := s.requirePlayer(r)
	if err != nil {
		return err
	}

	update, err := s.c.View(gameID(r), pID)
	if err != nil {
		return err
	}
	return jsonResp(w, update)
}

func (s *Srv) serveClaim(w http.ResponseWriter, r *http.Request) error {
	pID, err := s.requirePlayer(r)
	if err != nil {
		return err
	}

	var req struct {
		Role codenames.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if !req.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", errBadRequest, req.Role)
	}

	if err := s.c.ClaimRole(gameID(r), pID, req.Role); err != nil {
		return err
	}
	return jsonResp(w, okResp)
}

func (s *Srv) serveClue(w http.ResponseWriter, r *http.Request) error {
	pID, err := s.requirePlayer(r)
	if err != nil {
		return err
	}

	var req struct {
		Word  string `json:"word"`
		Count int    `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if strings.TrimSpace(req.Word) == "" {
		return fmt.Errorf("%w: no clue word given", errBadRequest)
	}

	if err := s.c.GiveClue(gameID(r), pID, req.Word, req.Count); err != nil {
		return err
	}
	return jsonResp(w, okResp)
}

func (s *Srv) serveGuess(w http.ResponseWriter, r *http.Request) error {
	pID, err := s.requirePlayer(r)
	if err != nil {
		return err
	}

	var req struct {
		Word string `json:"word"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	if err := s.c.GuessCard(gameID(r), pID, req.Word); err != nil {
		return err
	}
	return jsonResp(w, okResp)
}

func (s *Srv) serveEndTurn(w http.ResponseWriter, r *http.Request) error {
	pID, err := s.requirePlayer(r)
	if err != nil {
		return err
	}

	if err := s.c.EndTurn(gameID(r), pID); err != nil {
		return err
	}
	return jsonResp(w, okResp)
}

// serveBoard renders the caller's view of the board: a PNG by default,
// or the button grid with ?mode=buttons. ?reveal=1 draws covered cards
// at half opacity.
func (s *Srv) serveBoard(w http.ResponseWriter, r *http.Request) error {
	pID, err := s.requirePlayer(r)
	if err != nil {
		return err
	}

	gID := gameID(r)
	gs, err := s.c.GameState(gID)
	if err != nil {
		return err
	}

	role, ok := roleOf(gs, pID)
	if !ok {
		return fmt.Errorf("%w: player %q is not in game %q", errBadRequest, pID, gID)
	}

	settings, err := s.store.Settings(pID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// The caller's stored preference picks the format; the query
	// parameter overrides it.
	mode := settings.ViewMode
	switch r.URL.Query().Get("mode") {
	case "buttons":
		mode = codenames.ViewButtons
	case "image":
		mode = codenames.ViewImage
	}
	if mode == codenames.ViewButtons {
		return jsonResp(w, render.Buttons(gs.Board, role, gs.Finished))
	}

	team, _ := gs.TurnOrder[0].Team()
	opts := render.ImageOptions{
		Viewer:        role,
		Finished:      gs.Finished,
		TurnTeam:      team,
		RevealCovered: r.URL.Query().Get("reveal") == "1",
		Settings:      settings,
	}

	w.Header().Set("Content-Type", "image/png")
	if err := render.PNG(w, gs.Board, opts); err != nil {
		return fmt.Errorf("failed to render board for game %q: %w", gID, err)
	}
	return nil
}

func (s *Srv) serveBindMessage(w http.ResponseWriter, r *http.Request) error {
	if _, err := s.requirePlayer(r); err != nil {
		return err
	}

	var req struct {
		MessageID codenames.MessageID `json:"message_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if req.MessageID == "" {
		return fmt.Errorf("%w: no message ID given", errBadRequest)
	}

	if err := s.c.BindMessage(gameID(r), req.MessageID); err != nil {
		return err
	}
	return jsonResp(w, okResp)
}

func (s *Srv) serveResolveMessage(w http.ResponseWriter, r *http.Request) error {
	if _, err := s.requirePlayer(r); err != nil {
		return err
	}

	gID, err := s.c.ResolveMessage(codenames.MessageID(mux.Vars(r)["id"]))
	if err != nil {
		return err
	}
	return jsonResp(w, struct {
		GameID string `json:"game_id"`
	}{string(gID)})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Srv) serveWS(w http.ResponseWriter, r *http.Request) error {
	pID, err := s.requirePlayer(r)
	if err != nil {
		return err
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}
	s.h.Register(ws, gameID(r), pID)
	return nil
}

func gameID(r *http.Request) codenames.GameID {
	return codenames.GameID(mux.Vars(r)["id"])
}

func roleOf(gs *codenames.GameState, pID codenames.PlayerID) (codenames.Role, bool) {
	for role, p := range gs.Roles {
		if p == pID {
			return role, true
		}
	}
	return codenames.Role(""), false
}

var okResp = struct {
	Success bool `json:"success"`
}{true}

func jsonResp(w http.ResponseWriter, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}

func (s *Srv) requirePlayer(r *http.Request) (codenames.PlayerID, error) {
	pID, err := s.loadPlayer(r)
	if err != nil {
		return "", err
	}
	if pID == "" {
		return "", errUnauthenticated
	}
	return pID, nil
}

func (s *Srv) loadPlayer(r *http.Request) (codenames.PlayerID, error) {
	c, err := r.Cookie("Authorization")
	if err == http.ErrNoCookie {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var pID codenames.PlayerID
	if err := s.sc.Decode("auth", c.Value, &pID); err != nil {
		// If we can't parse it, assume it's an old auth cookie and treat
		// them as not logged in.
		return "", nil
	}
	return pID, nil
}

func loadKeys(dir string) (*securecookie.SecureCookie, error) {
	hashKey, err := loadOrGenKey(filepath.Join(dir, "hashKey"))
	if err != nil {
		return nil, err
	}

	blockKey, err := loadOrGenKey(filepath.Join(dir, "blockKey"))
	if err != nil {
		return nil, err
	}

	return securecookie.New(hashKey, blockKey), nil
}

func loadOrGenKey(name string) ([]byte, error) {
	f, err := os.ReadFile(name)
	if err == nil {
		return f, nil
	}

	dat := securecookie.GenerateRandomKey(32)
	if dat == nil {
		return nil, errors.New("failed to generate key")
	}

	if err := os.WriteFile(name, dat, 0600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return dat, nil
}
