package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mkarlsen/codenames/codenames"
	"github.com/mkarlsen/codenames/hub"
	"github.com/mkarlsen/codenames/memstore"
	"github.com/mkarlsen/codenames/names"
	"github.com/mkarlsen/codenames/session"
	"github.com/mkarlsen/codenames/wordlist"
)

func TestBasicallyEverything(t *testing.T) {
	// This is a hodge-podge test that walks the whole flow end-to-end:
	// register players, open a lobby, fill the seats, play a turn, and
	// poke at the board and message endpoints along the way.
	env := newTestEnv(t)

	for i := 0; i < 4; i++ {
		env.createUser(t, fmt.Sprintf("Test%d", i))
	}

	// Sanity check the auth works by requesting a player's info back.
	gotUser := env.user(t, 3)
	if gotUser.Name != "Test3" {
		t.Errorf("user name = %q, want Test3", gotUser.Name)
	}

	gID := env.createGame(t, 0)

	// Seat all four players; the last claim starts the game.
	claims := []codenames.Role{
		codenames.RoleRedSpymaster,
		codenames.RoleRedOperative,
		codenames.RoleBlueSpymaster,
		codenames.RoleBlueOperative,
	}
	for i, role := range claims {
		env.claim(t, gID, i, role)
	}

	// Everyone should now see a live game, with exactly one seat having
	// the first turn, held by a spymaster.
	currentIdx := -1
	for i := range claims {
		view := env.view(t, gID, i)
		if view.Game == nil {
			t.Fatalf("player %d still sees a lobby after four claims", i)
		}
		if view.Game.Finished {
			t.Fatalf("player %d sees a finished game", i)
		}
		if view.Game.IsCurrentTurn {
			if currentIdx != -1 {
				t.Fatalf("both players %d and %d think it is their turn", currentIdx, i)
			}
			currentIdx = i
			if !view.Game.Role.IsSpymaster() {
				t.Errorf("first turn belongs to %s, want a spymaster", view.Game.Role)
			}
		}
	}
	if currentIdx == -1 {
		t.Fatal("nobody has the first turn")
	}

	// Claiming a seat in a started game is a rule violation.
	if status := env.do(t, currentIdx, "POST", "/api/game/"+string(gID)+"/claim",
		`{"role":"RED_SPYMASTER"}`, nil); status != http.StatusBadRequest {
		t.Errorf("claim after start returned %d, want 400", status)
	}

	// A clue from the wrong seat is rejected; from the right seat it
	// advances the turn to that team's operative.
	wrongIdx := (currentIdx + 1) % 4
	if status := env.do(t, wrongIdx, "POST", "/api/game/"+string(gID)+"/clue",
		`{"word":"ALPHA","count":2}`, nil); status != http.StatusBadRequest {
		t.Errorf("out-of-turn clue returned %d, want 400", status)
	}
	if status := env.do(t, currentIdx, "POST", "/api/game/"+string(gID)+"/clue",
		`{"word":"ALPHA","count":2}`, nil); status != http.StatusOK {
		t.Errorf("clue returned %d, want 200", status)
	}
	view := env.view(t, gID, currentIdx)
	if view.Game.IsCurrentTurn {
		t.Error("the clue giver still has the turn")
	}
	if !strings.Contains(view.Game.Narration, "currently choosing cards") {
		t.Errorf("narration %q should show the operative thinking", view.Game.Narration)
	}

	// The operative ending their turn without a guess is a rule
	// violation.
	var operativeIdx int
	for i := range claims {
		if v := env.view(t, gID, i); v.Game.IsCurrentTurn {
			operativeIdx = i
		}
	}
	if status := env.do(t, operativeIdx, "POST", "/api/game/"+string(gID)+"/end-turn",
		"", nil); status != http.StatusBadRequest {
		t.Errorf("end-turn with no guesses returned %d, want 400", status)
	}

	env.checkBoards(t, gID, currentIdx)

	// Bind a message and resolve it back.
	if status := env.do(t, 0, "POST", "/api/game/"+string(gID)+"/message",
		`{"message_id":"msg-1"}`, nil); status != http.StatusOK {
		t.Errorf("bind message returned %d, want 200", status)
	}
	var resolved struct {
		GameID string `json:"game_id"`
	}
	if status := env.do(t, 0, "GET", "/api/message/msg-1", "", &resolved); status != http.StatusOK {
		t.Errorf("resolve message returned %d, want 200", status)
	}
	if resolved.GameID != string(gID) {
		t.Errorf("resolved game = %q, want %q", resolved.GameID, gID)
	}
	if status := env.do(t, 0, "GET", "/api/message/unknown", "", nil); status != http.StatusNotFound {
		t.Errorf("unknown message returned %d, want 404", status)
	}
}

func (env *testEnv) checkBoards(t *testing.T, gID codenames.GameID, idx int) {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/game/"+string(gID)+"/board", nil)
	env.addAuth(r, idx)
	env.srv.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("board returned %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("board content type = %q, want image/png", ct)
	}

	var btns []struct {
		Word  string `json:"word"`
		Label string `json:"label"`
		Style string `json:"style"`
	}
	if status := env.do(t, idx, "GET", "/api/game/"+string(gID)+"/board?mode=buttons", "", &btns); status != http.StatusOK {
		t.Fatalf("button board returned %d", status)
	}
	if len(btns) != codenames.Size {
		t.Errorf("got %d buttons, want %d", len(btns), codenames.Size)
	}

	// With a stored buttons preference the bare endpoint serves the
	// grid, and the query parameter still forces the PNG.
	if status := env.do(t, idx, "POST", "/api/user/settings",
		`{"view_mode":"buttons"}`, nil); status != http.StatusOK {
		t.Fatalf("saving settings returned %d", status)
	}
	btns = nil
	if status := env.do(t, idx, "GET", "/api/game/"+string(gID)+"/board", "", &btns); status != http.StatusOK {
		t.Fatalf("board with stored preference returned %d", status)
	}
	if len(btns) != codenames.Size {
		t.Errorf("stored preference served %d buttons, want %d", len(btns), codenames.Size)
	}
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/game/"+string(gID)+"/board?mode=image", nil)
	env.addAuth(r, idx)
	env.srv.ServeHTTP(w, r)
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("mode=image content type = %q, want image/png", ct)
	}
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "Test0")

	var got codenames.PlayerSettings
	if status := env.do(t, 0, "GET", "/api/user/settings", "", &got); status != http.StatusOK {
		t.Fatalf("settings returned %d", status)
	}
	if diff := cmp.Diff(*codenames.DefaultSettings(), got); diff != "" {
		t.Errorf("unexpected default settings (-want +got)\n%s", diff)
	}

	if status := env.do(t, 0, "POST", "/api/user/settings",
		`{"view_mode":"buttons","red_color":{"r":1,"g":2,"b":3}}`, nil); status != http.StatusOK {
		t.Fatalf("saving settings returned %d", status)
	}
	if status := env.do(t, 0, "GET", "/api/user/settings", "", &got); status != http.StatusOK {
		t.Fatalf("settings returned %d", status)
	}
	if got.ViewMode != codenames.ViewButtons {
		t.Errorf("view mode = %q, want buttons", got.ViewMode)
	}
	if got.RedColor == nil || got.RedColor.R != 1 {
		t.Errorf("red color = %+v, want {1 2 3}", got.RedColor)
	}

	if status := env.do(t, 0, "POST", "/api/user/settings",
		`{"view_mode":"hologram"}`, nil); status != http.StatusBadRequest {
		t.Errorf("bogus view mode returned %d, want 400", status)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/game", nil)
	env.srv.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated create game returned %d, want 401", w.Code)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/user", strings.NewReader(`{"name":"  "}`))
	env.srv.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank name returned %d, want 400", w.Code)
	}
}

type testEnv struct {
	store    *memstore.Store
	srv      *Srv
	userAuth []string
}

type userResp struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memstore.New()
	h := hub.New()
	c := session.New(store, h, names.NewStored(store), wordlist.Default(), rand.New(rand.NewSource(0)), session.LogNotifier{})
	srv, err := New(c, store, h, session.LogNotifier{}, t.TempDir())
	if err != nil {
		t.Fatalf("failed to build server: %v", err)
	}

	return &testEnv{store: store, srv: srv}
}

func (env *testEnv) createUser(t *testing.T, name string) {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/user", toBody(t, struct {
		Name string `json:"name"`
	}{name}))
	env.srv.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("failed to create user: %d %s", w.Code, w.Body.String())
	}

	for _, c := range w.Result().Cookies() {
		if c.Name == "Authorization" {
			env.userAuth = append(env.userAuth, c.Value)
			return
		}
	}
	t.Fatal("create user set no auth cookie")
}

func (env *testEnv) user(t *testing.T, idx int) *userResp {
	t.Helper()

	var resp userResp
	if status := env.do(t, idx, "GET", "/api/user", "", &resp); status != http.StatusOK {
		t.Fatalf("failed to load user: %d", status)
	}
	return &resp
}

func (env *testEnv) createGame(t *testing.T, idx int) codenames.GameID {
	t.Helper()

	var resp struct {
		ID string `json:"id"`
	}
	if status := env.do(t, idx, "POST", "/api/game", "", &resp); status != http.StatusOK {
		t.Fatalf("failed to create game: %d", status)
	}
	return codenames.GameID(resp.ID)
}

func (env *testEnv) claim(t *testing.T, gID codenames.GameID, idx int, role codenames.Role) {
	t.Helper()

	body := fmt.Sprintf(`{"role":%q}`, string(role))
	if status := env.do(t, idx, "POST", "/api/game/"+string(gID)+"/claim", body, nil); status != http.StatusOK {
		t.Fatalf("player %d failed to claim %s: %d", idx, role, status)
	}
}

func (env *testEnv) view(t *testing.T, gID codenames.GameID, idx int) *session.Update {
	t.Helper()

	var update session.Update
	if status := env.do(t, idx, "GET", "/api/game/"+string(gID), "", &update); status != http.StatusOK {
		t.Fatalf("player %d failed to load game: %d", idx, status)
	}
	return &update
}

// do runs one authenticated request and decodes the response into resp
// when it is non-nil and the request succeeded.
func (env *testEnv) do(t *testing.T, idx int, method, path, body string, resp interface{}) int {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(method, path, rd)
	env.addAuth(r, idx)
	env.srv.ServeHTTP(w, r)

	if resp != nil && w.Code == http.StatusOK {
		if err := json.NewDecoder(w.Body).Decode(resp); err != nil {
			t.Fatalf("failed to decode response body: %v", err)
		}
	}
	return w.Code
}

func (env *testEnv) addAuth(r *http.Request, idx int) {
	if idx >= len(env.userAuth) {
		return
	}
	r.AddCookie(&http.Cookie{
		Name:  "Authorization",
		Value: env.userAuth[idx],
	})
}

func toBody(t *testing.T, body interface{}) io.Reader {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	return &buf
}
