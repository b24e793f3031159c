package sqlstore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mkarlsen/codenames/codenames"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testGameDoc(id codenames.GameID, msgs ...codenames.MessageID) *codenames.Stored {
	var cards []codenames.Card
	for i := 0; i < codenames.Size; i++ {
		cards = append(cards, codenames.Card{Word: "WORD", Type: codenames.CardNeutral})
	}
	return codenames.NewStored(nil, &codenames.GameState{
		ID: id,
		Roles: map[codenames.Role]codenames.PlayerID{
			codenames.RoleRedSpymaster:  "p1",
			codenames.RoleRedOperative:  "p2",
			codenames.RoleBlueSpymaster: "p3",
			codenames.RoleBlueOperative: "p4",
		},
		StartingTeam: codenames.TeamRed,
		Board:        &codenames.Board{Cards: cards},
		TurnOrder:    append([]codenames.Role(nil), codenames.GameRoles...),
		Turn:         1,
		History: map[codenames.Role][]string{
			codenames.RoleRedSpymaster: {"a line"},
		},
		Messages:     msgs,
		LastActivity: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
}

func TestSaveLoad(t *testing.T) {
	s := newTestStore(t)
	doc := testGameDoc("g1", "m1")

	if err := s.Save(doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load("g1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Errorf("loaded document differs (-want +got)\n%s", diff)
	}
}

func TestLoad_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Load("nope"); !errors.Is(err, codenames.ErrGameNotFound) {
		t.Errorf("Load returned %v, want ErrGameNotFound", err)
	}
}

func TestSave_VersionConflict(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(testGameDoc("g1")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	a, err := s.Load("g1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, err := s.Load("g1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := s.Save(a); err != nil {
		t.Fatalf("saving first copy: %v", err)
	}
	if err := s.Save(b); !errors.Is(err, codenames.ErrVersionConflict) {
		t.Errorf("saving stale copy returned %v, want ErrVersionConflict", err)
	}

	// The conflicting save must not have clobbered the first one.
	cur, err := s.Load("g1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cur.Version != a.Version {
		t.Errorf("stored version = %d, want %d", cur.Version, a.Version)
	}
}

func TestMessageIndex(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(testGameDoc("g1", "m1", "m2")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	gID, err := s.ResolveMessage("m1")
	if err != nil {
		t.Fatalf("ResolveMessage: %v", err)
	}
	if gID != "g1" {
		t.Errorf("ResolveMessage = %q, want g1", gID)
	}

	doc, err := s.Load("g1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	doc.Game.Messages = []codenames.MessageID{"m3"}
	if err := s.Save(doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := s.ResolveMessage("m1"); !errors.Is(err, codenames.ErrMessageNotFound) {
		t.Errorf("stale message resolved, err = %v", err)
	}

	if err := s.Delete("g1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.ResolveMessage("m3"); !errors.Is(err, codenames.ErrMessageNotFound) {
		t.Errorf("message survived delete, err = %v", err)
	}
	if _, err := s.Load("g1"); !errors.Is(err, codenames.ErrGameNotFound) {
		t.Errorf("game survived delete, err = %v", err)
	}
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []codenames.GameID{"g1", "g2"} {
		if err := s.Save(testGameDoc(id)); err != nil {
			t.Fatalf("Save(%q): %v", id, err)
		}
	}
	ids, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("List returned %d IDs, want 2", len(ids))
	}
}

func TestNamesAndSettings(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Name("p1"); !errors.Is(err, codenames.ErrPlayerNotFound) {
		t.Errorf("Name of unknown player returned %v, want ErrPlayerNotFound", err)
	}
	if err := s.SaveName("p1", "Alice"); err != nil {
		t.Fatalf("SaveName: %v", err)
	}
	if err := s.SaveName("p1", "Alicia"); err != nil {
		t.Fatalf("SaveName overwrite: %v", err)
	}
	name, err := s.Name("p1")
	if err != nil {
		t.Fatalf("Name: %v", err)
	}
	if name != "Alicia" {
		t.Errorf("Name = %q, want Alicia", name)
	}

	st, err := s.Settings("p1")
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if diff := cmp.Diff(codenames.DefaultSettings(), st); diff != "" {
		t.Errorf("unset settings differ from defaults (-want +got)\n%s", diff)
	}
	st.ViewMode = codenames.ViewButtons
	if err := s.SaveSettings("p1", st); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	got, err := s.Settings("p1")
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if diff := cmp.Diff(st, got); diff != "" {
		t.Errorf("settings round trip differs (-want +got)\n%s", diff)
	}
}

func TestClose_FailsFast(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Closing again is a no-op, not a panic.
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := s.Load("g1"); !errors.Is(err, ErrClosed) {
		t.Errorf("Load after Close returned %v, want ErrClosed", err)
	}
	if err := s.Save(testGameDoc("g1")); !errors.Is(err, ErrClosed) {
		t.Errorf("Save after Close returned %v, want ErrClosed", err)
	}
	if _, err := s.List(); !errors.Is(err, ErrClosed) {
		t.Errorf("List after Close returned %v, want ErrClosed", err)
	}
}

func TestReopen(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "test.db")
	s, err := New(fn)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Save(testGameDoc("g1", "m1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	s2, err := New(fn)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer s2.Close()
	if _, err := s2.Load("g1"); err != nil {
		t.Errorf("Load after reopen: %v", err)
	}
	if _, err := s2.ResolveMessage("m1"); err != nil {
		t.Errorf("ResolveMessage after reopen: %v", err)
	}
}
