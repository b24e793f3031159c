package termio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mkarlsen/codenames/codenames"
)

func TestPromptClue(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader("Muffins 3\n"), &out)

	clue, err := term.PromptClue(codenames.TeamRed)
	if err != nil {
		t.Fatalf("PromptClue: %v", err)
	}
	if clue.Word != "Muffins" || clue.Count != 3 {
		t.Errorf("clue = %+v, want Muffins 3", clue)
	}
	if !strings.Contains(out.String(), "Red spymaster") {
		t.Errorf("prompt %q does not address the red spymaster", out.String())
	}
}

func TestPromptClue_Malformed(t *testing.T) {
	term := New(strings.NewReader("justoneword\n"), &bytes.Buffer{})
	if _, err := term.PromptClue(codenames.TeamBlue); err == nil {
		t.Error("PromptClue accepted a clue with no count")
	}
}

func TestPromptGuess(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader("BANANA\n\n"), &out)

	word, ok, err := term.PromptGuess(codenames.TeamBlue)
	if err != nil {
		t.Fatalf("PromptGuess: %v", err)
	}
	if !ok || word != "BANANA" {
		t.Errorf("guess = %q, %t; want BANANA, true", word, ok)
	}

	_, ok, err = term.PromptGuess(codenames.TeamBlue)
	if err != nil {
		t.Fatalf("PromptGuess: %v", err)
	}
	if ok {
		t.Error("an empty line should end the turn")
	}
}

func TestPrintBoard(t *testing.T) {
	cards := make([]codenames.Card, codenames.Size)
	for i := range cards {
		cards[i] = codenames.Card{Word: "WORD", Type: codenames.CardNeutral}
	}
	cards[0] = codenames.Card{Word: "TARGET", Type: codenames.CardRed}

	var out bytes.Buffer
	term := New(strings.NewReader(""), &out)
	term.PrintBoard(&codenames.Board{Cards: cards}, codenames.RoleRedSpymaster, false)

	if !strings.Contains(out.String(), "TARGET") {
		t.Errorf("board output misses card words:\n%s", out.String())
	}
}
