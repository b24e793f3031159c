package boardgen

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mkarlsen/codenames/codenames"
	"github.com/mkarlsen/codenames/wordlist"
)

func TestNew_Distribution(t *testing.T) {
	words := wordlist.Default().Words()

	for _, starter := range []codenames.Team{codenames.TeamRed, codenames.TeamBlue} {
		for seed := int64(0); seed < 20; seed++ {
			b := New(starter, words, rand.New(rand.NewSource(seed)))

			if len(b.Cards) != codenames.Size {
				t.Fatalf("board has %d cards, want %d", len(b.Cards), codenames.Size)
			}

			got := make(map[codenames.CardType]int)
			for _, c := range b.Cards {
				got[c.Type]++
				if c.Revealed {
					t.Errorf("card %q dealt already revealed", c.Word)
				}
			}

			want := map[codenames.CardType]int{
				codenames.CardRed:      codenames.CardTarget(codenames.TeamRed, starter),
				codenames.CardBlue:     codenames.CardTarget(codenames.TeamBlue, starter),
				codenames.CardNeutral:  7,
				codenames.CardAssassin: 1,
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("starter %s seed %d: unexpected card counts (-want +got)\n%s", starter, seed, diff)
			}
		}
	}
}

func TestNew_WordsDistinctAndFromPool(t *testing.T) {
	words := wordlist.Default().Words()
	pool := make(map[string]struct{}, len(words))
	for _, w := range words {
		pool[w] = struct{}{}
	}

	b := New(codenames.TeamRed, words, rand.New(rand.NewSource(42)))

	seen := make(map[string]struct{})
	for _, c := range b.Cards {
		if _, ok := pool[c.Word]; !ok {
			t.Errorf("word %q is not in the pool", c.Word)
		}
		if _, dup := seen[c.Word]; dup {
			t.Errorf("word %q appears twice on the board", c.Word)
		}
		seen[c.Word] = struct{}{}
	}
}

func TestNew_PositionIndependentOfAssignment(t *testing.T) {
	// Two deals with different seeds should produce different layouts;
	// this is a cheap guard against a forgotten shuffle.
	words := wordlist.Default().Words()
	a := New(codenames.TeamRed, words, rand.New(rand.NewSource(1)))
	b := New(codenames.TeamRed, words, rand.New(rand.NewSource(2)))

	same := true
	for i := range a.Cards {
		if a.Cards[i] != b.Cards[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("two differently-seeded deals produced identical boards")
	}
}
