package wordlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkarlsen/codenames/codenames"
)

func TestDefault(t *testing.T) {
	l := Default()
	if l.Len() < codenames.Size {
		t.Fatalf("default pool has %d words, need at least %d", l.Len(), codenames.Size)
	}

	seen := make(map[string]struct{})
	for _, w := range l.Words() {
		if w != strings.ToUpper(w) {
			t.Errorf("word %q is not uppercase", w)
		}
		if _, dup := seen[w]; dup {
			t.Errorf("word %q appears twice", w)
		}
		seen[w] = struct{}{}
	}
}

func TestNew_UppercasesAndDedupes(t *testing.T) {
	var lines []string
	for _, w := range Default().Words()[:codenames.Size] {
		lines = append(lines, strings.ToLower(w), w)
	}
	fn := writeWords(t, strings.Join(lines, "\n"))

	l, err := New(fn)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Len() != codenames.Size {
		t.Errorf("got %d words after dedupe, want %d", l.Len(), codenames.Size)
	}
	for _, w := range l.Words() {
		if w != strings.ToUpper(w) {
			t.Errorf("word %q is not uppercase", w)
		}
	}
}

func TestNew_TooFewWords(t *testing.T) {
	fn := writeWords(t, "apple\nbanana\ncherry\n")
	if _, err := New(fn); err == nil {
		t.Error("New accepted a list with fewer than 25 words")
	}
}

func TestNew_MissingFile(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("New accepted a missing file")
	}
}

func writeWords(t *testing.T, contents string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(fn, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write word file: %v", err)
	}
	return fn
}
