// Package wordlist owns the pool of playable words.
package wordlist

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mkarlsen/codenames/codenames"
)

//go:embed words.txt
var defaultWords string

// List is an immutable, deduplicated, uppercase word pool. It is safe
// to share across every game in the process.
type List struct {
	words []string
}

// New reads a newline-separated word file. Words are uppercased and
// deduplicated; blank lines are skipped. At least 25 unique words are
// required, since that's a full board.
func New(file string) (*List, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list %q: %w", file, err)
	}
	defer f.Close()

	seen := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.ToUpper(strings.TrimSpace(sc.Text()))
		if w == "" {
			continue
		}
		seen[w] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list %q: %w", file, err)
	}

	return fromSet(seen)
}

// Default returns the built-in word pool.
func Default() *List {
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(defaultWords) {
		seen[strings.ToUpper(w)] = struct{}{}
	}
	l, err := fromSet(seen)
	if err != nil {
		// The embedded list is checked by tests; running out of words
		// here means the binary itself is broken.
		panic(err)
	}
	return l
}

func fromSet(seen map[string]struct{}) (*List, error) {
	if len(seen) < codenames.Size {
		return nil, fmt.Errorf("word list has %d unique words, need at least %d", len(seen), codenames.Size)
	}
	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	return &List{words: words}, nil
}

// Words returns a copy of the pool.
func (l *List) Words() []string {
	return append([]string(nil), l.words...)
}

// Len is the number of unique words in the pool.
func (l *List) Len() int {
	return len(l.words)
}
