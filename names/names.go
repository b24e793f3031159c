// Package names resolves player IDs to display names for narration
// lines.
package names

import (
	"sync"

	"github.com/mkarlsen/codenames/codenames"
)

// Resolver turns a player ID into something printable. Implementations
// should fall back to the raw ID rather than fail.
type Resolver interface {
	Name(codenames.PlayerID) string
}

// Static is a fixed ID-to-name mapping, mostly useful for local play
// and tests.
type Static map[codenames.PlayerID]string

func (s Static) Name(p codenames.PlayerID) string {
	if n, ok := s[p]; ok {
		return n
	}
	return string(p)
}

// Stored resolves names from the game store, where players register
// their display name.
type Stored struct {
	store codenames.Store
}

func NewStored(store codenames.Store) *Stored {
	return &Stored{store: store}
}

func (s *Stored) Name(p codenames.PlayerID) string {
	n, err := s.store.Name(p)
	if err != nil || n == "" {
		return string(p)
	}
	return n
}

// Cached wraps a Resolver with a lookup cache. Name lookups happen on
// every narration render, and the underlying resolver may go to
// storage.
type Cached struct {
	r Resolver

	mu    sync.RWMutex
	names map[codenames.PlayerID]string
}

func NewCached(r Resolver) *Cached {
	return &Cached{r: r, names: make(map[codenames.PlayerID]string)}
}

func (c *Cached) Name(p codenames.PlayerID) string {
	c.mu.RLock()
	n, ok := c.names[p]
	c.mu.RUnlock()
	if ok {
		return n
	}

	n = c.r.Name(p)
	c.mu.Lock()
	c.names[p] = n
	c.mu.Unlock()
	return n
}

// Forget drops a cached name, for when a player renames themselves.
func (c *Cached) Forget(p codenames.PlayerID) {
	c.mu.Lock()
	delete(c.names, p)
	c.mu.Unlock()
}
