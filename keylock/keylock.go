// Package keylock provides per-game mutual exclusion. Every player
// action does a load-mutate-save cycle against storage, so two actions
// on the same game must not interleave; actions on different games are
// independent.
package keylock

import (
	"sync"

	"github.com/mkarlsen/codenames/codenames"
)

func New() *KeyLock {
	return &KeyLock{
		locks: make(map[codenames.GameID]*lock),
	}
}

type KeyLock struct {
	mu    sync.Mutex
	locks map[codenames.GameID]*lock
}

type lock struct {
	mu sync.Mutex
	// refs counts holders and waiters, so an entry can be dropped from
	// the map once the last one releases it.
	refs int
}

// Lock blocks until the caller holds the given game's lock, and returns
// the function that releases it.
func (k *KeyLock) Lock(id codenames.GameID) func() {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &lock{}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
