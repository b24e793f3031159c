// Package reaper removes setups and games nobody has touched in weeks.
// Instances idle past the warning threshold get a one-time heads-up;
// past the delete threshold they are removed and their participants
// told.
package reaper

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mkarlsen/codenames/codenames"
)

const (
	// WarnAfter is how long a game can sit untouched before its players
	// are warned it will be cleaned up.
	WarnAfter = 12 * 24 * time.Hour
	// DeleteAfter is how long before it is actually removed.
	DeleteAfter = 14 * 24 * time.Hour
)

// Notifier tells a game's players about reaping.
type Notifier interface {
	ToGame(codenames.GameID, interface{}) error
}

// Notice is the payload sent to a reaped or expiring game.
type Notice struct {
	GameID codenames.GameID `json:"game_id"`
	// Deleted is false for the advance warning.
	Deleted bool   `json:"deleted"`
	Message string `json:"message"`
}

type Reaper struct {
	store codenames.Store
	n     Notifier
	now   func() time.Time

	// warned tracks which games already got their one warning.
	warned map[codenames.GameID]bool
}

func New(store codenames.Store, n Notifier) *Reaper {
	return &Reaper{
		store:  store,
		n:      n,
		now:    time.Now,
		warned: make(map[codenames.GameID]bool),
	}
}

// Run sweeps on the given interval until the context is canceled.
func (r *Reaper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sweep(); err != nil {
				log.Printf("reaper: sweep failed: %v", err)
			}
		}
	}
}

// Sweep walks every stored instance once.
func (r *Reaper) Sweep() error {
	ids, err := r.store.List()
	if err != nil {
		return fmt.Errorf("failed to list games: %w", err)
	}

	now := r.now()
	for _, id := range ids {
		doc, err := r.store.Load(id)
		if err != nil {
			log.Printf("reaper: failed to load game %q: %v", id, err)
			continue
		}

		idle := now.Sub(doc.LastActivity())
		switch {
		case idle > DeleteAfter:
			if err := r.store.Delete(id); err != nil {
				log.Printf("reaper: failed to delete game %q: %v", id, err)
				continue
			}
			delete(r.warned, id)
			r.notify(id, &Notice{
				GameID:  id,
				Deleted: true,
				Message: "This game was removed after two weeks of inactivity.",
			})
		case idle > WarnAfter:
			if r.warned[id] {
				continue
			}
			r.warned[id] = true
			r.notify(id, &Notice{
				GameID:  id,
				Message: "This game has been inactive for almost two weeks and will be removed soon.",
			})
		}
	}
	return nil
}

func (r *Reaper) notify(id codenames.GameID, n *Notice) {
	if err := r.n.ToGame(id, n); err != nil {
		log.Printf("reaper: failed to notify game %q: %v", id, err)
	}
}
