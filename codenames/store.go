package codenames

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion tags every stored document so the layout can be
// migrated safely later.
const SchemaVersion = 1

// Stored is the unit of persistence: either a pre-game setup or a live
// match, tagged by which pointer is non-nil. Exactly one of Setup and
// Game must be set.
type Stored struct {
	SchemaVersion int `json:"schema_version"`
	// Version is an optimistic-concurrency stamp. Save rejects a
	// document whose Version doesn't match the stored one, then bumps
	// it.
	Version int64       `json:"version"`
	Setup   *SetupState `json:"setup,omitempty"`
	Game    *GameState  `json:"game,omitempty"`
}

// NewStored wraps a fresh state in a versioned document.
func NewStored(setup *SetupState, game *GameState) *Stored {
	return &Stored{SchemaVersion: SchemaVersion, Setup: setup, Game: game}
}

// ID returns the game identifier regardless of which arm is populated.
func (s *Stored) ID() GameID {
	if s.Setup != nil {
		return s.Setup.ID
	}
	if s.Game != nil {
		return s.Game.ID
	}
	return GameID("")
}

// MessageIDs returns the outbound messages currently showing this
// instance. The store maintains the reverse index from these.
func (s *Stored) MessageIDs() []MessageID {
	if s.Setup != nil {
		return s.Setup.Messages
	}
	if s.Game != nil {
		return s.Game.Messages
	}
	return nil
}

// LastActivity returns when a player last acted on this instance.
func (s *Stored) LastActivity() time.Time {
	if s.Setup != nil {
		return s.Setup.LastActivity
	}
	if s.Game != nil {
		return s.Game.LastActivity
	}
	return time.Time{}
}

// Participants returns everyone attached to this instance.
func (s *Stored) Participants() []PlayerID {
	if s.Game != nil {
		return s.Game.Participants()
	}
	if s.Setup == nil {
		return nil
	}
	var out []PlayerID
	for _, r := range GameRoles {
		if p := s.Setup.Roles[r]; p != "" {
			out = append(out, p)
		}
	}
	out = append(out, s.Setup.RandomPool...)
	return out
}

// Clone returns a deep copy of the document.
func (s *Stored) Clone() *Stored {
	if s == nil {
		return nil
	}
	return &Stored{
		SchemaVersion: s.SchemaVersion,
		Version:       s.Version,
		Setup:         s.Setup.Clone(),
		Game:          s.Game.Clone(),
	}
}

// Validate checks the tagged-union invariant.
func (s *Stored) Validate() error {
	if (s.Setup == nil) == (s.Game == nil) {
		return fmt.Errorf("stored document must hold exactly one of setup or game")
	}
	if s.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported schema version %d, want %d", s.SchemaVersion, SchemaVersion)
	}
	return nil
}

// Store is the sole mechanism for game state to survive between player
// actions. Each action loads a document, mutates a copy, and saves it
// back; implementations must keep documents for different games fully
// independent. Serializing actions within one game is the caller's job
// (see keylock).
type Store interface {
	// Load returns a copy of the stored document, or ErrGameNotFound.
	Load(GameID) (*Stored, error)
	// Save writes the document back and maintains the message index.
	// Returns ErrVersionConflict if the document changed since Load.
	Save(*Stored) error
	// Delete removes the document and its message-index entries.
	Delete(GameID) error
	// List returns the IDs of every stored setup and game.
	List() ([]GameID, error)
	// ResolveMessage maps an inbound message identifier back to the
	// game showing it, or ErrMessageNotFound.
	ResolveMessage(MessageID) (GameID, error)

	// SaveName records a player's display name.
	SaveName(PlayerID, string) error
	// Name returns a player's display name, or ErrPlayerNotFound.
	Name(PlayerID) (string, error)

	// Settings returns a player's presentation preferences, defaults if
	// they never set any.
	Settings(PlayerID) (*PlayerSettings, error)
	SaveSettings(PlayerID, *PlayerSettings) error
}

// NewGameID mints an identifier for a fresh setup or match.
func NewGameID() GameID {
	return GameID(uuid.NewString())
}

// RandomTeam picks which side goes first.
func RandomTeam(r *rand.Rand) Team {
	if r.Intn(2) == 0 {
		return TeamRed
	}
	return TeamBlue
}
