// Package memstore implements the game store in memory, for local play
// and tests.
package memstore

import (
	"fmt"
	"sync"

	"github.com/mkarlsen/codenames/codenames"
)

type Store struct {
	mu       sync.RWMutex
	games    map[codenames.GameID]*codenames.Stored
	messages map[codenames.MessageID]codenames.GameID
	names    map[codenames.PlayerID]string
	settings map[codenames.PlayerID]*codenames.PlayerSettings
}

func New() *Store {
	return &Store{
		games:    make(map[codenames.GameID]*codenames.Stored),
		messages: make(map[codenames.MessageID]codenames.GameID),
		names:    make(map[codenames.PlayerID]string),
		settings: make(map[codenames.PlayerID]*codenames.PlayerSettings),
	}
}

func (s *Store) Load(id codenames.GameID) (*codenames.Stored, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.games[id]
	if !ok {
		return nil, codenames.ErrGameNotFound
	}
	return doc.Clone(), nil
}

func (s *Store) Save(doc *codenames.Stored) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("refusing to save: %w", err)
	}
	id := doc.ID()
	if id == "" {
		return fmt.Errorf("refusing to save a document with no ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.games[id]; ok {
		if cur.Version != doc.Version {
			return codenames.ErrVersionConflict
		}
		s.dropMessages(cur)
	}

	dc := doc.Clone()
	dc.Version++
	s.games[id] = dc
	for _, mID := range dc.MessageIDs() {
		s.messages[mID] = id
	}
	doc.Version = dc.Version
	return nil
}

func (s *Store) Delete(id codenames.GameID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.games[id]
	if !ok {
		return codenames.ErrGameNotFound
	}
	s.dropMessages(doc)
	delete(s.games, id)
	return nil
}

func (s *Store) List() ([]codenames.GameID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []codenames.GameID
	for id := range s.games {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) ResolveMessage(mID codenames.MessageID) (codenames.GameID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gID, ok := s.messages[mID]
	if !ok {
		return "", codenames.ErrMessageNotFound
	}
	return gID, nil
}

// dropMessages removes a document's entries from the reverse index.
// Callers hold the write lock.
func (s *Store) dropMessages(doc *codenames.Stored) {
	for _, mID := range doc.MessageIDs() {
		delete(s.messages, mID)
	}
}

func (s *Store) SaveName(p codenames.PlayerID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.names[p] = name
	return nil
}

func (s *Store) Name(p codenames.PlayerID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name, ok := s.names[p]
	if !ok {
		return "", codenames.ErrPlayerNotFound
	}
	return name, nil
}

func (s *Store) Settings(p codenames.PlayerID) (*codenames.PlayerSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settings[p]
	if !ok {
		return codenames.DefaultSettings(), nil
	}
	return st.Clone(), nil
}

func (s *Store) SaveSettings(p codenames.PlayerID, st *codenames.PlayerSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[p] = st.Clone()
	return nil
}
