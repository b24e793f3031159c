// Package sqlstore implements the game store on SQLite. Documents are
// stored as JSON blobs keyed by game ID, with the message reverse index
// and the optimistic version stamp maintained relationally.
package sqlstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mkarlsen/codenames/codenames"

	_ "github.com/mattn/go-sqlite3"
)

// Store implements codenames.Store, backed by a SQLite database.
// NOTE: Since the database doesn't support concurrent writers, we don't
// hold the *sql.DB in this struct, we force all callers to get a handle
// via channels.
type Store struct {
	dbChan    chan func(*sql.DB)
	doneChan  chan struct{}
	closeOnce sync.Once
}

var createStmts = []string{
	`CREATE TABLE IF NOT EXISTS Games (
		id TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		doc BLOB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS Messages (
		message_id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL,
		FOREIGN KEY (game_id) REFERENCES Games(id)
	)`,
	`CREATE INDEX IF NOT EXISTS MessagesByGame ON Messages(game_id)`,
	`CREATE TABLE IF NOT EXISTS Players (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS Settings (
		player_id TEXT PRIMARY KEY,
		doc BLOB NOT NULL
	)`,
}

// New creates a new *Store that is stored on disk at the given filename.
func New(fn string) (*Store, error) {
	sdb, err := sql.Open("sqlite3", fn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	for _, stmt := range createStmts {
		if _, err := sdb.Exec(stmt); err != nil {
			sdb.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	s := &Store{
		dbChan:   make(chan func(*sql.DB)),
		doneChan: make(chan struct{}),
	}
	go s.run(sdb)
	return s, nil
}

// run handles all database calls, and ensures that only one thing is
// happening against the database at a time.
func (s *Store) run(sdb *sql.DB) {
	for {
		select {
		case dbFn := <-s.dbChan:
			dbFn(sdb)
		case <-s.doneChan:
			sdb.Close()
			return
		}
	}
}

func (s *Store) Close() error {
	s.closeOnce.Do(func() { close(s.doneChan) })
	return nil
}

func (s *Store) Load(id codenames.GameID) (*codenames.Stored, error) {
	var (
		doc *codenames.Stored
		err error
	)
	if derr := s.do(func(sdb *sql.DB) {
		var (
			version int64
			blob    []byte
		)
		row := sdb.QueryRow("SELECT version, doc FROM Games WHERE id = ?", string(id))
		if serr := row.Scan(&version, &blob); serr == sql.ErrNoRows {
			err = codenames.ErrGameNotFound
			return
		} else if serr != nil {
			err = fmt.Errorf("failed to load game %q: %w", id, serr)
			return
		}

		var d codenames.Stored
		if jerr := json.Unmarshal(blob, &d); jerr != nil {
			err = fmt.Errorf("failed to unmarshal game %q: %w", id, jerr)
			return
		}
		d.Version = version
		doc = &d
	}); derr != nil {
		err = derr
	}
	return doc, err
}

func (s *Store) Save(doc *codenames.Stored) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("refusing to save: %w", err)
	}
	id := doc.ID()
	if id == "" {
		return fmt.Errorf("refusing to save a document with no ID")
	}

	var err error
	if derr := s.do(func(sdb *sql.DB) {
		err = saveTx(sdb, id, doc)
	}); derr != nil {
		err = derr
	}
	return err
}

func saveTx(sdb *sql.DB, id codenames.GameID, doc *codenames.Stored) error {
	tx, err := sdb.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var version int64
	row := tx.QueryRow("SELECT version FROM Games WHERE id = ?", string(id))
	switch err := row.Scan(&version); {
	case err == sql.ErrNoRows:
		// First save of this document.
	case err != nil:
		return fmt.Errorf("failed to check version of game %q: %w", id, err)
	case version != doc.Version:
		return codenames.ErrVersionConflict
	}

	next := doc.Version + 1
	blob, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal game %q: %w", id, err)
	}

	if _, err := tx.Exec(`INSERT INTO Games (id, version, doc) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET version = excluded.version, doc = excluded.doc`,
		string(id), next, blob); err != nil {
		return fmt.Errorf("failed to save game %q: %w", id, err)
	}

	if _, err := tx.Exec("DELETE FROM Messages WHERE game_id = ?", string(id)); err != nil {
		return fmt.Errorf("failed to clear message index for game %q: %w", id, err)
	}
	for _, mID := range doc.MessageIDs() {
		if _, err := tx.Exec("INSERT INTO Messages (message_id, game_id) VALUES (?, ?)", string(mID), string(id)); err != nil {
			return fmt.Errorf("failed to index message %q: %w", mID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save of game %q: %w", id, err)
	}
	doc.Version = next
	return nil
}

func (s *Store) Delete(id codenames.GameID) error {
	var err error
	if derr := s.do(func(sdb *sql.DB) {
		tx, terr := sdb.Begin()
		if terr != nil {
			err = fmt.Errorf("failed to start transaction: %w", terr)
			return
		}
		defer tx.Rollback()

		if _, terr := tx.Exec("DELETE FROM Messages WHERE game_id = ?", string(id)); terr != nil {
			err = fmt.Errorf("failed to clear message index for game %q: %w", id, terr)
			return
		}
		res, terr := tx.Exec("DELETE FROM Games WHERE id = ?", string(id))
		if terr != nil {
			err = fmt.Errorf("failed to delete game %q: %w", id, terr)
			return
		}
		if n, terr := res.RowsAffected(); terr == nil && n == 0 {
			err = codenames.ErrGameNotFound
			return
		}
		err = tx.Commit()
	}); derr != nil {
		err = derr
	}
	return err
}

func (s *Store) List() ([]codenames.GameID, error) {
	var (
		ids []codenames.GameID
		err error
	)
	if derr := s.do(func(sdb *sql.DB) {
		rows, qerr := sdb.Query("SELECT id FROM Games")
		if qerr != nil {
			err = fmt.Errorf("failed to list games: %w", qerr)
			return
		}
		defer rows.Close()
		for rows.Next() {
			var id string
			if serr := rows.Scan(&id); serr != nil {
				err = fmt.Errorf("failed to scan game ID: %w", serr)
				return
			}
			ids = append(ids, codenames.GameID(id))
		}
		err = rows.Err()
	}); derr != nil {
		err = derr
	}
	return ids, err
}

func (s *Store) ResolveMessage(mID codenames.MessageID) (codenames.GameID, error) {
	var (
		gID codenames.GameID
		err error
	)
	if derr := s.do(func(sdb *sql.DB) {
		var id string
		row := sdb.QueryRow("SELECT game_id FROM Messages WHERE message_id = ?", string(mID))
		if serr := row.Scan(&id); serr == sql.ErrNoRows {
			err = codenames.ErrMessageNotFound
			return
		} else if serr != nil {
			err = fmt.Errorf("failed to resolve message %q: %w", mID, serr)
			return
		}
		gID = codenames.GameID(id)
	}); derr != nil {
		err = derr
	}
	return gID, err
}

func (s *Store) SaveName(p codenames.PlayerID, name string) error {
	var err error
	if derr := s.do(func(sdb *sql.DB) {
		_, serr := sdb.Exec(`INSERT INTO Players (id, name) VALUES (?, ?)
				ON CONFLICT(id) DO UPDATE SET name = excluded.name`, string(p), name)
		if serr != nil {
			err = fmt.Errorf("failed to save name for player %q: %w", p, serr)
		}
	}); derr != nil {
		err = derr
	}
	return err
}

func (s *Store) Name(p codenames.PlayerID) (string, error) {
	var (
		name string
		err  error
	)
	if derr := s.do(func(sdb *sql.DB) {
		row := sdb.QueryRow("SELECT name FROM Players WHERE id = ?", string(p))
		if serr := row.Scan(&name); serr == sql.ErrNoRows {
			err = codenames.ErrPlayerNotFound
		} else if serr != nil {
			err = fmt.Errorf("failed to load name for player %q: %w", p, serr)
		}
	}); derr != nil {
		err = derr
	}
	return name, err
}

func (s *Store) Settings(p codenames.PlayerID) (*codenames.PlayerSettings, error) {
	var (
		settings *codenames.PlayerSettings
		err      error
	)
	if derr := s.do(func(sdb *sql.DB) {
		var blob []byte
		row := sdb.QueryRow("SELECT doc FROM Settings WHERE player_id = ?", string(p))
		if serr := row.Scan(&blob); serr == sql.ErrNoRows {
			settings = codenames.DefaultSettings()
			return
		} else if serr != nil {
			err = fmt.Errorf("failed to load settings for player %q: %w", p, serr)
			return
		}

		var st codenames.PlayerSettings
		if jerr := json.Unmarshal(blob, &st); jerr != nil {
			err = fmt.Errorf("failed to unmarshal settings for player %q: %w", p, jerr)
			return
		}
		settings = &st
	}); derr != nil {
		err = derr
	}
	return settings, err
}

func (s *Store) SaveSettings(p codenames.PlayerID, st *codenames.PlayerSettings) error {
	var err error
	if derr := s.do(func(sdb *sql.DB) {
		blob, jerr := json.Marshal(st)
		if jerr != nil {
			err = fmt.Errorf("failed to marshal settings for player %q: %w", p, jerr)
			return
		}
		_, serr := sdb.Exec(`INSERT INTO Settings (player_id, doc) VALUES (?, ?)
				ON CONFLICT(player_id) DO UPDATE SET doc = excluded.doc`, string(p), blob)
		if serr != nil {
			err = fmt.Errorf("failed to save settings for player %q: %w", p, serr)
		}
	}); derr != nil {
		err = derr
	}
	return err
}

// ErrClosed is returned for calls made after Close.
var ErrClosed = errors.New("sqlstore: store is closed")

// do runs a function against the database and waits for it to finish.
// Once Close has been called the run loop is gone, so calls fail with
// ErrClosed instead of blocking on a channel nobody reads.
func (s *Store) do(fn func(*sql.DB)) error {
	done := make(chan struct{})
	select {
	case s.dbChan <- func(sdb *sql.DB) {
		fn(sdb)
		close(done)
	}:
		<-done
		return nil
	case <-s.doneChan:
		return ErrClosed
	}
}
