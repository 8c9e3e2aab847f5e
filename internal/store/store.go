// Package store provides snapshot persistence for Galerie state.
//
// Every mutation of an owning component writes its entire state back as a
// JSON snapshot under a fixed key. There is no incremental diff and no
// transaction log: a snapshot write is a single atomic key set, so a
// failure mid-write leaves the prior snapshot intact.
//
// The store is single-writer by construction (one server process owns the
// data directory). Two processes sharing a data directory is last-write-wins.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/buntdb"
)

// Fixed snapshot keys.
const (
	KeyWorks        = "portfolioWorks"
	KeyAdmin        = "adminSettings"
	KeySiteSettings = "portfolioSettings"
	KeyCapturedMail = "capturedMail"
)

// Store is a key-value snapshot store backed by buntdb.
type Store struct {
	db *buntdb.DB
}

// Open opens (or creates) the snapshot database at path.
// Pass ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens an ephemeral in-memory store.
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Set serializes v to JSON and writes it under key as one atomic set.
func (s *Store) Set(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot %q: %w", key, err)
	}
	err = s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(data), nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to persist snapshot %q: %w", key, err)
	}
	return nil
}

// Get hydrates out from the snapshot under key.
// Returns false with a nil error when the key has never been written.
func (s *Store) Get(key string, out interface{}) (bool, error) {
	var raw string
	err := s.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(key)
		if err != nil {
			return err
		}
		raw = val
		return nil
	})
	if err == buntdb.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read snapshot %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("failed to decode snapshot %q: %w", key, err)
	}
	return true, nil
}

// Delete removes the snapshot under key. Absent keys are not an error.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key)
		if err == buntdb.ErrNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", key, err)
	}
	return nil
}
