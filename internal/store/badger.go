// Package store provides the durable key-value persistence adapter the game
// engine writes through, plus an in-memory stand-in for tests.
package store

import (
	"encoding/json"

	badger "github.com/dgraph-io/badger/v2"

	"github.com/stop1love1/death-point/internal/game"
)

// Badger keeps the current game snapshot as one JSON value in a badger
// database. The stored representation is an opaque snapshot with no
// versioning; anything that fails to decode loads as absent.
type Badger struct {
	db *badger.DB
}

var storageKey = []byte(game.StorageKey)

// Open opens (or creates) the database under dir.
func Open(dir string) (*Badger, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &Badger{db: db}, nil
}

// OpenInMemory opens a non-durable database. Used by tests.
func OpenInMemory() (*Badger, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &Badger{db: db}, nil
}

// Load returns the stored snapshot, or (nil, nil) when the key is missing or
// the value does not decode as a snapshot.
func (b *Badger) Load() (*game.State, error) {
	var raw []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storageKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var st game.State
	if err := json.Unmarshal(raw, &st); err != nil {
		// Corrupt snapshot reads as absent, never as a partial game.
		return nil, nil
	}
	return &st, nil
}

// Save overwrites the stored snapshot.
func (b *Badger) Save(st *game.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storageKey, raw)
	})
}

// Clear removes the stored snapshot. Clearing an empty store is fine.
func (b *Badger) Clear() error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(storageKey)
	})
}

// Close releases the database.
func (b *Badger) Close() error {
	return b.db.Close()
}
