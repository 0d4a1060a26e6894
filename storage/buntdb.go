// Package storage persists the latest simulation snapshot so a
// reloading dashboard can re-render its charts without re-running.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/firedash/firedash/core"

	"github.com/goccy/go-json"
	"github.com/tidwall/buntdb"
)

// snapshotKey is the single key under which the snapshot lives.
const snapshotKey = "snapshot:latest"

// BuntStorage implements the core.SnapshotStore interface using BuntDB
type BuntStorage struct {
	db *buntdb.DB
}

// NewFromMemory creates an in-memory snapshot store
func NewFromMemory() (core.SnapshotStore, error) {
	return NewBuntStorage(":memory:")
}

// NewFromFile creates a file-based snapshot store
func NewFromFile(file string) (core.SnapshotStore, error) {
	return NewBuntStorage(file)
}

// NewBuntStorage creates a new BuntDB snapshot store
func NewBuntStorage(sourceFile string) (core.SnapshotStore, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.SetConfig(buntdb.Config{
		SyncPolicy: buntdb.EverySecond,
	}); err != nil {
		return nil, fmt.Errorf("failed to configure buntdb: %w", err)
	}

	return &BuntStorage{db: db}, nil
}

// SaveLatest replaces the stored snapshot
func (b *BuntStorage) SaveLatest(_ context.Context, snap *core.Snapshot) error {
	content, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(snapshotKey, string(content), nil)
		return err
	})
}

// Latest returns the stored snapshot, or nil when none exists
func (b *BuntStorage) Latest(_ context.Context) (*core.Snapshot, error) {
	var content string
	err := b.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(snapshotKey)
		if err != nil {
			return err
		}
		content = value
		return nil
	})

	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	snap := new(core.Snapshot)
	if err := json.Unmarshal([]byte(content), snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return snap, nil
}
