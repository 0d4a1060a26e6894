package core

import (
	"context"
	"time"
)

// Snapshot is the most recent completed simulation run. Only a single
// snapshot is ever stored: it lets a reloading page or a reconnecting
// client re-render the current charts without re-running the simulation.
// Run history is deliberately not kept.
type Snapshot struct {
	RunID       uint64            `json:"run_id" gorm:"primaryKey;autoIncrement:false"`
	Request     SimulationRequest `json:"request" gorm:"serializer:json"`
	Result      *SimulationResult `json:"result" gorm:"serializer:json"`
	SubmittedAt time.Time         `json:"submitted_at"`
}

// SnapshotStore persists the latest simulation snapshot.
type SnapshotStore interface {
	// SaveLatest replaces the stored snapshot with snap.
	SaveLatest(ctx context.Context, snap *Snapshot) error

	// Latest returns the stored snapshot, or nil when none exists.
	Latest(ctx context.Context) (*Snapshot, error)
}
