package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firedash/firedash/core"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLStorage implements the core.SnapshotStore interface using a SQL database via GORM
type SQLStorage struct {
	db *gorm.DB
}

// Config holds the configuration for SQL database connections
type Config struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a default configuration for SQL connections
func DefaultConfig() Config {
	return Config{
		MaxIdleConns:    5,
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

// NewFromSQLite creates a new SQLite snapshot store
func NewFromSQLite(dbPath string, config Config, opts ...gorm.Option) (core.SnapshotStore, error) {
	dialect := sqlite.Open(dbPath)
	return newFromSQL(dialect, config, opts...)
}

// newFromSQL creates a new SQL snapshot store with the specified configuration
func newFromSQL(dialect gorm.Dialector, config Config, opts ...gorm.Option) (core.SnapshotStore, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err = db.AutoMigrate(&core.Snapshot{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStorage{db: db}, nil
}

// SaveLatest replaces the stored snapshot
func (s *SQLStorage) SaveLatest(ctx context.Context, snap *core.Snapshot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Only one snapshot is kept at a time.
		if result := tx.Where("1 = 1").Delete(&core.Snapshot{}); result.Error != nil {
			return fmt.Errorf("failed to clear previous snapshot: %w", result.Error)
		}
		if result := tx.Create(snap); result.Error != nil {
			return fmt.Errorf("failed to create snapshot: %w", result.Error)
		}
		return nil
	})
}

// Latest returns the stored snapshot, or nil when none exists
func (s *SQLStorage) Latest(ctx context.Context) (*core.Snapshot, error) {
	snap := new(core.Snapshot)
	result := s.db.WithContext(ctx).Order("run_id desc").First(snap)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", result.Error)
	}
	return snap, nil
}
