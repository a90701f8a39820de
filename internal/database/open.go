package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/foxxcyber/pex/internal/config"
)

// StateStore is a closable key-value backend for the inventory
type StateStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open returns the backend selected by cfg.StorageDriver
func Open(cfg *config.Config) (StateStore, error) {
	switch cfg.StorageDriver {
	case "bolt", "":
		log.Info().Str("path", cfg.BoltPath).Msg("Using bolt storage")
		s, err := OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite", "sqlite3":
		log.Info().Str("path", cfg.SQLitePath).Msg("Using sqlite storage")
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		db, err := Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := RunMigrations(db); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
