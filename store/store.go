// Package store persists trend snapshots. Writes are append-only; nothing
// here reads a snapshot back.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/use-agent/trendscout/models"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 10

	// DefaultMaxIdleConns is the default maximum number of idle connections
	DefaultMaxIdleConns = 2

	// DefaultConnMaxLifetime is the default maximum lifetime of a connection
	DefaultConnMaxLifetime = 5 * time.Minute

	// DefaultPingTimeout is the default timeout for pinging the database
	DefaultPingTimeout = 5 * time.Second
)

// Store is a snapshot sink backed by a SQL database.
type Store interface {
	Insert(ctx context.Context, s *models.TrendSnapshot) (string, error)
	Close() error
}

// Open connects to driver ("postgres" or "sqlite") at dsn and applies the
// schema.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		db, err := connect(ctx, "postgres", dsn)
		if err != nil {
			return nil, err
		}
		pg := NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return pg, nil
	case "sqlite":
		db, err := connect(ctx, "sqlite", dsn)
		if err != nil {
			return nil, err
		}
		// One connection keeps ":memory:" databases alive and serialises writers.
		db.SetMaxOpenConns(1)
		lite := NewSQLite(db)
		if err := lite.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return lite, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func connect(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, pingErr)
	}
	return db, nil
}

func storageError(err error) error {
	return models.NewTrendError(models.ErrCodeStorage, "failed to save snapshot", err)
}
