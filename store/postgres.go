package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/use-agent/trendscout/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS trending_topics (
	id              BIGSERIAL PRIMARY KEY,
	unique_id       TEXT        NOT NULL UNIQUE,
	trending_topics TEXT[]      NOT NULL,
	timestamp       TEXT        NOT NULL,
	ip_address      TEXT        NOT NULL,
	captured_at     TIMESTAMPTZ NOT NULL
)`

const postgresInsert = `
INSERT INTO trending_topics (unique_id, trending_topics, timestamp, ip_address, captured_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

// Postgres stores snapshots in PostgreSQL.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the snapshot table if it is missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

// Insert appends s and returns the generated row id.
func (p *Postgres) Insert(ctx context.Context, s *models.TrendSnapshot) (string, error) {
	var id int64
	err := p.db.QueryRowxContext(ctx, postgresInsert,
		s.UniqueID,
		pq.Array(s.Topics),
		s.Timestamp,
		s.IPAddress,
		s.CaptureAt,
	).Scan(&id)
	if err != nil {
		return "", storageError(fmt.Errorf("insert snapshot: %w", err))
	}
	return strconv.FormatInt(id, 10), nil
}

// Close closes the database connection
func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
