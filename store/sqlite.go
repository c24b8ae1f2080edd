package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/use-agent/trendscout/models"
	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trending_topics (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	unique_id       TEXT NOT NULL UNIQUE,
	trending_topics TEXT NOT NULL,
	timestamp       TEXT NOT NULL,
	ip_address      TEXT NOT NULL,
	captured_at     TEXT NOT NULL
)`

const sqliteInsert = `
INSERT INTO trending_topics (unique_id, trending_topics, timestamp, ip_address, captured_at)
VALUES (?, ?, ?, ?, ?)`

// SQLite stores snapshots in a SQLite file. Topics are kept as a JSON array.
type SQLite struct {
	db *sqlx.DB
}

// NewSQLite wraps an open connection.
func NewSQLite(db *sqlx.DB) *SQLite {
	return &SQLite{db: db}
}

// Migrate creates the snapshot table if it is missing.
func (l *SQLite) Migrate(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

// Insert appends s and returns the rowid.
func (l *SQLite) Insert(ctx context.Context, s *models.TrendSnapshot) (string, error) {
	topics, err := json.Marshal(s.Topics)
	if err != nil {
		return "", storageError(fmt.Errorf("encode topics: %w", err))
	}

	res, err := l.db.ExecContext(ctx, sqliteInsert,
		s.UniqueID,
		string(topics),
		s.Timestamp,
		s.IPAddress,
		s.CaptureAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", storageError(fmt.Errorf("insert snapshot: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", storageError(fmt.Errorf("read insert id: %w", err))
	}
	return strconv.FormatInt(id, 10), nil
}

// Close closes the database connection
func (l *SQLite) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}
