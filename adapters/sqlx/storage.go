// Package sqlx persists progress in an embedded SQL database. The record is
// stored as a single JSON document row; point awards are additionally
// mirrored into a queryable history table.
package sqlx

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"tripquest/core"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
)

// Config holds SQL storage configuration.
type Config struct {
	Driver       string        `json:"driver"`
	DSN          string        `json:"dsn"`
	MaxOpenConns int           `json:"max_open_conns"`
	MaxIdleConns int           `json:"max_idle_conns"`
	ConnLifetime time.Duration `json:"conn_lifetime"`
}

// DefaultConfig returns an embedded-sqlite default.
func DefaultConfig() Config {
	return Config{
		Driver:       DriverSQLite,
		DSN:          "file:tripquest.db?_pragma=busy_timeout(5000)",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		ConnLifetime: time.Hour,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS progress (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	doc TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS points_history (
	seq INTEGER NOT NULL,
	amount INTEGER NOT NULL,
	reason TEXT NOT NULL,
	multiplier REAL NOT NULL,
	awarded_at TIMESTAMP NOT NULL,
	PRIMARY KEY (seq)
);
CREATE TABLE IF NOT EXISTS satellite_sets (
	set_key TEXT NOT NULL,
	member TEXT NOT NULL,
	PRIMARY KEY (set_key, member)
);`

// Store implements the engine storage interfaces over sqlx.
type Store struct {
	db *sqlx.DB
}

// New opens the database and applies the schema.
func New(cfg Config) (*Store, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnLifetime)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing database handle without applying the schema;
// used by tests.
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Load(ctx context.Context) (core.ProgressRecord, bool, error) {
	var doc string
	err := s.db.GetContext(ctx, &doc, `SELECT doc FROM progress WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ProgressRecord{}, false, nil
	}
	if err != nil {
		return core.ProgressRecord{}, false, fmt.Errorf("load progress: %w", err)
	}
	rec := core.DefaultRecord()
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		// Corrupt row: report absent so the engine starts from defaults.
		return core.ProgressRecord{}, false, nil
	}
	return rec, true, nil
}

// Save upserts the document row and appends any history entries not yet
// mirrored into points_history, all in one transaction.
func (s *Store) Save(ctx context.Context, rec core.ProgressRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO progress (id, doc, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		string(doc), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}

	var stored int
	if err := tx.GetContext(ctx, &stored, `SELECT COUNT(*) FROM points_history`); err != nil {
		return fmt.Errorf("count history: %w", err)
	}
	if stored > len(rec.PointsHistory) {
		// The record's history shrank (reset or snapshot import), so the
		// mirrored rows no longer correspond to it. Rewrite from scratch.
		if _, err := tx.ExecContext(ctx, `DELETE FROM points_history`); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		stored = 0
	}
	for i := stored; i < len(rec.PointsHistory); i++ {
		entry := rec.PointsHistory[i]
		_, err = tx.ExecContext(ctx,
			`INSERT INTO points_history (seq, amount, reason, multiplier, awarded_at) VALUES (?, ?, ?, ?, ?)`,
			i, entry.Amount, entry.Reason, entry.Multiplier, entry.Timestamp.UTC())
		if err != nil {
			return fmt.Errorf("append history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) LoadSet(ctx context.Context, key string) ([]string, error) {
	ids := []string{}
	err := s.db.SelectContext(ctx, &ids,
		`SELECT member FROM satellite_sets WHERE set_key = ? ORDER BY member`, key)
	if err != nil {
		return nil, fmt.Errorf("load set %q: %w", key, err)
	}
	return ids, nil
}

func (s *Store) SaveSet(ctx context.Context, key string, ids []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM satellite_sets WHERE set_key = ?`, key); err != nil {
		return fmt.Errorf("clear set %q: %w", key, err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO satellite_sets (set_key, member) VALUES (?, ?)`, key, id); err != nil {
			return fmt.Errorf("save set %q: %w", key, err)
		}
	}
	return tx.Commit()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
