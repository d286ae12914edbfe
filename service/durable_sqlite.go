package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	_ "modernc.org/sqlite"
)

var _ DurableStore = (*SQLiteDurable)(nil)

// sqliteSchemaVersion is bumped whenever the schema changes.
const sqliteSchemaVersion = 2

// SQLiteDurable persists manifestations as JSON documents in a SQLite file.
// The database is opened on first use; a failed open is retried on the next
// call.
type SQLiteDurable struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteDurable creates a durable tier at path without touching the disk.
func NewSQLiteDurable(path string) *SQLiteDurable {
	return &SQLiteDurable{path: path}
}

func (s *SQLiteDurable) open() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if err := migrateSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("sqlite store opened", "path", s.path, "schema_version", sqliteSchemaVersion)
	s.db = db
	return db, nil
}

func migrateSQLite(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	migrations := []string{
		// v0 → v1: records keyed by protocol
		`CREATE TABLE IF NOT EXISTS manifestacoes (
			protocolo     TEXT PRIMARY KEY,
			payload       TEXT NOT NULL,
			status        TEXT NOT NULL,
			data_registro TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		)`,
		// v1 → v2: lookups by registration date
		`CREATE INDEX IF NOT EXISTS idx_manifestacoes_data ON manifestacoes(data_registro)`,
	}

	for i := version; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", i, i+1, err)
		}
		if _, err := db.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			return fmt.Errorf("update schema version to %d: %w", i+1, err)
		}
	}
	return nil
}

// Put upserts the record.
func (s *SQLiteDurable) Put(ctx context.Context, m *model.Manifestation) error {
	db, err := s.open()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.Protocol, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO manifestacoes (protocolo, payload, status, data_registro, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(protocolo) DO UPDATE SET
			payload = excluded.payload,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		m.Protocol, string(payload), string(m.Status),
		m.SubmittedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", m.Protocol, err)
	}
	return nil
}

// Get returns (nil, nil) when the protocol is unknown.
func (s *SQLiteDurable) Get(ctx context.Context, protocol string) (*model.Manifestation, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}

	var payload string
	err = db.QueryRowContext(ctx, `SELECT payload FROM manifestacoes WHERE protocolo = ?`, protocol).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", protocol, err)
	}

	var m model.Manifestation
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", protocol, err)
	}
	return &m, nil
}

// Close closes the database if it was opened.
func (s *SQLiteDurable) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
