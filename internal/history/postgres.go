package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists history in a memo_runs table. It enforces the same
// dedupe-by-subject and cap semantics as the in-memory store, inside one
// transaction per save.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool and verifies it.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Load returns up to MaxEntries completed runs, most recent first.
func (s *PostgresStore) Load(ctx context.Context) ([]Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, subject, completed_at, artifacts
		 FROM memo_runs
		 ORDER BY completed_at DESC
		 LIMIT $1`,
		MaxEntries,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var artifacts []byte
		if err := rows.Scan(&e.ID, &e.Subject, &e.CompletedAt, &artifacts); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if err := json.Unmarshal(artifacts, &e.Artifacts); err != nil {
			return nil, fmt.Errorf("failed to parse artifacts for run %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return entries, nil
}

// Save replaces any entry for the same subject (case-insensitive), inserts
// the new one, and trims the table to MaxEntries newest rows.
func (s *PostgresStore) Save(ctx context.Context, entry Entry) error {
	artifacts, err := json.Marshal(entry.Artifacts)
	if err != nil {
		return fmt.Errorf("failed to marshal artifacts: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM memo_runs WHERE LOWER(subject) = LOWER($1)`,
		entry.Subject,
	); err != nil {
		return fmt.Errorf("failed to replace prior run for subject: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO memo_runs (id, subject, completed_at, artifacts)
		 VALUES ($1, $2, $3, $4)`,
		entry.ID, entry.Subject, entry.CompletedAt, artifacts,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM memo_runs
		 WHERE id NOT IN (
			SELECT id FROM memo_runs ORDER BY completed_at DESC LIMIT $1
		 )`,
		MaxEntries,
	); err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit history save: %w", err)
	}
	return nil
}

// Migrate creates the memo_runs table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS memo_runs (
			id UUID PRIMARY KEY,
			subject TEXT NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL,
			artifacts JSONB NOT NULL
		)`,
	)
	if err != nil {
		return fmt.Errorf("failed to create memo_runs table: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
