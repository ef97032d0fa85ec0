// Package db is the Postgres backend: a connection pool and a qa_records store
// that serves both as QA history and as the remote cache tier.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// DB wraps the database connection pool
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Configure pool
	config.MaxConns = 25
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("host", config.ConnConfig.Host).Msg("connected to database")

	return &DB{pool: pool}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	db.pool.Close()
}

// Pool returns the underlying connection pool
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// HealthCheck verifies database connectivity
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Schema creates the qa_records table and its lookup indexes
const Schema = `
CREATE TABLE IF NOT EXISTS qa_records (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL DEFAULT '',
	question_id TEXT NOT NULL DEFAULT '',
	question TEXT NOT NULL,
	normalized_prompt TEXT NOT NULL,
	vibe TEXT NOT NULL,
	answer_length TEXT NOT NULL,
	answer TEXT NOT NULL,
	model TEXT NOT NULL,
	confidence DOUBLE PRECISION,
	prompt_tokens INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	embedding REAL[],
	trace TEXT[],
	is_guest BOOLEAN NOT NULL DEFAULT FALSE,
	no_cache BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMP WITH TIME ZONE
);

ALTER TABLE qa_records ADD COLUMN IF NOT EXISTS no_cache BOOLEAN NOT NULL DEFAULT FALSE;

CREATE INDEX IF NOT EXISTS idx_qa_records_key ON qa_records(vibe, answer_length, normalized_prompt);
CREATE INDEX IF NOT EXISTS idx_qa_records_created_at ON qa_records(created_at DESC);
`

// Migrate applies Schema. It is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
