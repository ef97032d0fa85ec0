package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bridgehub/bridge/internal/cache"
	"github.com/bridgehub/bridge/pkg/model"
)

const recordColumns = `id, user_id, question_id, question, normalized_prompt, vibe, answer_length,
	answer, model, confidence, prompt_tokens, completion_tokens, total_tokens,
	embedding, trace, is_guest, created_at, expires_at, no_cache`

// Store provides qa_records operations
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new store
func NewStore(db *DB) *Store {
	return &Store{pool: db.Pool()}
}

// Name identifies the store in logs and stats
func (s *Store) Name() string {
	return "postgres"
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Record inserts a QA record. Records with an existing id are left unchanged.
func (s *Store) Record(ctx context.Context, rec *model.QARecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO qa_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO NOTHING
	`, rec.ID, rec.UserID, rec.QuestionID, rec.Question, rec.NormalizedPrompt, string(rec.Vibe),
		string(rec.AnswerLength), rec.Answer, rec.Model, rec.Confidence,
		rec.Usage.Prompt, rec.Usage.Completion, rec.Usage.Total,
		rec.Embedding, rec.Trace, rec.IsGuest, rec.CreatedAt, rec.ExpiresAt, rec.NoCache)

	if err != nil {
		return fmt.Errorf("failed to insert qa record: %w", err)
	}
	return nil
}

// FindExact returns the newest record stored under key, or nil
func (s *Store) FindExact(ctx context.Context, key cache.Key) (*model.QARecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM qa_records
		WHERE vibe = $1 AND answer_length = $2 AND normalized_prompt = $3 AND NOT no_cache
		ORDER BY created_at DESC
		LIMIT 1
	`, string(key.Vibe), string(key.Length), key.Prompt)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find qa record: %w", err)
	}
	return rec, nil
}

// FindSemantic compares vec against the most recent embedded records in key's partition
func (s *Store) FindSemantic(ctx context.Context, key cache.Key, vec []float32, threshold float64) (*model.QARecord, float64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM qa_records
		WHERE vibe = $1 AND answer_length = $2 AND embedding IS NOT NULL AND NOT no_cache
		ORDER BY created_at DESC
		LIMIT $3
	`, string(key.Vibe), string(key.Length), cache.SemanticCandidates)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query qa records: %w", err)
	}
	defer rows.Close()

	var candidates []*model.QARecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan qa record: %w", err)
		}
		candidates = append(candidates, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate qa records: %w", err)
	}

	rec, sim := cache.BestRecord(candidates, key, vec, threshold)
	return rec, sim, nil
}

// Delete removes a record by id
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM qa_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete qa record: %w", err)
	}
	return nil
}

// ListRecords lists records newest first
func (s *Store) ListRecords(ctx context.Context, limit, offset int) ([]*model.QARecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM qa_records
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list qa records: %w", err)
	}
	defer rows.Close()

	records := make([]*model.QARecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan qa record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// PurgeExpired deletes records whose expiry has passed and returns how many were removed
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM qa_records WHERE expires_at IS NOT NULL AND expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired qa records: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRecord(row pgx.Row) (*model.QARecord, error) {
	var (
		rec          model.QARecord
		vibe, length string
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.QuestionID, &rec.Question, &rec.NormalizedPrompt,
		&vibe, &length, &rec.Answer, &rec.Model, &rec.Confidence,
		&rec.Usage.Prompt, &rec.Usage.Completion, &rec.Usage.Total,
		&rec.Embedding, &rec.Trace, &rec.IsGuest, &rec.CreatedAt, &rec.ExpiresAt, &rec.NoCache)
	if err != nil {
		return nil, err
	}
	rec.Vibe = model.Vibe(vibe)
	rec.AnswerLength = model.AnswerLength(length)
	return &rec, nil
}
