package remotestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/bridgehub/bridge/internal/cache"
	"github.com/bridgehub/bridge/pkg/model"
)

const createQATable = `
CREATE TABLE IF NOT EXISTS qa_records (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL DEFAULT '',
	question_id TEXT NOT NULL DEFAULT '',
	question TEXT NOT NULL,
	normalized_prompt TEXT NOT NULL,
	vibe TEXT NOT NULL,
	answer_length TEXT NOT NULL,
	answer TEXT NOT NULL,
	model TEXT NOT NULL,
	confidence REAL,
	prompt_tokens INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	embedding TEXT,
	trace TEXT,
	is_guest INTEGER NOT NULL DEFAULT 0,
	no_cache INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	expires_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_qa_records_key ON qa_records(vibe, answer_length, normalized_prompt);
CREATE INDEX IF NOT EXISTS idx_qa_records_created_at ON qa_records(created_at);
`

const sqliteColumns = `id, user_id, question_id, question, normalized_prompt, vibe, answer_length,
	answer, model, confidence, prompt_tokens, completion_tokens, total_tokens,
	embedding, trace, is_guest, created_at, expires_at, no_cache`

// SQLite stores QA records in an embedded database file
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createQATable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}
	// databases created before no_cache existed
	if _, err := db.Exec(`ALTER TABLE qa_records ADD COLUMN no_cache INTEGER NOT NULL DEFAULT 0`); err != nil &&
		!strings.Contains(err.Error(), "duplicate column") {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Name identifies the store in logs and stats
func (s *SQLite) Name() string {
	return "sqlite"
}

// Ping verifies the database is usable
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Record inserts a QA record. Duplicate ids are ignored.
func (s *SQLite) Record(ctx context.Context, rec *model.QARecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var vec, trace []byte
	var err error
	if len(rec.Embedding) > 0 {
		if vec, err = json.Marshal(rec.Embedding); err != nil {
			return fmt.Errorf("encode embedding: %w", err)
		}
	}
	if len(rec.Trace) > 0 {
		if trace, err = json.Marshal(rec.Trace); err != nil {
			return fmt.Errorf("encode trace: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO qa_records (`+sqliteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.UserID, rec.QuestionID, rec.Question, rec.NormalizedPrompt,
		string(rec.Vibe), string(rec.AnswerLength), rec.Answer, rec.Model, rec.Confidence,
		rec.Usage.Prompt, rec.Usage.Completion, rec.Usage.Total,
		nullString(vec), nullString(trace), rec.IsGuest, rec.CreatedAt.UTC(), utcPtr(rec.ExpiresAt), rec.NoCache)
	if err != nil {
		return fmt.Errorf("insert qa record: %w", err)
	}
	return nil
}

// FindExact returns the newest record stored under key, or nil
func (s *SQLite) FindExact(ctx context.Context, key cache.Key) (*model.QARecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sqliteColumns+` FROM qa_records
		WHERE vibe = ? AND answer_length = ? AND normalized_prompt = ? AND no_cache = 0
		ORDER BY created_at DESC LIMIT 1`,
		string(key.Vibe), string(key.Length), key.Prompt)

	rec, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find qa record: %w", err)
	}
	return rec, nil
}

// FindSemantic compares vec against the most recent embedded records in key's partition
func (s *SQLite) FindSemantic(ctx context.Context, key cache.Key, vec []float32, threshold float64) (*model.QARecord, float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteColumns+` FROM qa_records
		WHERE vibe = ? AND answer_length = ? AND embedding IS NOT NULL AND no_cache = 0
		ORDER BY created_at DESC LIMIT ?`,
		string(key.Vibe), string(key.Length), cache.SemanticCandidates)
	if err != nil {
		return nil, 0, fmt.Errorf("query qa records: %w", err)
	}
	defer rows.Close()

	var candidates []*model.QARecord
	for rows.Next() {
		rec, err := scanSQLite(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan qa record: %w", err)
		}
		candidates = append(candidates, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate qa records: %w", err)
	}

	rec, sim := cache.BestRecord(candidates, key, vec, threshold)
	return rec, sim, nil
}

// Delete removes a record by id
func (s *SQLite) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM qa_records WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete qa record: %w", err)
	}
	return nil
}

// PurgeExpired deletes records whose expiry has passed and returns how many were removed
func (s *SQLite) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, expires_at FROM qa_records WHERE expires_at IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("query expiring qa records: %w", err)
	}

	var expired []string
	for rows.Next() {
		var (
			id        string
			expiresAt time.Time
		)
		if err := rows.Scan(&id, &expiresAt); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan expiring qa record: %w", err)
		}
		if now.After(expiresAt) {
			expired = append(expired, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate expiring qa records: %w", err)
	}

	// rows must be closed first: the pool holds a single connection
	var n int64
	for _, id := range expired {
		res, err := s.db.ExecContext(ctx, `DELETE FROM qa_records WHERE id = ?`, id)
		if err != nil {
			return n, fmt.Errorf("purge qa record: %w", err)
		}
		affected, _ := res.RowsAffected()
		n += affected
	}
	return n, nil
}

// Count returns the number of stored records
func (s *SQLite) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM qa_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count qa records: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row rowScanner) (*model.QARecord, error) {
	var (
		rec              model.QARecord
		id, vibe, length string
		vec, trace       sql.NullString
		createdAt        time.Time
		expiresAt        sql.NullTime
	)
	err := row.Scan(&id, &rec.UserID, &rec.QuestionID, &rec.Question, &rec.NormalizedPrompt,
		&vibe, &length, &rec.Answer, &rec.Model, &rec.Confidence,
		&rec.Usage.Prompt, &rec.Usage.Completion, &rec.Usage.Total,
		&vec, &trace, &rec.IsGuest, &createdAt, &expiresAt, &rec.NoCache)
	if err != nil {
		return nil, err
	}

	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", id, err)
	}
	rec.Vibe = model.Vibe(vibe)
	rec.AnswerLength = model.AnswerLength(length)
	rec.CreatedAt = createdAt
	if expiresAt.Valid {
		t := expiresAt.Time
		rec.ExpiresAt = &t
	}
	if vec.Valid {
		if err := json.Unmarshal([]byte(vec.String), &rec.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
	}
	if trace.Valid {
		if err := json.Unmarshal([]byte(trace.String), &rec.Trace); err != nil {
			return nil, fmt.Errorf("decode trace: %w", err)
		}
	}
	return &rec, nil
}

func nullString(b []byte) sql.NullString {
	if b == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
