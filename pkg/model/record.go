package model

import (
	"time"

	"github.com/google/uuid"
)

// QARecord is a persisted question/answer pair. History sinks write it and
// remote cache stores read it back as a fallback cache entry.
type QARecord struct {
	ID               uuid.UUID    `json:"id" bson:"-"`
	UserID           string       `json:"user_id" bson:"user_id"`
	QuestionID       string       `json:"question_id,omitempty" bson:"question_id,omitempty"`
	Question         string       `json:"question" bson:"question"`
	NormalizedPrompt string       `json:"normalized_prompt" bson:"normalized_prompt"`
	Vibe             Vibe         `json:"vibe" bson:"vibe"`
	AnswerLength     AnswerLength `json:"answer_length" bson:"answer_length"`
	Answer           string       `json:"answer" bson:"answer"`
	Model            string       `json:"model" bson:"model"`
	Confidence       *float64     `json:"confidence,omitempty" bson:"confidence,omitempty"`
	Usage            TokenUsage   `json:"usage" bson:"usage"`
	Embedding        []float32    `json:"embedding,omitempty" bson:"embedding,omitempty"`
	Trace            []string     `json:"trace,omitempty" bson:"trace,omitempty"`
	IsGuest          bool         `json:"is_guest" bson:"is_guest"`
	// NoCache marks history-only records that remote cache lookups must skip
	NoCache          bool         `json:"no_cache,omitempty" bson:"no_cache,omitempty"`
	CreatedAt        time.Time    `json:"created_at" bson:"created_at"`
	ExpiresAt        *time.Time   `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
}

// Expired reports whether the record has passed its expiry time
func (r *QARecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}
