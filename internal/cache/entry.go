package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/bridgehub/bridge/pkg/model"
)

// Key is the composite cache key. Lookups never cross Vibe or Length.
type Key struct {
	Prompt string             `json:"prompt"`
	Vibe   model.Vibe         `json:"vibe"`
	Length model.AnswerLength `json:"length"`
}

// NewKey builds a key from a raw prompt, normalizing the prompt text
func NewKey(prompt string, vibe model.Vibe, length model.AnswerLength) Key {
	return Key{
		Prompt: model.NormalizePrompt(prompt),
		Vibe:   vibe,
		Length: length,
	}
}

// String is the index map key
func (k Key) String() string {
	return string(k.Vibe) + "|" + string(k.Length) + "|" + k.Prompt
}

// SamePartition reports whether two keys share vibe and length
func (k Key) SamePartition(o Key) bool {
	return k.Vibe == o.Vibe && k.Length == o.Length
}

// Entry is one cached answer
type Entry struct {
	Key       Key                    `json:"key"`
	Prompt    string                 `json:"prompt"`
	Response  string                 `json:"response"`
	Metadata  model.ResponseMetadata `json:"metadata"`
	CreatedAt time.Time              `json:"created_at"`
	ExpiresAt *time.Time             `json:"expires_at,omitempty"`

	// Embedding lives in the index file, not in the entry file
	Embedding []float32 `json:"-"`
}

// Expired reports whether the entry has passed its expiry time
func (e *Entry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

// cacheable reports whether the entry is a model-provider answer.
// Canned replies, arithmetic results, clarifications and cache hits are never stored.
func (e *Entry) cacheable() bool {
	if strings.TrimSpace(e.Response) == "" || e.Key.Prompt == "" {
		return false
	}
	if e.Metadata.FromCache {
		return false
	}
	switch e.Metadata.ModelUsed {
	case "", model.SourceBridge, model.SourceMathEvaluator, model.SourceUnknown:
		return false
	}
	return true
}

// EntryFromRecord converts a persisted QA record into a cache entry
func EntryFromRecord(rec *model.QARecord) *Entry {
	return &Entry{
		Key: Key{
			Prompt: rec.NormalizedPrompt,
			Vibe:   rec.Vibe,
			Length: rec.AnswerLength,
		},
		Prompt:   rec.Question,
		Response: rec.Answer,
		Metadata: model.ResponseMetadata{
			ModelUsed:  rec.Model,
			Confidence: rec.Confidence,
			TokenUsage: rec.Usage,
		},
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
		Embedding: rec.Embedding,
	}
}

var (
	unsafeFileChars = regexp.MustCompile(`[^\w\s-]`)
	fileSeparators  = regexp.MustCompile(`[\s-]+`)
)

// fileName derives a stable, filesystem-safe entry file name from the key
func fileName(k Key) string {
	safe := unsafeFileChars.ReplaceAllString(k.Prompt, "")
	safe = fileSeparators.ReplaceAllString(strings.TrimSpace(strings.ToLower(safe)), "_")
	if len(safe) > 50 {
		safe = safe[:50]
	}

	sum := sha256.Sum256([]byte(k.String()))
	return safe + "__" + hex.EncodeToString(sum[:6]) + ".json"
}
