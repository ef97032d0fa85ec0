// Package embedding maps prompts to vectors for the semantic cache tiers.
// Backends: OpenAI and Ollama over HTTP, Google GenAI through its SDK, and a
// local feature-hashing embedder for offline use.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrEmptyText is returned when asked to embed blank text
	ErrEmptyText = errors.New("cannot embed empty text")
	// ErrDimensionMismatch is returned when comparing vectors of different length
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Provider turns text into a fixed-dimension vector. Equal input yields equal output.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Name() string
}

// Config selects and configures an embedding backend
type Config struct {
	// Provider: openai, ollama, genai, hash
	Provider string

	Model      string
	Dimensions int

	OpenAIKey     string
	OpenAIBaseURL string
	OllamaURL     string
	GenAIKey      string

	// MemoTTL enables in-process memoization when > 0
	MemoTTL time.Duration
}

// New creates the configured provider, wrapped in a memo when MemoTTL is set
func New(ctx context.Context, cfg Config) (Provider, error) {
	var (
		p   Provider
		err error
	)

	switch cfg.Provider {
	case "openai":
		p, err = NewOpenAI(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.Model, cfg.Dimensions)
	case "ollama":
		p, err = NewOllama(cfg.OllamaURL, cfg.Model, cfg.Dimensions)
	case "genai":
		p, err = NewGenAI(ctx, cfg.GenAIKey, cfg.Model, cfg.Dimensions)
	case "hash", "":
		p = NewHashing(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use openai, ollama, genai or hash)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("provider", p.Name()).
		Int("dimensions", p.Dimensions()).
		Msg("embedding provider ready")

	if cfg.MemoTTL > 0 {
		return NewMemo(p, cfg.MemoTTL), nil
	}
	return p, nil
}

// Cosine returns the cosine similarity of two vectors in [-1, 1].
// A zero-magnitude vector has similarity 0 with everything.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		aMag += x * x
		bMag += y * y
	}

	if aMag == 0 || bMag == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(aMag) * math.Sqrt(bMag))
	// clamp float drift so identical vectors report exactly 1
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim, nil
}

// Match is one candidate scored against a query vector
type Match struct {
	Index      int
	Similarity float64
}

// Best returns the most similar candidate. ok is false when no candidate has
// a comparable vector. Ties keep the earliest candidate.
func Best(query []float32, candidates [][]float32) (best Match, ok bool) {
	best.Similarity = math.Inf(-1)
	for i, vec := range candidates {
		sim, err := Cosine(query, vec)
		if err != nil {
			continue
		}
		if sim > best.Similarity {
			best = Match{Index: i, Similarity: sim}
			ok = true
		}
	}
	return best, ok
}
