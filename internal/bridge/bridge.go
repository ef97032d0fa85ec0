// Package bridge orchestrates a question through the decision pipeline:
// intent short-circuit, cache lookup, informativeness check, tiered
// generation with a single quality escalation, and finalization.
package bridge

import (
	"context"
	"time"

	"github.com/bridgehub/bridge/internal/cache"
	"github.com/bridgehub/bridge/internal/config"
	"github.com/bridgehub/bridge/internal/intent"
	"github.com/bridgehub/bridge/internal/llm"
	"github.com/bridgehub/bridge/internal/prompt"
	"github.com/bridgehub/bridge/internal/quality"
	"github.com/bridgehub/bridge/pkg/model"
)

// User-facing texts the pipeline produces itself
const (
	ClarifyText = "I'd love to help! To give you the most helpful answer, could you share a bit more about what you're looking for?"
	TimeoutText = "Sorry, your question took too long to answer. Please try again in a moment."
	ErrorText   = "Sorry, something went wrong while processing your question. Please try again."

	mathFailurePrefix = "⚠️ Sorry, I couldn't compute that. "
)

// IntentClassifier detects prompts answered without a model
type IntentClassifier interface {
	Classify(prompt string) intent.Intent
}

// Calculator evaluates arithmetic expressions
type Calculator interface {
	Calculate(ctx context.Context, expr string) (string, error)
}

// Cache is the answer cache
type Cache interface {
	Search(ctx context.Context, prompt string, vibe model.Vibe, length model.AnswerLength) cache.Result
	Store(ctx context.Context, e *cache.Entry) bool
}

// InformativenessAnalyzer scores whether a prompt has enough context
type InformativenessAnalyzer interface {
	Analyze(prompt string, vibe model.Vibe) (float64, []string)
}

// ModelRouter calls the model tiers
type ModelRouter interface {
	Route(ctx context.Context, input string, complexity prompt.Complexity) llm.Result
	CallTier(ctx context.Context, input string, tier llm.TierConfig) llm.Result
	TierFor(c prompt.Complexity) llm.TierConfig
	Advanced() llm.TierConfig
}

// HistorySubmitter accepts QA records for background persistence
type HistorySubmitter interface {
	Submit(rec *model.QARecord) bool
}

// Options holds the pipeline's decision settings
type Options struct {
	CheckInformativeness bool
	ClarifyThreshold     float64
	QualityThreshold     float64

	// ShowConfidence asks the model for a confidence tag even when the request does not
	ShowConfidence bool

	// RequestTimeout bounds one Process call; 0 disables it
	RequestTimeout time.Duration

	// RecordTTL sets ExpiresAt on history records written without a cache
	// entry to copy it from; 0 means they never expire
	RecordTTL time.Duration
}

// DefaultOptions returns the standard thresholds
func DefaultOptions() Options {
	return Options{
		CheckInformativeness: true,
		ClarifyThreshold:     0.3,
		QualityThreshold:     quality.DefaultThreshold,
		RequestTimeout:       90 * time.Second,
	}
}

// OptionsFromConfig maps the pipeline section of the configuration
func OptionsFromConfig(cfg config.PipelineConfig) Options {
	return Options{
		CheckInformativeness: cfg.CheckInformativeness,
		ClarifyThreshold:     cfg.ClarifyThreshold,
		QualityThreshold:     cfg.QualityThreshold,
		ShowConfidence:       cfg.ShowConfidence,
		RequestTimeout:       cfg.RequestTimeout,
	}
}

// Deps are the pipeline's collaborators. Cache and History may be nil.
type Deps struct {
	Intents    IntentClassifier
	Calculator Calculator
	Cache      Cache
	Analyzer   InformativenessAnalyzer
	Router     ModelRouter
	History    HistorySubmitter
}
