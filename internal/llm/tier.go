package llm

import (
	"time"

	"github.com/bridgehub/bridge/pkg/model"
)

// Tier names a model tier
type Tier string

const (
	TierBasic    Tier = "basic"
	TierAdvanced Tier = "advanced"
)

// Default tier settings
const (
	DefaultTemperature       = 0.7
	DefaultBasicMaxTokens    = 1000
	DefaultAdvancedMaxTokens = 2000
)

// TierConfig describes how one tier calls its provider
type TierConfig struct {
	Name        Tier     `json:"name" yaml:"name"`
	Label       string   `json:"label" yaml:"label"`
	Provider    Provider `json:"provider" yaml:"provider"`
	Model       string   `json:"model" yaml:"model"`
	MaxTokens   int      `json:"max_tokens" yaml:"max_tokens"`
	Temperature float64  `json:"temperature" yaml:"temperature"`

	// CanEscalateFrom marks answers from this tier as eligible for regeneration
	// by the advanced tier when their quality is low.
	CanEscalateFrom bool `json:"can_escalate_from" yaml:"can_escalate_from"`
}

// DefaultBasicTier returns the cheap, escalatable tier
func DefaultBasicTier() TierConfig {
	return TierConfig{
		Name:            TierBasic,
		Label:           "GPT-3.5",
		Provider:        ProviderOpenAI,
		Model:           "gpt-3.5-turbo",
		MaxTokens:       DefaultBasicMaxTokens,
		Temperature:     DefaultTemperature,
		CanEscalateFrom: true,
	}
}

// DefaultAdvancedTier returns the strong tier, which never escalates
func DefaultAdvancedTier() TierConfig {
	return TierConfig{
		Name:        TierAdvanced,
		Label:       "GPT-4",
		Provider:    ProviderOpenAI,
		Model:       "gpt-4",
		MaxTokens:   DefaultAdvancedMaxTokens,
		Temperature: DefaultTemperature,
	}
}

// Result is the outcome of one tier call. Failed calls carry a generic
// apology in Answer; the provider's own error text stays in Err.
type Result struct {
	Answer     string           `json:"answer"`
	ModelLabel string           `json:"model_label"`
	Model      string           `json:"model"`
	Tier       Tier             `json:"tier"`
	Confidence *float64         `json:"confidence,omitempty"`
	Usage      model.TokenUsage `json:"usage"`
	Success    bool             `json:"success"`
	Err        error            `json:"-"`
	Cancelled  bool             `json:"cancelled"`
	Duration   time.Duration    `json:"duration"`
}
