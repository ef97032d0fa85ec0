package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultProfileName is the YAML profile read when BRIDGE_CONFIG is unset
const DefaultProfileName = "bridge.yaml"

// Profile is a YAML overlay applied on top of environment configuration.
// Zero values leave the environment setting untouched.
type Profile struct {
	Env      string `yaml:"env,omitempty"`
	LogLevel string `yaml:"log_level,omitempty"`

	LLM       LLMProfile       `yaml:"llm,omitempty"`
	Cache     CacheProfile     `yaml:"cache,omitempty"`
	Pipeline  PipelineProfile  `yaml:"pipeline,omitempty"`
	Embedding EmbeddingProfile `yaml:"embedding,omitempty"`

	HistorySinks []string `yaml:"history_sinks,omitempty"`
}

// LLMProfile overrides tier and sampling settings
type LLMProfile struct {
	Basic             TierSettings `yaml:"basic,omitempty"`
	Advanced          TierSettings `yaml:"advanced,omitempty"`
	Temperature       *float64     `yaml:"temperature,omitempty"`
	RequestsPerSecond float64      `yaml:"requests_per_second,omitempty"`
	HourlyTokenLimit  int64        `yaml:"hourly_token_limit,omitempty"`
	DailyTokenLimit   int64        `yaml:"daily_token_limit,omitempty"`
	Timeout           string       `yaml:"timeout,omitempty"`
}

// CacheProfile overrides cache settings
type CacheProfile struct {
	Enabled           *bool   `yaml:"enabled,omitempty"`
	Dir               string  `yaml:"dir,omitempty"`
	SemanticThreshold float64 `yaml:"semantic_threshold,omitempty"`
	TTL               string  `yaml:"ttl,omitempty"`
	Remote            string  `yaml:"remote,omitempty"`
}

// PipelineProfile overrides pipeline thresholds
type PipelineProfile struct {
	CheckInformativeness *bool    `yaml:"check_informativeness,omitempty"`
	ClarifyThreshold     *float64 `yaml:"clarify_threshold,omitempty"`
	QualityThreshold     *float64 `yaml:"quality_threshold,omitempty"`
	ShowConfidence       *bool    `yaml:"show_confidence,omitempty"`
	RequestTimeout       string   `yaml:"request_timeout,omitempty"`
}

// EmbeddingProfile overrides the embedding backend
type EmbeddingProfile struct {
	Provider   string `yaml:"provider,omitempty"`
	Model      string `yaml:"model,omitempty"`
	Dimensions int    `yaml:"dimensions,omitempty"`
}

// LoadProfile reads a YAML profile. A missing file yields a nil profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}

	p := &Profile{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

// SaveProfile writes the profile as YAML
func SaveProfile(path string, p *Profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Apply merges the profile's non-zero fields into cfg
func (p *Profile) Apply(cfg *Config) error {
	if p == nil {
		return nil
	}

	if p.Env != "" {
		cfg.Env = p.Env
	}
	if p.LogLevel != "" {
		cfg.LogLevel = p.LogLevel
	}

	mergeTier(&cfg.LLM.Basic, p.LLM.Basic)
	mergeTier(&cfg.LLM.Advanced, p.LLM.Advanced)
	if p.LLM.Temperature != nil {
		cfg.LLM.Temperature = *p.LLM.Temperature
	}
	if p.LLM.RequestsPerSecond != 0 {
		cfg.LLM.RequestsPerSecond = p.LLM.RequestsPerSecond
	}
	if p.LLM.HourlyTokenLimit != 0 {
		cfg.LLM.HourlyTokenLimit = p.LLM.HourlyTokenLimit
	}
	if p.LLM.DailyTokenLimit != 0 {
		cfg.LLM.DailyTokenLimit = p.LLM.DailyTokenLimit
	}
	if err := mergeDuration(&cfg.LLM.Timeout, "llm.timeout", p.LLM.Timeout); err != nil {
		return err
	}

	if p.Cache.Enabled != nil {
		cfg.Cache.Enabled = *p.Cache.Enabled
	}
	if p.Cache.Dir != "" {
		cfg.Cache.Dir = p.Cache.Dir
	}
	if p.Cache.SemanticThreshold != 0 {
		cfg.Cache.SemanticThreshold = p.Cache.SemanticThreshold
	}
	if p.Cache.Remote != "" {
		cfg.Cache.Remote = p.Cache.Remote
	}
	if err := mergeDuration(&cfg.Cache.TTL, "cache.ttl", p.Cache.TTL); err != nil {
		return err
	}

	if p.Pipeline.CheckInformativeness != nil {
		cfg.Pipeline.CheckInformativeness = *p.Pipeline.CheckInformativeness
	}
	if p.Pipeline.ClarifyThreshold != nil {
		cfg.Pipeline.ClarifyThreshold = *p.Pipeline.ClarifyThreshold
	}
	if p.Pipeline.QualityThreshold != nil {
		cfg.Pipeline.QualityThreshold = *p.Pipeline.QualityThreshold
	}
	if p.Pipeline.ShowConfidence != nil {
		cfg.Pipeline.ShowConfidence = *p.Pipeline.ShowConfidence
	}
	if err := mergeDuration(&cfg.Pipeline.RequestTimeout, "pipeline.request_timeout", p.Pipeline.RequestTimeout); err != nil {
		return err
	}

	if p.Embedding.Provider != "" {
		cfg.Embedding.Provider = p.Embedding.Provider
	}
	if p.Embedding.Model != "" {
		cfg.Embedding.Model = p.Embedding.Model
	}
	if p.Embedding.Dimensions != 0 {
		cfg.Embedding.Dimensions = p.Embedding.Dimensions
	}

	if len(p.HistorySinks) > 0 {
		cfg.Storage.HistorySinks = p.HistorySinks
	}

	return nil
}

func mergeTier(dst *TierSettings, src TierSettings) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Label != "" {
		dst.Label = src.Label
	}
	if src.MaxTokens != 0 {
		dst.MaxTokens = src.MaxTokens
	}
}

func mergeDuration(dst *time.Duration, field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("profile %s: %w", field, err)
	}
	*dst = d
	return nil
}
