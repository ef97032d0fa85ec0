package model

// MatchType records which cache tier served a response
type MatchType string

const (
	MatchNone     MatchType = "none"
	MatchExact    MatchType = "exact"
	MatchSemantic MatchType = "semantic"
	MatchRemote   MatchType = "remote"
)

// Hit reports whether the match type represents a cache hit
func (m MatchType) Hit() bool {
	return m == MatchExact || m == MatchSemantic || m == MatchRemote
}

// Labels used as ModelUsed for answers that never reached a model provider
const (
	SourceBridge        = "bridge"
	SourceMathEvaluator = "math_evaluator"
	SourceUnknown       = "unknown"
)

// TokenUsage is the provider-reported token accounting for one call
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// Add returns the sum of two usages
func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{
		Prompt:     u.Prompt + o.Prompt,
		Completion: u.Completion + o.Completion,
		Total:      u.Total + o.Total,
	}
}

// ResponseMetadata describes how an answer was produced
type ResponseMetadata struct {
	ModelUsed       string     `json:"model_used"`
	Confidence      *float64   `json:"confidence,omitempty"`
	FromCache       bool       `json:"from_cache"`
	CacheMatchType  MatchType  `json:"cache_match_type"`
	CacheSimilarity float64    `json:"cache_similarity"`
	IsGuest         bool       `json:"is_guest"`
	ReasoningTrace  []string   `json:"reasoning_trace"`
	Intent          string     `json:"intent,omitempty"`
	Complexity      string     `json:"complexity,omitempty"`
	Quality         *float64   `json:"quality,omitempty"`
	Escalated       bool       `json:"escalated"`
	TokenUsage      TokenUsage `json:"token_usage"`
}

// ResponseEnvelope is the terminal output of the pipeline
type ResponseEnvelope struct {
	Text              string           `json:"text"`
	FollowUpQuestions []string         `json:"follow_up_questions,omitempty"`
	NeedsMoreInfo     bool             `json:"needs_more_info"`
	Success           bool             `json:"success"`
	QuestionID        string           `json:"question_id,omitempty"`
	SenderID          string           `json:"sender_id,omitempty"`
	Vibe              Vibe             `json:"vibe"`
	Metadata          ResponseMetadata `json:"metadata"`
}

// Float returns a pointer to f, for optional score fields
func Float(f float64) *float64 {
	return &f
}
