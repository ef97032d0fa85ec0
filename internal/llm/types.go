package llm

import "context"

// Provider represents an LLM provider
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Request represents an LLM completion request
type Request struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	Stop        []string
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response represents an LLM completion response
type Response struct {
	Content      string
	Model        string
	Provider     Provider
	InputTokens  int
	OutputTokens int
	FinishReason string
}

// Client is the interface for LLM providers
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
	Name() Provider
	Available() bool
}

// userRequest builds a single-turn request for a tier
func userRequest(tier TierConfig, content string) *Request {
	return &Request{
		Model:       tier.Model,
		Messages:    []Message{{Role: "user", Content: content}},
		MaxTokens:   tier.MaxTokens,
		Temperature: tier.Temperature,
	}
}

// estimateTokens is a rough 4-characters-per-token estimate used for budget checks
func estimateTokens(req *Request) int {
	chars := len(req.System)
	for _, m := range req.Messages {
		chars += len(m.Content)
	}
	return chars/4 + req.MaxTokens
}
