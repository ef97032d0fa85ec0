package llm

import (
	"testing"
)

func TestProviderConstants(t *testing.T) {
	if ProviderOllama != "ollama" {
		t.Errorf("ProviderOllama = %s, want ollama", ProviderOllama)
	}
	if ProviderAnthropic != "anthropic" {
		t.Errorf("ProviderAnthropic = %s, want anthropic", ProviderAnthropic)
	}
	if ProviderOpenAI != "openai" {
		t.Errorf("ProviderOpenAI = %s, want openai", ProviderOpenAI)
	}
}

func TestDefaultTiers(t *testing.T) {
	basic := DefaultBasicTier()
	if basic.Model != "gpt-3.5-turbo" || basic.Label != "GPT-3.5" {
		t.Errorf("basic = %s/%s, want gpt-3.5-turbo/GPT-3.5", basic.Model, basic.Label)
	}
	if basic.MaxTokens != 1000 {
		t.Errorf("basic.MaxTokens = %d, want 1000", basic.MaxTokens)
	}
	if !basic.CanEscalateFrom {
		t.Error("basic tier should be escalatable")
	}

	advanced := DefaultAdvancedTier()
	if advanced.Model != "gpt-4" || advanced.Label != "GPT-4" {
		t.Errorf("advanced = %s/%s, want gpt-4/GPT-4", advanced.Model, advanced.Label)
	}
	if advanced.MaxTokens != 2000 {
		t.Errorf("advanced.MaxTokens = %d, want 2000", advanced.MaxTokens)
	}
	if advanced.CanEscalateFrom {
		t.Error("advanced tier should not be escalatable")
	}

	if basic.Temperature != 0.7 || advanced.Temperature != 0.7 {
		t.Errorf("temperatures = %f/%f, want 0.7", basic.Temperature, advanced.Temperature)
	}
}

func TestUserRequest(t *testing.T) {
	req := userRequest(DefaultBasicTier(), "hello")

	if req.Model != "gpt-3.5-turbo" {
		t.Errorf("Model = %s, want gpt-3.5-turbo", req.Model)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "hello" {
		t.Errorf("Messages = %+v, want one user message", req.Messages)
	}
	if req.MaxTokens != 1000 {
		t.Errorf("MaxTokens = %d, want 1000", req.MaxTokens)
	}
}

func TestEstimateTokens(t *testing.T) {
	req := &Request{
		System:    "12345678",
		Messages:  []Message{{Role: "user", Content: "abcdefgh"}},
		MaxTokens: 100,
	}
	if got := estimateTokens(req); got != 104 {
		t.Errorf("estimateTokens() = %d, want 104", got)
	}
}
