package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Complete(t *testing.T) {
	var received openAIRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Write([]byte(`{
			"model": "gpt-3.5-turbo-0125",
			"choices": [{"message": {"role": "assistant", "content": "Paris. [CONFIDENCE:0.9]"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 20, "completion_tokens": 5}
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL+"/", "test-key", 0)

	resp, err := client.Complete(context.Background(), &Request{
		Model:       "gpt-3.5-turbo",
		System:      "be brief",
		Messages:    []Message{{Role: "user", Content: "capital of france?"}},
		MaxTokens:   1000,
		Temperature: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, "Paris. [CONFIDENCE:0.9]", resp.Content)
	assert.Equal(t, "gpt-3.5-turbo-0125", resp.Model)
	assert.Equal(t, ProviderOpenAI, resp.Provider)
	assert.Equal(t, 20, resp.InputTokens)
	assert.Equal(t, 5, resp.OutputTokens)
	assert.Equal(t, "stop", resp.FinishReason)

	assert.Equal(t, "gpt-3.5-turbo", received.Model)
	assert.Equal(t, 1000, received.MaxTokens)
	assert.Equal(t, 0.7, received.Temperature)
	require.Len(t, received.Messages, 2)
	assert.Equal(t, "system", received.Messages[0].Role)
	assert.Equal(t, "user", received.Messages[1].Role)
}

func TestOpenAIClient_Complete_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "slow down"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "test-key", 0)

	_, err := client.Complete(context.Background(), &Request{Model: "gpt-4"})
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ProviderOpenAI, pe.Provider)
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
	assert.Contains(t, pe.Message, "slow down")
}

func TestOpenAIClient_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model": "gpt-4", "choices": []}`))
	}))
	defer server.Close()

	_, err := NewOpenAIClient(server.URL, "test-key", 0).Complete(context.Background(), &Request{Model: "gpt-4"})
	assert.ErrorContains(t, err, "no choices")
}

func TestOpenAIClient_Complete_NoModel(t *testing.T) {
	_, err := NewOpenAIClient("", "test-key", 0).Complete(context.Background(), &Request{})
	assert.Error(t, err)
}

func TestOpenAIClient_Available(t *testing.T) {
	assert.True(t, NewOpenAIClient("", "key", 0).Available())
	assert.False(t, NewOpenAIClient("", "", 0).Available())
	assert.Equal(t, defaultOpenAIBaseURL, NewOpenAIClient("", "", 0).baseURL)
}
