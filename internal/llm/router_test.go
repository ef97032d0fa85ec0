package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgehub/bridge/internal/config"
	"github.com/bridgehub/bridge/internal/prompt"
)

// mockClient is a test double for Client interface
type mockClient struct {
	name      Provider
	available bool
	responses []*Response
	errors    []error
	callCount int
	requests  []*Request
}

func newMockClient(name Provider, available bool) *mockClient {
	return &mockClient{
		name:      name,
		available: available,
	}
}

func (m *mockClient) Name() Provider {
	return m.name
}

func (m *mockClient) Available() bool {
	return m.available
}

func (m *mockClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	m.callCount++
	m.requests = append(m.requests, req)

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	idx := m.callCount - 1

	if idx < len(m.errors) && m.errors[idx] != nil {
		return nil, m.errors[idx]
	}

	if idx < len(m.responses) {
		return m.responses[idx], nil
	}

	return &Response{
		Content:  "test response",
		Model:    req.Model,
		Provider: m.name,
	}, nil
}

func (m *mockClient) withResponses(responses ...*Response) *mockClient {
	m.responses = responses
	return m
}

func (m *mockClient) withErrors(errs ...error) *mockClient {
	m.errors = errs
	return m
}

func testTiers(p Provider) (TierConfig, TierConfig) {
	basic, advanced := DefaultBasicTier(), DefaultAdvancedTier()
	basic.Provider, advanced.Provider = p, p
	return basic, advanced
}

func TestRouter_CallTier_Success(t *testing.T) {
	client := newMockClient(ProviderOpenAI, true).withResponses(&Response{
		Content:      "Water boils at 100 degrees Celsius. [CONFIDENCE:0.9]",
		Model:        "gpt-3.5-turbo-0125",
		Provider:     ProviderOpenAI,
		InputTokens:  12,
		OutputTokens: 8,
	})
	basic, advanced := testTiers(ProviderOpenAI)
	router := NewRouterWithClients([]Client{client}, basic, advanced, nil)

	res := router.CallTier(context.Background(), "when does water boil?", basic)

	require.True(t, res.Success)
	assert.NoError(t, res.Err)
	assert.Equal(t, "Water boils at 100 degrees Celsius.", res.Answer)
	require.NotNil(t, res.Confidence)
	assert.InDelta(t, 0.9, *res.Confidence, 1e-9)
	assert.Equal(t, "GPT-3.5", res.ModelLabel)
	assert.Equal(t, "gpt-3.5-turbo-0125", res.Model)
	assert.Equal(t, TierBasic, res.Tier)
	assert.Equal(t, 20, res.Usage.Total)

	require.Len(t, client.requests, 1)
	assert.Equal(t, "gpt-3.5-turbo", client.requests[0].Model)
	assert.Equal(t, 1000, client.requests[0].MaxTokens)
	assert.Equal(t, "when does water boil?", client.requests[0].Messages[0].Content)
}

func TestRouter_Route_PicksTierByComplexity(t *testing.T) {
	client := newMockClient(ProviderOpenAI, true)
	basic, advanced := testTiers(ProviderOpenAI)
	router := NewRouterWithClients([]Client{client}, basic, advanced, nil)

	easy := router.Route(context.Background(), "capital of peru?", prompt.Simple)
	hard := router.Route(context.Background(), "analyze inflation", prompt.Complex)

	assert.Equal(t, TierBasic, easy.Tier)
	assert.Equal(t, "gpt-3.5-turbo", client.requests[0].Model)
	assert.Equal(t, TierAdvanced, hard.Tier)
	assert.Equal(t, "gpt-4", client.requests[1].Model)
	assert.Equal(t, 2000, client.requests[1].MaxTokens)
}

func TestRouter_CallTier_Failures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		answer string
	}{
		{"provider status", &ProviderError{Provider: ProviderOpenAI, StatusCode: 500, Message: "boom"}, apologyProviderStatus},
		{"transport error", errors.New("connection refused"), apologyInternal},
		{"rate limited", ErrRateLimited, apologyInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMockClient(ProviderOpenAI, true).withErrors(tt.err)
			basic, advanced := testTiers(ProviderOpenAI)
			router := NewRouterWithClients([]Client{client}, basic, advanced, nil)

			res := router.CallTier(context.Background(), "hello there friend", basic)

			assert.False(t, res.Success)
			assert.False(t, res.Cancelled)
			assert.ErrorIs(t, res.Err, tt.err)
			assert.Equal(t, tt.answer, res.Answer)
			assert.NotContains(t, res.Answer, "boom")
			assert.Equal(t, "GPT-3.5", res.ModelLabel)
			assert.Equal(t, 1, client.callCount, "calls are never retried")
		})
	}
}

func TestRouter_CallTier_Cancelled(t *testing.T) {
	client := newMockClient(ProviderOpenAI, true)
	basic, advanced := testTiers(ProviderOpenAI)
	router := NewRouterWithClients([]Client{client}, basic, advanced, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := router.CallTier(ctx, "anything at all", basic)

	assert.True(t, res.Cancelled)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Empty(t, res.Answer)
}

func TestRouter_CallTier_NoProvider(t *testing.T) {
	basic, advanced := testTiers(ProviderAnthropic)
	router := NewRouterWithClients([]Client{newMockClient(ProviderOpenAI, true)}, basic, advanced, nil)

	res := router.CallTier(context.Background(), "hello there friend", basic)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrNoProvider)
	assert.Equal(t, apologyInternal, res.Answer)
}

func TestRouter_CallTier_BudgetExceeded(t *testing.T) {
	client := newMockClient(ProviderOpenAI, true)
	basic, advanced := testTiers(ProviderOpenAI)
	tracker := NewUsageTracker(UsageTrackerConfig{Budget: BudgetConfig{HourlyTokenLimit: 10}})
	router := NewRouterWithClients([]Client{client}, basic, advanced, tracker)

	res := router.CallTier(context.Background(), "hello there friend", basic)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrBudgetExceeded)
	assert.Equal(t, 0, client.callCount)
}

func TestRouter_CallTier_RecordsUsage(t *testing.T) {
	client := newMockClient(ProviderOpenAI, true).withResponses(&Response{
		Content:      "ok",
		Model:        "gpt-4",
		Provider:     ProviderOpenAI,
		InputTokens:  100,
		OutputTokens: 50,
	})
	basic, advanced := testTiers(ProviderOpenAI)
	tracker := NewUsageTracker(UsageTrackerConfig{})
	router := NewRouterWithClients([]Client{client}, basic, advanced, tracker)

	router.CallTier(context.Background(), "explain entropy", advanced)

	stats := tracker.GetStats()
	assert.Equal(t, int64(150), stats.TotalTokens)
	assert.Equal(t, int64(1), stats.TotalRequests)

	records := tracker.RecentRecords(1)
	require.Len(t, records, 1)
	assert.Equal(t, TierAdvanced, records[0].Tier)
	assert.Same(t, tracker, router.Tracker())
}

func TestRouter_HealthCheck(t *testing.T) {
	basic, advanced := testTiers(ProviderOpenAI)

	up := NewRouterWithClients([]Client{newMockClient(ProviderOpenAI, true)}, basic, advanced, nil)
	assert.NoError(t, up.HealthCheck())

	down := NewRouterWithClients([]Client{newMockClient(ProviderOpenAI, false)}, basic, advanced, nil)
	assert.Error(t, down.HealthCheck())

	empty := NewRouterWithClients(nil, basic, advanced, nil)
	assert.Error(t, empty.HealthCheck())
}

func TestNewRouter_FromConfig(t *testing.T) {
	cfg := &config.Config{
		LLM: config.LLMConfig{
			OpenAIKey:   "sk-test",
			Temperature: 0.5,
			Basic:       config.TierSettings{Provider: "openai", Model: "gpt-3.5-turbo", Label: "GPT-3.5", MaxTokens: 1000},
			Advanced:    config.TierSettings{Provider: "openai", Model: "gpt-4", Label: "GPT-4", MaxTokens: 2000},
		},
	}

	router, err := NewRouter(cfg, nil)
	require.NoError(t, err)

	assert.True(t, router.Basic().CanEscalateFrom)
	assert.False(t, router.Advanced().CanEscalateFrom)
	assert.Equal(t, 0.5, router.Advanced().Temperature)
	assert.Equal(t, "GPT-4", router.Advanced().Label)
}

func TestNewRouter_MissingProvider(t *testing.T) {
	cfg := &config.Config{
		LLM: config.LLMConfig{
			OpenAIKey: "sk-test",
			Basic:     config.TierSettings{Provider: "openai", Model: "gpt-3.5-turbo"},
			Advanced:  config.TierSettings{Provider: "anthropic", Model: "claude-3-5-sonnet-20241022"},
		},
	}

	_, err := NewRouter(cfg, nil)
	assert.ErrorIs(t, err, ErrNoProvider)
}
