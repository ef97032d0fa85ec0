package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bridgehub/bridge/internal/config"
	"github.com/bridgehub/bridge/internal/prompt"
	"github.com/bridgehub/bridge/pkg/model"
)

// Router sends prompts to the basic or advanced tier. Each call is made once;
// the pipeline, not the router, decides whether to try again on another tier.
type Router struct {
	clients  map[Provider]Client
	basic    TierConfig
	advanced TierConfig
	tracker  *UsageTracker
}

// NewRouter creates a router from application config
func NewRouter(cfg *config.Config, tracker *UsageTracker) (*Router, error) {
	basic := tierFromConfig(TierBasic, cfg.LLM.Basic, cfg.LLM.Temperature, true)
	advanced := tierFromConfig(TierAdvanced, cfg.LLM.Advanced, cfg.LLM.Temperature, false)

	var clients []Client
	if cfg.LLM.OpenAIKey != "" {
		clients = append(clients, NewOpenAIClient(cfg.LLM.OpenAIBaseURL, cfg.LLM.OpenAIKey, cfg.LLM.Timeout))
	}
	if cfg.LLM.AnthropicKey != "" {
		clients = append(clients, NewAnthropicClient(cfg.LLM.AnthropicBaseURL, cfg.LLM.AnthropicKey, cfg.LLM.Timeout))
	}
	if cfg.LLM.OllamaURL != "" {
		clients = append(clients, NewOllamaClient(cfg.LLM.OllamaURL, cfg.LLM.Timeout))
	}
	for i, c := range clients {
		clients[i] = NewRateLimited(c, cfg.LLM.RequestsPerSecond)
	}

	r := NewRouterWithClients(clients, basic, advanced, tracker)
	for _, tier := range []TierConfig{basic, advanced} {
		if _, ok := r.clients[tier.Provider]; !ok {
			return nil, fmt.Errorf("%w: tier %s uses %s", ErrNoProvider, tier.Name, tier.Provider)
		}
	}

	log.Info().
		Str("basic", basic.Model).
		Str("basic_provider", string(basic.Provider)).
		Str("advanced", advanced.Model).
		Str("advanced_provider", string(advanced.Provider)).
		Msg("model router configured")

	return r, nil
}

// NewRouterWithClients creates a router over explicit clients
func NewRouterWithClients(clients []Client, basic, advanced TierConfig, tracker *UsageTracker) *Router {
	r := &Router{
		clients:  make(map[Provider]Client, len(clients)),
		basic:    basic,
		advanced: advanced,
		tracker:  tracker,
	}
	for _, c := range clients {
		r.clients[c.Name()] = c
	}
	return r
}

func tierFromConfig(name Tier, s config.TierSettings, temperature float64, escalatable bool) TierConfig {
	return TierConfig{
		Name:            name,
		Label:           s.Label,
		Provider:        Provider(s.Provider),
		Model:           s.Model,
		MaxTokens:       s.MaxTokens,
		Temperature:     temperature,
		CanEscalateFrom: escalatable,
	}
}

// Basic returns the basic tier configuration
func (r *Router) Basic() TierConfig {
	return r.basic
}

// Advanced returns the advanced tier configuration
func (r *Router) Advanced() TierConfig {
	return r.advanced
}

// Tracker returns the usage tracker, which may be nil
func (r *Router) Tracker() *UsageTracker {
	return r.tracker
}

// TierFor maps a complexity to its tier
func (r *Router) TierFor(c prompt.Complexity) TierConfig {
	if c == prompt.Complex {
		return r.advanced
	}
	return r.basic
}

// Route calls the tier matching complexity
func (r *Router) Route(ctx context.Context, input string, complexity prompt.Complexity) Result {
	return r.CallTier(ctx, input, r.TierFor(complexity))
}

// CallTier sends input to tier's provider once. It never returns an error:
// failures come back as an unsuccessful Result with an apology as the answer.
func (r *Router) CallTier(ctx context.Context, input string, tier TierConfig) (res Result) {
	start := time.Now()
	res = Result{
		ModelLabel: tier.Label,
		Model:      tier.Model,
		Tier:       tier.Name,
	}
	defer func() { res.Duration = time.Since(start) }()

	client, ok := r.clients[tier.Provider]
	if !ok {
		return r.fail(res, tier, fmt.Errorf("%w: %s", ErrNoProvider, tier.Provider))
	}

	req := userRequest(tier, input)
	if r.tracker != nil {
		if err := r.tracker.CheckBudget(estimateTokens(req)); err != nil {
			return r.fail(res, tier, err)
		}
		r.tracker.IncrementRequests()
	}

	log.Debug().
		Str("tier", string(tier.Name)).
		Str("provider", string(tier.Provider)).
		Str("model", tier.Model).
		Msg("routing request to provider")

	resp, err := client.Complete(ctx, req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			res.Cancelled = true
			res.Err = err
			log.Debug().Str("tier", string(tier.Name)).Msg("provider call cancelled")
			return res
		}
		return r.fail(res, tier, err)
	}

	answer, confidence := ParseConfidence(resp.Content)
	res.Answer = answer
	res.Confidence = confidence
	res.Success = true
	if resp.Model != "" {
		res.Model = resp.Model
	}
	res.Usage = model.TokenUsage{
		Prompt:     resp.InputTokens,
		Completion: resp.OutputTokens,
		Total:      resp.InputTokens + resp.OutputTokens,
	}

	if r.tracker != nil {
		r.tracker.Record(UsageRecord{
			Provider:     resp.Provider,
			Model:        res.Model,
			Tier:         tier.Name,
			InputTokens:  resp.InputTokens,
			OutputTokens: resp.OutputTokens,
			Duration:     float64(time.Since(start).Milliseconds()),
		})
	}

	return res
}

func (r *Router) fail(res Result, tier TierConfig, err error) Result {
	log.Warn().
		Err(err).
		Str("tier", string(tier.Name)).
		Str("provider", string(tier.Provider)).
		Msg("provider call failed")

	res.Err = err
	res.Answer = apologyFor(err)
	return res
}

// HealthCheck verifies the providers of both tiers are available
func (r *Router) HealthCheck() error {
	for _, tier := range []TierConfig{r.basic, r.advanced} {
		client, ok := r.clients[tier.Provider]
		if !ok || !client.Available() {
			return fmt.Errorf("provider %s for tier %s not available", tier.Provider, tier.Name)
		}
	}
	return nil
}
