// Package app assembles the pipeline and its collaborators from configuration.
// The API server and the CLI share it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bridgehub/bridge/internal/api"
	"github.com/bridgehub/bridge/internal/bridge"
	"github.com/bridgehub/bridge/internal/cache"
	"github.com/bridgehub/bridge/internal/config"
	"github.com/bridgehub/bridge/internal/embedding"
	"github.com/bridgehub/bridge/internal/history"
	"github.com/bridgehub/bridge/internal/intent"
	"github.com/bridgehub/bridge/internal/llm"
	bridgenats "github.com/bridgehub/bridge/internal/nats"
	"github.com/bridgehub/bridge/internal/remotestore"
)

// App owns every long-lived dependency of the pipeline
type App struct {
	Config   *config.Config
	Pipeline *bridge.Pipeline
	Router   *llm.Router
	Usage    *llm.UsageTracker

	// Cache is nil when USE_CACHE is off
	Cache *cache.Store
	// History is nil when no sinks are configured
	History *history.Async

	stores *remotestore.Set
	remote remotestore.Store
	nats   *bridgenats.Client
}

// New wires the pipeline. On error, anything already opened is closed.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config: cfg,
		stores: remotestore.NewSet(cfg.Storage),
	}
	if err := a.wire(ctx); err != nil {
		a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config
	a.Usage = llm.NewUsageTracker(llm.UsageTrackerConfig{
		Budget: llm.BudgetConfig{
			HourlyTokenLimit: cfg.LLM.HourlyTokenLimit,
			DailyTokenLimit:  cfg.LLM.DailyTokenLimit,
		},
	})

	var err error
	a.Router, err = llm.NewRouter(cfg, a.Usage)
	if err != nil {
		return fmt.Errorf("failed to create model router: %w", err)
	}

	if cfg.Cache.Enabled {
		if err := a.openCache(ctx); err != nil {
			return err
		}
	}

	if err := a.openHistory(ctx); err != nil {
		return err
	}

	deps := bridge.Deps{
		Calculator: intent.NewCalculator(cfg.CalculatorURL, 5*time.Second),
		Router:     a.Router,
	}
	// Interface fields stay nil rather than holding typed nil pointers
	if a.Cache != nil {
		deps.Cache = a.Cache
	}
	if a.History != nil {
		deps.History = a.History
	}

	opts := bridge.OptionsFromConfig(cfg.Pipeline)
	opts.RecordTTL = cfg.Cache.TTL

	a.Pipeline, err = bridge.New(deps, opts)
	return err
}

func (a *App) openCache(ctx context.Context) error {
	st, remote, err := openCache(ctx, a.Config, a.stores)
	if err != nil {
		return err
	}
	a.Cache, a.remote = st, remote
	return nil
}

// OpenCache opens only the cache and its remote tier, for maintenance
// commands that never call a model. The returned func closes the remote tier.
func OpenCache(ctx context.Context, cfg *config.Config) (*cache.Store, func(), error) {
	stores := remotestore.NewSet(cfg.Storage)
	st, _, err := openCache(ctx, cfg, stores)
	if err != nil {
		stores.Close()
		return nil, nil, err
	}
	return st, stores.Close, nil
}

func openCache(ctx context.Context, cfg *config.Config, stores *remotestore.Set) (*cache.Store, remotestore.Store, error) {
	embedder, err := embedding.New(ctx, embedding.Config{
		Provider:      cfg.Embedding.Provider,
		Model:         cfg.Embedding.Model,
		Dimensions:    cfg.Embedding.Dimensions,
		OpenAIKey:     cfg.LLM.OpenAIKey,
		OpenAIBaseURL: cfg.LLM.OpenAIBaseURL,
		OllamaURL:     cfg.LLM.OllamaURL,
		GenAIKey:      cfg.Embedding.GeminiKey,
		MemoTTL:       cfg.Embedding.MemoTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	opts := cache.Options{
		Dir:               cfg.Cache.Dir,
		Embedder:          embedder,
		SemanticThreshold: cfg.Cache.SemanticThreshold,
		TTL:               cfg.Cache.TTL,
	}

	var remote remotestore.Store
	if cfg.Cache.Remote != "" && cfg.Cache.Remote != "none" {
		remote, err = stores.Get(ctx, cfg.Cache.Remote)
		if err != nil {
			// The remote tier is optional; local lookups still work
			log.Warn().Err(err).Str("store", cfg.Cache.Remote).Msg("remote cache unavailable, continuing without it")
			remote = nil
		} else {
			opts.Remote = remote
		}
	}

	st, err := cache.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return st, remote, nil
}

func (a *App) openHistory(ctx context.Context) error {
	cfg := a.Config

	for _, k := range cfg.Storage.HistorySinks {
		if k == "nats" {
			nc, err := bridgenats.NewClient(cfg.Storage.NATSURL, "bridge-api")
			if err != nil {
				return err
			}
			a.nats = nc
			if err := nc.SetupStreams(ctx); err != nil {
				return err
			}
			break
		}
	}

	rec, err := history.Build(ctx, cfg.Storage.HistorySinks, a.stores, a.nats)
	if err != nil {
		return err
	}
	if rec == nil {
		log.Info().Msg("no history sinks configured")
		return nil
	}

	a.History = history.NewAsync(rec, cfg.Pipeline.HistoryTimeout, history.DefaultMaxInFlight)
	log.Info().Str("sinks", rec.Name()).Msg("history recording enabled")
	return nil
}

// Checks returns the readiness probes for the API server
func (a *App) Checks() map[string]api.Check {
	checks := map[string]api.Check{
		"llm": func(ctx context.Context) error { return a.Router.HealthCheck() },
	}
	if a.remote != nil {
		checks[a.remote.Name()] = a.remote.Ping
	}
	if a.nats != nil {
		checks["nats"] = func(ctx context.Context) error { return a.nats.HealthCheck() }
	}
	return checks
}

// APIDeps returns the collaborators for api.NewServer
func (a *App) APIDeps() api.Deps {
	deps := api.Deps{
		Asker:  a.Pipeline,
		Usage:  a.Usage,
		Checks: a.Checks(),
	}
	if a.Cache != nil {
		deps.Cache = a.Cache
	}
	return deps
}

// Close drains pending history writes, then releases connections
func (a *App) Close(ctx context.Context) {
	if a.History != nil {
		if err := a.History.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("history writes did not drain")
		}
		stats := a.History.Stats()
		log.Info().
			Int64("written", stats.Written).
			Int64("failed", stats.Failed).
			Int64("dropped", stats.Dropped).
			Msg("history recorder closed")
	}
	if a.nats != nil {
		a.nats.Close()
	}
	a.stores.Close()
}
