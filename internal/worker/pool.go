package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bridgehub/bridge/internal/history"
	bridgenats "github.com/bridgehub/bridge/internal/nats"
)

// WorkerType represents the type of worker
type WorkerType string

const (
	WorkerHistory WorkerType = "history"
	WorkerJanitor WorkerType = "janitor"
	WorkerAll     WorkerType = "all"
)

// Pool manages a pool of workers
type Pool struct {
	workerType WorkerType
	workers    []Worker
	nats       *bridgenats.Client
}

// Worker is the interface all workers must implement
type Worker interface {
	Name() string
	Run(ctx context.Context) error
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerType      string
	NATS            *bridgenats.Client
	Recorder        history.Recorder // store sinks the history worker writes to
	Purgers         []Purger
	JanitorInterval time.Duration
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) (*Pool, error) {
	p := &Pool{
		workerType: WorkerType(cfg.WorkerType),
		workers:    make([]Worker, 0),
		nats:       cfg.NATS,
	}

	switch p.workerType {
	case WorkerAll:
		// all means every worker the configuration can support
		if cfg.Recorder != nil {
			p.workers = append(p.workers, NewHistoryWorker(cfg.NATS, cfg.Recorder))
		}
		if len(cfg.Purgers) > 0 {
			p.workers = append(p.workers, NewJanitorWorker(cfg.JanitorInterval, cfg.Purgers...))
		}
	case WorkerHistory:
		if cfg.Recorder == nil {
			return nil, fmt.Errorf("history worker requires at least one store sink in HISTORY_SINKS")
		}
		p.workers = append(p.workers, NewHistoryWorker(cfg.NATS, cfg.Recorder))
	case WorkerJanitor:
		if len(cfg.Purgers) == 0 {
			return nil, fmt.Errorf("janitor requires a postgres or sqlite store")
		}
		p.workers = append(p.workers, NewJanitorWorker(cfg.JanitorInterval, cfg.Purgers...))
	default:
		return nil, fmt.Errorf("unknown worker type: %s", p.workerType)
	}

	return p, nil
}

// Run starts all workers and blocks until context is cancelled
func (p *Pool) Run(ctx context.Context) error {
	if len(p.workers) == 0 {
		return fmt.Errorf("no workers configured")
	}

	// Set up NATS streams if connected
	if p.nats != nil && p.nats.IsConnected() {
		if err := p.nats.SetupStreams(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to setup NATS streams")
		} else {
			log.Info().Msg("NATS streams configured")
		}
	}

	errCh := make(chan error, len(p.workers))

	for _, w := range p.workers {
		go func(worker Worker) {
			log.Info().Str("worker", worker.Name()).Msg("starting worker")
			if err := worker.Run(ctx); err != nil {
				errCh <- fmt.Errorf("worker %s failed: %w", worker.Name(), err)
			}
		}(w)
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("context cancelled, stopping workers")
		return nil
	case err := <-errCh:
		return err
	}
}

// Workers returns the configured worker names
func (p *Pool) Workers() []string {
	names := make([]string, len(p.workers))
	for i, w := range p.workers {
		names[i] = w.Name()
	}
	return names
}

// NATS returns the NATS client
func (p *Pool) NATS() *bridgenats.Client {
	return p.nats
}
