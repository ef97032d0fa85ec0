package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bridgehub/bridge/internal/config"
	"github.com/bridgehub/bridge/internal/history"
	bridgenats "github.com/bridgehub/bridge/internal/nats"
	"github.com/bridgehub/bridge/internal/remotestore"
	"github.com/bridgehub/bridge/internal/worker"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	// Determine worker type from env or args
	workerType := os.Getenv("WORKER_TYPE")
	if len(os.Args) > 1 {
		workerType = os.Args[1]
	}
	if workerType == "" {
		workerType = string(worker.WorkerAll)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores := remotestore.NewSet(cfg.Storage)
	defer stores.Close()

	// Store-backed sinks receive the records consumed from NATS
	kinds := history.StoreSinks(cfg.Storage)
	recorder, err := history.Build(ctx, kinds, stores, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open history sinks")
	}

	var purgers []worker.Purger
	for _, kind := range kinds {
		st, err := stores.Get(ctx, kind)
		if err != nil {
			continue
		}
		// Mongo and Redis expire records natively
		if p, ok := st.(worker.Purger); ok {
			purgers = append(purgers, p)
		}
	}

	// Connect to NATS (optional)
	var natsClient *bridgenats.Client
	if cfg.Storage.NATSURL != "" {
		natsClient, err = bridgenats.NewClient(cfg.Storage.NATSURL, "bridge-worker")
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, history worker disabled")
		} else {
			defer natsClient.Close()
		}
	}

	poolCfg := worker.PoolConfig{
		WorkerType:      workerType,
		NATS:            natsClient,
		Purgers:         purgers,
		JanitorInterval: time.Hour,
	}
	if natsClient != nil {
		poolCfg.Recorder = recorder
	}

	pool, err := worker.NewPool(poolCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create worker pool")
	}

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("worker pool is shutting down...")
		cancel()
	}()

	log.Info().Str("type", workerType).Strs("workers", pool.Workers()).Msg("starting worker pool")
	if err := pool.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("worker pool error")
	}

	log.Info().Msg("worker pool stopped")
}
