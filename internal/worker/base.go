// Package worker runs the background consumers that sit beside the API:
// the history writer draining the QA stream and the janitor purging
// expired records.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	bridgenats "github.com/bridgehub/bridge/internal/nats"
)

// ErrPoison marks a message that can never be handled; it is terminated instead of redelivered
var ErrPoison = errors.New("poison message")

// MessageHandler processes one message payload
type MessageHandler func(ctx context.Context, data []byte) error

// message is the part of jetstream.Msg the worker touches
type message interface {
	Data() []byte
	Ack() error
	Nak() error
	Term() error
}

// fetcher is the part of jetstream.Consumer the worker touches
type fetcher interface {
	Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error)
}

// BaseWorker pulls messages from a durable JetStream consumer one at a time
type BaseWorker struct {
	name       string
	workerID   string
	nats       *bridgenats.Client
	stream     string
	durable    string
	consumer   fetcher
	handler    MessageHandler
	pollPeriod time.Duration
	timeout    time.Duration
}

// BaseWorkerConfig configures a base worker
type BaseWorkerConfig struct {
	Name     string
	WorkerID string
	NATS     *bridgenats.Client
	Stream   string
	Consumer string
	Handler  MessageHandler
}

// NewBaseWorker creates a new base worker
func NewBaseWorker(cfg BaseWorkerConfig) *BaseWorker {
	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = fmt.Sprintf("%s-%s", cfg.Name, uuid.New().String()[:8])
	}

	return &BaseWorker{
		name:       cfg.Name,
		workerID:   workerID,
		nats:       cfg.NATS,
		stream:     cfg.Stream,
		durable:    cfg.Consumer,
		handler:    cfg.Handler,
		pollPeriod: 5 * time.Second,
		timeout:    30 * time.Second,
	}
}

// Run binds to the consumer and processes messages until ctx is cancelled
func (w *BaseWorker) Run(ctx context.Context) error {
	logger := log.With().
		Str("worker_id", w.workerID).
		Str("consumer", w.durable).
		Logger()

	if w.consumer == nil {
		if w.nats == nil || !w.nats.IsConnected() {
			return fmt.Errorf("worker %s requires a NATS connection", w.name)
		}
		consumer, err := w.nats.Consumer(ctx, w.stream, w.durable)
		if err != nil {
			return err
		}
		w.consumer = consumer
	}

	logger.Info().Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("worker stopping")
			return nil
		default:
			if err := w.processNext(ctx); err != nil {
				logger.Error().Err(err).Msg("error processing message")
				// back off so a broken connection does not spin
				select {
				case <-ctx.Done():
				case <-time.After(w.pollPeriod):
				}
			}
		}
	}
}

// processNext fetches and handles at most one message
func (w *BaseWorker) processNext(ctx context.Context) error {
	msgs, err := w.consumer.Fetch(1, jetstream.FetchMaxWait(w.pollPeriod))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil // Normal timeout, nothing pending
		}
		return fmt.Errorf("failed to fetch from NATS: %w", err)
	}

	for msg := range msgs.Messages() {
		w.handle(ctx, msg)
	}

	if err := msgs.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, jetstream.ErrNoMessages) {
		return err
	}
	return nil
}

// handle runs the handler and settles the message
func (w *BaseWorker) handle(ctx context.Context, msg message) {
	msgCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	err := w.handler(msgCtx, msg.Data())
	switch {
	case err == nil:
		if ackErr := msg.Ack(); ackErr != nil {
			log.Warn().Err(ackErr).Str("worker_id", w.workerID).Msg("failed to ack message")
		}
	case errors.Is(err, ErrPoison):
		log.Error().Err(err).Str("worker_id", w.workerID).Msg("dropping undecodable message")
		msg.Term()
	default:
		log.Error().Err(err).Str("worker_id", w.workerID).Msg("message processing failed, will retry")
		msg.Nak()
	}
}

// Name returns the worker's kind
func (w *BaseWorker) Name() string {
	return w.name
}

// WorkerID returns the worker's unique ID
func (w *BaseWorker) WorkerID() string {
	return w.workerID
}

// SetPollPeriod sets the fetch wait
func (w *BaseWorker) SetPollPeriod(d time.Duration) {
	w.pollPeriod = d
}

// SetTimeout bounds a single handler call
func (w *BaseWorker) SetTimeout(d time.Duration) {
	w.timeout = d
}
