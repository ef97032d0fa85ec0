package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bridgehub/bridge/internal/history"
	bridgenats "github.com/bridgehub/bridge/internal/nats"
	"github.com/bridgehub/bridge/pkg/model"
)

// HistoryWorker drains qa.recorded into the configured store sinks
type HistoryWorker struct {
	*BaseWorker
	recorder history.Recorder
}

// NewHistoryWorker creates a history writer bound to the QA stream
func NewHistoryWorker(nc *bridgenats.Client, recorder history.Recorder) *HistoryWorker {
	w := &HistoryWorker{recorder: recorder}
	w.BaseWorker = NewBaseWorker(BaseWorkerConfig{
		Name:     "history",
		NATS:     nc,
		Stream:   bridgenats.StreamQA,
		Consumer: bridgenats.ConsumerHistory,
		Handler:  w.handleMessage,
	})
	return w
}

func (w *HistoryWorker) handleMessage(ctx context.Context, data []byte) error {
	var rec model.QARecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("%w: %v", ErrPoison, err)
	}
	if rec.Question == "" || rec.Answer == "" {
		return fmt.Errorf("%w: record without question or answer", ErrPoison)
	}

	if err := w.recorder.Record(ctx, &rec); err != nil {
		return fmt.Errorf("record %s: %w", rec.ID, err)
	}

	log.Debug().
		Str("record_id", rec.ID.String()).
		Str("sink", w.recorder.Name()).
		Msg("history record written")
	return nil
}

// Purger deletes expired QA records
type Purger interface {
	Name() string
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// JanitorWorker periodically purges expired records from stores without native TTLs
type JanitorWorker struct {
	purgers  []Purger
	interval time.Duration
	now      func() time.Time
}

// NewJanitorWorker creates a janitor. A non-positive interval means hourly.
func NewJanitorWorker(interval time.Duration, purgers ...Purger) *JanitorWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &JanitorWorker{purgers: purgers, interval: interval, now: time.Now}
}

func (w *JanitorWorker) Name() string { return "janitor" }

// Run purges once immediately and then on every tick
func (w *JanitorWorker) Run(ctx context.Context) error {
	if len(w.purgers) == 0 {
		return fmt.Errorf("janitor has no stores to purge")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.sweep(ctx)

		select {
		case <-ctx.Done():
			log.Info().Msg("janitor stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// sweep runs every purger once and returns the total removed
func (w *JanitorWorker) sweep(ctx context.Context) int64 {
	var total int64
	now := w.now()
	for _, p := range w.purgers {
		n, err := p.PurgeExpired(ctx, now)
		if err != nil {
			log.Warn().Err(err).Str("store", p.Name()).Msg("failed to purge expired records")
			continue
		}
		if n > 0 {
			log.Info().Int64("removed", n).Str("store", p.Name()).Msg("purged expired records")
		}
		total += n
	}
	return total
}
