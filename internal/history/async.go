package history

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bridgehub/bridge/internal/metrics"
	"github.com/bridgehub/bridge/pkg/model"
)

// DefaultTimeout bounds a single background write
const DefaultTimeout = 10 * time.Second

// DefaultMaxInFlight bounds concurrent background writes
const DefaultMaxInFlight = 64

// ErrClosed is returned by Close when called twice
var ErrClosed = errors.New("history recorder closed")

// Async records in background goroutines, detached from the caller's
// context. Submissions beyond the in-flight limit are dropped and counted.
type Async struct {
	rec     Recorder
	timeout time.Duration
	sem     chan struct{}

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool

	written, failed, dropped atomic.Int64
}

// AsyncStats counts background write outcomes
type AsyncStats struct {
	Written int64 `json:"written"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
}

// NewAsync wraps rec. Zero values pick DefaultTimeout and DefaultMaxInFlight.
func NewAsync(rec Recorder, timeout time.Duration, maxInFlight int) *Async {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Async{
		rec:     rec,
		timeout: timeout,
		sem:     make(chan struct{}, maxInFlight),
	}
}

// Submit schedules rec for writing and reports whether it was accepted
func (a *Async) Submit(rec *model.QARecord) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.drop(rec, "closed")
		return false
	}

	select {
	case a.sem <- struct{}{}:
	default:
		a.drop(rec, "saturated")
		return false
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() { <-a.sem }()
		a.write(rec)
	}()
	return true
}

func (a *Async) write(rec *model.QARecord) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.rec.Record(ctx, rec); err != nil {
		a.failed.Add(1)
		metrics.HistoryRecords.WithLabelValues("failed").Inc()
		log.Warn().
			Err(err).
			Str("sink", a.rec.Name()).
			Str("question_id", rec.QuestionID).
			Msg("failed to record QA history")
		return
	}

	a.written.Add(1)
	metrics.HistoryRecords.WithLabelValues("written").Inc()
}

func (a *Async) drop(rec *model.QARecord, reason string) {
	a.dropped.Add(1)
	metrics.HistoryRecords.WithLabelValues("dropped").Inc()
	log.Warn().
		Str("sink", a.rec.Name()).
		Str("reason", reason).
		Str("question_id", rec.QuestionID).
		Msg("QA history record dropped")
}

// Stats returns the write counters
func (a *Async) Stats() AsyncStats {
	return AsyncStats{
		Written: a.written.Load(),
		Failed:  a.failed.Load(),
		Dropped: a.dropped.Load(),
	}
}

// Close stops accepting records and waits for in-flight writes or ctx
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.closed = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
