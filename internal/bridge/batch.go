package bridge

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/bridgehub/bridge/pkg/model"
)

// DefaultBatchConcurrency bounds how many batch questions run at once
const DefaultBatchConcurrency = 4

// ProcessBatch answers every request with at most concurrency in flight.
// Envelopes are returned in request order.
func (p *Pipeline) ProcessBatch(ctx context.Context, reqs []model.QueryRequest, concurrency int) []model.ResponseEnvelope {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	out := make([]model.ResponseEnvelope, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			out[i] = p.Process(gctx, req)
			return nil
		})
	}
	// Process never fails, so Wait only synchronizes
	_ = g.Wait()
	return out
}
