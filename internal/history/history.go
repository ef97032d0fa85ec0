// Package history persists answered questions. Sinks are fanned out
// concurrently, and the pipeline submits records through Async so a slow or
// failing sink never delays a response.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"

	"github.com/bridgehub/bridge/internal/config"
	bridgenats "github.com/bridgehub/bridge/internal/nats"
	"github.com/bridgehub/bridge/internal/remotestore"
	"github.com/bridgehub/bridge/pkg/model"
)

// Recorder persists one QA record
type Recorder interface {
	Name() string
	Record(ctx context.Context, rec *model.QARecord) error
}

// Multi writes each record to every sink concurrently
type Multi struct {
	sinks []Recorder
}

// NewMulti creates a fan-out recorder
func NewMulti(sinks ...Recorder) *Multi {
	return &Multi{sinks: sinks}
}

// Name lists the wrapped sinks
func (m *Multi) Name() string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name()
	}
	return "multi(" + strings.Join(names, ",") + ")"
}

// Len returns the number of sinks
func (m *Multi) Len() int {
	return len(m.sinks)
}

// Record writes rec to all sinks. Every sink is attempted; the first error is returned.
func (m *Multi) Record(ctx context.Context, rec *model.QARecord) error {
	var g errgroup.Group
	for _, sink := range m.sinks {
		// sinks may fill in defaults, so each gets its own copy
		cp := *rec
		g.Go(func() error {
			if err := sink.Record(ctx, &cp); err != nil {
				return fmt.Errorf("%s: %w", sink.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

type jsonPublisher interface {
	PublishJSON(ctx context.Context, subject string, v any) (*jetstream.PubAck, error)
}

// NATSPublisher hands records to the history worker over JetStream
type NATSPublisher struct {
	client jsonPublisher
}

// NewNATSPublisher creates a publisher on the QA stream
func NewNATSPublisher(client *bridgenats.Client) *NATSPublisher {
	return &NATSPublisher{client: client}
}

// Name identifies the sink
func (p *NATSPublisher) Name() string {
	return "nats"
}

// Record publishes rec to SubjectQARecorded
func (p *NATSPublisher) Record(ctx context.Context, rec *model.QARecord) error {
	_, err := p.client.PublishJSON(ctx, bridgenats.SubjectQARecorded, rec)
	return err
}

// Build assembles the recorder for the named sinks. Store-backed sinks come
// from set, so a backend shared with the cache tier is opened once. The
// "nats" sink requires nc. An empty list yields nil.
func Build(ctx context.Context, kinds []string, set *remotestore.Set, nc *bridgenats.Client) (Recorder, error) {
	var sinks []Recorder
	for _, kind := range kinds {
		switch kind {
		case "nats":
			if nc == nil {
				return nil, fmt.Errorf("history sink nats requires NATS_URL")
			}
			sinks = append(sinks, NewNATSPublisher(nc))
		default:
			st, err := set.Get(ctx, kind)
			if err != nil {
				return nil, fmt.Errorf("history sink %s: %w", kind, err)
			}
			sinks = append(sinks, st)
		}
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMulti(sinks...), nil
	}
}

// StoreSinks drops "nats" from the configured sinks. The history worker uses
// it to find where consumed records belong.
func StoreSinks(cfg config.StorageConfig) []string {
	var kinds []string
	for _, k := range cfg.HistorySinks {
		if k != "nats" {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
