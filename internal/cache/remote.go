package cache

import (
	"context"

	"github.com/google/uuid"

	"github.com/bridgehub/bridge/internal/embedding"
	"github.com/bridgehub/bridge/pkg/model"
)

// SemanticCandidates bounds how many recent partition records a remote store
// compares during a semantic lookup
const SemanticCandidates = 500

// RemoteStore is a shared answer store consulted after both local tiers miss.
// Returning a nil record with a nil error means no match.
type RemoteStore interface {
	Name() string
	FindExact(ctx context.Context, key Key) (*model.QARecord, error)
	FindSemantic(ctx context.Context, key Key, vec []float32, threshold float64) (*model.QARecord, float64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Accept reports whether a similarity clears the threshold. The boundary is inclusive.
func Accept(similarity, threshold float64) bool {
	return similarity >= threshold
}

// BestRecord picks the record most similar to vec within key's partition.
// Records from another partition or unfit for lookups are skipped.
func BestRecord(records []*model.QARecord, key Key, vec []float32, threshold float64) (*model.QARecord, float64) {
	var (
		eligible []*model.QARecord
		vectors  [][]float32
	)
	for _, rec := range records {
		if rec == nil || rec.NoCache || len(rec.Embedding) == 0 {
			continue
		}
		if rec.Vibe != key.Vibe || rec.AnswerLength != key.Length {
			continue
		}
		eligible = append(eligible, rec)
		vectors = append(vectors, rec.Embedding)
	}

	m, ok := embedding.Best(vec, vectors)
	if !ok || !Accept(m.Similarity, threshold) {
		return nil, 0
	}
	return eligible[m.Index], m.Similarity
}
