package remotestore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgehub/bridge/internal/cache"
	"github.com/bridgehub/bridge/internal/testutil"
	"github.com/bridgehub/bridge/pkg/model"
)

// runStoreContract exercises the behaviour every backend must share
func runStoreContract(t *testing.T, st Store) {
	ctx := context.Background()

	t.Run("exact lookup is partitioned", func(t *testing.T) {
		rec := testutil.NewQARecord("What is a Monad?", "a monoid in the category of endofunctors",
			model.VibeTechnical, model.LengthShort, []float32{1, 0})
		rec.Trace = []string{"Cache: miss", "Routed to GPT-3.5"}
		require.NoError(t, st.Record(ctx, rec))

		got, err := st.FindExact(ctx, cache.NewKey("what is a  monad?", model.VibeTechnical, model.LengthShort))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.Answer, got.Answer)
		assert.Equal(t, rec.Trace, got.Trace)
		assert.Equal(t, rec.Usage, got.Usage)
		assert.Equal(t, rec.Embedding, got.Embedding)
		require.NotNil(t, got.Confidence)
		assert.InDelta(t, 0.9, *got.Confidence, 1e-9)

		other, err := st.FindExact(ctx, cache.NewKey("what is a monad?", model.VibeTechnical, model.LengthDetailed))
		require.NoError(t, err)
		assert.Nil(t, other)
	})

	t.Run("duplicate ids are ignored", func(t *testing.T) {
		rec := testutil.NewQARecord("dup question", "first", model.VibeDaily, model.LengthShort, nil)
		require.NoError(t, st.Record(ctx, rec))
		require.NoError(t, st.Record(ctx, rec))
	})

	t.Run("semantic lookup picks the closest record above threshold", func(t *testing.T) {
		near := testutil.NewQARecord("how do goroutines work", "lightweight threads",
			model.VibeCreative, model.LengthMedium, []float32{0.95, 0.05})
		far := testutil.NewQARecord("best pasta recipe", "carbonara",
			model.VibeCreative, model.LengthMedium, []float32{0, 1})
		crossed := testutil.NewQARecord("how do goroutines work", "wrong partition",
			model.VibeBusiness, model.LengthMedium, []float32{1, 0})
		for _, r := range []*model.QARecord{near, far, crossed} {
			require.NoError(t, st.Record(ctx, r))
		}

		key := cache.NewKey("explain goroutines", model.VibeCreative, model.LengthMedium)
		got, sim, err := st.FindSemantic(ctx, key, []float32{1, 0}, 0.85)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, near.ID, got.ID)
		assert.GreaterOrEqual(t, sim, 0.85)

		got, _, err = st.FindSemantic(ctx, key, []float32{0.7, -0.7}, 0.85)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		rec := testutil.NewQARecord("short lived", "gone soon", model.VibeAcademic, model.LengthShort, nil)
		require.NoError(t, st.Record(ctx, rec))
		require.NoError(t, st.Delete(ctx, rec.ID))
		require.NoError(t, st.Delete(ctx, uuid.New()))

		got, err := st.FindExact(ctx, cache.NewKey("short lived", model.VibeAcademic, model.LengthShort))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("history-only records are skipped by lookups", func(t *testing.T) {
		rec := testutil.NewQARecord("capital of chile", "Santiago?", model.VibeAcademic, model.LengthDetailed, []float32{0.6, 0.8})
		rec.NoCache = true
		require.NoError(t, st.Record(ctx, rec))

		key := cache.NewKey("capital of chile", model.VibeAcademic, model.LengthDetailed)
		got, err := st.FindExact(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, _, err = st.FindSemantic(ctx, key, []float32{0.6, 0.8}, 0.85)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("serves as the cache remote tier", func(t *testing.T) {
		rec := testutil.NewQARecord("capital of peru", "Lima", model.VibeDaily, model.LengthMedium, []float32{0, 1})
		require.NoError(t, st.Record(ctx, rec))

		c, err := cache.Open(cache.Options{
			Dir:      t.TempDir(),
			Embedder: &testutil.StubEmbedder{Fallback: []float32{1, 0}},
			Remote:   st,
			Now:      time.Now,
		})
		require.NoError(t, err)

		res := c.Search(ctx, "Capital of Peru", model.VibeDaily, model.LengthMedium)
		require.True(t, res.Hit())
		assert.Equal(t, model.MatchRemote, res.MatchType)
		assert.Equal(t, "Lima", res.Entry.Response)
	})

	assert.NoError(t, st.Ping(ctx))
}
