package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgehub/bridge/pkg/model"
)

func TestAsync_WritesInBackground(t *testing.T) {
	sink := &memoryRecorder{name: "mem"}
	a := NewAsync(sink, time.Second, 4)

	for i := 0; i < 3; i++ {
		assert.True(t, a.Submit(sampleRecord()))
	}
	require.NoError(t, a.Close(context.Background()))

	assert.Equal(t, 3, sink.count())
	assert.Equal(t, AsyncStats{Written: 3}, a.Stats())
}

func TestAsync_CountsFailures(t *testing.T) {
	a := NewAsync(&memoryRecorder{name: "bad", err: errors.New("timeout")}, time.Second, 4)

	a.Submit(sampleRecord())
	require.NoError(t, a.Close(context.Background()))

	assert.Equal(t, int64(1), a.Stats().Failed)
}

func TestAsync_DropsWhenSaturated(t *testing.T) {
	sink := &memoryRecorder{name: "slow", delay: 200 * time.Millisecond}
	a := NewAsync(sink, time.Second, 1)

	assert.True(t, a.Submit(sampleRecord()))
	assert.False(t, a.Submit(sampleRecord()))
	require.NoError(t, a.Close(context.Background()))

	assert.Equal(t, AsyncStats{Written: 1, Dropped: 1}, a.Stats())
}

func TestAsync_WriteTimeout(t *testing.T) {
	sink := &memoryRecorder{name: "stuck", delay: time.Minute}
	a := NewAsync(sink, 20*time.Millisecond, 1)

	a.Submit(sampleRecord())
	require.NoError(t, a.Close(context.Background()))

	assert.Equal(t, int64(1), a.Stats().Failed)
}

func TestAsync_Close(t *testing.T) {
	a := NewAsync(&memoryRecorder{name: "mem"}, 0, 0)
	assert.Equal(t, DefaultTimeout, a.timeout)
	assert.Equal(t, DefaultMaxInFlight, cap(a.sem))

	require.NoError(t, a.Close(context.Background()))
	assert.ErrorIs(t, a.Close(context.Background()), ErrClosed)
	assert.False(t, a.Submit(sampleRecord()), "closed recorder rejects records")
}

func TestAsync_CloseHonoursContext(t *testing.T) {
	release := make(chan struct{})
	sink := &blockingRecorder{release: release}
	a := NewAsync(sink, time.Minute, 1)
	a.Submit(sampleRecord())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, a.Close(ctx), context.DeadlineExceeded)

	close(release)
	a.wg.Wait()
}

type blockingRecorder struct {
	release chan struct{}
}

func (b *blockingRecorder) Name() string { return "blocking" }

func (b *blockingRecorder) Record(ctx context.Context, _ *model.QARecord) error {
	<-b.release
	return nil
}
