package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memo caches vectors of a wrapped provider for a fixed TTL.
// A repeated prompt then costs one embedding call per TTL window.
type Memo struct {
	inner Provider
	store *gocache.Cache
}

// NewMemo wraps p with an in-memory TTL cache
func NewMemo(p Provider, ttl time.Duration) *Memo {
	return &Memo{
		inner: p,
		store: gocache.New(ttl, 2*ttl),
	}
}

func (m *Memo) Name() string {
	return m.inner.Name()
}

func (m *Memo) Dimensions() int {
	return m.inner.Dimensions()
}

func (m *Memo) Embed(ctx context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	key := hex.EncodeToString(sum[:])

	if v, ok := m.store.Get(key); ok {
		return v.([]float32), nil
	}

	vec, err := m.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	m.store.SetDefault(key, vec)
	return vec, nil
}

// Len returns the number of memoized vectors, including expired ones not yet swept
func (m *Memo) Len() int {
	return m.store.ItemCount()
}
