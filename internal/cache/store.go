// Package cache provides the three-tier answer cache: exact key, semantic
// similarity within the same vibe and length, and an optional remote store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bridgehub/bridge/internal/embedding"
	"github.com/bridgehub/bridge/pkg/model"
)

// DefaultSemanticThreshold is the minimum cosine similarity for a semantic hit
const DefaultSemanticThreshold = 0.85

// Options configures a Store
type Options struct {
	Dir               string
	Embedder          embedding.Provider
	Remote            RemoteStore
	SemanticThreshold float64
	TTL               time.Duration
	Now               func() time.Time
}

// Result is the outcome of a Search
type Result struct {
	Entry      *Entry
	MatchType  model.MatchType
	Similarity float64
}

// Hit reports whether the search found an entry
func (r Result) Hit() bool {
	return r.Entry != nil && r.MatchType.Hit()
}

// Stats is a snapshot of cache counters
type Stats struct {
	Hits            int64   `json:"hits"`
	Misses          int64   `json:"misses"`
	ExactHits       int64   `json:"exact_hits"`
	SemanticHits    int64   `json:"semantic_hits"`
	RemoteHits      int64   `json:"remote_hits"`
	RemoteMisses    int64   `json:"remote_misses"`
	Stores          int64   `json:"stores"`
	Evictions       int64   `json:"evictions"`
	Errors          int64   `json:"errors"`
	TotalQueries    int64   `json:"total_queries"`
	HitRatio        float64 `json:"hit_ratio"`
	Size            int     `json:"size"`
	RemoteAvailable bool    `json:"remote_available"`
	RemoteName      string  `json:"remote_name,omitempty"`
}

type counters struct {
	hits, misses              atomic.Int64
	exactHits, semanticHits   atomic.Int64
	remoteHits, remoteMisses  atomic.Int64
	stores, evictions, errors atomic.Int64
}

func (c *counters) reset() {
	for _, v := range []*atomic.Int64{
		&c.hits, &c.misses, &c.exactHits, &c.semanticHits,
		&c.remoteHits, &c.remoteMisses, &c.stores, &c.evictions, &c.errors,
	} {
		v.Store(0)
	}
}

// Store is a file-backed answer cache. The index is guarded by an RWMutex;
// lookups take the read lock, and every index mutation and its persistence
// happen under the write lock.
type Store struct {
	dir       string
	embedder  embedding.Provider
	remote    RemoteStore
	threshold float64
	ttl       time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	entries []indexEntry
	byKey   map[string]int
	gen     uint64

	stats counters
}

// Open loads or creates a cache rooted at opts.Dir
func Open(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if opts.Embedder == nil {
		return nil, fmt.Errorf("cache embedder is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	threshold := opts.SemanticThreshold
	if threshold <= 0 {
		threshold = DefaultSemanticThreshold
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	entries, err := loadIndex(opts.Dir)
	if err != nil {
		return nil, err
	}

	s := &Store{
		dir:       opts.Dir,
		embedder:  opts.Embedder,
		remote:    opts.Remote,
		threshold: threshold,
		ttl:       opts.TTL,
		now:       now,
	}
	s.setEntries(entries)
	for _, e := range s.entries {
		s.gen = max(s.gen, e.Gen)
	}

	if err := saveIndex(s.dir, s.entries); err != nil {
		return nil, err
	}

	log.Info().
		Str("dir", s.dir).
		Int("entries", len(s.entries)).
		Float64("threshold", threshold).
		Bool("remote", s.remote != nil).
		Msg("cache opened")

	return s, nil
}

// Threshold returns the semantic similarity threshold
func (s *Store) Threshold() float64 {
	return s.threshold
}

// Len returns the number of indexed entries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Search looks the prompt up in the exact, semantic and remote tiers in order.
// Errors in any tier are logged and treated as a miss of that tier.
func (s *Store) Search(ctx context.Context, prompt string, vibe model.Vibe, length model.AnswerLength) Result {
	key := NewKey(prompt, vibe, length)
	if key.Prompt == "" {
		s.stats.misses.Add(1)
		return Result{MatchType: model.MatchNone}
	}

	if e, ok := s.searchExact(key); ok {
		s.stats.hits.Add(1)
		s.stats.exactHits.Add(1)
		return Result{Entry: e, MatchType: model.MatchExact, Similarity: 1.0}
	}

	vec, err := s.embedder.Embed(ctx, key.Prompt)
	if err != nil {
		s.stats.errors.Add(1)
		log.Warn().Err(err).Str("embedder", s.embedder.Name()).Msg("failed to embed prompt, skipping semantic tier")
		vec = nil
	}

	if vec != nil {
		if e, sim, ok := s.searchSemantic(key, vec); ok {
			s.stats.hits.Add(1)
			s.stats.semanticHits.Add(1)
			return Result{Entry: e, MatchType: model.MatchSemantic, Similarity: sim}
		}
	}

	if e, sim, ok := s.searchRemote(ctx, key, vec); ok {
		s.stats.hits.Add(1)
		return Result{Entry: e, MatchType: model.MatchRemote, Similarity: sim}
	}

	s.stats.misses.Add(1)
	return Result{MatchType: model.MatchNone}
}

func (s *Store) searchExact(key Key) (*Entry, bool) {
	s.mu.RLock()
	i, ok := s.byKey[key.String()]
	var ie indexEntry
	if ok {
		ie = s.entries[i]
	}
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return s.readLive(ie)
}

func (s *Store) searchSemantic(key Key, vec []float32) (*Entry, float64, bool) {
	s.mu.RLock()
	var (
		partition []indexEntry
		vectors   [][]float32
	)
	for _, ie := range s.entries {
		if ie.Key.SamePartition(key) {
			partition = append(partition, ie)
			vectors = append(vectors, ie.Embedding)
		}
	}
	s.mu.RUnlock()

	m, found := embedding.Best(vec, vectors)
	if !found || !Accept(m.Similarity, s.threshold) {
		return nil, 0, false
	}
	best, bestSim := partition[m.Index], m.Similarity

	e, ok := s.readLive(best)
	if !ok {
		return nil, 0, false
	}

	log.Debug().
		Str("prompt", key.Prompt).
		Str("matched", best.Key.Prompt).
		Float64("similarity", bestSim).
		Msg("semantic cache hit")

	return e, bestSim, true
}

func (s *Store) searchRemote(ctx context.Context, key Key, vec []float32) (*Entry, float64, bool) {
	if s.remote == nil {
		return nil, 0, false
	}

	rec, err := s.remote.FindExact(ctx, key)
	sim := 1.0
	if err != nil {
		s.stats.errors.Add(1)
		log.Warn().Err(err).Str("remote", s.remote.Name()).Msg("remote exact lookup failed")
		rec = nil
	}
	if rec != nil && (rec.NoCache || s.expireRemote(ctx, rec)) {
		rec = nil
	}

	if rec == nil && vec != nil {
		rec, sim, err = s.remote.FindSemantic(ctx, key, vec, s.threshold)
		if err != nil {
			s.stats.errors.Add(1)
			log.Warn().Err(err).Str("remote", s.remote.Name()).Msg("remote semantic lookup failed")
			rec = nil
		}
		if rec != nil && (rec.NoCache || s.expireRemote(ctx, rec)) {
			rec = nil
		}
	}

	if rec == nil {
		s.stats.remoteMisses.Add(1)
		return nil, 0, false
	}

	s.stats.remoteHits.Add(1)
	return EntryFromRecord(rec), sim, true
}

// expireRemote deletes rec from the remote store when it has expired
func (s *Store) expireRemote(ctx context.Context, rec *model.QARecord) bool {
	if !rec.Expired(s.now()) {
		return false
	}
	s.stats.evictions.Add(1)
	if err := s.remote.Delete(ctx, rec.ID); err != nil {
		log.Warn().Err(err).Str("id", rec.ID.String()).Msg("failed to delete expired remote record")
	}
	return true
}

// readLive loads an entry file, evicting it when expired or unreadable
func (s *Store) readLive(ie indexEntry) (*Entry, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, ie.File))
	if err != nil {
		s.stats.errors.Add(1)
		log.Warn().Err(err).Str("file", ie.File).Msg("cache entry unreadable, evicting")
		s.evict(ie)
		return nil, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		s.stats.errors.Add(1)
		log.Warn().Err(err).Str("file", ie.File).Msg("cache entry corrupt, evicting")
		s.evict(ie)
		return nil, false
	}

	if e.Expired(s.now()) {
		log.Debug().Str("prompt", ie.Key.Prompt).Msg("cache entry expired")
		s.evict(ie)
		return nil, false
	}

	e.Embedding = ie.Embedding
	return &e, true
}

// evict removes ie from the index and deletes its file
func (s *Store) evict(ie indexEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byKey[ie.Key.String()]
	if !ok || s.entries[i].File != ie.File || s.entries[i].Gen != ie.Gen {
		return
	}

	entries := make([]indexEntry, 0, len(s.entries)-1)
	entries = append(entries, s.entries[:i]...)
	entries = append(entries, s.entries[i+1:]...)
	s.setEntries(entries)
	s.stats.evictions.Add(1)

	if err := os.Remove(filepath.Join(s.dir, ie.File)); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("file", ie.File).Msg("failed to remove evicted cache entry")
	}
	if err := saveIndex(s.dir, s.entries); err != nil {
		s.stats.errors.Add(1)
		log.Error().Err(err).Msg("failed to persist cache index after eviction")
	}
}

// Store caches a model answer. Entries that are not model-provider answers
// are rejected. Failures are logged and reported as false.
func (s *Store) Store(ctx context.Context, e *Entry) bool {
	if e == nil || !e.cacheable() {
		return false
	}

	if len(e.Embedding) == 0 {
		vec, err := s.embedder.Embed(ctx, e.Key.Prompt)
		if err != nil {
			s.stats.errors.Add(1)
			log.Warn().Err(err).Msg("failed to embed prompt, answer not cached")
			return false
		}
		e.Embedding = vec
	}

	now := s.now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.ExpiresAt == nil && s.ttl > 0 {
		exp := e.CreatedAt.Add(s.ttl)
		e.ExpiresAt = &exp
	}

	data, err := json.Marshal(e)
	if err != nil {
		s.stats.errors.Add(1)
		log.Error().Err(err).Msg("failed to marshal cache entry")
		return false
	}

	ie := indexEntry{Key: e.Key, Embedding: e.Embedding, File: fileName(e.Key)}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	ie.Gen = s.gen

	if err := writeFileAtomic(filepath.Join(s.dir, ie.File), data); err != nil {
		s.stats.errors.Add(1)
		log.Error().Err(err).Msg("failed to write cache entry")
		return false
	}

	entries := s.entries
	if i, ok := s.byKey[ie.Key.String()]; ok {
		entries[i] = ie
	} else {
		entries = append(entries, ie)
	}
	s.setEntries(entries)

	if err := saveIndex(s.dir, s.entries); err != nil {
		s.stats.errors.Add(1)
		log.Error().Err(err).Msg("failed to persist cache index")
		return false
	}

	s.stats.stores.Add(1)
	log.Debug().Str("prompt", e.Key.Prompt).Str("vibe", string(e.Key.Vibe)).Msg("answer cached")
	return true
}

// Stats returns a snapshot of the counters
func (s *Store) Stats() Stats {
	st := Stats{
		Hits:            s.stats.hits.Load(),
		Misses:          s.stats.misses.Load(),
		ExactHits:       s.stats.exactHits.Load(),
		SemanticHits:    s.stats.semanticHits.Load(),
		RemoteHits:      s.stats.remoteHits.Load(),
		RemoteMisses:    s.stats.remoteMisses.Load(),
		Stores:          s.stats.stores.Load(),
		Evictions:       s.stats.evictions.Load(),
		Errors:          s.stats.errors.Load(),
		Size:            s.Len(),
		RemoteAvailable: s.remote != nil,
	}
	st.TotalQueries = st.Hits + st.Misses
	if st.TotalQueries > 0 {
		st.HitRatio = float64(st.Hits) / float64(st.TotalQueries)
	}
	if s.remote != nil {
		st.RemoteName = s.remote.Name()
	}
	return st
}

// Clear removes every local entry and resets the counters. The remote store is untouched.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to list cache directory: %w", err)
	}
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, ".json") || name == indexFileName {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}

	s.setEntries(nil)
	if err := saveIndex(s.dir, s.entries); err != nil {
		return err
	}
	s.stats.reset()

	log.Info().Str("dir", s.dir).Msg("cache cleared")
	return nil
}

// setEntries replaces the index and rebuilds the key map. Caller holds the write lock.
func (s *Store) setEntries(entries []indexEntry) {
	if entries == nil {
		entries = []indexEntry{}
	}
	s.entries = entries
	s.byKey = make(map[string]int, len(entries))
	for i, e := range entries {
		s.byKey[e.Key.String()] = i
	}
}
