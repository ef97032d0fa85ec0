package remotestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/bridgehub/bridge/internal/cache"
	"github.com/bridgehub/bridge/pkg/model"
)

const redisPrefix = "bridge:qa:"

// Redis stores QA records as JSON values. Key layout:
//
//	bridge:qa:rec:<id>                     record JSON
//	bridge:qa:exact:<vibe>:<length>:<sha>  id of the newest record for a prompt
//	bridge:qa:part:<vibe>:<length>         list of recent ids, newest first
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis using a redis:// URL
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Str("addr", opts.Addr).Msg("connected to Redis")
	return NewRedisWithClient(client), nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Name identifies the store in logs and stats
func (r *Redis) Name() string {
	return "redis"
}

// Ping checks if Redis is healthy
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	return r.client.Close()
}

// Record stores the record and indexes it under its exact key and partition
func (r *Redis) Record(ctx context.Context, rec *model.QARecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal qa record: %w", err)
	}

	var ttl time.Duration
	if rec.ExpiresAt != nil {
		ttl = time.Until(*rec.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}

	key := cache.Key{Prompt: rec.NormalizedPrompt, Vibe: rec.Vibe, Length: rec.AnswerLength}
	part := partitionKey(key)
	id := rec.ID.String()

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recordKey(id), data, ttl)
		if rec.NoCache {
			return nil
		}
		pipe.Set(ctx, exactKey(key), id, ttl)
		if len(rec.Embedding) > 0 {
			pipe.LPush(ctx, part, id)
			pipe.LTrim(ctx, part, 0, cache.SemanticCandidates-1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store qa record: %w", err)
	}
	return nil
}

// FindExact returns the newest record stored under key, or nil
func (r *Redis) FindExact(ctx context.Context, key cache.Key) (*model.QARecord, error) {
	id, err := r.client.Get(ctx, exactKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read exact index: %w", err)
	}

	data, err := r.client.Get(ctx, recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		// index outlived its record
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read qa record: %w", err)
	}

	var rec model.QARecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode qa record: %w", err)
	}
	return &rec, nil
}

// FindSemantic compares vec against the recent embedded records in key's partition
func (r *Redis) FindSemantic(ctx context.Context, key cache.Key, vec []float32, threshold float64) (*model.QARecord, float64, error) {
	ids, err := r.client.LRange(ctx, partitionKey(key), 0, cache.SemanticCandidates-1).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read partition index: %w", err)
	}
	if len(ids) == 0 {
		return nil, 0, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read qa records: %w", err)
	}

	candidates := make([]*model.QARecord, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var rec model.QARecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			continue
		}
		candidates = append(candidates, &rec)
	}

	rec, sim := cache.BestRecord(candidates, key, vec, threshold)
	return rec, sim, nil
}

// Delete removes the record. Index entries pointing at it are skipped on read.
func (r *Redis) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, recordKey(id.String())).Err(); err != nil {
		return fmt.Errorf("failed to delete qa record: %w", err)
	}
	return nil
}

func recordKey(id string) string {
	return redisPrefix + "rec:" + id
}

func exactKey(key cache.Key) string {
	sum := sha256.Sum256([]byte(key.Prompt))
	return redisPrefix + "exact:" + string(key.Vibe) + ":" + string(key.Length) + ":" + hex.EncodeToString(sum[:])
}

func partitionKey(key cache.Key) string {
	return redisPrefix + "part:" + string(key.Vibe) + ":" + string(key.Length)
}
