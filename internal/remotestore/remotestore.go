// Package remotestore holds the shared QA record stores. Each backend serves
// as the remote cache tier and as a history sink for the same records.
package remotestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/bridgehub/bridge/internal/cache"
	"github.com/bridgehub/bridge/internal/config"
	"github.com/bridgehub/bridge/internal/db"
	"github.com/bridgehub/bridge/pkg/model"
)

// Store is a remote cache tier that can also persist QA records
type Store interface {
	cache.RemoteStore
	Record(ctx context.Context, rec *model.QARecord) error
	Ping(ctx context.Context) error
	Close() error
}

// Set opens each backend at most once, so the cache tier and the history
// sinks share connections when they name the same backend.
type Set struct {
	cfg config.StorageConfig

	mu     sync.Mutex
	stores map[string]Store
}

// NewSet creates an empty set for the given connection settings
func NewSet(cfg config.StorageConfig) *Set {
	return &Set{cfg: cfg, stores: make(map[string]Store)}
}

// Get returns the backend of the given kind, connecting on first use
func (s *Set) Get(ctx context.Context, kind string) (Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.stores[kind]; ok {
		return st, nil
	}

	st, err := open(ctx, kind, s.cfg)
	if err != nil {
		return nil, err
	}
	s.stores[kind] = st
	return st, nil
}

// Close closes every opened backend
func (s *Set) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for kind, st := range s.stores {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Str("store", kind).Msg("failed to close remote store")
		}
	}
	s.stores = make(map[string]Store)
}

func open(ctx context.Context, kind string, cfg config.StorageConfig) (Store, error) {
	switch kind {
	case "postgres":
		conn, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := conn.Migrate(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		return &postgres{Store: db.NewStore(conn), conn: conn}, nil
	case "mongo":
		return NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	case "redis":
		return NewRedis(ctx, cfg.RedisURL)
	case "sqlite":
		return NewSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported remote store: %s", kind)
	}
}

// postgres adapts db.Store to Store, owning its connection pool
type postgres struct {
	*db.Store
	conn *db.DB
}

func (p *postgres) Close() error {
	p.conn.Close()
	return nil
}
