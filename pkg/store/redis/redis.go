package redis

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/junonet/juno-witness-go/pkg/store"
	"github.com/junonet/juno-witness-go/pkg/tree"
)

// Key layout in Redis
const (
	keyPrefixSnapshot = "witness:snapshot:"
	keySetSessions    = "witness:sessions:index"
)

// RedisStore is a SnapshotStore backed by Redis, for deployments where the
// witness server's state should live off-box.
type RedisStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the connection settings for a Redis-backed store.
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number
	DB int
	// KeyPrefix is an optional prefix prepended to all keys for
	// multi-tenant setups.
	KeyPrefix string
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(cfg *RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if cfg == nil {
		return nil, errors.New("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, errors.New("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", cfg.Address)
	}

	logger.Sugar().Infow("Redis snapshot store initialized", "address", cfg.Address, "db", cfg.DB)

	return &RedisStore{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// SaveSnapshot persists a session snapshot, overwriting any previous one.
func (r *RedisStore) SaveSnapshot(sessionID string, snap *tree.Snapshot) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return store.ErrClosed
	}

	data, err := store.MarshalSnapshot(snap)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.snapshotKey(sessionID), data, 0)
	pipe.SAdd(ctx, r.key(keySetSessions), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to save snapshot for session %s", sessionID)
	}
	return nil
}

// LoadSnapshot retrieves a session snapshot.
func (r *RedisStore) LoadSnapshot(sessionID string) (*tree.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, store.ErrClosed
	}

	data, err := r.client.Get(context.Background(), r.snapshotKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load snapshot for session %s", sessionID)
	}

	return store.UnmarshalSnapshot(data)
}

// DeleteSnapshot removes a session snapshot. Idempotent.
func (r *RedisStore) DeleteSnapshot(sessionID string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return store.ErrClosed
	}

	ctx := context.Background()
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.snapshotKey(sessionID))
	pipe.SRem(ctx, r.key(keySetSessions), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to delete snapshot for session %s", sessionID)
	}
	return nil
}

// ListSessions returns all persisted session ids, sorted.
func (r *RedisStore) ListSessions() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, store.ErrClosed
	}

	ids, err := r.client.SMembers(context.Background(), r.key(keySetSessions)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}
	sort.Strings(ids)
	return ids, nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.client.Close()
}

func (r *RedisStore) snapshotKey(sessionID string) string {
	return r.key(keyPrefixSnapshot + sessionID)
}

func (r *RedisStore) key(k string) string {
	if r.keyPrefix == "" {
		return k
	}
	return r.keyPrefix + k
}
