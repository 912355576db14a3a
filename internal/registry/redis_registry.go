package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dnlflores/starter-ios-app-backend/internal/config"
	"github.com/dnlflores/starter-ios-app-backend/pkg/log"
)

type RedisRegistry struct {
	client            *redis.Client
	advertiseAddress  string
	prefix            string
	keyTTL            time.Duration
	heartbeatInterval time.Duration
	managedKeys       map[string]struct{} // keys owned by this instance
	mu                sync.RWMutex
}

const (
	defaultPresenceTTL       = 30 * time.Second
	defaultHeartbeatInterval = 10 * time.Second
)

func NewRedisRegistry(client *redis.Client, cfg config.RedisConfig, advertiseAddress string) *RedisRegistry {
	ttl := cfg.PresenceTTL
	if ttl <= 0 {
		ttl = defaultPresenceTTL
	}
	interval := cfg.HeartbeatInterval
	if interval <= 0 {
		interval = defaultHeartbeatInterval
	}
	return &RedisRegistry{
		client:            client,
		advertiseAddress:  advertiseAddress,
		prefix:            cfg.PresencePrefix,
		keyTTL:            ttl,
		heartbeatInterval: interval,
		managedKeys:       make(map[string]struct{}),
	}
}

func (r *RedisRegistry) keyFor(userID int64) string {
	return r.prefix + ":" + strconv.FormatInt(userID, 10)
}

func (r *RedisRegistry) MarkOnline(ctx context.Context, userID int64) error {
	key := r.keyFor(userID)

	if err := r.client.Set(ctx, key, r.advertiseAddress, r.keyTTL).Err(); err != nil {
		return fmt.Errorf("failed to mark user online: %w", err)
	}

	r.mu.Lock()
	r.managedKeys[key] = struct{}{}
	r.mu.Unlock()

	return nil
}

// MarkOffline deletes the key only while it still names this instance, so a
// reconnect that landed on another node is not erased.
func (r *RedisRegistry) MarkOffline(ctx context.Context, userID int64) error {
	key := r.keyFor(userID)

	r.mu.Lock()
	delete(r.managedKeys, key)
	r.mu.Unlock()

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		addr, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if addr != r.advertiseAddress {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("failed to mark user offline: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Lookup(ctx context.Context, userID int64) (string, error) {
	addr, err := r.client.Get(ctx, r.keyFor(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to lookup presence: %w", err)
	}
	return addr, nil
}

func (r *RedisRegistry) RunHeartbeat(ctx context.Context) error {
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()

	l := log.L()
	l.Info().Dur("interval", r.heartbeatInterval).Dur("ttl", r.keyTTL).Msg("presence heartbeat started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.refreshKeys(ctx)
		}
	}
}

func (r *RedisRegistry) refreshKeys(ctx context.Context) {
	r.mu.RLock()
	keys := make([]string, 0, len(r.managedKeys))
	for k := range r.managedKeys {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	if len(keys) == 0 {
		return
	}

	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Set(ctx, key, r.advertiseAddress, r.keyTTL)
		}
		return nil
	})
	if err != nil {
		l := log.L()
		l.Error().Int("keys", len(keys)).Err(err).Msg("failed to refresh presence keys")
	}
}

// Close removes the keys this instance still owns.
func (r *RedisRegistry) Close() error {
	r.mu.Lock()
	keys := make([]string, 0, len(r.managedKeys))
	for k := range r.managedKeys {
		keys = append(keys, k)
	}
	r.managedKeys = make(map[string]struct{})
	r.mu.Unlock()

	if len(keys) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			l := log.L()
			l.Warn().Err(err).Msg("failed to clear presence keys")
		}
	}
	return nil
}
