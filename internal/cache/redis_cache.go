package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dnlflores/starter-ios-app-backend/internal/config"
	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
)

// NewRedisClient connects and pings, failing fast on a bad address.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

type RedisIdentityCache struct {
	client *redis.Client
	prefix string
}

func NewRedisIdentityCache(client *redis.Client, prefix string) *RedisIdentityCache {
	return &RedisIdentityCache{
		client: client,
		prefix: prefix,
	}
}

func (c *RedisIdentityCache) key(userID int64) string {
	return c.prefix + ":id:" + strconv.FormatInt(userID, 10)
}

func (c *RedisIdentityCache) Get(ctx context.Context, userID int64) (*domain.Identity, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var identity domain.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &identity, nil
}

func (c *RedisIdentityCache) Set(ctx context.Context, identity *domain.Identity, ttl time.Duration) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, c.key(identity.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}

func (c *RedisIdentityCache) Delete(ctx context.Context, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = c.key(id)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}

	return nil
}

// Close is a no-op; the shared client is closed by its owner.
func (c *RedisIdentityCache) Close() error {
	return nil
}
