package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultOutstandingKeyPrefix = "ledger:outstanding:"

// RedisOutstandingCache caches computed customer outstanding views in Redis.
// Suitable for deployments where the API server and the scheduler run as
// separate processes and must see the same invalidations.
type RedisOutstandingCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisOutstandingCache connects to Redis and returns a cache using the
// configured outstanding TTL.
func NewRedisOutstandingCache(cfg *config.RedisConfig) (*RedisOutstandingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisOutstandingCache{
		client:    client,
		keyPrefix: defaultOutstandingKeyPrefix,
		ttl:       cfg.OutstandingTTL,
	}, nil
}

// NewRedisOutstandingCacheWithClient creates a cache with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisOutstandingCacheWithClient(client *redis.Client, ttl time.Duration) *RedisOutstandingCache {
	return &RedisOutstandingCache{
		client:    client,
		keyPrefix: defaultOutstandingKeyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached outstanding view for a customer. The second return
// is false on a miss.
func (c *RedisOutstandingCache) Get(ctx context.Context, customerID uuid.UUID) (*billing.CustomerOutstanding, bool, error) {
	payload, err := c.client.Get(ctx, c.key(customerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read outstanding cache: %w", err)
	}

	var outstanding billing.CustomerOutstanding
	if err := json.Unmarshal(payload, &outstanding); err != nil {
		// A corrupt entry behaves like a miss; the caller recomputes and
		// overwrites it.
		return nil, false, fmt.Errorf("failed to decode outstanding cache entry: %w", err)
	}
	return &outstanding, true, nil
}

// Set stores the outstanding view with the configured TTL.
func (c *RedisOutstandingCache) Set(ctx context.Context, outstanding *billing.CustomerOutstanding) error {
	payload, err := json.Marshal(outstanding)
	if err != nil {
		return fmt.Errorf("failed to encode outstanding cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(outstanding.CustomerID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write outstanding cache: %w", err)
	}
	return nil
}

// Invalidate drops the customer's cached view. Deleting a missing key is not
// an error.
func (c *RedisOutstandingCache) Invalidate(ctx context.Context, customerID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(customerID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate outstanding cache: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client
func (c *RedisOutstandingCache) Close() error {
	return c.client.Close()
}

func (c *RedisOutstandingCache) key(customerID uuid.UUID) string {
	return c.keyPrefix + customerID.String()
}
