// Package cache holds the short-lived state of the install and webhook flows:
// OAuth states and webhook delivery claims. Redis backs it in production and
// the in-memory variants serve single-process deployments and tests.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"section-store/internal/domain"
	"section-store/internal/ports"

	"github.com/redis/go-redis/v9"
)

const (
	statePrefix    = "section-store:oauth-state:"
	deliveryPrefix = "section-store:webhook-delivery:"
)

// NewRedisClient parses a redis:// URL and pings the server
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// RedisStateStore keeps OAuth states as JSON values with a TTL
type RedisStateStore struct {
	client *redis.Client
}

var _ ports.OAuthStateStore = (*RedisStateStore)(nil)

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Save(ctx context.Context, state *domain.OAuthState, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode oauth state: %w", err)
	}
	if err := s.client.Set(ctx, statePrefix+state.State, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	return nil
}

// Consume reads and deletes the state in one GETDEL so it can be used once
func (s *RedisStateStore) Consume(ctx context.Context, state string) (*domain.OAuthState, error) {
	data, err := s.client.GetDel(ctx, statePrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	var out domain.OAuthState
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode oauth state: %w", err)
	}
	return &out, nil
}

// RedisDeduper claims webhook delivery ids with SETNX
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.DeliveryDeduper = (*RedisDeduper)(nil)

// NewRedisDeduper remembers claimed deliveries for ttl; Shopify retries for up to 48 hours
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) Claim(ctx context.Context, deliveryID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, deliveryPrefix+deliveryID, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim delivery: %w", err)
	}
	return ok, nil
}

func (d *RedisDeduper) Release(ctx context.Context, deliveryID string) error {
	if err := d.client.Del(ctx, deliveryPrefix+deliveryID).Err(); err != nil {
		return fmt.Errorf("failed to release delivery: %w", err)
	}
	return nil
}
