// Package cache provides a JSON value cache backed by Redis with lifecycle
// coordination.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/rackscan/pkg/lifecycle"
)

// System stores JSON-encoded values under namespaced keys.
type System interface {
	// Start registers a startup ping and a shutdown close with the coordinator.
	Start(lc *lifecycle.Coordinator) error
	// Get decodes the value at key into dest and reports whether it was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value at key. A zero ttl keeps the value until deleted.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

type redisCache struct {
	client      *redis.Client
	prefix      string
	dialTimeout time.Duration
	logger      *slog.Logger
}

// New creates a Redis-backed cache. The client connects lazily; Start
// verifies connectivity.
func New(cfg *Config, logger *slog.Logger) System {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeoutDuration(),
	})

	return &redisCache{
		client:      client,
		prefix:      cfg.Prefix,
		dialTimeout: cfg.DialTimeoutDuration(),
		logger:      logger.With("system", "cache"),
	}
}

func (r *redisCache) Start(lc *lifecycle.Coordinator) error {
	r.logger.Info("starting cache connection")

	lc.OnStartup(func() {
		pingCtx, cancel := context.WithTimeout(lc.Context(), r.dialTimeout)
		defer cancel()

		if err := r.client.Ping(pingCtx).Err(); err != nil {
			r.logger.Error("cache ping failed", "error", err)
			return
		}

		r.logger.Info("cache connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		r.logger.Info("closing cache connection")

		if err := r.client.Close(); err != nil {
			r.logger.Error("cache close failed", "error", err)
			return
		}

		r.logger.Info("cache connection closed")
	})

	return nil
}

func (r *redisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}

	return true, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	return nil
}

func (r *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}

	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}

	return nil
}

func (r *redisCache) key(k string) string {
	return Key(r.prefix, k)
}

// Key joins a namespace prefix and a key with ':'.
func Key(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}
