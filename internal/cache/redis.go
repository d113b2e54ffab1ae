package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/uniconnect/backend/internal/config"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/metrics"
	"go.uber.org/zap"
)

// opTimeout bounds every cache round trip so a slow Redis degrades to a miss
const opTimeout = 500 * time.Millisecond

// RedisStore is the Redis-backed Store. Every operation runs behind a
// circuit breaker; failures are logged and reported as a miss or no-op.
type RedisStore struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewRedisClient creates a pooled Redis client. Connections are dialed lazily.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   1,
		PoolSize:     10,
		MinIdleConns: 2,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		DialTimeout:  2 * time.Second,
	})
}

// NewRedisStore wraps a Redis client as a Store
func NewRedisStore(client *redis.Client) *RedisStore {
	m := metrics.Get()
	settings := gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.CacheBreakerState.Set(float64(to))
			logger.Log.Warn("Cache circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &RedisStore{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// Get returns the value stored under key. Absent keys and backend failures
// both report ok=false.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := s.breaker.Execute(func() ([]byte, error) {
		return s.client.Get(ctx, key).Bytes()
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.fail("get", err, logger.WithCacheKey(key))
		}
		return nil, false
	}
	return val, true
}

// Set stores value under key for ttl
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.breaker.Execute(func() ([]byte, error) {
		return nil, s.client.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		s.fail("set", err, logger.WithCacheKey(key))
	}
}

// Delete removes keys in a single round trip
func (s *RedisStore) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.breaker.Execute(func() ([]byte, error) {
		return nil, s.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		s.fail("delete", err, zap.Strings("keys", keys))
	}
}

// Ping reports whether Redis answers. Used by the health endpoint.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection gracefully
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) fail(op string, err error, fields ...zap.Field) {
	metrics.Get().CacheErrorsTotal.WithLabelValues(op).Inc()
	fields = append(fields, zap.String("operation", op), zap.Error(err))
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		logger.Log.Debug("Cache breaker rejected operation", fields...)
		return
	}
	logger.Log.Warn("Cache operation failed, continuing without cache", fields...)
}
