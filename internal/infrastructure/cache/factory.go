package cache

import (
	"errors"
	"fmt"

	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StoreSelector picks the idempotency backend for checkout keys and event
// deduplication.
type StoreSelector struct {
	redis    config.RedisConfig
	log      *zap.Logger
	fallback bool
}

// SelectorOption configures a StoreSelector
type SelectorOption func(*StoreSelector)

func WithLogger(log *zap.Logger) SelectorOption {
	return func(s *StoreSelector) { s.log = log }
}

// WithInMemoryFallback lets Open degrade to a process-local store when redis
// cannot be reached. Enabled unless turned off.
func WithInMemoryFallback(allow bool) SelectorOption {
	return func(s *StoreSelector) { s.fallback = allow }
}

func NewStoreSelector(cfg config.RedisConfig, opts ...SelectorOption) *StoreSelector {
	s := &StoreSelector{redis: cfg, log: zap.NewNop(), fallback: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ErrRedisRequired is returned by Open when redis is down and fallback is off
var ErrRedisRequired = errors.New("redis is required for idempotency")

// Open returns the redis store when a host is configured and answers, the
// in-memory store otherwise.
func (s *StoreSelector) Open() (shared.IdempotencyStore, error) {
	if s.redis.Host == "" {
		s.log.Info("Idempotency keys kept in memory", zap.String("reason", "redis not configured"))
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(s.redis)
	if err == nil {
		s.log.Info("Idempotency keys kept in redis", zap.String("addr", s.redis.Addr()))
		return store, nil
	}
	if !s.fallback {
		return nil, fmt.Errorf("%w: %w", ErrRedisRequired, err)
	}

	s.log.Warn("Redis unreachable, idempotency keys are per instance", zap.Error(err))
	return NewInMemoryIdempotencyStore(), nil
}
