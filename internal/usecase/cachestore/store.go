// Package cachestore wraps domain.Cache for services: failures are logged
// and treated as misses so a cache outage never fails a request.
package cachestore

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/simaogato/partio-backend/internal/domain"
)

// Store is a best-effort view of a domain.Cache. A nil cache disables it.
type Store struct {
	cache  domain.Cache
	logger *zap.Logger
}

// New creates a Store
func New(cache domain.Cache, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{cache: cache, logger: logger}
}

// Get decodes key into dest and reports whether it was a hit
func (s *Store) Get(ctx context.Context, key string, dest any) bool {
	if s == nil || s.cache == nil {
		return false
	}

	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return found
}

// Set stores value under key for ttl
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if s == nil || s.cache == nil {
		return
	}

	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes every key under each prefix
func (s *Store) Invalidate(ctx context.Context, prefixes ...string) {
	if s == nil || s.cache == nil {
		return
	}

	for _, prefix := range prefixes {
		if err := s.cache.InvalidatePrefix(ctx, prefix); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
		}
	}
}
