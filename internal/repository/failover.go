package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"deskhive/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverCache prefers the primary (redis) cache and falls back to the
// in-process one when it errors. The primary is probed again after a
// cooldown rather than on every call.
type FailoverCache struct {
	primary  domain.ResultCache
	fallback domain.ResultCache
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

const recoveryInterval = time.Minute

func NewFailoverCache(primary, fallback domain.ResultCache, logger *zerolog.Logger) *FailoverCache {
	return &FailoverCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverCache) markDown(err error) {
	f.logger.Error().Err(err).Msg("primary cache failed, falling back to memory")
	f.isDown.Store(true)
	f.mu.Lock()
	f.lastCheck = time.Now()
	f.mu.Unlock()
}

func (f *FailoverCache) shouldProbe() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if time.Since(f.lastCheck) < recoveryInterval {
		return false
	}
	f.lastCheck = time.Now()
	return true
}

func (f *FailoverCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !f.isDown.Load() {
		val, ok, err := f.primary.Get(ctx, key)
		if err == nil {
			return val, ok, nil
		}
		f.markDown(err)
	} else if f.shouldProbe() {
		val, ok, err := f.primary.Get(ctx, key)
		if err == nil {
			f.isDown.Store(false)
			return val, ok, nil
		}
	}

	return f.fallback.Get(ctx, key)
}

func (f *FailoverCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !f.isDown.Load() {
		err := f.primary.Set(ctx, key, value, ttl)
		if err == nil {
			return nil
		}
		f.markDown(err)
	}
	return f.fallback.Set(ctx, key, value, ttl)
}

func (f *FailoverCache) Delete(ctx context.Context, keys ...string) error {
	// Invalidation must reach both sides; a key left behind in the fallback
	// would resurrect stale availability after a failover flip.
	var firstErr error
	if err := f.primary.Delete(ctx, keys...); err != nil {
		f.markDown(err)
		firstErr = err
	}
	if err := f.fallback.Delete(ctx, keys...); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
