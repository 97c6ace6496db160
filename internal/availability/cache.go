package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"deskhive/internal/domain"
	"deskhive/internal/metrics"
	"deskhive/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes checker results per (date, space, duration) to absorb
// repeated UI-triggered checks. Entries expire after the configured TTL and
// are actively evicted on any booking write touching the space/date.
type Cache struct {
	checker *Checker
	store   domain.ResultCache
	ttl     time.Duration
	sf      singleflight.Group
	logger  *zerolog.Logger
}

func NewCache(checker *Checker, store domain.ResultCache, ttl time.Duration, logger *zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = models.AvailabilityCacheTTL
	}
	return &Cache{checker: checker, store: store, ttl: ttl, logger: logger}
}

func cacheKey(date time.Time, spaceID int64, durationHours int) string {
	return fmt.Sprintf("availability:%s:%d:%d", date.Format("2006-01-02"), spaceID, durationHours)
}

// windowFor anchors the check at the start of the requested day. Slot-level
// precision is deferred to booking creation, where the write path enforces
// capacity for the exact window.
func windowFor(date time.Time, durationHours int) models.Window {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	if durationHours < 1 {
		durationHours = 24
	}
	return models.Window{Start: start, End: start.Add(time.Duration(durationHours) * time.Hour)}
}

// GetOrCompute returns the memoized result when fresh, otherwise computes it
// once (concurrent misses collapse) and stores it. Cache failures degrade to
// a direct compute and are never surfaced.
func (c *Cache) GetOrCompute(ctx context.Context, date time.Time, spaceID int64, durationHours int) models.AvailabilityResult {
	key := cacheKey(date, spaceID, durationHours)

	if raw, ok, err := c.store.Get(ctx, key); err == nil && ok {
		var result models.AvailabilityResult
		if err := json.Unmarshal(raw, &result); err == nil {
			metrics.IncAvailabilityCache("hit")
			return result
		}
		c.logger.Warn().Str("key", key).Msg("dropping undecodable cache entry")
		_ = c.store.Delete(ctx, key)
	} else if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, computing directly")
	}

	metrics.IncAvailabilityCache("miss")

	v, _, _ := c.sf.Do(key, func() (interface{}, error) {
		result := c.checker.Check(ctx, spaceID, windowFor(date, durationHours))
		if raw, err := json.Marshal(result); err == nil {
			if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
				c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
			}
		}
		return result, nil
	})

	result, ok := v.(models.AvailabilityResult)
	if !ok {
		return c.checker.Check(ctx, spaceID, windowFor(date, durationHours))
	}
	return result
}

// invalidationDurations covers every duration key the slot generator can
// produce for a day: the hourly grid, half-day, full day, and the
// month/quarter/year sentinels.
func invalidationDurations() []int {
	durations := make([]int, 0, 28)
	for h := 1; h <= 24; h++ {
		durations = append(durations, h)
	}
	return append(durations, 0, 720, 2160, 8760)
}

// Invalidate evicts all memoized results for a space on a given date. Called
// by the booking service after any write affecting that space.
func (c *Cache) Invalidate(ctx context.Context, spaceID int64, date time.Time) error {
	keys := make([]string, 0, 28)
	for _, d := range invalidationDurations() {
		keys = append(keys, cacheKey(date, spaceID, d))
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.logger.Warn().Err(err).Int64("space_id", spaceID).Msg("cache invalidation failed")
		return err
	}
	return nil
}

// maxInvalidationDays bounds eviction fan-out for long-term bookings; dates
// beyond the horizon age out via the TTL anyway.
const maxInvalidationDays = 62

// InvalidateWindow evicts every date a booking window touches, up to the
// eviction horizon.
func (c *Cache) InvalidateWindow(ctx context.Context, spaceID int64, window models.Window) error {
	var firstErr error
	days := 0
	for day := window.Start; day.Before(window.End) && days < maxInvalidationDays; day = day.AddDate(0, 0, 1) {
		if err := c.Invalidate(ctx, spaceID, day); err != nil && firstErr == nil {
			firstErr = err
		}
		days++
	}
	return firstErr
}
