// Package availability answers "does this space have free capacity for this
// window". Reads are advisory: the store's transactional insert is the
// correctness boundary, so the checker degrades to a permissive default
// instead of blocking the UI when the store cannot be read.
package availability

import (
	"context"
	"time"

	"deskhive/internal/domain"
	"deskhive/internal/metrics"
	"deskhive/internal/models"
	"deskhive/internal/worker"

	"github.com/rs/zerolog"
)

// Checker derives free capacity from the non-cancelled bookings overlapping
// a candidate window. Pure read, no side effects.
type Checker struct {
	store  domain.StoreReader
	retry  worker.RetryPolicy
	logger *zerolog.Logger
}

func NewChecker(store domain.StoreReader, logger *zerolog.Logger) *Checker {
	return &Checker{
		store: store,
		retry: worker.RetryPolicy{
			MaxRetries:    models.StoreReadAttempts,
			InitialDelay:  100 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			BackoffFactor: 2,
		},
		logger: logger,
	}
}

// Check never returns an error. After the bounded retries are exhausted it
// fails open with {available, 1, 1} and logs; the write layer still rejects
// oversell.
func (c *Checker) Check(ctx context.Context, spaceID int64, window models.Window) models.AvailabilityResult {
	if !window.Valid() {
		return models.AvailabilityResult{Available: false}
	}

	var space *models.Space
	err := c.retry.Do(ctx, func() error {
		var e error
		space, e = c.store.GetSpace(ctx, spaceID)
		return e
	})
	if err != nil {
		c.logger.Error().Err(err).Int64("space_id", spaceID).Msg("space read failed, failing open")
		metrics.IncAvailabilityCheck("fail_open")
		return models.FailOpenAvailability()
	}

	if !space.IsActive {
		metrics.IncAvailabilityCheck("inactive")
		return models.AvailabilityResult{Available: false, AvailableCapacity: 0, TotalCapacity: space.Capacity}
	}

	var overlapping []*models.Booking
	err = c.retry.Do(ctx, func() error {
		var e error
		overlapping, e = c.store.ListOverlapping(ctx, spaceID, window)
		return e
	})
	if err != nil {
		c.logger.Error().Err(err).Int64("space_id", spaceID).Msg("overlap read failed, failing open")
		metrics.IncAvailabilityCheck("fail_open")
		return models.FailOpenAvailability()
	}

	available := space.Capacity - len(overlapping)
	if available < 0 {
		available = 0
	}

	result := models.AvailabilityResult{
		Available:         available > 0,
		AvailableCapacity: available,
		TotalCapacity:     space.Capacity,
	}
	if result.Available {
		metrics.IncAvailabilityCheck("available")
	} else {
		metrics.IncAvailabilityCheck("full")
	}
	return result
}
