package domain

import (
	"context"
	"time"

	"deskhive/internal/models"
)

// StoreReader is the narrow read surface the engine consumes. Failures are
// typed: database.ErrNotFound, database.ErrTransient (wrapped).
type StoreReader interface {
	GetSpace(ctx context.Context, id int64) (*models.Space, error)
	ListActiveSpaces(ctx context.Context) ([]*models.Space, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	ListOverlapping(ctx context.Context, spaceID int64, window models.Window) ([]*models.Booking, error)
}

// StoreWriter is the narrow write surface. InsertBooking must reject with
// database.ErrCapacityExceeded when the capacity constraint would be
// violated; the engine does not implement its own locking protocol.
type StoreWriter interface {
	InsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, id int64, fromVersion int64, status string) error
}

// ChangeFeed delivers row-level change events for a table. The returned
// function cancels the subscription.
type ChangeFeed interface {
	Subscribe(ctx context.Context, table string, handler func(models.ChangeEvent)) (func(), error)
}

// FeedOutbox accepts change events produced by local writes for relay onto
// the shared feed.
type FeedOutbox interface {
	EnqueueChange(ctx context.Context, table string, event models.ChangeEvent) error
}

// EventPublisher is the in-process domain event surface.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// PaymentProvider is the payment collaborator boundary. The engine calls it
// after a booking is created and otherwise only reacts to the later Confirm.
type PaymentProvider interface {
	CreatePaymentSession(ctx context.Context, req models.PaymentSessionRequest) (*models.PaymentSession, error)
}

// ResultCache is a byte-level cache with TTL, used to memoize availability
// results. Implementations must treat a missing key as (nil, false, nil).
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CacheInvalidator evicts memoized availability for every day a booking
// window touches, after a write changes the answer.
type CacheInvalidator interface {
	InvalidateWindow(ctx context.Context, spaceID int64, window models.Window) error
}

// AvailabilityChecker answers capacity questions for a candidate window.
// It never returns an error to the caller; on store failure it degrades to
// the documented fail-open result.
type AvailabilityChecker interface {
	Check(ctx context.Context, spaceID int64, window models.Window) models.AvailabilityResult
}
