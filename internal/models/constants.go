package models

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const (
	PricingHourly  = "hourly"
	PricingDaily   = "daily"
	PricingHalfDay = "half_day"
	PricingMonthly = "monthly"
	PricingQuarter = "quarter"
	PricingYearly  = "yearly"
	PricingCustom  = "custom"
)

// VATRate is the fixed tax rate applied to every booking. There is no
// per-space override.
const VATRate = 0.20

const (
	// AvailabilityCacheTTL bounds how stale a memoized availability result
	// may get between UI-triggered checks.
	AvailabilityCacheTTL = 5 * time.Minute

	// HubIdleTimeout is how long the sync hub keeps its upstream change-feed
	// subscription warm after the last observer detaches.
	HubIdleTimeout = 5 * time.Minute

	// StoreReadAttempts caps retries of advisory availability reads.
	StoreReadAttempts = 3

	// FeedQueueKey and FeedDeadLetterKey name the redis lists backing the
	// change-feed outbox relay.
	FeedQueueKey      = "feed:outbox"
	FeedDeadLetterKey = "feed:deadletter"
	FeedChannelPrefix = "deskhive:changes:"
	BookingsFeedTable = "bookings"
)

// ValidStatuses lists every persisted booking status.
var ValidStatuses = []string{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

// ValidPricingTypes lists every supported billing model.
var ValidPricingTypes = []string{
	PricingHourly, PricingDaily, PricingHalfDay,
	PricingMonthly, PricingQuarter, PricingYearly, PricingCustom,
}
