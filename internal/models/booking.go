package models

import "time"

// Booking reserves a Space for a half-open time window [StartTime, EndTime).
type Booking struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"`
	SpaceID       int64     `json:"space_id"`
	SpaceName     string    `json:"space_name"`
	UserID        int64     `json:"user_id"`
	UserEmail     string    `json:"user_email"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"` // pending, confirmed, cancelled, completed
	TotalPriceHT  float64   `json:"total_price_ht"`
	TotalPriceTTC float64   `json:"total_price_ttc"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Version       int64     `json:"version"`
}

// EffectiveStatus derives the display status at read time. A confirmed
// booking whose window has elapsed reads as completed even though the
// persisted column still says confirmed.
func (b *Booking) EffectiveStatus(now time.Time) string {
	if b.Status == StatusConfirmed && b.EndTime.Before(now) {
		return StatusCompleted
	}
	return b.Status
}

// CanModify reports whether a booking in the given status may still be
// edited or cancelled. Callers must pass the effective status, not the
// persisted one.
func CanModify(status string) bool {
	return status != StatusCancelled && status != StatusCompleted
}

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the window is non-empty.
func (w Window) Valid() bool {
	return w.Start.Before(w.End)
}

// Overlaps applies the standard half-open overlap test.
func (w Window) Overlaps(other Window) bool {
	return other.Start.Before(w.End) && other.End.After(w.Start)
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// BookingFilter narrows booking list reads. Zero values mean "any".
type BookingFilter struct {
	UserID   int64
	SpaceID  int64
	Statuses []string
	From     time.Time
	To       time.Time
}
