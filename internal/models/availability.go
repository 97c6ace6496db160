package models

// AvailabilityResult is the derived answer to "does this space have free
// capacity for the requested window". Never persisted.
type AvailabilityResult struct {
	Available         bool `json:"is_available"`
	AvailableCapacity int  `json:"available_capacity"`
	TotalCapacity     int  `json:"total_capacity"`
}

// FailOpenAvailability is what the checker reports when the store cannot be
// read: availability over strict correctness at the read layer. The write
// layer remains the correctness boundary.
func FailOpenAvailability() AvailabilityResult {
	return AvailabilityResult{Available: true, AvailableCapacity: 1, TotalCapacity: 1}
}

// TimeSlotOption is a candidate bookable window shown to the user, with a
// derived (non-authoritative) price. Recomputed per pricing type.
type TimeSlotOption struct {
	Label         string  `json:"label"`
	DurationHours int     `json:"duration_hours"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	PriceHT       float64 `json:"price_ht"`
	PriceTTC      float64 `json:"price_ttc"`
}
