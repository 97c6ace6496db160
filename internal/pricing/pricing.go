// Package pricing maps a space's billing model and a requested duration to a
// pre-tax price, the tax-inclusive price, and a human label. Everything here
// is a pure function of its inputs.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"deskhive/internal/models"
)

// ErrInvalidPricingConfiguration means the price field matching the space's
// pricing type is missing or zero. Booking creation must not proceed.
var ErrInvalidPricingConfiguration = errors.New("invalid pricing configuration")

// Quote is the priced answer for a selection.
type Quote struct {
	PriceHT  float64
	PriceTTC float64
	Label    string
}

// Round2 rounds to two decimals, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TTC applies the fixed VAT rate to a pre-tax price.
func TTC(ht float64) float64 {
	return Round2(ht * (1 + models.VATRate))
}

// ComputePrice prices a booking of the given window against the space's
// billing model. Hourly bills per started hour; every other type is a flat
// per-slot price from the matching field.
func ComputePrice(space *models.Space, window models.Window) (Quote, error) {
	unit := space.Price()
	if unit <= 0 {
		return Quote{}, fmt.Errorf("space %d (%s): %w", space.ID, space.PricingType, ErrInvalidPricingConfiguration)
	}

	var ht float64
	switch space.PricingType {
	case models.PricingHourly:
		hours := int(math.Ceil(window.Duration().Hours()))
		if hours < 1 {
			hours = 1
		}
		ht = unit * float64(hours)
	case models.PricingDaily, models.PricingHalfDay,
		models.PricingMonthly, models.PricingQuarter, models.PricingYearly,
		models.PricingCustom:
		ht = unit
	default:
		return Quote{}, fmt.Errorf("space %d: unknown pricing type %q: %w", space.ID, space.PricingType, ErrInvalidPricingConfiguration)
	}

	label := DurationLabel(space.PricingType, window.Start, window.End)
	if space.PricingType == models.PricingCustom && space.CustomLabel != "" {
		label = space.CustomLabel
	}

	return Quote{PriceHT: Round2(ht), PriceTTC: TTC(ht), Label: label}, nil
}

// DurationLabel renders the booking length for display. Monthly counts
// calendar months; quarters and years divide day counts. The mixed policy is
// intentional and kept as-is.
func DurationLabel(pricingType string, start, end time.Time) string {
	switch pricingType {
	case models.PricingMonthly:
		months := calendarMonths(start, end)
		return plural(months, "month")
	case models.PricingQuarter:
		days := daysBetween(start, end)
		quarters := int(math.Ceil(float64(days) / 30.0 / 3.0))
		if quarters < 1 {
			quarters = 1
		}
		return plural(quarters, "quarter")
	case models.PricingYearly:
		days := daysBetween(start, end)
		years := int(math.Floor(float64(days) / 365.0))
		return plural(years, "year")
	case models.PricingHalfDay:
		return "half-day"
	case models.PricingDaily:
		return "1 day"
	default:
		hours := end.Sub(start).Hours()
		if hours < 24 {
			return plural(int(math.Ceil(hours)), "hour")
		}
		return plural(daysBetween(start, end), "day")
	}
}

func calendarMonths(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if months < 1 {
		months = 1
	}
	return months
}

func daysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
