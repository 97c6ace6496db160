package pricing

import (
	"fmt"
	"time"

	"deskhive/internal/models"
)

// Business-hour grid for hourly slot generation.
const (
	openingHour = 8
	closingHour = 20
)

// Sentinel durations for slot keys where "hours" is not the real unit.
const (
	DurationMonthHours   = 24 * 30
	DurationQuarterHours = 24 * 90
	DurationYearHours    = 24 * 365
)

// SlotOptions generates the candidate bookable windows for a space, with
// derived prices. Prices here are advisory; the authoritative price is
// computed at booking time.
func SlotOptions(space *models.Space) ([]models.TimeSlotOption, error) {
	unit := space.Price()
	if unit <= 0 {
		return nil, fmt.Errorf("space %d (%s): %w", space.ID, space.PricingType, ErrInvalidPricingConfiguration)
	}

	switch space.PricingType {
	case models.PricingHourly:
		var options []models.TimeSlotOption
		for h := openingHour; h < closingHour; h++ {
			options = append(options, models.TimeSlotOption{
				Label:         fmt.Sprintf("%02d:00 - %02d:00", h, h+1),
				DurationHours: 1,
				StartTime:     fmt.Sprintf("%02d:00", h),
				EndTime:       fmt.Sprintf("%02d:00", h+1),
				PriceHT:       Round2(unit),
				PriceTTC:      TTC(unit),
			})
		}
		return options, nil

	case models.PricingHalfDay:
		return []models.TimeSlotOption{
			{Label: "Morning", DurationHours: 4, StartTime: "08:00", EndTime: "12:00", PriceHT: Round2(unit), PriceTTC: TTC(unit)},
			{Label: "Afternoon", DurationHours: 4, StartTime: "14:00", EndTime: "18:00", PriceHT: Round2(unit), PriceTTC: TTC(unit)},
		}, nil

	case models.PricingDaily:
		return []models.TimeSlotOption{
			{Label: "Full day", DurationHours: 24, StartTime: "00:00", EndTime: "00:00", PriceHT: Round2(unit), PriceTTC: TTC(unit)},
		}, nil

	case models.PricingMonthly:
		return flatOption("1 month", DurationMonthHours, unit), nil
	case models.PricingQuarter:
		return flatOption("1 quarter", DurationQuarterHours, unit), nil
	case models.PricingYearly:
		return flatOption("1 year", DurationYearHours, unit), nil

	case models.PricingCustom:
		label := space.CustomLabel
		if label == "" {
			label = "custom"
		}
		return flatOption(label, 0, unit), nil

	default:
		return nil, fmt.Errorf("space %d: unknown pricing type %q: %w", space.ID, space.PricingType, ErrInvalidPricingConfiguration)
	}
}

func flatOption(label string, durationHours int, unit float64) []models.TimeSlotOption {
	return []models.TimeSlotOption{{
		Label:         label,
		DurationHours: durationHours,
		StartTime:     "00:00",
		EndTime:       "00:00",
		PriceHT:       Round2(unit),
		PriceTTC:      TTC(unit),
	}}
}

// WindowForSlot anchors a slot option to a concrete day, producing the
// half-open window a booking request will carry.
func WindowForSlot(day time.Time, opt models.TimeSlotOption) models.Window {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	parse := func(clock string) time.Time {
		t, err := time.Parse("15:04", clock)
		if err != nil {
			return dayStart
		}
		return dayStart.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
	}

	start := parse(opt.StartTime)
	var end time.Time
	switch {
	case opt.DurationHours >= 24 || opt.DurationHours == 0:
		// Day-and-above slots run from midnight for the full span; custom
		// slots default to one day.
		days := opt.DurationHours / 24
		if days < 1 {
			days = 1
		}
		start = dayStart
		end = dayStart.AddDate(0, 0, days)
	default:
		end = parse(opt.EndTime)
		if !end.After(start) {
			end = start.Add(time.Duration(opt.DurationHours) * time.Hour)
		}
	}

	return models.Window{Start: start, End: end}
}
