package pricing

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"deskhive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func window(start, end string) models.Window {
	s, _ := time.Parse(time.RFC3339, start)
	e, _ := time.Parse(time.RFC3339, end)
	return models.Window{Start: s, End: e}
}

func TestComputePriceHourly(t *testing.T) {
	space := &models.Space{ID: 1, PricingType: models.PricingHourly, HourlyPrice: 24.00}

	quote, err := ComputePrice(space, window("2026-03-02T10:00:00Z", "2026-03-02T12:00:00Z"))
	require.NoError(t, err)

	assert.Equal(t, 48.00, quote.PriceHT)
	assert.Equal(t, 57.60, quote.PriceTTC)
	assert.Equal(t, "2 hours", quote.Label)
}

func TestComputePriceHourlyPartialHourRoundsUp(t *testing.T) {
	space := &models.Space{ID: 1, PricingType: models.PricingHourly, HourlyPrice: 10.00}

	quote, err := ComputePrice(space, window("2026-03-02T10:00:00Z", "2026-03-02T11:30:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 20.00, quote.PriceHT)
}

func TestComputePriceFlatTypes(t *testing.T) {
	tests := []struct {
		name  string
		space models.Space
		want  float64
	}{
		{"daily", models.Space{ID: 2, PricingType: models.PricingDaily, DailyPrice: 90}, 90},
		{"half_day", models.Space{ID: 3, PricingType: models.PricingHalfDay, HalfDayPrice: 50}, 50},
		{"monthly", models.Space{ID: 4, PricingType: models.PricingMonthly, MonthlyPrice: 600}, 600},
		{"quarter", models.Space{ID: 5, PricingType: models.PricingQuarter, QuarterPrice: 1500}, 1500},
		{"yearly", models.Space{ID: 6, PricingType: models.PricingYearly, YearlyPrice: 5000}, 5000},
		{"custom", models.Space{ID: 7, PricingType: models.PricingCustom, CustomPrice: 123.45, CustomLabel: "startup pack"}, 123.45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := ComputePrice(&tt.space, window("2026-03-02T00:00:00Z", "2026-03-03T00:00:00Z"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, quote.PriceHT)
			assert.Equal(t, Round2(tt.want*1.20), quote.PriceTTC)
		})
	}
}

func TestComputePriceCustomLabel(t *testing.T) {
	space := &models.Space{ID: 7, PricingType: models.PricingCustom, CustomPrice: 99, CustomLabel: "startup pack"}
	quote, err := ComputePrice(space, window("2026-03-02T00:00:00Z", "2026-03-03T00:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, "startup pack", quote.Label)
}

func TestComputePriceInvalidConfiguration(t *testing.T) {
	// Pricing type says hourly but the hourly price field is unset.
	space := &models.Space{ID: 9, PricingType: models.PricingHourly, DailyPrice: 90}

	_, err := ComputePrice(space, window("2026-03-02T10:00:00Z", "2026-03-02T12:00:00Z"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPricingConfiguration))
}

func TestComputePriceUnknownType(t *testing.T) {
	space := &models.Space{ID: 9, PricingType: "weekly", HourlyPrice: 10}
	// Price() returns 0 for unknown types, so this trips the config check.
	_, err := ComputePrice(space, window("2026-03-02T10:00:00Z", "2026-03-02T12:00:00Z"))
	assert.ErrorIs(t, err, ErrInvalidPricingConfiguration)
}

// TTC must always be derivable from HT under the fixed 20% VAT.
func TestPriceRoundTrip(t *testing.T) {
	for i := 0; i < 10000; i++ {
		ht := float64(i) * 10.001 // spans [0, 100000]
		ttc := TTC(ht)
		assert.InDelta(t, math.Round(ht*1.20*100)/100, ttc, 1e-9, fmt.Sprintf("ht=%f", ht))
	}
}

func TestDurationLabelMonthlyUsesCalendarMonths(t *testing.T) {
	start, _ := time.Parse("2006-01-02", "2026-01-15")
	end, _ := time.Parse("2006-01-02", "2026-04-15")
	assert.Equal(t, "3 months", DurationLabel(models.PricingMonthly, start, end))

	// Calendar difference, not days/30: Feb is short but still one month.
	start, _ = time.Parse("2006-01-02", "2026-02-01")
	end, _ = time.Parse("2006-01-02", "2026-03-01")
	assert.Equal(t, "1 month", DurationLabel(models.PricingMonthly, start, end))
}

func TestDurationLabelQuarterUsesDayCount(t *testing.T) {
	start, _ := time.Parse("2006-01-02", "2026-01-01")
	end, _ := time.Parse("2006-01-02", "2026-04-01")
	// 90 days / 30 / 3 = 1 quarter
	assert.Equal(t, "1 quarter", DurationLabel(models.PricingQuarter, start, end))

	end, _ = time.Parse("2006-01-02", "2026-06-30")
	assert.Equal(t, "2 quarters", DurationLabel(models.PricingQuarter, start, end))
}

func TestDurationLabelYearlyFloorsDays(t *testing.T) {
	start, _ := time.Parse("2006-01-02", "2026-01-01")
	end, _ := time.Parse("2006-01-02", "2027-01-01")
	assert.Equal(t, "1 year", DurationLabel(models.PricingYearly, start, end))
}

func TestDurationLabelHourly(t *testing.T) {
	start, _ := time.Parse(time.RFC3339, "2026-03-02T10:00:00Z")
	assert.Equal(t, "3 hours", DurationLabel(models.PricingHourly, start, start.Add(3*time.Hour)))
	assert.Equal(t, "2 days", DurationLabel(models.PricingHourly, start, start.Add(48*time.Hour)))
}

func TestSlotOptionsHourlyGrid(t *testing.T) {
	space := &models.Space{ID: 1, PricingType: models.PricingHourly, HourlyPrice: 24}

	options, err := SlotOptions(space)
	require.NoError(t, err)
	require.Len(t, options, closingHour-openingHour)

	assert.Equal(t, "08:00", options[0].StartTime)
	assert.Equal(t, "09:00", options[0].EndTime)
	assert.Equal(t, 24.00, options[0].PriceHT)
	assert.Equal(t, 28.80, options[0].PriceTTC)
}

func TestSlotOptionsHalfDay(t *testing.T) {
	space := &models.Space{ID: 2, PricingType: models.PricingHalfDay, HalfDayPrice: 50}

	options, err := SlotOptions(space)
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "Morning", options[0].Label)
	assert.Equal(t, "Afternoon", options[1].Label)
}

func TestSlotOptionsMisconfigured(t *testing.T) {
	space := &models.Space{ID: 3, PricingType: models.PricingDaily}
	_, err := SlotOptions(space)
	assert.ErrorIs(t, err, ErrInvalidPricingConfiguration)
}

func TestWindowForSlotHourly(t *testing.T) {
	day, _ := time.Parse("2006-01-02", "2026-03-02")
	opt := models.TimeSlotOption{DurationHours: 1, StartTime: "10:00", EndTime: "11:00"}

	w := WindowForSlot(day, opt)
	assert.Equal(t, 10, w.Start.Hour())
	assert.Equal(t, 11, w.End.Hour())
	assert.True(t, w.Valid())
}

func TestWindowForSlotFullDay(t *testing.T) {
	day, _ := time.Parse("2006-01-02", "2026-03-02")
	opt := models.TimeSlotOption{DurationHours: 24, StartTime: "00:00", EndTime: "00:00"}

	w := WindowForSlot(day, opt)
	assert.Equal(t, 0, w.Start.Hour())
	assert.Equal(t, 24*time.Hour, w.Duration())
}
