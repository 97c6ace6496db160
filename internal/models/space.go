package models

import "time"

// Space is a bookable physical resource (desk, office, meeting room).
// Only the price field matching PricingType is authoritative.
type Space struct {
	ID           int64     `yaml:"id" json:"id"`
	Name         string    `yaml:"name" json:"name"`
	Capacity     int       `yaml:"capacity" json:"capacity"`
	PricingType  string    `yaml:"pricing_type" json:"pricing_type"`
	HourlyPrice  float64   `yaml:"hourly_price" json:"hourly_price,omitempty"`
	DailyPrice   float64   `yaml:"daily_price" json:"daily_price,omitempty"`
	HalfDayPrice float64   `yaml:"half_day_price" json:"half_day_price,omitempty"`
	MonthlyPrice float64   `yaml:"monthly_price" json:"monthly_price,omitempty"`
	QuarterPrice float64   `yaml:"quarter_price" json:"quarter_price,omitempty"`
	YearlyPrice  float64   `yaml:"yearly_price" json:"yearly_price,omitempty"`
	CustomPrice  float64   `yaml:"custom_price" json:"custom_price,omitempty"`
	CustomLabel  string    `yaml:"custom_label" json:"custom_label,omitempty"`
	IsActive     bool      `yaml:"is_active" json:"is_active"`
	CreatedAt    time.Time `yaml:"-" json:"created_at"`
	UpdatedAt    time.Time `yaml:"-" json:"updated_at"`
}

// Price returns the price field matching the space's pricing type.
// A zero return means the space is misconfigured for its billing model.
func (s *Space) Price() float64 {
	switch s.PricingType {
	case PricingHourly:
		return s.HourlyPrice
	case PricingDaily:
		return s.DailyPrice
	case PricingHalfDay:
		return s.HalfDayPrice
	case PricingMonthly:
		return s.MonthlyPrice
	case PricingQuarter:
		return s.QuarterPrice
	case PricingYearly:
		return s.YearlyPrice
	case PricingCustom:
		return s.CustomPrice
	default:
		return 0
	}
}
