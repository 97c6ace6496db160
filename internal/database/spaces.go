package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"deskhive/internal/models"
)

// SeedSpaces upserts the configured catalog and refreshes the in-memory
// cache. The engine treats spaces as read-only; admin edits land here via a
// reload, not through the booking paths.
func (db *DB) SeedSpaces(ctx context.Context, spaces []models.Space) error {
	query := `INSERT INTO spaces (
				id, name, capacity, pricing_type,
				hourly_price, daily_price, half_day_price,
				monthly_price, quarter_price, yearly_price,
				custom_price, custom_label, is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				capacity = excluded.capacity,
				pricing_type = excluded.pricing_type,
				hourly_price = excluded.hourly_price,
				daily_price = excluded.daily_price,
				half_day_price = excluded.half_day_price,
				monthly_price = excluded.monthly_price,
				quarter_price = excluded.quarter_price,
				yearly_price = excluded.yearly_price,
				custom_price = excluded.custom_price,
				custom_label = excluded.custom_label,
				is_active = excluded.is_active,
				updated_at = excluded.updated_at`

	now := time.Now()
	for i := range spaces {
		s := &spaces[i]
		_, err := db.execContext(ctx, query,
			s.ID, s.Name, s.Capacity, s.PricingType,
			s.HourlyPrice, s.DailyPrice, s.HalfDayPrice,
			s.MonthlyPrice, s.QuarterPrice, s.YearlyPrice,
			s.CustomPrice, s.CustomLabel, s.IsActive, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to seed space %d: %w", s.ID, err)
		}
	}

	db.mu.Lock()
	db.spacesCache = make(map[int64]models.Space, len(spaces))
	for _, s := range spaces {
		db.spacesCache[s.ID] = s
	}
	db.mu.Unlock()

	return nil
}

func (db *DB) GetSpace(ctx context.Context, id int64) (*models.Space, error) {
	db.mu.RLock()
	cached, ok := db.spacesCache[id]
	db.mu.RUnlock()
	if ok {
		return &cached, nil
	}

	var s models.Space
	query := `SELECT id, name, capacity, pricing_type,
	                 hourly_price, daily_price, half_day_price,
	                 monthly_price, quarter_price, yearly_price,
	                 custom_price, custom_label, is_active, created_at, updated_at
              FROM spaces WHERE id = ?`
	err := db.queryRowContext(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Capacity, &s.PricingType,
		&s.HourlyPrice, &s.DailyPrice, &s.HalfDayPrice,
		&s.MonthlyPrice, &s.QuarterPrice, &s.YearlyPrice,
		&s.CustomPrice, &s.CustomLabel, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("space %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, wrapRead("get space", err)
	}
	return &s, nil
}

func (db *DB) ListActiveSpaces(ctx context.Context) ([]*models.Space, error) {
	query := `SELECT id, name, capacity, pricing_type,
	                 hourly_price, daily_price, half_day_price,
	                 monthly_price, quarter_price, yearly_price,
	                 custom_price, custom_label, is_active, created_at, updated_at
              FROM spaces WHERE is_active = 1 ORDER BY id`
	rows, err := db.queryContext(ctx, query)
	if err != nil {
		return nil, wrapRead("list active spaces", err)
	}
	defer rows.Close()

	var spaces []*models.Space
	for rows.Next() {
		s := &models.Space{}
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Capacity, &s.PricingType,
			&s.HourlyPrice, &s.DailyPrice, &s.HalfDayPrice,
			&s.MonthlyPrice, &s.QuarterPrice, &s.YearlyPrice,
			&s.CustomPrice, &s.CustomLabel, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, wrapRead("scan space", err)
		}
		spaces = append(spaces, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapRead("list active spaces", err)
	}
	return spaces, nil
}
