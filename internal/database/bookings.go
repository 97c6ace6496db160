package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"deskhive/internal/models"
)

const bookingColumns = `id, reference, space_id, space_name, user_id, user_email,
	start_time, end_time, status, total_price_ht, total_price_ttc,
	created_at, updated_at, version`

func scanBooking(scanner interface{ Scan(...interface{}) error }) (*models.Booking, error) {
	b := &models.Booking{}
	err := scanner.Scan(
		&b.ID, &b.Reference, &b.SpaceID, &b.SpaceName, &b.UserID, &b.UserEmail,
		&b.StartTime, &b.EndTime, &b.Status, &b.TotalPriceHT, &b.TotalPriceTTC,
		&b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// InsertBooking writes a new booking after re-checking capacity inside the
// same transaction. The count-then-insert pair is the store-level capacity
// constraint: sqlite serializes writers, so two racing inserts for the last
// seat cannot both observe free capacity.
func (db *DB) InsertBooking(ctx context.Context, booking *models.Booking) error {
	if !booking.StartTime.Before(booking.EndTime) {
		return fmt.Errorf("insert booking: start must precede end")
	}

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var capacity int
	var isActive bool
	err = tx.QueryRowContext(ctx,
		`SELECT capacity, is_active FROM spaces WHERE id = ?`, booking.SpaceID,
	).Scan(&capacity, &isActive)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("space %d: %w", booking.SpaceID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read space in tx: %w", err)
	}
	if !isActive {
		return ErrSpaceInactive
	}

	// Half-open overlap: existing.start < new.end AND existing.end > new.start.
	var overlapping int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE space_id = ? AND status IN (?, ?)
		   AND start_time < ? AND end_time > ?`,
		booking.SpaceID, models.StatusPending, models.StatusConfirmed,
		booking.EndTime, booking.StartTime,
	).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("failed to check capacity in tx: %w", err)
	}

	if overlapping >= capacity {
		return ErrCapacityExceeded
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (
			reference, space_id, space_name, user_id, user_email,
			start_time, end_time, status, total_price_ht, total_price_ttc,
			created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.Reference, booking.SpaceID, booking.SpaceName,
		booking.UserID, booking.UserEmail,
		booking.StartTime, booking.EndTime, booking.Status,
		booking.TotalPriceHT, booking.TotalPriceTTC,
		now, now, 1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1

	return tx.Commit()
}

// UpdateBookingStatus flips the status with an optimistic version guard.
// Zero affected rows means the caller raced another writer.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, fromVersion int64, status string) error {
	result, err := db.execContext(ctx,
		`UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		status, time.Now(), id, fromVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(db.queryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, wrapRead("get booking", err)
	}
	return b, nil
}

func (db *DB) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = ?`
	b, err := scanBooking(db.queryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %s: %w", reference, ErrNotFound)
	}
	if err != nil {
		return nil, wrapRead("get booking by reference", err)
	}
	return b, nil
}

// ListOverlapping returns non-cancelled bookings whose interval overlaps the
// window, using the half-open test.
func (db *DB) ListOverlapping(ctx context.Context, spaceID int64, window models.Window) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		 WHERE space_id = ? AND status IN (?, ?)
		   AND start_time < ? AND end_time > ?
		 ORDER BY start_time`
	rows, err := db.queryContext(ctx, query,
		spaceID, models.StatusPending, models.StatusConfirmed,
		window.End, window.Start,
	)
	if err != nil {
		return nil, wrapRead("list overlapping", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	var conds []string
	var args []interface{}

	if filter.UserID != 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.SpaceID != 0 {
		conds = append(conds, "space_id = ?")
		args = append(args, filter.SpaceID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(filter.Statuses)), ", ")
		conds = append(conds, "status IN ("+placeholders+")")
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}
	if !filter.From.IsZero() {
		conds = append(conds, "end_time > ?")
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		conds = append(conds, "start_time < ?")
		args = append(args, filter.To)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.queryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapRead("list bookings", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, wrapRead("scan booking", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapRead("iterate bookings", err)
	}
	return bookings, nil
}
