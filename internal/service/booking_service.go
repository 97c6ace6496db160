package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"deskhive/internal/database"
	"deskhive/internal/domain"
	"deskhive/internal/events"
	"deskhive/internal/metrics"
	"deskhive/internal/models"
	"deskhive/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Actor identifies who is requesting a lifecycle change.
type Actor struct {
	UserID  int64
	IsAdmin bool
}

// CreateRequest carries everything needed to reserve a space.
type CreateRequest struct {
	SpaceID   int64
	UserID    int64
	UserEmail string
	Window    models.Window
}

// BookingService governs the booking lifecycle: pending → confirmed →
// completed, with cancellation from the two non-terminal states. Write-time
// capacity enforcement is delegated to the store's transactional insert.
type BookingService struct {
	reader         domain.StoreReader
	writer         domain.StoreWriter
	checker        domain.AvailabilityChecker
	eventBus       domain.EventPublisher
	outbox         domain.FeedOutbox
	payments       domain.PaymentProvider
	invalidator    domain.CacheInvalidator
	maxBookingDays int
	logger         *zerolog.Logger
	now            func() time.Time
}

func NewBookingService(
	reader domain.StoreReader,
	writer domain.StoreWriter,
	checker domain.AvailabilityChecker,
	eventBus domain.EventPublisher,
	outbox domain.FeedOutbox,
	payments domain.PaymentProvider,
	invalidator domain.CacheInvalidator,
	maxBookingDays int,
	logger *zerolog.Logger,
) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = 365
	}
	return &BookingService{
		reader:         reader,
		writer:         writer,
		checker:        checker,
		eventBus:       eventBus,
		outbox:         outbox,
		payments:       payments,
		invalidator:    invalidator,
		maxBookingDays: maxBookingDays,
		logger:         logger,
		now:            time.Now,
	}
}

// ValidateWindow applies the structural and horizon checks shared by create
// paths.
func (s *BookingService) ValidateWindow(window models.Window) error {
	if !window.Valid() {
		return ErrInvalidWindow
	}

	now := s.now()
	if window.Start.Before(now.AddDate(0, 0, -1)) {
		return ErrPastDate
	}
	if window.Start.After(now.AddDate(0, 0, s.maxBookingDays)) {
		return ErrDateTooFar
	}
	return nil
}

// Create reserves a space for the requested window. The advisory check runs
// first for a fast conflict answer, but the transactional insert is the
// correctness gate: its rejection means capacity was not actually there.
// On success the booking is pending and a payment session URL is returned
// when the collaborator is reachable.
func (s *BookingService) Create(ctx context.Context, req CreateRequest) (*models.Booking, string, error) {
	if err := s.ValidateWindow(req.Window); err != nil {
		return nil, "", err
	}

	space, err := s.reader.GetSpace(ctx, req.SpaceID)
	if err != nil {
		return nil, "", err
	}

	result := s.checker.Check(ctx, req.SpaceID, req.Window)
	if !result.Available {
		return nil, "", fmt.Errorf("space %d advisory check: %w", req.SpaceID, database.ErrCapacityExceeded)
	}

	quote, err := pricing.ComputePrice(space, req.Window)
	if err != nil {
		return nil, "", err
	}

	booking := &models.Booking{
		Reference:     uuid.NewString(),
		SpaceID:       space.ID,
		SpaceName:     space.Name,
		UserID:        req.UserID,
		UserEmail:     req.UserEmail,
		StartTime:     req.Window.Start,
		EndTime:       req.Window.End,
		Status:        models.StatusPending,
		TotalPriceHT:  quote.PriceHT,
		TotalPriceTTC: quote.PriceTTC,
	}

	if err := s.writer.InsertBooking(ctx, booking); err != nil {
		return nil, "", err
	}

	metrics.IncBookingCreated(space.PricingType)
	s.publishEvent(events.EventBookingCreated, booking, "user")
	s.emitChange(ctx, models.OpInsert, booking)
	s.invalidate(ctx, booking)

	sessionURL := s.openPaymentSession(ctx, booking)

	return booking, sessionURL, nil
}

// Confirm flips a pending booking to confirmed. Only the payment
// collaborator calls this, never a user action.
func (s *BookingService) Confirm(ctx context.Context, bookingID int64) error {
	booking, err := s.reader.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if booking.Status != models.StatusPending {
		return fmt.Errorf("confirm booking %d from %s: %w", bookingID, booking.Status, ErrInvalidTransition)
	}

	if err := s.writer.UpdateBookingStatus(ctx, bookingID, booking.Version, models.StatusConfirmed); err != nil {
		return err
	}

	booking.Status = models.StatusConfirmed
	booking.Version++

	metrics.IncStatusTransition(models.StatusConfirmed)
	s.publishEvent(events.EventBookingConfirmed, booking, "payment")
	s.emitChange(ctx, models.OpUpdate, booking)
	s.invalidate(ctx, booking)

	return nil
}

// ConfirmByReference resolves the payment collaborator's reference before
// confirming.
func (s *BookingService) ConfirmByReference(ctx context.Context, reference string) (*models.Booking, error) {
	booking, err := s.reader.GetBookingByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if err := s.Confirm(ctx, booking.ID); err != nil {
		return nil, err
	}
	booking.Status = models.StatusConfirmed
	return booking, nil
}

// Cancel moves a booking to cancelled when the actor owns it (or is admin)
// and the booking is still effectively modifiable. A confirmed booking whose
// window has elapsed reads as completed and is terminal even though the
// persisted status still says confirmed.
func (s *BookingService) Cancel(ctx context.Context, bookingID int64, actor Actor) error {
	booking, err := s.reader.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if !actor.IsAdmin && actor.UserID != booking.UserID {
		return fmt.Errorf("booking %d: %w", bookingID, ErrPermissionDenied)
	}

	effective := booking.EffectiveStatus(s.now())
	if !models.CanModify(effective) {
		return fmt.Errorf("cancel booking %d from %s: %w", bookingID, effective, ErrInvalidTransition)
	}

	if err := s.writer.UpdateBookingStatus(ctx, bookingID, booking.Version, models.StatusCancelled); err != nil {
		return err
	}

	booking.Status = models.StatusCancelled
	booking.Version++

	metrics.IncStatusTransition(models.StatusCancelled)
	changedBy := "user"
	if actor.IsAdmin {
		changedBy = "admin"
	}
	s.publishEvent(events.EventBookingCancelled, booking, changedBy)
	s.emitChange(ctx, models.OpUpdate, booking)
	s.invalidate(ctx, booking)

	return nil
}

// GetBooking reads one booking with its effective status applied.
func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.reader.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	booking.Status = booking.EffectiveStatus(s.now())
	return booking, nil
}

// ListUserBookings lists a user's bookings with effective statuses applied.
func (s *BookingService) ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	bookings, err := s.reader.ListBookings(ctx, models.BookingFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, b := range bookings {
		b.Status = b.EffectiveStatus(now)
	}
	return bookings, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedBy string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:     booking.ID,
		Reference:     booking.Reference,
		SpaceID:       booking.SpaceID,
		SpaceName:     booking.SpaceName,
		UserID:        booking.UserID,
		Status:        booking.Status,
		StartTime:     booking.StartTime,
		EndTime:       booking.EndTime,
		TotalPriceTTC: booking.TotalPriceTTC,
		ChangedBy:     changedBy,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) emitChange(ctx context.Context, op string, booking *models.Booking) {
	if s.outbox == nil {
		return
	}

	snapshot := *booking
	event := models.ChangeEvent{Op: op, Row: &snapshot, At: s.now()}
	if err := s.outbox.EnqueueChange(ctx, models.BookingsFeedTable, event); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("op", op).Msg("change feed enqueue error")
	}
}

func (s *BookingService) invalidate(ctx context.Context, booking *models.Booking) {
	if s.invalidator == nil {
		return
	}
	window := models.Window{Start: booking.StartTime, End: booking.EndTime}
	if err := s.invalidator.InvalidateWindow(ctx, booking.SpaceID, window); err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", booking.ID).Msg("availability cache invalidation error")
	}
}

func (s *BookingService) openPaymentSession(ctx context.Context, booking *models.Booking) string {
	if s.payments == nil {
		return ""
	}

	session, err := s.payments.CreatePaymentSession(ctx, models.PaymentSessionRequest{
		BookingReference: booking.Reference,
		AmountCents:      int64(math.Round(booking.TotalPriceTTC * 100)),
		PayerEmail:       booking.UserEmail,
		Metadata: map[string]string{
			"space_id":   fmt.Sprintf("%d", booking.SpaceID),
			"booking_id": fmt.Sprintf("%d", booking.ID),
		},
	})
	if err != nil {
		// The booking stays pending; confirmation can still arrive through
		// a retried checkout.
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("payment session creation failed")
		return ""
	}
	return session.URL
}
