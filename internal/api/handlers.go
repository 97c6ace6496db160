package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"deskhive/internal/database"
	"deskhive/internal/models"
	"deskhive/internal/pricing"
	"deskhive/internal/service"
)

func (s *HTTPServer) handleSpaces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	spaces, err := s.reader.ListActiveSpaces(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list spaces")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"spaces": spaces})
}

// handleSpaceSubresource routes /api/v1/spaces/{id}/slots.
func (s *HTTPServer) handleSpaceSubresource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/spaces/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "slots" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	spaceID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid space id")
		return
	}

	space, err := s.reader.GetSpace(r.Context(), spaceID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "space not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load space")
		return
	}

	options, err := pricing.SlotOptions(space)
	if errors.Is(err, pricing.ErrInvalidPricingConfiguration) {
		writeError(w, http.StatusConflict, "space pricing is not configured")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build slots")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"space_id": spaceID, "slots": options})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	spaceID, err := strconv.ParseInt(q.Get("space_id"), 10, 64)
	if err != nil || spaceID <= 0 {
		writeError(w, http.StatusBadRequest, "space_id is required")
		return
	}

	date, err := time.Parse("2006-01-02", q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	duration := 24
	if raw := q.Get("duration_hours"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil || duration < 0 {
			writeError(w, http.StatusBadRequest, "invalid duration_hours")
			return
		}
	}

	result := s.avail.GetOrCompute(r.Context(), date, spaceID, duration)
	writeJSON(w, http.StatusOK, result)
}

type createBookingRequest struct {
	SpaceID   int64     `json:"space_id"`
	UserID    int64     `json:"user_id"`
	UserEmail string    `json:"user_email"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createBooking(w, r)
	case http.MethodGet:
		s.listBookings(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SpaceID <= 0 || req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "space_id and user_id are required")
		return
	}

	booking, paymentURL, err := s.bookings.Create(r.Context(), service.CreateRequest{
		SpaceID:   req.SpaceID,
		UserID:    req.UserID,
		UserEmail: req.UserEmail,
		Window:    models.Window{Start: req.StartTime, End: req.EndTime},
	})
	if err != nil {
		s.writeBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"booking":     booking,
		"payment_url": paymentURL,
	})
}

func (s *HTTPServer) listBookings(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	bookings, err := s.bookings.ListUserBookings(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

type cancelBookingRequest struct {
	UserID  int64 `json:"user_id"`
	IsAdmin bool  `json:"is_admin"`
}

// handleBookingSubresource routes /api/v1/bookings/{id}/cancel.
func (s *HTTPServer) handleBookingSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	parts := strings.Split(rest, "/")

	if parts[0] == "stream" {
		s.streamBookings(w, r)
		return
	}

	bookingID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		booking, err := s.bookings.GetBooking(r.Context(), bookingID)
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load booking")
			return
		}
		writeJSON(w, http.StatusOK, booking)

	case len(parts) == 2 && parts[1] == "cancel" && r.Method == http.MethodPost:
		var req cancelBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		err := s.bookings.Cancel(r.Context(), bookingID, service.Actor{UserID: req.UserID, IsAdmin: req.IsAdmin})
		if err != nil {
			s.writeBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": models.StatusCancelled})

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

type paymentWebhookRequest struct {
	BookingReference string `json:"booking_reference"`
	Status           string `json:"status"`
}

// handlePaymentWebhook is the payment collaborator's entry point. A
// succeeded checkout confirms the pending booking; anything else is
// acknowledged and ignored.
func (s *HTTPServer) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req paymentWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BookingReference == "" {
		writeError(w, http.StatusBadRequest, "booking_reference is required")
		return
	}

	if req.Status != "succeeded" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	booking, err := s.bookings.ConfirmByReference(r.Context(), req.BookingReference)
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": booking.Status, "booking_id": booking.ID})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=bookings_%s_%s.xlsx",
		from.Format("20060102"), to.Format("20060102")))

	if err := s.exporter.WriteRange(r.Context(), w, from, to); err != nil {
		s.logger.Error().Err(err).Msg("export failed")
	}
}

// writeBookingError maps the engine's error taxonomy onto HTTP statuses and
// the two user-visible messages: a specific conflict for capacity, a generic
// "cannot be modified" for transition errors.
func (s *HTTPServer) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, "this space is no longer available for the selected time")
	case errors.Is(err, database.ErrSpaceInactive):
		writeError(w, http.StatusConflict, "this space is not open for booking")
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "this booking cannot be modified")
	case errors.Is(err, service.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "you may not modify this booking")
	case errors.Is(err, service.ErrInvalidWindow), errors.Is(err, service.ErrPastDate), errors.Is(err, service.ErrDateTooFar):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pricing.ErrInvalidPricingConfiguration):
		writeError(w, http.StatusConflict, "space pricing is not configured")
	default:
		writeError(w, http.StatusInternalServerError, "request failed")
	}
}
