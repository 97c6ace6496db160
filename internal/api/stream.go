package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"deskhive/internal/hub"
	"deskhive/internal/models"
)

type streamFrame struct {
	Bookings []*models.Booking `json:"bookings"`
	Loading  bool              `json:"loading"`
	Error    string            `json:"error,omitempty"`
}

// streamBookings projects a sync hub over server-sent events: one frame per
// hub notification, starting with the current snapshot. Each user gets their
// own hub from the pool, so a stream only ever carries its own user's
// bookings; within a user any number of streams share one hub and one
// upstream feed subscription.
func (s *HTTPServer) streamBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.hubs == nil {
		writeError(w, http.StatusServiceUnavailable, "realtime stream is not enabled")
		return
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	userHub := s.hubs.ForUser(userID)
	rc := http.NewResponseController(w)

	// Buffered so a slow client skews, not blocks, the hub's event loop;
	// frames are full snapshots, dropping one loses nothing.
	frames := make(chan hub.State, 8)
	detach := userHub.Attach(func(state hub.State) {
		select {
		case frames <- state:
		default:
		}
	})
	defer detach()

	for {
		select {
		case <-r.Context().Done():
			return
		case state := <-frames:
			frame := streamFrame{Bookings: state.Bookings, Loading: state.Loading}
			if state.Err != nil {
				frame.Error = state.Err.Error()
			}
			raw, err := json.Marshal(frame)
			if err != nil {
				continue
			}
			// Rolling deadline: each frame gets a fresh write budget, so a
			// healthy stream outlives any fixed timeout while a stalled
			// client is still cut off.
			_ = rc.SetWriteDeadline(time.Now().Add(responseWriteTimeout))
			if _, err := w.Write([]byte("data: " + string(raw) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
