// Package hub keeps one authoritative, de-duplicated, user-scoped booking
// list in memory and projects it to any number of observers while holding at
// most one upstream change-feed subscription. It is an explicitly
// constructed instance with its own lifecycle, so tests can run isolated
// hubs side by side.
package hub

import (
	"context"
	"time"

	"deskhive/internal/domain"
	"deskhive/internal/metrics"
	"deskhive/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the snapshot every observer receives: the booking list plus the
// shared loading/error flags. Lists are copied on notify so observers can
// hold them across events.
type State struct {
	Bookings []*models.Booking
	Loading  bool
	Err      error
}

// Callback receives state snapshots. It runs on the hub's event goroutine,
// so it must not call back into the hub synchronously.
type Callback func(State)

// Hub fans a single upstream change-feed subscription out to many observers.
// All mutations are serialized through one goroutine: an observer never sees
// a state mixing two partially-applied events.
type Hub struct {
	reader      domain.StoreReader
	feed        domain.ChangeFeed
	logger      *zerolog.Logger
	idleTimeout time.Duration

	commands chan func()
	stopped  chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc

	// Everything below is touched only from the run loop.
	subscribers  map[string]Callback
	state        State
	activeUserID int64
	unsubscribe  func()
	idleTimer    *time.Timer
	loadSeq      int64
}

// Option tweaks hub construction.
type Option func(*Hub)

// WithIdleTimeout bounds how long the upstream subscription stays warm after
// the last observer detaches.
func WithIdleTimeout(d time.Duration) Option {
	return func(h *Hub) { h.idleTimeout = d }
}

func New(reader domain.StoreReader, feed domain.ChangeFeed, logger *zerolog.Logger, opts ...Option) *Hub {
	h := &Hub{
		reader:      reader,
		feed:        feed,
		logger:      logger,
		idleTimeout: models.HubIdleTimeout,
		commands:    make(chan func(), 64),
		stopped:     make(chan struct{}),
		subscribers: make(map[string]Callback),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start spawns the event loop. It must be called before Attach or SetUser.
func (h *Hub) Start(ctx context.Context) {
	h.ctx, h.cancel = context.WithCancel(ctx)
	go h.run()
}

// Stop tears down the upstream subscription and ends the event loop.
func (h *Hub) Stop() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.stopped
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.ctx.Done():
			h.teardownUpstream()
			return
		case cmd := <-h.commands:
			cmd()
		}
	}
}

// do schedules fn on the event loop; it is a no-op once the hub stopped.
func (h *Hub) do(fn func()) {
	select {
	case h.commands <- fn:
	case <-h.ctx.Done():
	}
}

// doWait schedules fn and blocks until it ran.
func (h *Hub) doWait(fn func()) {
	done := make(chan struct{})
	h.do(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-h.ctx.Done():
	}
}

// SetUser scopes the hub to a user. Switching identities tears down the
// existing upstream subscription before opening a new one, so feeds never
// leak across users.
func (h *Hub) SetUser(userID int64) {
	h.doWait(func() {
		if h.activeUserID == userID {
			return
		}
		h.teardownUpstream()
		h.activeUserID = userID
		h.state = State{}
		if len(h.subscribers) > 0 {
			h.openUpstream()
			h.startLoad()
		}
	})
}

// Attach registers an observer and synchronously delivers the current state.
// The first observer triggers the initial load and the upstream
// subscription. The returned function detaches the observer.
func (h *Hub) Attach(cb Callback) func() {
	token := uuid.NewString()
	h.doWait(func() {
		h.subscribers[token] = cb
		metrics.SetHubSubscribers(len(h.subscribers))
		cb(h.snapshotLocked())

		if h.idleTimer != nil {
			h.idleTimer.Stop()
			h.idleTimer = nil
		}
		if h.unsubscribe == nil {
			h.openUpstream()
			h.startLoad()
		}
	})

	return func() {
		h.do(func() {
			if _, ok := h.subscribers[token]; !ok {
				return
			}
			delete(h.subscribers, token)
			metrics.SetHubSubscribers(len(h.subscribers))
			if len(h.subscribers) == 0 {
				h.scheduleIdleTeardown()
			}
		})
	}
}

// Snapshot returns the current state without attaching.
func (h *Hub) Snapshot() State {
	var s State
	h.doWait(func() { s = h.snapshotLocked() })
	return s
}

func (h *Hub) snapshotLocked() State {
	bookings := make([]*models.Booking, len(h.state.Bookings))
	copy(bookings, h.state.Bookings)
	return State{Bookings: bookings, Loading: h.state.Loading, Err: h.state.Err}
}

func (h *Hub) notify() {
	snapshot := h.snapshotLocked()
	for _, cb := range h.subscribers {
		cb(snapshot)
	}
}

// startLoad fetches the full booking list off the event loop and posts the
// result back. A sequence number discards results that a user switch made
// stale while the fetch was in flight.
func (h *Hub) startLoad() {
	h.loadSeq++
	seq := h.loadSeq
	userID := h.activeUserID

	h.state.Loading = true
	h.state.Err = nil
	h.notify()

	go func() {
		bookings, err := h.reader.ListBookings(h.ctx, models.BookingFilter{UserID: userID})
		h.do(func() {
			if seq != h.loadSeq {
				return
			}
			h.state.Loading = false
			if err != nil {
				// Shared error field: every observer sees the same failure,
				// and any previously loaded list keeps being served.
				h.logger.Error().Err(err).Int64("user_id", userID).Msg("booking list load failed")
				h.state.Err = err
				h.notify()
				return
			}
			h.state.Err = nil
			h.state.Bookings = bookings
			h.notify()
		})
	}()
}

func (h *Hub) openUpstream() {
	if h.feed == nil || h.unsubscribe != nil {
		return
	}

	unsubscribe, err := h.feed.Subscribe(h.ctx, models.BookingsFeedTable, func(event models.ChangeEvent) {
		h.do(func() { h.applyEvent(event) })
	})
	if err != nil {
		// Keep serving last-known state; a later attach or user switch
		// retries the subscription.
		h.logger.Error().Err(err).Msg("change feed subscription failed")
		return
	}
	h.unsubscribe = unsubscribe
}

func (h *Hub) teardownUpstream() {
	if h.idleTimer != nil {
		h.idleTimer.Stop()
		h.idleTimer = nil
	}
	if h.unsubscribe != nil {
		h.unsubscribe()
		h.unsubscribe = nil
	}
	h.loadSeq++ // discard in-flight loads
}

// scheduleIdleTeardown keeps the upstream warm for fast remount, bounded by
// the idle timeout.
func (h *Hub) scheduleIdleTeardown() {
	if h.idleTimer != nil {
		h.idleTimer.Stop()
	}
	h.idleTimer = time.AfterFunc(h.idleTimeout, func() {
		h.do(func() {
			if len(h.subscribers) == 0 {
				h.teardownUpstream()
			}
		})
	})
}

func (h *Hub) applyEvent(event models.ChangeEvent) {
	switch event.Op {
	case models.OpInsert:
		if event.Row == nil || event.Row.UserID != h.activeUserID {
			return
		}
		h.upsert(event.Row, true)
		h.notify()

	case models.OpUpdate:
		if event.Row == nil || event.Row.UserID != h.activeUserID {
			return
		}
		h.upsert(event.Row, false)
		h.notify()

	case models.OpDelete:
		// Delete payloads may omit non-key fields, so ownership cannot be
		// re-verified from the event; local existence is the ownership
		// proxy. Unknown ids change nothing and notify no one.
		id := event.RowID()
		if id == 0 || !h.remove(id) {
			return
		}
		h.notify()

	default:
		h.logger.Warn().Str("op", event.Op).Msg("ignoring unknown feed op")
	}
}

// upsert replaces the entry with a matching id, or inserts the row —
// prepending when prepend is set. Applying the same INSERT twice therefore
// leaves exactly one entry.
func (h *Hub) upsert(row *models.Booking, prepend bool) {
	for i, existing := range h.state.Bookings {
		if existing.ID == row.ID {
			h.state.Bookings[i] = row
			return
		}
	}
	if prepend {
		h.state.Bookings = append([]*models.Booking{row}, h.state.Bookings...)
		return
	}
	h.state.Bookings = append(h.state.Bookings, row)
}

func (h *Hub) remove(id int64) bool {
	for i, existing := range h.state.Bookings {
		if existing.ID == id {
			h.state.Bookings = append(h.state.Bookings[:i], h.state.Bookings[i+1:]...)
			return true
		}
	}
	return false
}
