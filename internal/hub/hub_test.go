package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"deskhive/internal/events"
	"deskhive/internal/feed"
	"deskhive/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubReader serves canned booking lists per user and counts calls.
type stubReader struct {
	mu       sync.Mutex
	byUser   map[int64][]*models.Booking
	listErr  error
	listened int
}

func (s *stubReader) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listened++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.byUser[filter.UserID], nil
}

func (s *stubReader) listCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listened
}

func (s *stubReader) GetSpace(ctx context.Context, id int64) (*models.Space, error) {
	return nil, errors.New("not implemented")
}

func (s *stubReader) ListActiveSpaces(ctx context.Context) ([]*models.Space, error) {
	return nil, errors.New("not implemented")
}

func (s *stubReader) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return nil, errors.New("not implemented")
}

func (s *stubReader) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	return nil, errors.New("not implemented")
}

func (s *stubReader) ListOverlapping(ctx context.Context, spaceID int64, window models.Window) ([]*models.Booking, error) {
	return nil, errors.New("not implemented")
}

type hubFixture struct {
	hub    *Hub
	reader *stubReader
	feed   *feed.BusFeed
}

func newHubFixture(t *testing.T, opts ...Option) *hubFixture {
	t.Helper()
	logger := zerolog.Nop()

	reader := &stubReader{byUser: map[int64][]*models.Booking{
		100: {
			{ID: 1, UserID: 100, Status: models.StatusConfirmed},
			{ID: 2, UserID: 100, Status: models.StatusPending},
		},
		200: {
			{ID: 3, UserID: 200, Status: models.StatusPending},
		},
	}}

	busFeed := feed.NewBusFeed(events.NewEventBus(), &logger)

	h := New(reader, busFeed, &logger, opts...)
	h.Start(context.Background())
	t.Cleanup(h.Stop)

	return &hubFixture{hub: h, reader: reader, feed: busFeed}
}

// statesOf collects every snapshot an observer receives.
type statesOf struct {
	mu     sync.Mutex
	states []State
}

func (c *statesOf) cb(s State) {
	c.mu.Lock()
	c.states = append(c.states, s)
	c.mu.Unlock()
}

func (c *statesOf) first() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.states) == 0 {
		return State{}
	}
	return c.states[0]
}

func (c *statesOf) last() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.states) == 0 {
		return State{}
	}
	return c.states[len(c.states)-1]
}

func waitLoaded(t *testing.T, h *Hub) State {
	t.Helper()
	var s State
	require.Eventually(t, func() bool {
		s = h.Snapshot()
		return !s.Loading
	}, 2*time.Second, 5*time.Millisecond)
	return s
}

func publish(t *testing.T, f *feed.BusFeed, event models.ChangeEvent) {
	t.Helper()
	require.NoError(t, f.Publish(context.Background(), models.BookingsFeedTable, event))
}

func TestAttachDeliversSnapshotAndLoads(t *testing.T) {
	fx := newHubFixture(t)
	fx.hub.SetUser(100)

	var got statesOf
	detach := fx.hub.Attach(got.cb)
	defer detach()

	// The synchronous snapshot arrives before the load completes.
	assert.Empty(t, got.first().Bookings)

	s := waitLoaded(t, fx.hub)
	require.Len(t, s.Bookings, 2)
	assert.Equal(t, int64(1), s.Bookings[0].ID)
}

func TestInsertEventPrependsForActiveUser(t *testing.T) {
	fx := newHubFixture(t)
	fx.hub.SetUser(100)
	detach := fx.hub.Attach(func(State) {})
	defer detach()
	waitLoaded(t, fx.hub)

	publish(t, fx.feed, models.ChangeEvent{
		Op:  models.OpInsert,
		Row: &models.Booking{ID: 9, UserID: 100, Status: models.StatusPending},
	})

	s := fx.hub.Snapshot()
	require.Len(t, s.Bookings, 3)
	assert.Equal(t, int64(9), s.Bookings[0].ID)
}

func TestInsertEventIsIdempotent(t *testing.T) {
	fx := newHubFixture(t)
	fx.hub.SetUser(100)
	detach := fx.hub.Attach(func(State) {})
	defer detach()
	waitLoaded(t, fx.hub)

	event := models.ChangeEvent{
		Op:  models.OpInsert,
		Row: &models.Booking{ID: 9, UserID: 100, Status: models.StatusPending},
	}
	publish(t, fx.feed, event)
	publish(t, fx.feed, event)

	s := fx.hub.Snapshot()
	assert.Len(t, s.Bookings, 3)
}

func TestInsertEventIgnoredForOtherUsers(t *testing.T) {
	fx := newHubFixture(t)
	fx.hub.SetUser(100)
	detach := fx.hub.Attach(func(State) {})
	defer detach()
	waitLoaded(t, fx.hub)

	publish(t, fx.feed, models.ChangeEvent{
		Op:  models.OpInsert,
		Row: &models.Booking{ID: 9, UserID: 999, Status: models.StatusPending},
	})

	s := fx.hub.Snapshot()
	assert.Len(t, s.Bookings, 2)
}

func TestUpdateEventReplacesInPlace(t *testing.T) {
	fx := newHubFixture(t)
	fx.hub.SetUser(100)
	detach := fx.hub.Attach(func(State) {})
	defer detach()
	waitLoaded(t, fx.hub)

	publish(t, fx.feed, models.ChangeEvent{
		Op:  models.OpUpdate,
		Row: &models.Booking{ID: 2, UserID: 100, Status: models.StatusCancelled},
	})

	s := fx.hub.Snapshot()
	require.Len(t, s.Bookings, 2)
	assert.Equal(t, models.StatusCancelled, s.Bookings[1].Status)
}

// An UPDATE for a row the hub never saw still lands in the list: the feed may
// deliver an update before the initial load caught the row.
func TestUpdateEventInsertsUnknownRow(t *testing.T) {
	fx := newHubFixture(t)
	fx.hub.SetUser(100)
	detach := fx.hub.Attach(func(State) {})
	defer detach()
	waitLoaded(t, fx.hub)

	publish(t, fx.feed, models.ChangeEvent{
		Op:  models.OpUpdate,
		Row: &models.Booking{ID: 42, UserID: 100, Status: models.StatusConfirmed},
	})

	s := fx.hub.Snapshot()
	require.Len(t, s.Bookings, 3)
	assert.Equal(t, int64(42), s.Bookings[2].ID)
}

func TestDeleteEventRemovesLocalRow(t *testing.T) {
	fx := newHubFixture(t)
	fx.hub.SetUser(100)
	detach := fx.hub.Attach(func(State) {})
	defer detach()
	waitLoaded(t, fx.hub)

	publish(t, fx.feed, models.ChangeEvent{
		Op:     models.OpDelete,
		OldRow: &models.Booking{ID: 1},
	})

	s := fx.hub.Snapshot()
	require.Len(t, s.Bookings, 1)
	assert.Equal(t, int64(2), s.Bookings[0].ID)
}

func TestDeleteEventForUnknownRowNotifiesNoOne(t *testing.T) {
	fx := newHubFixture(t)
	fx.hub.SetUser(100)

	var got statesOf
	detach := fx.hub.Attach(got.cb)
	defer detach()
	waitLoaded(t, fx.hub)

	got.mu.Lock()
	before := len(got.states)
	got.mu.Unlock()

	publish(t, fx.feed, models.ChangeEvent{
		Op:     models.OpDelete,
		OldRow: &models.Booking{ID: 777},
	})

	// Drain the event loop, then confirm no extra notification happened.
	s := fx.hub.Snapshot()
	assert.Len(t, s.Bookings, 2)

	got.mu.Lock()
	defer got.mu.Unlock()
	assert.Equal(t, before, len(got.states))
}

func TestSetUserSwitchesScope(t *testing.T) {
	fx := newHubFixture(t)
	fx.hub.SetUser(100)

	var got statesOf
	detach := fx.hub.Attach(got.cb)
	defer detach()
	waitLoaded(t, fx.hub)

	fx.hub.SetUser(200)
	s := waitLoaded(t, fx.hub)

	require.Len(t, s.Bookings, 1)
	assert.Equal(t, int64(3), s.Bookings[0].ID)

	// Events for the previous user no longer apply.
	publish(t, fx.feed, models.ChangeEvent{
		Op:  models.OpInsert,
		Row: &models.Booking{ID: 9, UserID: 100},
	})
	assert.Len(t, fx.hub.Snapshot().Bookings, 1)
}

func TestSetUserSameUserIsNoOp(t *testing.T) {
	fx := newHubFixture(t)
	fx.hub.SetUser(100)
	detach := fx.hub.Attach(func(State) {})
	defer detach()
	waitLoaded(t, fx.hub)

	calls := fx.reader.listCalls()
	fx.hub.SetUser(100)

	assert.Equal(t, calls, fx.reader.listCalls())
	assert.Len(t, fx.hub.Snapshot().Bookings, 2)
}

func TestLoadErrorIsShared(t *testing.T) {
	fx := newHubFixture(t)
	fx.hub.SetUser(100)

	var got statesOf
	detach := fx.hub.Attach(got.cb)
	defer detach()
	waitLoaded(t, fx.hub)

	// Fail the reload triggered by a second observer joining after teardown.
	fx.reader.mu.Lock()
	fx.reader.listErr = errors.New("store down")
	fx.reader.mu.Unlock()

	fx.hub.SetUser(200)
	s := waitLoaded(t, fx.hub)

	assert.Error(t, s.Err)
	// The stale list was reset by the user switch; the error is what remains.
	assert.Empty(t, s.Bookings)
}

func TestIdleTeardownReloadsOnReattach(t *testing.T) {
	fx := newHubFixture(t, WithIdleTimeout(20*time.Millisecond))
	fx.hub.SetUser(100)

	detach := fx.hub.Attach(func(State) {})
	waitLoaded(t, fx.hub)
	calls := fx.reader.listCalls()

	detach()
	time.Sleep(60 * time.Millisecond)

	// Reattaching after the idle teardown re-subscribes and reloads.
	detach2 := fx.hub.Attach(func(State) {})
	defer detach2()
	waitLoaded(t, fx.hub)

	assert.Greater(t, fx.reader.listCalls(), calls)
}

func TestDetachWithinIdleWindowKeepsSubscription(t *testing.T) {
	fx := newHubFixture(t, WithIdleTimeout(time.Minute))
	fx.hub.SetUser(100)

	detach := fx.hub.Attach(func(State) {})
	waitLoaded(t, fx.hub)
	calls := fx.reader.listCalls()

	detach()

	// Within the idle window the subscription and state stay warm: a new
	// observer gets the list synchronously without a reload.
	var got statesOf
	detach2 := fx.hub.Attach(got.cb)
	defer detach2()

	assert.Len(t, got.first().Bookings, 2)
	assert.Equal(t, calls, fx.reader.listCalls())
}

func TestStopWithoutStartIsSafe(t *testing.T) {
	logger := zerolog.Nop()
	h := New(&stubReader{}, nil, &logger)
	h.Stop()
}
