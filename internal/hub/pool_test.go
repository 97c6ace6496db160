package hub

import (
	"context"
	"testing"

	"deskhive/internal/events"
	"deskhive/internal/feed"
	"deskhive/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPoolFixture(t *testing.T, opts ...Option) (*Pool, *feed.BusFeed) {
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

	pool := NewPool(reader, busFeed, &logger, opts...)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	return pool, busFeed
}

func TestPoolReturnsSameHubPerUser(t *testing.T) {
	pool, _ := newPoolFixture(t)

	first := pool.ForUser(100)
	second := pool.ForUser(100)
	other := pool.ForUser(200)

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
}

func TestPoolIsolatesUsers(t *testing.T) {
	pool, busFeed := newPoolFixture(t)

	hubA := pool.ForUser(100)
	hubB := pool.ForUser(200)

	var gotA statesOf
	detachA := hubA.Attach(gotA.cb)
	defer detachA()
	var gotB statesOf
	detachB := hubB.Attach(gotB.cb)
	defer detachB()

	waitLoaded(t, hubA)
	waitLoaded(t, hubB)

	// A booking for user 200 must never surface through user 100's hub.
	publish(t, busFeed, models.ChangeEvent{
		Op:  models.OpInsert,
		Row: &models.Booking{ID: 9, UserID: 200, Status: models.StatusPending},
	})

	sB := waitLoaded(t, hubB)
	require.Len(t, sB.Bookings, 2)
	assert.Equal(t, int64(9), sB.Bookings[0].ID)

	sA := hubA.Snapshot()
	require.Len(t, sA.Bookings, 2)
	for _, b := range sA.Bookings {
		assert.Equal(t, int64(100), b.UserID)
	}
}

func TestPoolStopTearsDownHubs(t *testing.T) {
	pool, _ := newPoolFixture(t)

	h := pool.ForUser(100)
	waitLoaded(t, h)

	pool.Stop()
	// Stopped hubs no longer accept commands; Snapshot must not hang.
	assert.Empty(t, h.Snapshot().Bookings)
}
