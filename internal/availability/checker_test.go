package availability

import (
	"context"
	"testing"
	"time"

	"deskhive/internal/database"
	"deskhive/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetSpace(ctx context.Context, id int64) (*models.Space, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Space), args.Error(1)
}

func (m *mockStore) ListActiveSpaces(ctx context.Context) ([]*models.Space, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Space), args.Error(1)
}

func (m *mockStore) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockStore) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockStore) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockStore) ListOverlapping(ctx context.Context, spaceID int64, window models.Window) ([]*models.Booking, error) {
	args := m.Called(ctx, spaceID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func testWindow() models.Window {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return models.Window{Start: start, End: start.Add(2 * time.Hour)}
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestCheckAvailable(t *testing.T) {
	store := new(mockStore)
	store.On("GetSpace", mock.Anything, int64(1)).
		Return(&models.Space{ID: 1, Capacity: 3, IsActive: true}, nil)
	store.On("ListOverlapping", mock.Anything, int64(1), mock.Anything).
		Return([]*models.Booking{{ID: 7}}, nil)

	checker := NewChecker(store, nopLogger())
	result := checker.Check(context.Background(), 1, testWindow())

	assert.True(t, result.Available)
	assert.Equal(t, 2, result.AvailableCapacity)
	assert.Equal(t, 3, result.TotalCapacity)
	store.AssertExpectations(t)
}

func TestCheckFull(t *testing.T) {
	store := new(mockStore)
	store.On("GetSpace", mock.Anything, int64(1)).
		Return(&models.Space{ID: 1, Capacity: 1, IsActive: true}, nil)
	store.On("ListOverlapping", mock.Anything, int64(1), mock.Anything).
		Return([]*models.Booking{{ID: 7}}, nil)

	checker := NewChecker(store, nopLogger())
	result := checker.Check(context.Background(), 1, testWindow())

	assert.False(t, result.Available)
	assert.Equal(t, 0, result.AvailableCapacity)
}

func TestCheckOversoldClampsToZero(t *testing.T) {
	store := new(mockStore)
	store.On("GetSpace", mock.Anything, int64(1)).
		Return(&models.Space{ID: 1, Capacity: 1, IsActive: true}, nil)
	store.On("ListOverlapping", mock.Anything, int64(1), mock.Anything).
		Return([]*models.Booking{{ID: 7}, {ID: 8}}, nil)

	checker := NewChecker(store, nopLogger())
	result := checker.Check(context.Background(), 1, testWindow())

	assert.False(t, result.Available)
	assert.Equal(t, 0, result.AvailableCapacity)
}

func TestCheckInactiveSpace(t *testing.T) {
	store := new(mockStore)
	store.On("GetSpace", mock.Anything, int64(3)).
		Return(&models.Space{ID: 3, Capacity: 2, IsActive: false}, nil)

	checker := NewChecker(store, nopLogger())
	result := checker.Check(context.Background(), 3, testWindow())

	assert.False(t, result.Available)
	assert.Equal(t, 0, result.AvailableCapacity)
	assert.Equal(t, 2, result.TotalCapacity)
	store.AssertNotCalled(t, "ListOverlapping", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckFailsOpenOnPersistentSpaceError(t *testing.T) {
	store := new(mockStore)
	store.On("GetSpace", mock.Anything, int64(1)).
		Return(nil, database.ErrTransient)

	checker := NewChecker(store, nopLogger())
	result := checker.Check(context.Background(), 1, testWindow())

	assert.Equal(t, models.FailOpenAvailability(), result)
	store.AssertNumberOfCalls(t, "GetSpace", models.StoreReadAttempts)
}

func TestCheckFailsOpenOnOverlapError(t *testing.T) {
	store := new(mockStore)
	store.On("GetSpace", mock.Anything, int64(1)).
		Return(&models.Space{ID: 1, Capacity: 2, IsActive: true}, nil)
	store.On("ListOverlapping", mock.Anything, int64(1), mock.Anything).
		Return(nil, database.ErrTransient)

	checker := NewChecker(store, nopLogger())
	result := checker.Check(context.Background(), 1, testWindow())

	assert.Equal(t, models.FailOpenAvailability(), result)
}

func TestCheckRecoversAfterTransientError(t *testing.T) {
	store := new(mockStore)
	store.On("GetSpace", mock.Anything, int64(1)).
		Return(nil, database.ErrTransient).Once()
	store.On("GetSpace", mock.Anything, int64(1)).
		Return(&models.Space{ID: 1, Capacity: 2, IsActive: true}, nil)
	store.On("ListOverlapping", mock.Anything, int64(1), mock.Anything).
		Return([]*models.Booking{}, nil)

	checker := NewChecker(store, nopLogger())
	result := checker.Check(context.Background(), 1, testWindow())

	assert.True(t, result.Available)
	assert.Equal(t, 2, result.AvailableCapacity)
}

func TestCheckInvalidWindow(t *testing.T) {
	store := new(mockStore)
	checker := NewChecker(store, nopLogger())

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	result := checker.Check(context.Background(), 1, models.Window{Start: start, End: start})

	assert.False(t, result.Available)
	store.AssertNotCalled(t, "GetSpace", mock.Anything, mock.Anything)
}
