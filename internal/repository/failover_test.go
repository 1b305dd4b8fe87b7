package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"maitred/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSnapshots struct {
	mock.Mock
}

func (m *mockSnapshots) GetDay(ctx context.Context, restaurantID int64, date string) (*models.DayAvailability, error) {
	args := m.Called(ctx, restaurantID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DayAvailability), args.Error(1)
}

func (m *mockSnapshots) SetDay(ctx context.Context, day *models.DayAvailability) error {
	args := m.Called(ctx, day)
	return args.Error(0)
}

func (m *mockSnapshots) InvalidateDay(ctx context.Context, restaurantID int64, date string) error {
	args := m.Called(ctx, restaurantID, date)
	return args.Error(0)
}

func TestFailoverSnapshotRepository(t *testing.T) {
	primary := new(mockSnapshots)
	fallback := new(mockSnapshots)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverSnapshotRepository(primary, fallback, &logger)
	ctx := context.Background()

	day := &models.DayAvailability{RestaurantID: 1, Date: "2026-09-01"}

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("GetDay", ctx, int64(1), "2026-09-01").Return(day, nil).Once()

		got, err := repo.GetDay(ctx, 1, "2026-09-01")
		assert.NoError(t, err)
		assert.Equal(t, day, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("GetDay", ctx, int64(1), "2026-09-02").Return(nil, errors.New("fail")).Once()
		fallback.On("GetDay", ctx, int64(1), "2026-09-02").Return(day, nil).Once()

		got, err := repo.GetDay(ctx, 1, "2026-09-02")
		assert.NoError(t, err)
		assert.Equal(t, day, got)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("GetDay", ctx, int64(1), "2026-09-03").Return(day, nil).Once()

		got, err := repo.GetDay(ctx, 1, "2026-09-03")
		assert.NoError(t, err)
		assert.Equal(t, day, got)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("GetDay", ctx, int64(1), "2026-09-04").Return(nil, errors.New("still fail")).Once()
		fallback.On("GetDay", ctx, int64(1), "2026-09-04").Return(nil, nil).Once()

		_, err := repo.GetDay(ctx, 1, "2026-09-04")
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetDaySuccess", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("SetDay", ctx, day).Return(nil).Once()

		assert.NoError(t, repo.SetDay(ctx, day))
		primary.AssertExpectations(t)
	})

	t.Run("SetDayFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("SetDay", ctx, day).Return(errors.New("fail")).Once()
		fallback.On("SetDay", ctx, day).Return(nil).Once()

		assert.NoError(t, repo.SetDay(ctx, day))
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetDayAlreadyDown", func(t *testing.T) {
		repo.isDown.Store(true)
		fallback.On("SetDay", ctx, day).Return(nil).Once()

		assert.NoError(t, repo.SetDay(ctx, day))
		fallback.AssertExpectations(t)
	})

	t.Run("InvalidateReachesBothCaches", func(t *testing.T) {
		repo.isDown.Store(false)
		fallback.On("InvalidateDay", ctx, int64(1), "2026-09-05").Return(nil).Once()
		primary.On("InvalidateDay", ctx, int64(1), "2026-09-05").Return(nil).Once()

		assert.NoError(t, repo.InvalidateDay(ctx, 1, "2026-09-05"))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("InvalidatePrimaryFailStillClearsFallback", func(t *testing.T) {
		repo.isDown.Store(false)
		fallback.On("InvalidateDay", ctx, int64(1), "2026-09-06").Return(nil).Once()
		primary.On("InvalidateDay", ctx, int64(1), "2026-09-06").Return(errors.New("fail")).Once()

		assert.NoError(t, repo.InvalidateDay(ctx, 1, "2026-09-06"))
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
