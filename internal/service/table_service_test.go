package service

import (
	"context"
	"io"
	"testing"
	"time"

	"maitred/internal/database"
	"maitred/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeSnapshots is a map-backed stand-in for the snapshot cache.
type fakeSnapshots struct {
	days map[string]*models.DayAvailability
	sets int
	gets int
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{days: make(map[string]*models.DayAvailability)}
}

func (f *fakeSnapshots) GetDay(ctx context.Context, restaurantID int64, date string) (*models.DayAvailability, error) {
	f.gets++
	return f.days[date], nil
}

func (f *fakeSnapshots) SetDay(ctx context.Context, day *models.DayAvailability) error {
	f.sets++
	f.days[day.Date] = day
	return nil
}

func (f *fakeSnapshots) InvalidateDay(ctx context.Context, restaurantID int64, date string) error {
	delete(f.days, date)
	return nil
}

func TestTableService(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	startAt := time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)

	tableTwo := &models.Table{ID: 10, RestaurantID: 1, Number: 1, Capacity: 2, Section: "window", IsActive: true}
	tableFour := &models.Table{ID: 11, RestaurantID: 1, Number: 2, Capacity: 4, Section: "main", IsActive: true}
	tableSix := &models.Table{ID: 12, RestaurantID: 1, Number: 3, Capacity: 6, Section: "main", IsActive: true}

	holder := &models.Booking{
		ID: 77, RestaurantID: 1, Ref: "BK-77", GuestName: "Ada", PartySize: 2,
		StartAt: startAt, TurnTimeMinutes: 90, Status: models.StatusSeated,
		TableIDs: []int64{10},
	}

	t.Run("CheckTablesBlocked", func(t *testing.T) {
		store := new(mockStore)
		svc := NewTableService(store, nil, nil, &logger)

		store.On("GetRestaurant", int64(1)).Return(testRestaurant, true)
		store.On("GetBlockingBookings", ctx, int64(1), startAt, startAt.Add(90*time.Minute)).Return([]*models.Booking{holder}, nil).Once()
		store.On("GetTable", ctx, int64(10)).Return(tableTwo, nil).Once()
		store.On("GetTable", ctx, int64(11)).Return(tableFour, nil).Once()

		allFree, verdicts, err := svc.CheckTables(ctx, 1, []int64{10, 11}, startAt, 0)
		require.NoError(t, err)
		assert.False(t, allFree)
		require.Len(t, verdicts, 2)
		assert.False(t, verdicts[0].Available)
		assert.Equal(t, int64(77), verdicts[0].BlockedBy)
		assert.True(t, verdicts[1].Available)
	})

	t.Run("CheckTablesBackToBack", func(t *testing.T) {
		store := new(mockStore)
		svc := NewTableService(store, nil, nil, &logger)

		// The next party arrives exactly when the holder's turn ends.
		next := startAt.Add(90 * time.Minute)
		store.On("GetRestaurant", int64(1)).Return(testRestaurant, true)
		store.On("GetBlockingBookings", ctx, int64(1), next, next.Add(90*time.Minute)).Return([]*models.Booking{holder}, nil).Once()
		store.On("GetTable", ctx, int64(10)).Return(tableTwo, nil).Once()

		allFree, _, err := svc.CheckTables(ctx, 1, []int64{10}, next, 0)
		require.NoError(t, err)
		assert.True(t, allFree)
	})

	t.Run("CheckTablesAcrossMidnight", func(t *testing.T) {
		store := new(mockStore)
		svc := NewTableService(store, nil, nil, &logger)

		// A party seated shortly after midnight still blocks a late request
		// from the previous evening; the fetch window follows the requested
		// interval, not the requested day.
		lateStart := time.Date(2026, 9, 1, 23, 30, 0, 0, time.UTC)
		nightOwl := &models.Booking{
			ID: 88, RestaurantID: 1, Ref: "BK-88", GuestName: "Grace", PartySize: 2,
			StartAt: time.Date(2026, 9, 2, 0, 30, 0, 0, time.UTC), TurnTimeMinutes: 90,
			Status: models.StatusConfirmed, TableIDs: []int64{10},
		}
		store.On("GetRestaurant", int64(1)).Return(testRestaurant, true)
		store.On("GetBlockingBookings", ctx, int64(1), lateStart, lateStart.Add(90*time.Minute)).
			Return([]*models.Booking{nightOwl}, nil).Once()
		store.On("GetTable", ctx, int64(10)).Return(tableTwo, nil).Once()

		allFree, verdicts, err := svc.CheckTables(ctx, 1, []int64{10}, lateStart, 0)
		require.NoError(t, err)
		assert.False(t, allFree)
		require.Len(t, verdicts, 1)
		assert.Equal(t, int64(88), verdicts[0].BlockedBy)
		store.AssertExpectations(t)
	})

	t.Run("AvailableTablesOrdering", func(t *testing.T) {
		store := new(mockStore)
		svc := NewTableService(store, nil, nil, &logger)

		store.On("GetRestaurant", int64(1)).Return(testRestaurant, true)
		store.On("GetActiveTables", ctx, int64(1)).Return([]*models.Table{tableTwo, tableFour, tableSix}, nil).Once()
		store.On("GetBlockingBookings", ctx, int64(1), startAt, startAt.Add(90*time.Minute)).Return([]*models.Booking{holder}, nil).Once()

		free, err := svc.AvailableTables(ctx, 1, startAt, 0, 3)
		require.NoError(t, err)
		require.Len(t, free, 2)
		// Smallest table that still seats the party comes first; the held
		// two-top is excluded entirely.
		assert.Equal(t, int64(11), free[0].TableID)
		assert.Equal(t, int64(12), free[1].TableID)
	})

	t.Run("DayGridCaches", func(t *testing.T) {
		store := new(mockStore)
		snapshots := newFakeSnapshots()
		svc := NewTableService(store, snapshots, nil, &logger)

		store.On("GetRestaurant", int64(1)).Return(testRestaurant, true)
		dayOpen := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
		dayClose := time.Date(2026, 9, 1, 23, 0, 0, 0, time.UTC)
		store.On("GetActiveTables", ctx, int64(1)).Return([]*models.Table{tableTwo, tableFour}, nil).Once()
		store.On("GetBlockingBookings", ctx, int64(1), dayOpen, dayClose).Return([]*models.Booking{holder}, nil).Once()

		day, err := svc.DayGrid(ctx, 1, startAt)
		require.NoError(t, err)
		assert.Equal(t, "2026-09-01", day.Date)
		require.Len(t, day.Tables, 2)
		assert.False(t, day.Tables[0].Available)
		assert.True(t, day.Tables[1].Available)
		assert.Equal(t, 1, snapshots.sets)

		// Second call is served from the cache; the store expectations above
		// are Once, so a recompute would fail them.
		again, err := svc.DayGrid(ctx, 1, startAt)
		require.NoError(t, err)
		assert.Equal(t, day, again)
		store.AssertExpectations(t)
	})

	t.Run("Occupancy", func(t *testing.T) {
		store := new(mockStore)
		svc := NewTableService(store, nil, nil, &logger)

		at := startAt.Add(30 * time.Minute)
		store.On("GetActiveTables", ctx, int64(1)).Return([]*models.Table{tableTwo, tableFour}, nil).Once()
		store.On("GetBlockingBookings", ctx, int64(1), at, at.Add(time.Minute)).Return([]*models.Booking{holder}, nil).Once()

		floor, err := svc.Occupancy(ctx, 1, at)
		require.NoError(t, err)
		require.Len(t, floor, 2)
		assert.True(t, floor[0].Occupied)
		assert.Equal(t, "BK-77", floor[0].BookingRef)
		assert.Equal(t, models.StatusSeated, floor[0].Status)
		assert.False(t, floor[0].FreeAt.After(holder.EndAt()))
		assert.False(t, floor[1].Occupied)
	})

	t.Run("Utilization", func(t *testing.T) {
		store := new(mockStore)
		svc := NewTableService(store, nil, nil, &logger)

		store.On("GetRestaurant", int64(1)).Return(testRestaurant, true)
		store.On("GetActiveTables", ctx, int64(1)).Return([]*models.Table{tableTwo, tableFour}, nil).Once()
		store.On("GetBookingsByDateRange", ctx, int64(1), mock.Anything, mock.Anything).Return([]*models.Booking{holder}, nil).Once()

		ratio, err := svc.Utilization(ctx, 1, startAt)
		require.NoError(t, err)
		// One table held for 90 minutes out of a 13h window across 2 tables.
		expected := 90.0 / (13 * 60 * 2)
		assert.InDelta(t, expected, ratio, 1e-9)
	})

	t.Run("UtilizationNoTables", func(t *testing.T) {
		store := new(mockStore)
		svc := NewTableService(store, nil, nil, &logger)

		store.On("GetActiveTables", ctx, int64(1)).Return([]*models.Table{}, nil).Once()

		ratio, err := svc.Utilization(ctx, 1, startAt)
		require.NoError(t, err)
		assert.Zero(t, ratio)
	})

	t.Run("CreateTableRequiresPermission", func(t *testing.T) {
		store := new(mockStore)
		svc := NewTableService(store, nil, nil, &logger)

		store.On("GetStaffByProfile", ctx, int64(1), int64(9)).Return(nil, database.ErrNotFound).Once()

		err := svc.CreateTable(ctx, 9, &models.Table{RestaurantID: 1, Number: 5, Capacity: 4})
		assert.ErrorIs(t, err, database.ErrPermissionDenied)
	})

	t.Run("CreateTableAsSystemActor", func(t *testing.T) {
		store := new(mockStore)
		svc := NewTableService(store, nil, nil, &logger)

		table := &models.Table{RestaurantID: 1, Number: 5, Capacity: 4, IsActive: true}
		store.On("CreateTable", ctx, table).Return(nil).Once()

		err := svc.CreateTable(ctx, 0, table)
		assert.NoError(t, err)
		store.AssertExpectations(t)
	})
}
