package service

import (
	"context"
	"io"
	"testing"

	"maitred/internal/database"
	"maitred/internal/events"
	"maitred/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMenuService(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	item := &models.MenuItem{
		ID: 3, RestaurantID: 1, CategoryID: 2, Name: "Duck confit",
		Price: decimal.RequireFromString("28.50"), IsAvailable: true,
	}

	t.Run("SetItemAvailabilityBroadcasts", func(t *testing.T) {
		store := new(mockStore)
		bus := new(mockEventBus)
		svc := NewMenuService(store, bus, &logger)

		store.On("GetMenuItem", ctx, int64(3)).Return(item, nil).Once()
		store.On("SetMenuItemAvailability", ctx, int64(3), false).Return(nil).Once()
		bus.On("PublishJSON", events.EventMenuUpdated, mock.Anything).Return(nil).Once()

		err := svc.SetItemAvailability(ctx, 0, 3, false)
		require.NoError(t, err)
		store.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("SetItemAvailabilityRequiresManageMenu", func(t *testing.T) {
		store := new(mockStore)
		svc := NewMenuService(store, nil, &logger)

		server := &models.StaffMember{ID: 1, RestaurantID: 1, ProfileID: 4, Role: models.RoleServer, IsActive: true}
		store.On("GetMenuItem", ctx, int64(3)).Return(item, nil).Once()
		store.On("GetStaffByProfile", ctx, int64(1), int64(4)).Return(server, nil).Once()

		err := svc.SetItemAvailability(ctx, 4, 3, false)
		assert.ErrorIs(t, err, database.ErrPermissionDenied)
	})

	t.Run("DeleteItemUnknown", func(t *testing.T) {
		store := new(mockStore)
		svc := NewMenuService(store, nil, &logger)

		store.On("GetMenuItem", ctx, int64(99)).Return(nil, database.ErrNotFound).Once()

		err := svc.DeleteItem(ctx, 0, 99)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("CreateItemBroadcasts", func(t *testing.T) {
		store := new(mockStore)
		bus := new(mockEventBus)
		svc := NewMenuService(store, bus, &logger)

		newItem := &models.MenuItem{RestaurantID: 1, CategoryID: 2, Name: "Tarte tatin", Price: decimal.RequireFromString("11.00"), IsAvailable: true}
		store.On("CreateMenuItem", ctx, newItem).Return(nil).Once()
		bus.On("PublishJSON", events.EventMenuUpdated, mock.Anything).Return(nil).Once()

		err := svc.CreateItem(ctx, 0, newItem)
		require.NoError(t, err)
		bus.AssertExpectations(t)
	})
}
