package service

import (
	"context"
	"io"
	"testing"

	"maitred/internal/database"
	"maitred/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaffService(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	t.Run("AddStaffUnknownRole", func(t *testing.T) {
		store := new(mockStore)
		svc := NewStaffService(store, &logger)

		member := &models.StaffMember{RestaurantID: 1, ProfileID: 5, Role: "sommelier"}
		err := svc.AddStaff(ctx, 0, member)
		assert.Error(t, err)
	})

	t.Run("AddStaffRequiresManageStaff", func(t *testing.T) {
		store := new(mockStore)
		svc := NewStaffService(store, &logger)

		host := &models.StaffMember{ID: 1, RestaurantID: 1, ProfileID: 3, Role: models.RoleHost, IsActive: true}
		store.On("GetStaffByProfile", ctx, int64(1), int64(3)).Return(host, nil).Once()

		err := svc.AddStaff(ctx, 3, &models.StaffMember{RestaurantID: 1, ProfileID: 5, Role: models.RoleServer})
		assert.ErrorIs(t, err, database.ErrPermissionDenied)
	})

	t.Run("RemoveStaff", func(t *testing.T) {
		store := new(mockStore)
		svc := NewStaffService(store, &logger)

		member := &models.StaffMember{ID: 7, RestaurantID: 1, ProfileID: 5, Role: models.RoleServer, IsActive: true}
		store.On("GetStaff", ctx, int64(7)).Return(member, nil).Once()
		store.On("DeactivateStaff", ctx, int64(7)).Return(nil).Once()

		err := svc.RemoveStaff(ctx, 0, 7)
		assert.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("GetPreferencesMaterializesDefaults", func(t *testing.T) {
		store := new(mockStore)
		svc := NewStaffService(store, &logger)

		stored := []models.NotificationPreference{
			{StaffID: 7, EventType: models.NotifyStatusChanged, Enabled: false},
		}
		store.On("GetNotificationPreferences", ctx, int64(7)).Return(stored, nil).Once()

		prefs, err := svc.GetPreferences(ctx, 7)
		require.NoError(t, err)
		require.Len(t, prefs, len(models.NotificationEventTypes))

		byType := make(map[string]bool, len(prefs))
		for _, p := range prefs {
			byType[p.EventType] = p.Enabled
		}
		assert.False(t, byType[models.NotifyStatusChanged])
		assert.True(t, byType[models.NotifyBookingRequested])
		assert.True(t, byType[models.NotifyBookingCancelled])
	})

	t.Run("SetPreferenceUnknownType", func(t *testing.T) {
		store := new(mockStore)
		svc := NewStaffService(store, &logger)

		err := svc.SetPreference(ctx, 7, "booking_levitated", true)
		assert.Error(t, err)
	})

	t.Run("SetPreference", func(t *testing.T) {
		store := new(mockStore)
		svc := NewStaffService(store, &logger)

		member := &models.StaffMember{ID: 7, RestaurantID: 1, IsActive: true}
		store.On("GetStaff", ctx, int64(7)).Return(member, nil).Once()
		store.On("SetNotificationPreference", ctx, int64(7), models.NotifyStatusChanged, false).Return(nil).Once()

		err := svc.SetPreference(ctx, 7, models.NotifyStatusChanged, false)
		assert.NoError(t, err)
		store.AssertExpectations(t)
	})
}
