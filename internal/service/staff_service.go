package service

import (
	"context"
	"fmt"

	"maitred/internal/domain"
	"maitred/internal/models"

	"github.com/rs/zerolog"
)

type StaffService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewStaffService(store domain.Store, logger *zerolog.Logger) *StaffService {
	return &StaffService{
		store:  store,
		logger: logger,
	}
}

func (s *StaffService) GetStaff(ctx context.Context, id int64) (*models.StaffMember, error) {
	return s.store.GetStaff(ctx, id)
}

func (s *StaffService) ListStaff(ctx context.Context, restaurantID int64) ([]*models.StaffMember, error) {
	return s.store.GetStaffByRestaurant(ctx, restaurantID)
}

func (s *StaffService) AddStaff(ctx context.Context, actorProfileID int64, member *models.StaffMember) error {
	if err := requirePermission(ctx, s.store, member.RestaurantID, actorProfileID, models.PermManageStaff); err != nil {
		return err
	}
	if member.Role != models.RoleManager && member.Role != models.RoleHost && member.Role != models.RoleServer {
		return fmt.Errorf("unknown role %q", member.Role)
	}
	return s.store.CreateStaff(ctx, member)
}

func (s *StaffService) UpdateStaff(ctx context.Context, actorProfileID int64, member *models.StaffMember) error {
	if err := requirePermission(ctx, s.store, member.RestaurantID, actorProfileID, models.PermManageStaff); err != nil {
		return err
	}
	return s.store.UpdateStaff(ctx, member)
}

func (s *StaffService) RemoveStaff(ctx context.Context, actorProfileID, staffID int64) error {
	member, err := s.store.GetStaff(ctx, staffID)
	if err != nil {
		return err
	}
	if err := requirePermission(ctx, s.store, member.RestaurantID, actorProfileID, models.PermManageStaff); err != nil {
		return err
	}
	return s.store.DeactivateStaff(ctx, staffID)
}

// CheckPermission resolves whether a profile holds a permission at a
// restaurant, for handlers that gate on staff identity.
func (s *StaffService) CheckPermission(ctx context.Context, restaurantID, profileID int64, perm string) error {
	return requirePermission(ctx, s.store, restaurantID, profileID, perm)
}

func (s *StaffService) GetPreferences(ctx context.Context, staffID int64) ([]models.NotificationPreference, error) {
	// Return a full row per event type, materializing the enabled default
	// for types without a stored row.
	stored, err := s.store.GetNotificationPreferences(ctx, staffID)
	if err != nil {
		return nil, err
	}

	byType := make(map[string]models.NotificationPreference, len(stored))
	for _, p := range stored {
		byType[p.EventType] = p
	}

	var prefs []models.NotificationPreference
	for _, eventType := range models.NotificationEventTypes {
		if p, ok := byType[eventType]; ok {
			prefs = append(prefs, p)
			continue
		}
		prefs = append(prefs, models.NotificationPreference{
			StaffID:   staffID,
			EventType: eventType,
			Enabled:   true,
		})
	}
	return prefs, nil
}

func (s *StaffService) SetPreference(ctx context.Context, staffID int64, eventType string, enabled bool) error {
	known := false
	for _, t := range models.NotificationEventTypes {
		if t == eventType {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown event type %q", eventType)
	}
	if _, err := s.store.GetStaff(ctx, staffID); err != nil {
		return err
	}
	return s.store.SetNotificationPreference(ctx, staffID, eventType, enabled)
}
