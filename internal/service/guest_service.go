package service

import (
	"context"
	"errors"
	"time"

	"maitred/internal/database"
	"maitred/internal/domain"
	"maitred/internal/models"

	"github.com/rs/zerolog"
)

// GuestService manages guest profiles and VIP grants.
type GuestService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewGuestService(store domain.Store, logger *zerolog.Logger) *GuestService {
	return &GuestService{
		store:  store,
		logger: logger,
	}
}

func (s *GuestService) GetProfile(ctx context.Context, id int64) (*models.Profile, error) {
	return s.store.GetProfile(ctx, id)
}

func (s *GuestService) SearchProfiles(ctx context.Context, term string, limit int) ([]*models.Profile, error) {
	return s.store.SearchProfiles(ctx, term, limit)
}

// FindOrCreateProfile resolves a guest by phone, creating a profile on first
// contact so repeat visits accumulate on one record.
func (s *GuestService) FindOrCreateProfile(ctx context.Context, name, phone string) (*models.Profile, error) {
	if phone != "" {
		profile, err := s.store.GetProfileByPhone(ctx, phone)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
	}

	profile := &models.Profile{Name: name, Phone: phone}
	if err := s.store.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *GuestService) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	return s.store.UpdateProfile(ctx, profile)
}

// GrantVIP extends a profile's booking window at one restaurant.
func (s *GuestService) GrantVIP(ctx context.Context, actorProfileID int64, grant *models.VIPGrant) error {
	if err := requirePermission(ctx, s.store, grant.RestaurantID, actorProfileID, models.PermManageVIP); err != nil {
		return err
	}
	if _, err := s.store.GetProfile(ctx, grant.ProfileID); err != nil {
		return err
	}
	return s.store.UpsertVIPGrant(ctx, grant)
}

func (s *GuestService) RevokeVIP(ctx context.Context, actorProfileID, profileID, restaurantID int64) error {
	if err := requirePermission(ctx, s.store, restaurantID, actorProfileID, models.PermManageVIP); err != nil {
		return err
	}
	return s.store.RevokeVIPGrant(ctx, profileID, restaurantID)
}

// GetVIPStatus returns the profile's grant at a restaurant along with
// whether it is currently in force.
func (s *GuestService) GetVIPStatus(ctx context.Context, profileID, restaurantID int64) (*models.VIPGrant, bool, error) {
	grant, err := s.store.GetVIPGrant(ctx, profileID, restaurantID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return grant, grant.Active(time.Now().UTC()), nil
}
