package service

import (
	"context"

	"maitred/internal/domain"
	"maitred/internal/events"
	"maitred/internal/models"

	"github.com/rs/zerolog"
)

type MenuService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewMenuService(store domain.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *MenuService {
	return &MenuService{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (s *MenuService) GetCategories(ctx context.Context, restaurantID int64) ([]*models.MenuCategory, error) {
	return s.store.GetMenuCategories(ctx, restaurantID)
}

func (s *MenuService) CreateCategory(ctx context.Context, actorProfileID int64, category *models.MenuCategory) error {
	if err := requirePermission(ctx, s.store, category.RestaurantID, actorProfileID, models.PermManageMenu); err != nil {
		return err
	}
	if err := s.store.CreateMenuCategory(ctx, category); err != nil {
		return err
	}
	s.publishMenuEvent(category.RestaurantID, 0)
	return nil
}

func (s *MenuService) UpdateCategory(ctx context.Context, actorProfileID int64, category *models.MenuCategory) error {
	if err := requirePermission(ctx, s.store, category.RestaurantID, actorProfileID, models.PermManageMenu); err != nil {
		return err
	}
	if err := s.store.UpdateMenuCategory(ctx, category); err != nil {
		return err
	}
	s.publishMenuEvent(category.RestaurantID, 0)
	return nil
}

func (s *MenuService) GetItems(ctx context.Context, restaurantID, categoryID int64) ([]*models.MenuItem, error) {
	return s.store.GetMenuItems(ctx, restaurantID, categoryID)
}

func (s *MenuService) GetItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	return s.store.GetMenuItem(ctx, id)
}

func (s *MenuService) CreateItem(ctx context.Context, actorProfileID int64, item *models.MenuItem) error {
	if err := requirePermission(ctx, s.store, item.RestaurantID, actorProfileID, models.PermManageMenu); err != nil {
		return err
	}
	if err := s.store.CreateMenuItem(ctx, item); err != nil {
		return err
	}
	s.publishMenuEvent(item.RestaurantID, item.ID)
	return nil
}

func (s *MenuService) UpdateItem(ctx context.Context, actorProfileID int64, item *models.MenuItem) error {
	if err := requirePermission(ctx, s.store, item.RestaurantID, actorProfileID, models.PermManageMenu); err != nil {
		return err
	}
	if err := s.store.UpdateMenuItem(ctx, item); err != nil {
		return err
	}
	s.publishMenuEvent(item.RestaurantID, item.ID)
	return nil
}

// SetItemAvailability is the 86 switch: it flips one flag and broadcasts, so
// the dashboard reflects a sold-out dish immediately.
func (s *MenuService) SetItemAvailability(ctx context.Context, actorProfileID, itemID int64, available bool) error {
	item, err := s.store.GetMenuItem(ctx, itemID)
	if err != nil {
		return err
	}
	if err := requirePermission(ctx, s.store, item.RestaurantID, actorProfileID, models.PermManageMenu); err != nil {
		return err
	}
	if err := s.store.SetMenuItemAvailability(ctx, itemID, available); err != nil {
		return err
	}
	s.publishMenuEvent(item.RestaurantID, itemID)
	return nil
}

func (s *MenuService) DeleteItem(ctx context.Context, actorProfileID, itemID int64) error {
	item, err := s.store.GetMenuItem(ctx, itemID)
	if err != nil {
		return err
	}
	if err := requirePermission(ctx, s.store, item.RestaurantID, actorProfileID, models.PermManageMenu); err != nil {
		return err
	}
	if err := s.store.DeleteMenuItem(ctx, itemID); err != nil {
		return err
	}
	s.publishMenuEvent(item.RestaurantID, itemID)
	return nil
}

func (s *MenuService) publishMenuEvent(restaurantID, itemID int64) {
	if s.eventBus == nil {
		return
	}
	payload := events.TableEventPayload{RestaurantID: restaurantID, MenuItemID: itemID}
	if err := s.eventBus.PublishJSON(events.EventMenuUpdated, payload); err != nil {
		s.logger.Error().Err(err).Int64("item_id", itemID).Msg("publish event error")
	}
}
