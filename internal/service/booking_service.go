package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"maitred/internal/database"
	"maitred/internal/domain"
	"maitred/internal/events"
	"maitred/internal/metrics"
	"maitred/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	worker   domain.SyncWorker
	logger   *zerolog.Logger
}

func NewBookingService(store domain.Store, eventBus domain.EventPublisher, worker domain.SyncWorker, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		store:    store,
		eventBus: eventBus,
		worker:   worker,
		logger:   logger,
	}
}

// ValidateBookingDate checks the requested start against the restaurant's
// booking window. An active VIP grant extends the window for that profile.
func (s *BookingService) ValidateBookingDate(ctx context.Context, restaurantID, profileID int64, startAt time.Time) error {
	now := time.Now().UTC()
	if startAt.Before(now) {
		return database.ErrPastDate
	}

	windowDays := models.DefaultBookingWindowDays
	if r, ok := s.store.GetRestaurant(restaurantID); ok {
		windowDays = r.BookingWindowDays
	}

	if profileID != 0 {
		grant, err := s.store.GetVIPGrant(ctx, profileID, restaurantID)
		if err == nil && grant.Active(now) {
			windowDays += grant.ExtraWindowDays
		} else if err != nil && !errors.Is(err, database.ErrNotFound) {
			return err
		}
	}

	if startAt.After(now.AddDate(0, 0, windowDays)) {
		return database.ErrDateTooFar
	}
	return nil
}

// CreateBooking validates the window, fills defaults and persists the booking
// together with its table links. The availability check happens inside the
// store transaction, so two concurrent requests for the same table cannot
// both succeed.
func (s *BookingService) CreateBooking(ctx context.Context, booking *models.Booking, tableIDs []int64) error {
	if err := s.ValidateBookingDate(ctx, booking.RestaurantID, booking.ProfileID, booking.StartAt); err != nil {
		return err
	}

	if booking.TurnTimeMinutes <= 0 {
		booking.TurnTimeMinutes = models.DefaultTurnTimeMinutes
		if r, ok := s.store.GetRestaurant(booking.RestaurantID); ok {
			booking.TurnTimeMinutes = r.DefaultTurnTimeMinutes
		}
	}
	if booking.Status == "" {
		booking.Status = models.StatusPending
	}
	if booking.Ref == "" {
		booking.Ref = newBookingRef()
	}

	if err := s.checkTableFit(ctx, booking, tableIDs); err != nil {
		return err
	}

	if err := s.store.CreateBookingWithTables(ctx, booking, tableIDs); err != nil {
		return err
	}

	if r, ok := s.store.GetRestaurant(booking.RestaurantID); ok {
		metrics.IncBookingCreated(r.Name)
	}
	s.publishEvent(events.EventBookingCreated, booking, "", "system")
	s.enqueueSync(ctx, booking, "upsert")
	s.enqueueNotify(ctx, booking.RestaurantID, models.NotifyBookingRequested,
		fmt.Sprintf("New booking %s: %s, party of %d at %s",
			booking.Ref, booking.GuestName, booking.PartySize, booking.StartAt.Format("Jan 2 15:04")))

	return nil
}

// checkTableFit verifies the tables exist, are active, belong to the booking's
// restaurant and seat the party.
func (s *BookingService) checkTableFit(ctx context.Context, booking *models.Booking, tableIDs []int64) error {
	if len(tableIDs) == 0 {
		return database.ErrNoTables
	}

	capacity := 0
	for _, id := range tableIDs {
		table, err := s.store.GetTable(ctx, id)
		if err != nil {
			return err
		}
		if table.RestaurantID != booking.RestaurantID || !table.IsActive {
			return fmt.Errorf("%w: table %d", database.ErrNotAvailable, id)
		}
		capacity += table.Capacity
	}
	if capacity < booking.PartySize {
		return fmt.Errorf("%w: %d seats for party of %d", database.ErrNotAvailable, capacity, booking.PartySize)
	}
	return nil
}

// TransitionBooking applies a status change through the dining state machine.
func (s *BookingService) TransitionBooking(ctx context.Context, bookingID, version int64, toStatus, changedBy string) error {
	if !models.IsValidStatus(toStatus) {
		return fmt.Errorf("%w: unknown status %q", database.ErrInvalidTransition, toStatus)
	}

	before, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := s.store.UpdateBookingStatusWithVersion(ctx, bookingID, version, toStatus, changedBy); err != nil {
		return err
	}

	metrics.IncTransition(toStatus)

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err == nil {
		s.publishEvent(events.EventBookingStatusChanged, booking, before.Status, changedBy)
		s.enqueueSync(ctx, booking, "update_status")

		switch toStatus {
		case models.StatusCancelledByUser, models.StatusCancelledByRestaurant, models.StatusNoShow:
			s.enqueueNotify(ctx, booking.RestaurantID, models.NotifyBookingCancelled,
				fmt.Sprintf("Booking %s is now %s", booking.Ref, models.StatusLabel(toStatus)))
		default:
			s.enqueueNotify(ctx, booking.RestaurantID, models.NotifyStatusChanged,
				fmt.Sprintf("Booking %s moved to %s", booking.Ref, models.StatusLabel(toStatus)))
		}
	}

	return nil
}

// ReassignTables moves the booking to a different table set.
func (s *BookingService) ReassignTables(ctx context.Context, bookingID, version int64, tableIDs []int64, changedBy string) error {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !models.IsBlocking(booking.Status) {
		return fmt.Errorf("%w: booking %d is %s", database.ErrInvalidTransition, bookingID, booking.Status)
	}

	if err := s.checkTableFit(ctx, booking, tableIDs); err != nil {
		return err
	}

	if err := s.store.ReassignTablesWithVersion(ctx, bookingID, version, tableIDs); err != nil {
		return err
	}

	updated, err := s.store.GetBooking(ctx, bookingID)
	if err == nil {
		s.publishEvent(events.EventBookingTablesChanged, updated, "", changedBy)
		s.enqueueSync(ctx, updated, "upsert")
	}

	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

func (s *BookingService) GetBookingByRef(ctx context.Context, ref string) (*models.Booking, error) {
	return s.store.GetBookingByRef(ctx, ref)
}

func (s *BookingService) GetBookingsByDateRange(ctx context.Context, restaurantID int64, start, end time.Time) ([]*models.Booking, error) {
	return s.store.GetBookingsByDateRange(ctx, restaurantID, start, end)
}

func (s *BookingService) SearchBookings(ctx context.Context, restaurantID int64, term string, limit int) ([]*models.Booking, error) {
	return s.store.SearchBookings(ctx, restaurantID, term, limit)
}

func (s *BookingService) GetStatusHistory(ctx context.Context, bookingID int64) ([]models.StatusChange, error) {
	return s.store.GetStatusHistory(ctx, bookingID)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, fromStatus, changedBy string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:    booking.ID,
		Ref:          booking.Ref,
		RestaurantID: booking.RestaurantID,
		GuestName:    booking.GuestName,
		PartySize:    booking.PartySize,
		StartAt:      booking.StartAt,
		TableIDs:     booking.TableIDs,
		FromStatus:   fromStatus,
		Status:       booking.Status,
		ChangedBy:    changedBy,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.Booking, taskType string) {
	if s.worker == nil {
		return
	}

	var status string
	if taskType == "update_status" {
		status = booking.Status
	}

	if err := s.worker.EnqueueTask(ctx, taskType, booking.ID, booking, status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}

func (s *BookingService) enqueueNotify(ctx context.Context, restaurantID int64, eventType, message string) {
	if s.worker == nil {
		return
	}
	if err := s.worker.EnqueueNotify(ctx, restaurantID, eventType, message); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("notify enqueue error")
	}
}

// newBookingRef returns a short random reference like "BK-3f9a2c".
func newBookingRef() string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("BK-%d", time.Now().UnixNano()%1000000)
	}
	return "BK-" + hex.EncodeToString(buf)
}
