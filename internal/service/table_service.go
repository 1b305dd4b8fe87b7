package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"maitred/internal/database"
	"maitred/internal/domain"
	"maitred/internal/events"
	"maitred/internal/metrics"
	"maitred/internal/models"

	"github.com/rs/zerolog"
)

// TableService owns the floor: availability checks, occupancy, utilization
// and table CRUD. Day grids are cached in the snapshot repository and
// invalidated when bookings change.
type TableService struct {
	store     domain.Store
	snapshots domain.SnapshotRepository
	eventBus  domain.EventPublisher
	logger    *zerolog.Logger
}

func NewTableService(store domain.Store, snapshots domain.SnapshotRepository, eventBus domain.EventPublisher, logger *zerolog.Logger) *TableService {
	s := &TableService{
		store:     store,
		snapshots: snapshots,
		eventBus:  eventBus,
		logger:    logger,
	}
	return s
}

// SubscribeInvalidation wires the service to booking change events so cached
// day grids never outlive the bookings they summarize.
func (s *TableService) SubscribeInvalidation(bus *events.EventBus) {
	handler := func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		date := payload.StartAt.UTC().Format("2006-01-02")
		if err := s.snapshots.InvalidateDay(context.Background(), payload.RestaurantID, date); err != nil {
			s.logger.Warn().Err(err).Str("date", date).Msg("snapshot invalidation failed")
		}
		return nil
	}
	bus.Subscribe(events.EventBookingCreated, handler)
	bus.Subscribe(events.EventBookingStatusChanged, handler)
	bus.Subscribe(events.EventBookingTablesChanged, handler)
}

// CheckTables reports whether every requested table is free for
// [startAt, startAt+turnTime), with the per-table verdicts.
func (s *TableService) CheckTables(ctx context.Context, restaurantID int64, tableIDs []int64, startAt time.Time, turnTimeMinutes int) (bool, []models.TableAvailability, error) {
	if turnTimeMinutes <= 0 {
		turnTimeMinutes = s.defaultTurnTime(restaurantID)
	}
	end := startAt.Add(time.Duration(turnTimeMinutes) * time.Minute)

	blocking, err := s.store.GetBlockingBookings(ctx, restaurantID, startAt, end)
	if err != nil {
		return false, nil, err
	}

	allFree := true
	var verdicts []models.TableAvailability
	for _, id := range tableIDs {
		table, err := s.store.GetTable(ctx, id)
		if err != nil {
			return false, nil, err
		}
		v := models.TableAvailability{
			TableID:   table.ID,
			Number:    table.Number,
			Capacity:  table.Capacity,
			Section:   table.Section,
			Available: table.IsActive,
		}
		if v.Available {
			if holder := holderOf(blocking, id, startAt, end); holder != nil {
				v.Available = false
				v.BlockedBy = holder.ID
			}
		}
		if !v.Available {
			allFree = false
		}
		verdicts = append(verdicts, v)
	}
	return allFree, verdicts, nil
}

// AvailableTables returns the active tables free for the interval, smallest
// adequate capacity first so the caller can seat the party tightly.
func (s *TableService) AvailableTables(ctx context.Context, restaurantID int64, startAt time.Time, turnTimeMinutes, partySize int) ([]models.TableAvailability, error) {
	if turnTimeMinutes <= 0 {
		turnTimeMinutes = s.defaultTurnTime(restaurantID)
	}
	end := startAt.Add(time.Duration(turnTimeMinutes) * time.Minute)

	tables, err := s.store.GetActiveTables(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	blocking, err := s.store.GetBlockingBookings(ctx, restaurantID, startAt, end)
	if err != nil {
		return nil, err
	}

	var free []models.TableAvailability
	for _, table := range tables {
		if holderOf(blocking, table.ID, startAt, end) != nil {
			continue
		}
		free = append(free, models.TableAvailability{
			TableID:   table.ID,
			Number:    table.Number,
			Capacity:  table.Capacity,
			Section:   table.Section,
			Available: true,
		})
	}

	sort.SliceStable(free, func(i, j int) bool {
		fitsI := free[i].Capacity >= partySize
		fitsJ := free[j].Capacity >= partySize
		if fitsI != fitsJ {
			return fitsI
		}
		return free[i].Capacity < free[j].Capacity
	})
	return free, nil
}

// DayGrid returns the cached availability summary for one day, computing and
// caching it on a miss. A table counts as available when it has no blocking
// booking anywhere in the day's operating window.
func (s *TableService) DayGrid(ctx context.Context, restaurantID int64, date time.Time) (*models.DayAvailability, error) {
	dateKey := date.UTC().Format("2006-01-02")

	if s.snapshots != nil {
		cached, err := s.snapshots.GetDay(ctx, restaurantID, dateKey)
		if err != nil {
			s.logger.Warn().Err(err).Msg("snapshot lookup failed")
		} else if cached != nil {
			metrics.IncSnapshotLookup("hit")
			return cached, nil
		}
		metrics.IncSnapshotLookup("miss")
	}

	start, end := s.operatingWindow(restaurantID, date)

	tables, err := s.store.GetActiveTables(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	blocking, err := s.store.GetBlockingBookings(ctx, restaurantID, start, end)
	if err != nil {
		return nil, err
	}

	day := &models.DayAvailability{
		RestaurantID: restaurantID,
		Date:         dateKey,
		Start:        start,
		End:          end,
		ComputedAt:   time.Now().UTC(),
	}
	for _, table := range tables {
		v := models.TableAvailability{
			TableID:   table.ID,
			Number:    table.Number,
			Capacity:  table.Capacity,
			Section:   table.Section,
			Available: true,
		}
		if holder := holderOf(blocking, table.ID, start, end); holder != nil {
			v.Available = false
			v.BlockedBy = holder.ID
		}
		day.Tables = append(day.Tables, v)
	}

	if s.snapshots != nil {
		if err := s.snapshots.SetDay(ctx, day); err != nil {
			s.logger.Warn().Err(err).Msg("snapshot store failed")
		}
	}
	return day, nil
}

// Occupancy returns the live floor view at one instant.
func (s *TableService) Occupancy(ctx context.Context, restaurantID int64, at time.Time) ([]models.TableOccupancy, error) {
	tables, err := s.store.GetActiveTables(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	blocking, err := s.store.GetBlockingBookings(ctx, restaurantID, at, at.Add(time.Minute))
	if err != nil {
		return nil, err
	}

	var floor []models.TableOccupancy
	for _, table := range tables {
		entry := models.TableOccupancy{
			TableID: table.ID,
			Number:  table.Number,
			Section: table.Section,
		}
		if holder := holderOf(blocking, table.ID, at, at.Add(time.Minute)); holder != nil {
			entry.Occupied = true
			entry.BookingID = holder.ID
			entry.BookingRef = holder.Ref
			entry.Status = holder.Status
			entry.GuestName = holder.GuestName
			entry.PartySize = holder.PartySize
			remaining := models.EstimateRemainingMinutes(holder.Status, holder.TurnTimeMinutes)
			entry.FreeAt = at.Add(time.Duration(remaining) * time.Minute)
			if holder.EndAt().Before(entry.FreeAt) {
				entry.FreeAt = holder.EndAt()
			}
		}
		floor = append(floor, entry)
	}
	return floor, nil
}

// Utilization is the share of table-minutes booked within the operating
// window for one day, in [0, 1]. Cancelled and declined bookings do not
// count; completed ones do.
func (s *TableService) Utilization(ctx context.Context, restaurantID int64, date time.Time) (float64, error) {
	tables, err := s.store.GetActiveTables(ctx, restaurantID)
	if err != nil {
		return 0, err
	}
	if len(tables) == 0 {
		return 0, nil
	}

	start, end := s.operatingWindow(restaurantID, date)
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	bookings, err := s.store.GetBookingsByDateRange(ctx, restaurantID, dayStart.Add(-24*time.Hour), dayStart.Add(24*time.Hour))
	if err != nil {
		return 0, err
	}

	bookedMinutes := 0.0
	for _, b := range bookings {
		if !occupiesFloor(b.Status) {
			continue
		}
		overlap := intervalOverlapMinutes(b.StartAt, b.EndAt(), start, end)
		bookedMinutes += overlap * float64(len(b.TableIDs))
	}

	totalMinutes := end.Sub(start).Minutes() * float64(len(tables))
	if totalMinutes <= 0 {
		return 0, nil
	}
	ratio := bookedMinutes / totalMinutes
	if ratio > 1 {
		ratio = 1
	}
	return ratio, nil
}

func (s *TableService) ListTables(ctx context.Context, restaurantID int64) ([]*models.Table, error) {
	return s.store.GetTables(ctx, restaurantID)
}

func (s *TableService) CreateTable(ctx context.Context, actorProfileID int64, table *models.Table) error {
	if err := requirePermission(ctx, s.store, table.RestaurantID, actorProfileID, models.PermManageTables); err != nil {
		return err
	}
	if err := s.store.CreateTable(ctx, table); err != nil {
		return err
	}
	s.publishTableEvent(table.RestaurantID, table.ID)
	return nil
}

func (s *TableService) UpdateTable(ctx context.Context, actorProfileID int64, table *models.Table) error {
	if err := requirePermission(ctx, s.store, table.RestaurantID, actorProfileID, models.PermManageTables); err != nil {
		return err
	}
	if err := s.store.UpdateTable(ctx, table); err != nil {
		return err
	}
	s.publishTableEvent(table.RestaurantID, table.ID)
	return nil
}

func (s *TableService) DeactivateTable(ctx context.Context, actorProfileID, restaurantID, tableID int64) error {
	if err := requirePermission(ctx, s.store, restaurantID, actorProfileID, models.PermManageTables); err != nil {
		return err
	}
	if err := s.store.DeactivateTable(ctx, tableID); err != nil {
		return err
	}
	s.publishTableEvent(restaurantID, tableID)
	return nil
}

func (s *TableService) publishTableEvent(restaurantID, tableID int64) {
	if s.eventBus == nil {
		return
	}
	payload := events.TableEventPayload{RestaurantID: restaurantID, TableID: tableID}
	if err := s.eventBus.PublishJSON(events.EventTableUpdated, payload); err != nil {
		s.logger.Error().Err(err).Int64("table_id", tableID).Msg("publish event error")
	}
}

func (s *TableService) defaultTurnTime(restaurantID int64) int {
	if r, ok := s.store.GetRestaurant(restaurantID); ok {
		return r.DefaultTurnTimeMinutes
	}
	return models.DefaultTurnTimeMinutes
}

// operatingWindow maps a date to its absolute opening interval.
func (s *TableService) operatingWindow(restaurantID int64, date time.Time) (time.Time, time.Time) {
	opens, closes := "10:00", "23:00"
	if r, ok := s.store.GetRestaurant(restaurantID); ok {
		opens, closes = r.OpensAt, r.ClosesAt
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	start := atClock(day, opens, 10, 0)
	end := atClock(day, closes, 23, 0)
	if !end.After(start) {
		end = start.Add(time.Duration(models.DefaultOperatingMinutes) * time.Minute)
	}
	return start, end
}

func atClock(day time.Time, clock string, fallbackHour, fallbackMin int) time.Time {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return day.Add(time.Duration(fallbackHour)*time.Hour + time.Duration(fallbackMin)*time.Minute)
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}

// holderOf returns the blocking booking holding the table for an interval
// overlapping [start, end), or nil.
func holderOf(blocking []*models.Booking, tableID int64, start, end time.Time) *models.Booking {
	for _, b := range blocking {
		if b.HoldsTable(tableID) && b.Overlaps(start, end) {
			return b
		}
	}
	return nil
}

// occupiesFloor reports whether a status represents real table usage for
// utilization purposes.
func occupiesFloor(status string) bool {
	return models.IsBlocking(status) || status == models.StatusCompleted
}

func intervalOverlapMinutes(aStart, aEnd, bStart, bEnd time.Time) float64 {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start).Minutes()
}

// requirePermission resolves the actor's staff membership and checks the
// permission. Profile 0 is the unauthenticated system actor and is allowed;
// API-key permissions gate those calls instead.
func requirePermission(ctx context.Context, store domain.Store, restaurantID, profileID int64, perm string) error {
	if profileID == 0 {
		return nil
	}
	member, err := store.GetStaffByProfile(ctx, restaurantID, profileID)
	if errors.Is(err, database.ErrNotFound) {
		return database.ErrPermissionDenied
	}
	if err != nil {
		return err
	}
	if !member.HasPermission(perm) {
		return database.ErrPermissionDenied
	}
	return nil
}
