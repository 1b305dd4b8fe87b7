package domain

import (
	"context"
	"time"

	"maitred/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Store is the persistence surface the services build on.
type Store interface {
	CreateBookingWithTables(ctx context.Context, booking *models.Booking, tableIDs []int64) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByRef(ctx context.Context, ref string) (*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, toStatus, changedBy string) error
	ReassignTablesWithVersion(ctx context.Context, id, fromVersion int64, tableIDs []int64) error
	GetBookingsByDateRange(ctx context.Context, restaurantID int64, start, end time.Time) ([]*models.Booking, error)
	GetBlockingBookings(ctx context.Context, restaurantID int64, start, end time.Time) ([]*models.Booking, error)
	SearchBookings(ctx context.Context, restaurantID int64, term string, limit int) ([]*models.Booking, error)
	GetDailyBookings(ctx context.Context, restaurantID int64, start, end time.Time) (map[string][]*models.Booking, error)
	GetStatusHistory(ctx context.Context, bookingID int64) ([]models.StatusChange, error)

	CreateTable(ctx context.Context, table *models.Table) error
	GetTable(ctx context.Context, id int64) (*models.Table, error)
	GetTables(ctx context.Context, restaurantID int64) ([]*models.Table, error)
	GetActiveTables(ctx context.Context, restaurantID int64) ([]*models.Table, error)
	UpdateTable(ctx context.Context, table *models.Table) error
	DeactivateTable(ctx context.Context, id int64) error

	CreateMenuCategory(ctx context.Context, category *models.MenuCategory) error
	GetMenuCategories(ctx context.Context, restaurantID int64) ([]*models.MenuCategory, error)
	UpdateMenuCategory(ctx context.Context, category *models.MenuCategory) error
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
	GetMenuItems(ctx context.Context, restaurantID, categoryID int64) ([]*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	SetMenuItemAvailability(ctx context.Context, id int64, available bool) error
	DeleteMenuItem(ctx context.Context, id int64) error

	CreateStaff(ctx context.Context, member *models.StaffMember) error
	GetStaff(ctx context.Context, id int64) (*models.StaffMember, error)
	GetStaffByProfile(ctx context.Context, restaurantID, profileID int64) (*models.StaffMember, error)
	GetStaffByRestaurant(ctx context.Context, restaurantID int64) ([]*models.StaffMember, error)
	GetActiveStaffWithChat(ctx context.Context, restaurantID int64) ([]*models.StaffMember, error)
	UpdateStaff(ctx context.Context, member *models.StaffMember) error
	DeactivateStaff(ctx context.Context, id int64) error

	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfile(ctx context.Context, id int64) (*models.Profile, error)
	GetProfileByPhone(ctx context.Context, phone string) (*models.Profile, error)
	SearchProfiles(ctx context.Context, term string, limit int) ([]*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	UpsertVIPGrant(ctx context.Context, grant *models.VIPGrant) error
	GetVIPGrant(ctx context.Context, profileID, restaurantID int64) (*models.VIPGrant, error)
	RevokeVIPGrant(ctx context.Context, profileID, restaurantID int64) error

	SetNotificationPreference(ctx context.Context, staffID int64, eventType string, enabled bool) error
	GetNotificationPreferences(ctx context.Context, staffID int64) ([]models.NotificationPreference, error)
	WantsNotification(ctx context.Context, staffID int64, eventType string) (bool, error)

	GetRestaurant(id int64) (models.Restaurant, bool)
	GetRestaurants() []models.Restaurant
}

// SnapshotRepository caches availability grids keyed by restaurant and date.
type SnapshotRepository interface {
	GetDay(ctx context.Context, restaurantID int64, date string) (*models.DayAvailability, error)
	SetDay(ctx context.Context, day *models.DayAvailability) error
	InvalidateDay(ctx context.Context, restaurantID int64, date string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Notifier fans a booking event out to the staff who opted in.
type Notifier interface {
	NotifyStaff(ctx context.Context, restaurantID int64, eventType, message string) error
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
	UpdateScheduleSheet(
		ctx context.Context,
		startDate, endDate time.Time,
		dailyBookings map[string][]*models.Booking,
		tables []*models.Table,
	) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status string) error
	EnqueueNotify(ctx context.Context, restaurantID int64, eventType, message string) error
	EnqueueSyncSchedule(ctx context.Context, restaurantID int64, startDate, endDate time.Time) error
}

type BookingService interface {
	ValidateBookingDate(ctx context.Context, restaurantID, profileID int64, startAt time.Time) error
	CreateBooking(ctx context.Context, booking *models.Booking, tableIDs []int64) error
	TransitionBooking(ctx context.Context, bookingID, version int64, toStatus, changedBy string) error
	ReassignTables(ctx context.Context, bookingID, version int64, tableIDs []int64, changedBy string) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByRef(ctx context.Context, ref string) (*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, restaurantID int64, start, end time.Time) ([]*models.Booking, error)
	SearchBookings(ctx context.Context, restaurantID int64, term string, limit int) ([]*models.Booking, error)
	GetStatusHistory(ctx context.Context, bookingID int64) ([]models.StatusChange, error)
}

type TableService interface {
	CheckTables(ctx context.Context, restaurantID int64, tableIDs []int64, startAt time.Time, turnTimeMinutes int) (bool, []models.TableAvailability, error)
	AvailableTables(ctx context.Context, restaurantID int64, startAt time.Time, turnTimeMinutes, partySize int) ([]models.TableAvailability, error)
	DayGrid(ctx context.Context, restaurantID int64, date time.Time) (*models.DayAvailability, error)
	Occupancy(ctx context.Context, restaurantID int64, at time.Time) ([]models.TableOccupancy, error)
	Utilization(ctx context.Context, restaurantID int64, date time.Time) (float64, error)
	ListTables(ctx context.Context, restaurantID int64) ([]*models.Table, error)
	CreateTable(ctx context.Context, actorProfileID int64, table *models.Table) error
	UpdateTable(ctx context.Context, actorProfileID int64, table *models.Table) error
	DeactivateTable(ctx context.Context, actorProfileID, restaurantID, tableID int64) error
}
