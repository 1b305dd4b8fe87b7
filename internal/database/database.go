package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"maitred/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const timeLayout = "2006-01-02 15:04:05"

// DB is the SQLite-backed store for all front-of-house state. Restaurant
// settings are seeded from config and cached in memory for availability math.
type DB struct {
	*sql.DB
	logger *zerolog.Logger

	mu          sync.RWMutex
	restaurants map[int64]models.Restaurant
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	if logger != nil {
		logger.Info().Str("path", path).Msg("database initialized")
	}

	return &DB{
		DB:          sqlDB,
		logger:      logger,
		restaurants: make(map[int64]models.Restaurant),
	}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS restaurant_tables (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			restaurant_id INTEGER NOT NULL,
			number INTEGER NOT NULL,
			capacity INTEGER NOT NULL,
			section TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(restaurant_id, number)
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ref TEXT NOT NULL UNIQUE,
			restaurant_id INTEGER NOT NULL,
			profile_id INTEGER,
			guest_name TEXT NOT NULL,
			guest_phone TEXT NOT NULL DEFAULT '',
			start_at DATETIME NOT NULL,
			party_size INTEGER NOT NULL,
			turn_time INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			offer_code TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS booking_tables (
			booking_id INTEGER NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
			table_id INTEGER NOT NULL REFERENCES restaurant_tables(id),
			PRIMARY KEY (booking_id, table_id)
		)`,
		`CREATE TABLE IF NOT EXISTS booking_status_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			booking_id INTEGER NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
			from_status TEXT NOT NULL,
			to_status TEXT NOT NULL,
			changed_by TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			visit_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS vip_grants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			profile_id INTEGER NOT NULL REFERENCES profiles(id),
			restaurant_id INTEGER NOT NULL,
			extra_window_days INTEGER NOT NULL DEFAULT 0,
			expires_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(profile_id, restaurant_id)
		)`,
		`CREATE TABLE IF NOT EXISTS restaurant_staff (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			restaurant_id INTEGER NOT NULL,
			profile_id INTEGER NOT NULL REFERENCES profiles(id),
			chat_id INTEGER NOT NULL DEFAULT 0,
			role TEXT NOT NULL,
			permissions TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(restaurant_id, profile_id)
		)`,
		`CREATE TABLE IF NOT EXISTS menu_categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			restaurant_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS menu_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			restaurant_id INTEGER NOT NULL,
			category_id INTEGER NOT NULL REFERENCES menu_categories(id),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price TEXT NOT NULL,
			is_available BOOLEAN NOT NULL DEFAULT 1,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS notification_preferences (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			staff_id INTEGER NOT NULL REFERENCES restaurant_staff(id),
			event_type TEXT NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT 1,
			UNIQUE(staff_id, event_type)
		)`,
		`CREATE TABLE IF NOT EXISTS sync_queue (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_type TEXT NOT NULL,
			booking_id INTEGER NOT NULL DEFAULT 0,
			payload TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			retry_count INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			processed_at DATETIME,
			next_retry_at DATETIME
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_restaurant_start ON bookings(restaurant_id, start_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_profile ON bookings(profile_id)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_tables_table ON booking_tables(table_id)`,
		`CREATE INDEX IF NOT EXISTS idx_status_history_booking ON booking_status_history(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tables_restaurant ON restaurant_tables(restaurant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_menu_items_restaurant ON menu_items(restaurant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_staff_restaurant ON restaurant_staff(restaurant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("exec %q: %w", query[:40], err)
		}
	}
	return nil
}

// SetRestaurants replaces the in-memory restaurant settings cache.
func (db *DB) SetRestaurants(restaurants []models.Restaurant) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.restaurants = make(map[int64]models.Restaurant, len(restaurants))
	for _, r := range restaurants {
		db.restaurants[r.ID] = r
	}
}

// GetRestaurant returns the cached settings for a restaurant.
func (db *DB) GetRestaurant(id int64) (models.Restaurant, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	r, ok := db.restaurants[id]
	return r, ok
}

// GetRestaurants returns all cached restaurants.
func (db *DB) GetRestaurants() []models.Restaurant {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]models.Restaurant, 0, len(db.restaurants))
	for _, r := range db.restaurants {
		out = append(out, r)
	}
	return out
}

// SeedTables inserts seed tables that do not exist yet. Existing rows keep
// their current capacity and section so operator edits survive restarts.
func (db *DB) SeedTables(ctx context.Context, tables []models.Table) error {
	query := `INSERT INTO restaurant_tables (restaurant_id, number, capacity, section, is_active, sort_order)
	          VALUES (?, ?, ?, ?, ?, ?)
	          ON CONFLICT(restaurant_id, number) DO NOTHING`
	for _, t := range tables {
		if _, err := db.ExecContext(ctx, query, t.RestaurantID, t.Number, t.Capacity, t.Section, t.IsActive, t.SortOrder); err != nil {
			return fmt.Errorf("seed table %d/%d: %w", t.RestaurantID, t.Number, err)
		}
	}
	return nil
}
