package models

import "time"

// Restaurant holds the per-venue settings that drive availability and
// utilization. Venues are seeded from the restaurants yaml file.
type Restaurant struct {
	ID   int64  `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	// OpensAt and ClosesAt are local times in HH:MM; they bound the
	// operating window used for utilization.
	OpensAt                string `yaml:"opens_at" json:"opens_at"`
	ClosesAt               string `yaml:"closes_at" json:"closes_at"`
	DefaultTurnTimeMinutes int    `yaml:"default_turn_time_minutes" json:"default_turn_time_minutes"`
	BookingWindowDays      int    `yaml:"booking_window_days" json:"booking_window_days"`
}

// OperatingMinutes returns the length of the operating window in minutes.
// A window that cannot be parsed falls back to DefaultOperatingMinutes.
func (r *Restaurant) OperatingMinutes() int {
	open, err1 := time.Parse("15:04", r.OpensAt)
	closeAt, err2 := time.Parse("15:04", r.ClosesAt)
	if err1 != nil || err2 != nil || !closeAt.After(open) {
		return DefaultOperatingMinutes
	}
	return int(closeAt.Sub(open).Minutes())
}

type Table struct {
	ID           int64     `yaml:"id" json:"id"`
	RestaurantID int64     `yaml:"restaurant_id" json:"restaurant_id"`
	Number       int       `yaml:"number" json:"number"`
	Capacity     int       `yaml:"capacity" json:"capacity"`
	Section      string    `yaml:"section" json:"section"`
	IsActive     bool      `yaml:"is_active" json:"is_active"`
	SortOrder    int64     `yaml:"sort_order" json:"sort_order"`
	CreatedAt    time.Time `yaml:"-" json:"created_at"`
	UpdatedAt    time.Time `yaml:"-" json:"updated_at"`
}
