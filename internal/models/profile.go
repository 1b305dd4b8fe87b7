package models

import "time"

// Profile is a guest record. Bookings may reference a profile or carry only
// the inline guest name and phone.
type Profile struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	VisitCount int64     `json:"visit_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// VIPGrant extends a profile's booking window at one restaurant until it
// expires. Expired grants are inert but kept for history.
type VIPGrant struct {
	ID              int64     `json:"id"`
	ProfileID       int64     `json:"profile_id"`
	RestaurantID    int64     `json:"restaurant_id"`
	ExtraWindowDays int       `json:"extra_window_days"`
	ExpiresAt       time.Time `json:"expires_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Active reports whether the grant is in force at the given time.
func (g *VIPGrant) Active(at time.Time) bool {
	return g.ExpiresAt.After(at)
}
