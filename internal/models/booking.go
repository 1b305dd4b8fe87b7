package models

import "time"

type Booking struct {
	ID           int64     `json:"id"`
	Ref          string    `json:"ref"`
	RestaurantID int64     `json:"restaurant_id"`
	ProfileID    int64     `json:"profile_id,omitempty"`
	GuestName    string    `json:"guest_name"`
	GuestPhone   string    `json:"guest_phone"`
	StartAt      time.Time `json:"start_at"`
	PartySize    int       `json:"party_size"`
	// TurnTimeMinutes is how long the party is assumed to hold its tables.
	TurnTimeMinutes int       `json:"turn_time_minutes"`
	Status          string    `json:"status"`
	TableIDs        []int64   `json:"table_ids,omitempty"`
	OfferCode       string    `json:"offer_code,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Version         int64     `json:"version"`
}

// EndAt is the exclusive end of the occupancy interval [StartAt, EndAt).
func (b *Booking) EndAt() time.Time {
	return b.StartAt.Add(time.Duration(b.TurnTimeMinutes) * time.Minute)
}

// Overlaps reports whether the booking's occupancy interval intersects
// [start, end). Intervals that merely touch do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartAt.Before(end) && b.EndAt().After(start)
}

// HoldsTable reports whether the booking has the table assigned.
func (b *Booking) HoldsTable(tableID int64) bool {
	for _, id := range b.TableIDs {
		if id == tableID {
			return true
		}
	}
	return false
}

// StatusChange is one row of a booking's status history.
type StatusChange struct {
	ID         int64     `json:"id"`
	BookingID  int64     `json:"booking_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ChangedBy  string    `json:"changed_by"`
	CreatedAt  time.Time `json:"created_at"`
}
