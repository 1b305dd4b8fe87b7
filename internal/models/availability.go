package models

import "time"

// TableAvailability describes one table's state for a requested interval.
type TableAvailability struct {
	TableID   int64  `json:"table_id"`
	Number    int    `json:"number"`
	Capacity  int    `json:"capacity"`
	Section   string `json:"section"`
	Available bool   `json:"available"`
	// BlockedBy is the booking holding the table when unavailable, 0 otherwise.
	BlockedBy int64 `json:"blocked_by,omitempty"`
}

// DayAvailability is the cached availability grid for one restaurant and one
// requested interval. Snapshots are invalidated on booking change events.
type DayAvailability struct {
	RestaurantID int64               `json:"restaurant_id"`
	Date         string              `json:"date"`
	Start        time.Time           `json:"start"`
	End          time.Time           `json:"end"`
	Tables       []TableAvailability `json:"tables"`
	ComputedAt   time.Time           `json:"computed_at"`
}

// TableOccupancy is the live floor view entry for one table.
type TableOccupancy struct {
	TableID    int64     `json:"table_id"`
	Number     int       `json:"number"`
	Section    string    `json:"section"`
	Occupied   bool      `json:"occupied"`
	BookingID  int64     `json:"booking_id,omitempty"`
	BookingRef string    `json:"booking_ref,omitempty"`
	Status     string    `json:"status,omitempty"`
	GuestName  string    `json:"guest_name,omitempty"`
	PartySize  int       `json:"party_size,omitempty"`
	FreeAt     time.Time `json:"free_at,omitempty"`
}
