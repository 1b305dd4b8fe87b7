package models

// Notification event types staff can opt in or out of.
const (
	NotifyBookingRequested = "booking_requested"
	NotifyStatusChanged    = "status_changed"
	NotifyBookingCancelled = "booking_cancelled"
)

// NotificationEventTypes lists all known event types, in display order.
var NotificationEventTypes = []string{
	NotifyBookingRequested,
	NotifyStatusChanged,
	NotifyBookingCancelled,
}

// NotificationPreference is one staff member's opt-in for one event type.
// Missing rows default to enabled for booking requests and cancellations.
type NotificationPreference struct {
	ID        int64  `json:"id"`
	StaffID   int64  `json:"staff_id"`
	EventType string `json:"event_type"`
	Enabled   bool   `json:"enabled"`
}
