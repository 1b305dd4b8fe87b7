package database

import "errors"

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotAvailable is returned when a requested table is held by an
	// overlapping booking.
	ErrNotAvailable = errors.New("table not available for the requested time")

	// ErrInvalidTransition is returned when a status change is not permitted
	// by the dining lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConcurrentModification is returned when a versioned update loses an
	// optimistic-concurrency race.
	ErrConcurrentModification = errors.New("booking was modified concurrently")

	// ErrPastDate is returned for bookings in the past.
	ErrPastDate = errors.New("booking time is in the past")

	// ErrDateTooFar is returned when a booking exceeds the guest's booking
	// window.
	ErrDateTooFar = errors.New("booking time is beyond the booking window")

	// ErrPermissionDenied is returned when a staff member lacks the required
	// permission.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNoTables is returned when a booking mutation names no tables.
	ErrNoTables = errors.New("at least one table is required")
)
