package models

const (
	// DefaultTurnTimeMinutes is assumed when neither the restaurant nor the
	// booking specifies a turn time.
	DefaultTurnTimeMinutes = 90

	// DefaultBookingWindowDays caps how far ahead a non-VIP booking may be.
	DefaultBookingWindowDays = 30

	// DefaultOperatingMinutes is the fallback operating window (10:00-23:00)
	// when a restaurant's hours cannot be parsed.
	DefaultOperatingMinutes = 13 * 60

	// AvailabilityCacheTTL is the lifetime of a cached availability snapshot
	// in seconds; change events invalidate snapshots earlier.
	AvailabilityCacheTTL = 5 * 60

	// WorkerQueueSize bounds the in-memory outbound task queue.
	WorkerQueueSize = 1000
)
