package models

// Dining lifecycle statuses. A booking moves forward through the seated
// stages; stages may be skipped but never revisited.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusArrived    = "arrived"
	StatusSeated     = "seated"
	StatusOrdered    = "ordered"
	StatusAppetizers = "appetizers"
	StatusMainCourse = "main_course"
	StatusDessert    = "dessert"
	StatusPayment    = "payment"
	StatusCompleted  = "completed"

	StatusNoShow                = "no_show"
	StatusCancelledByUser       = "cancelled_by_user"
	StatusCancelledByRestaurant = "cancelled_by_restaurant"
	StatusDeclinedByRestaurant  = "declined_by_restaurant"
	StatusAutoDeclined          = "auto_declined"
	StatusAcceptanceFailed      = "acceptance_failed"
)

// statusTransitions is the full dining state machine. Terminal statuses have
// no entry and therefore no exits.
var statusTransitions = map[string][]string{
	StatusPending: {
		StatusConfirmed, StatusDeclinedByRestaurant, StatusAutoDeclined,
		StatusAcceptanceFailed, StatusCancelledByUser, StatusCancelledByRestaurant,
	},
	StatusConfirmed: {
		StatusArrived, StatusNoShow, StatusCancelledByUser, StatusCancelledByRestaurant,
	},
	StatusArrived:    {StatusSeated, StatusCancelledByRestaurant},
	StatusSeated:     {StatusOrdered, StatusPayment},
	StatusOrdered:    {StatusAppetizers, StatusMainCourse, StatusPayment},
	StatusAppetizers: {StatusMainCourse, StatusDessert, StatusPayment},
	StatusMainCourse: {StatusDessert, StatusPayment},
	StatusDessert:    {StatusPayment},
	StatusPayment:    {StatusCompleted},
}

var statusLabels = map[string]string{
	StatusPending:               "Pending",
	StatusConfirmed:             "Confirmed",
	StatusArrived:               "Arrived",
	StatusSeated:                "Seated",
	StatusOrdered:               "Ordered",
	StatusAppetizers:            "Appetizers",
	StatusMainCourse:            "Main course",
	StatusDessert:               "Dessert",
	StatusPayment:               "Payment",
	StatusCompleted:             "Completed",
	StatusNoShow:                "No-show",
	StatusCancelledByUser:       "Cancelled by guest",
	StatusCancelledByRestaurant: "Cancelled by restaurant",
	StatusDeclinedByRestaurant:  "Declined",
	StatusAutoDeclined:          "Auto-declined",
	StatusAcceptanceFailed:      "Acceptance failed",
}

// statusProgress maps each forward-path status to a 0-100 meal progress
// percentage. Non-completed terminal statuses are absent and report 0.
var statusProgress = map[string]int{
	StatusPending:    0,
	StatusConfirmed:  5,
	StatusArrived:    10,
	StatusSeated:     20,
	StatusOrdered:    35,
	StatusAppetizers: 50,
	StatusMainCourse: 65,
	StatusDessert:    80,
	StatusPayment:    90,
	StatusCompleted:  100,
}

// CanonicalSequence is the happy-path order of statuses, used for reports.
var CanonicalSequence = []string{
	StatusPending, StatusConfirmed, StatusArrived, StatusSeated, StatusOrdered,
	StatusAppetizers, StatusMainCourse, StatusDessert, StatusPayment, StatusCompleted,
}

// NextStatuses returns the permitted transitions out of the given status.
// Terminal or unknown statuses return nil.
func NextStatuses(status string) []string {
	next, ok := statusTransitions[status]
	if !ok {
		return nil
	}
	return append([]string(nil), next...)
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to string) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func IsTerminal(status string) bool {
	_, ok := statusTransitions[status]
	return !ok && IsValidStatus(status)
}

// IsValidStatus reports whether the string names a known status.
func IsValidStatus(status string) bool {
	_, ok := statusLabels[status]
	return ok
}

// IsBlocking reports whether a booking in this status holds its tables.
// Every non-terminal status blocks.
func IsBlocking(status string) bool {
	_, ok := statusTransitions[status]
	return ok
}

// StatusLabel returns the display label, or the raw status when unknown.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// StatusProgress maps a status to its 0-100 meal progress percentage.
func StatusProgress(status string) int {
	return statusProgress[status]
}

// EstimateRemainingMinutes estimates how long the party will keep its tables.
// Before seating the full turn time remains; from seated on, the estimate
// scales with meal progress. Terminal statuses hold nothing.
func EstimateRemainingMinutes(status string, turnTimeMinutes int) int {
	if IsTerminal(status) {
		return 0
	}
	progress := StatusProgress(status)
	if progress < statusProgress[StatusSeated] {
		return turnTimeMinutes
	}
	return turnTimeMinutes * (100 - progress) / 100
}
