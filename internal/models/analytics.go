package models

import "github.com/shopspring/decimal"

// AnalyticsSummary aggregates one restaurant's bookings over a date range.
type AnalyticsSummary struct {
	RestaurantID    int64           `json:"restaurant_id"`
	From            string          `json:"from"`
	To              string          `json:"to"`
	TotalBookings   int             `json:"total_bookings"`
	TotalCovers     int             `json:"total_covers"`
	AvgPartySize    decimal.Decimal `json:"avg_party_size"`
	CompletedCount  int             `json:"completed_count"`
	NoShowCount     int             `json:"no_show_count"`
	CancelledCount  int             `json:"cancelled_count"`
	NoShowRate      decimal.Decimal `json:"no_show_rate"`
	CancelRate      decimal.Decimal `json:"cancel_rate"`
	StatusBreakdown map[string]int  `json:"status_breakdown"`
	// BookingsPerDay is keyed by "2006-01-02".
	BookingsPerDay map[string]int `json:"bookings_per_day"`
	// UtilizationPerDay is the share of table-minutes booked, keyed by day.
	UtilizationPerDay map[string]float64 `json:"utilization_per_day"`
}
