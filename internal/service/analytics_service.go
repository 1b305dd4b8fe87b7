package service

import (
	"context"
	"time"

	"maitred/internal/domain"
	"maitred/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AnalyticsService derives reporting aggregates from raw bookings. Nothing is
// precomputed; ranges are small enough to scan on demand.
type AnalyticsService struct {
	store  domain.Store
	tables *TableService
	logger *zerolog.Logger
}

func NewAnalyticsService(store domain.Store, tables *TableService, logger *zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{
		store:  store,
		tables: tables,
		logger: logger,
	}
}

// Summarize computes the analytics summary for [from, to] inclusive days.
func (s *AnalyticsService) Summarize(ctx context.Context, restaurantID int64, from, to time.Time) (*models.AnalyticsSummary, error) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	bookings, err := s.store.GetBookingsByDateRange(ctx, restaurantID, start, end)
	if err != nil {
		return nil, err
	}

	summary := &models.AnalyticsSummary{
		RestaurantID:      restaurantID,
		From:              start.Format("2006-01-02"),
		To:                to.Format("2006-01-02"),
		StatusBreakdown:   make(map[string]int),
		BookingsPerDay:    make(map[string]int),
		UtilizationPerDay: make(map[string]float64),
		AvgPartySize:      decimal.Zero,
		NoShowRate:        decimal.Zero,
		CancelRate:        decimal.Zero,
	}

	totalParty := 0
	for _, b := range bookings {
		summary.TotalBookings++
		summary.StatusBreakdown[b.Status]++
		summary.BookingsPerDay[b.StartAt.Format("2006-01-02")]++
		totalParty += b.PartySize

		switch b.Status {
		case models.StatusCompleted:
			summary.CompletedCount++
			// Covers count only parties that actually dined.
			summary.TotalCovers += b.PartySize
		case models.StatusNoShow:
			summary.NoShowCount++
		case models.StatusCancelledByUser, models.StatusCancelledByRestaurant,
			models.StatusDeclinedByRestaurant, models.StatusAutoDeclined,
			models.StatusAcceptanceFailed:
			summary.CancelledCount++
		}
	}

	if summary.TotalBookings > 0 {
		total := decimal.NewFromInt(int64(summary.TotalBookings))
		summary.AvgPartySize = decimal.NewFromInt(int64(totalParty)).DivRound(total, 2)
		summary.NoShowRate = decimal.NewFromInt(int64(summary.NoShowCount)).DivRound(total, 4)
		summary.CancelRate = decimal.NewFromInt(int64(summary.CancelledCount)).DivRound(total, 4)
	}

	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		util, err := s.tables.Utilization(ctx, restaurantID, day)
		if err != nil {
			s.logger.Warn().Err(err).Str("day", day.Format("2006-01-02")).Msg("utilization failed")
			continue
		}
		summary.UtilizationPerDay[day.Format("2006-01-02")] = util
	}

	return summary, nil
}
