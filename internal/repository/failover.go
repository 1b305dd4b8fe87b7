package repository

import (
	"context"
	"sync/atomic"
	"time"

	"maitred/internal/domain"
	"maitred/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSnapshotRepository serves snapshots from Redis and degrades to the
// in-memory cache when Redis is down, probing for recovery once a minute.
type FailoverSnapshotRepository struct {
	primary   domain.SnapshotRepository
	fallback  domain.SnapshotRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverSnapshotRepository(primary, fallback domain.SnapshotRepository, logger *zerolog.Logger) *FailoverSnapshotRepository {
	return &FailoverSnapshotRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSnapshotRepository) GetDay(ctx context.Context, restaurantID int64, date string) (*models.DayAvailability, error) {
	if !r.isDown.Load() {
		day, err := r.primary.GetDay(ctx, restaurantID, date)
		if err == nil {
			return day, nil
		}
		r.logger.Error().Err(err).Msg("Primary snapshot repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		day, err := r.primary.GetDay(ctx, restaurantID, date)
		if err == nil {
			r.isDown.Store(false)
			return day, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetDay(ctx, restaurantID, date)
}

func (r *FailoverSnapshotRepository) SetDay(ctx context.Context, day *models.DayAvailability) error {
	if !r.isDown.Load() {
		err := r.primary.SetDay(ctx, day)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary snapshot repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.SetDay(ctx, day)
}

func (r *FailoverSnapshotRepository) InvalidateDay(ctx context.Context, restaurantID int64, date string) error {
	// Invalidation must reach both caches or stale grids survive failback.
	ferr := r.fallback.InvalidateDay(ctx, restaurantID, date)

	if !r.isDown.Load() {
		if err := r.primary.InvalidateDay(ctx, restaurantID, date); err != nil {
			r.logger.Error().Err(err).Msg("Primary snapshot repository failed, falling back to memory")
			r.isDown.Store(true)
			r.lastCheck = time.Now()
			return ferr
		}
	}

	return ferr
}
