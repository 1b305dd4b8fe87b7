package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"maitred/internal/models"
)

// MemorySnapshotRepository is the in-process fallback snapshot cache.
type MemorySnapshotRepository struct {
	snapshots sync.Map
	ttl       time.Duration
}

type snapshotEntry struct {
	day       *models.DayAvailability
	expiresAt time.Time
}

func NewMemorySnapshotRepository(ttl time.Duration) *MemorySnapshotRepository {
	return &MemorySnapshotRepository{
		ttl: ttl,
	}
}

func memoryKey(restaurantID int64, date string) string {
	return fmt.Sprintf("%d:%s", restaurantID, date)
}

func (r *MemorySnapshotRepository) GetDay(ctx context.Context, restaurantID int64, date string) (*models.DayAvailability, error) {
	val, ok := r.snapshots.Load(memoryKey(restaurantID, date))
	if !ok {
		return nil, nil
	}
	entry := val.(*snapshotEntry)
	if time.Now().After(entry.expiresAt) {
		r.snapshots.Delete(memoryKey(restaurantID, date))
		return nil, nil
	}
	return entry.day, nil
}

func (r *MemorySnapshotRepository) SetDay(ctx context.Context, day *models.DayAvailability) error {
	r.snapshots.Store(memoryKey(day.RestaurantID, day.Date), &snapshotEntry{
		day:       day,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemorySnapshotRepository) InvalidateDay(ctx context.Context, restaurantID int64, date string) error {
	r.snapshots.Delete(memoryKey(restaurantID, date))
	return nil
}
