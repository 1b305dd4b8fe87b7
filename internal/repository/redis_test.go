package repository

import (
	"context"
	"testing"
	"time"

	"maitred/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSnapshotRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	repo := NewRedisSnapshotRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetDay", func(t *testing.T) {
		day := &models.DayAvailability{
			RestaurantID: 1,
			Date:         "2026-09-01",
			Tables: []models.TableAvailability{
				{TableID: 10, Number: 4, Capacity: 2, Section: "patio", Available: false, BlockedBy: 7},
			},
		}

		err := repo.SetDay(ctx, day)
		require.NoError(t, err)

		got, err := repo.GetDay(ctx, 1, "2026-09-01")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, day.RestaurantID, got.RestaurantID)
		assert.Equal(t, day.Date, got.Date)
		require.Len(t, got.Tables, 1)
		assert.Equal(t, int64(7), got.Tables[0].BlockedBy)
	})

	t.Run("GetMissingDay", func(t *testing.T) {
		got, err := repo.GetDay(ctx, 1, "2026-09-02")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("InvalidateDay", func(t *testing.T) {
		day := &models.DayAvailability{RestaurantID: 2, Date: "2026-09-03"}
		require.NoError(t, repo.SetDay(ctx, day))

		err := repo.InvalidateDay(ctx, 2, "2026-09-03")
		require.NoError(t, err)

		got, _ := repo.GetDay(ctx, 2, "2026-09-03")
		assert.Nil(t, got)
	})

	t.Run("Expiry", func(t *testing.T) {
		day := &models.DayAvailability{RestaurantID: 3, Date: "2026-09-04"}
		require.NoError(t, repo.SetDay(ctx, day))

		s.FastForward(time.Hour + time.Minute)

		got, err := repo.GetDay(ctx, 3, "2026-09-04")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisSnapshotRepository(nil, time.Hour)
		_, err := repo.GetDay(ctx, 1, "2026-09-01")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
	})

	t.Run("Ping", func(t *testing.T) {
		err := Ping(ctx, client)
		assert.NoError(t, err)
	})

	t.Run("Close", func(t *testing.T) {
		err := Close(client)
		assert.NoError(t, err)
	})
}
