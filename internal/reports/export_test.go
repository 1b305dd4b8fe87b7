package reports

import (
	"context"
	"os"
	"testing"
	"time"

	"maitred/internal/database"
	"maitred/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportSchedule(t *testing.T) {
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	db.SetRestaurants([]models.Restaurant{{
		ID:                     1,
		Name:                   "Test Bistro",
		OpensAt:                "10:00",
		ClosesAt:               "23:00",
		DefaultTurnTimeMinutes: 90,
		BookingWindowDays:      30,
	}})

	ctx := context.Background()
	table := &models.Table{RestaurantID: 1, Number: 1, Capacity: 4, Section: "patio", IsActive: true}
	require.NoError(t, db.CreateTable(ctx, table))

	startAt := time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)
	booking := &models.Booking{
		RestaurantID:    1,
		Ref:             "BK-export",
		GuestName:       "Ada",
		StartAt:         startAt,
		PartySize:       2,
		TurnTimeMinutes: 90,
		Status:          models.StatusConfirmed,
	}
	require.NoError(t, db.CreateBookingWithTables(ctx, booking, []int64{table.ID}))

	exporter := NewExporter(db, t.TempDir(), &logger)

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	filePath, err := exporter.ExportSchedule(ctx, 1, from, to)
	require.NoError(t, err)

	_, err = os.Stat(filePath)
	require.NoError(t, err)

	f, err := excelize.OpenFile(filePath)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue("Schedule", "A1")
	require.NoError(t, err)
	assert.Contains(t, title, "Test Bistro")

	// Row 3 is the first table, column B the first date.
	label, err := f.GetCellValue("Schedule", "A3")
	require.NoError(t, err)
	assert.Contains(t, label, "Table 1")
	assert.Contains(t, label, "patio")

	cell, err := f.GetCellValue("Schedule", "B3")
	require.NoError(t, err)
	assert.Contains(t, cell, "Ada")
	assert.Contains(t, cell, "19:00")

	// The second day has no bookings, so its column stays unwritten.
	empty, err := f.GetCellValue("Schedule", "C3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStatusIcon(t *testing.T) {
	assert.Equal(t, iconPending, statusIcon(models.StatusPending))
	assert.Equal(t, iconConfirmed, statusIcon(models.StatusConfirmed))
	assert.Equal(t, iconCancelled, statusIcon(models.StatusNoShow))
	assert.Equal(t, iconCancelled, statusIcon(models.StatusCancelledByUser))
	assert.Equal(t, iconDining, statusIcon(models.StatusMainCourse))
	assert.Equal(t, iconDining, statusIcon(models.StatusCompleted))
}
