package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"maitred/internal/domain"
	"maitred/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	iconConfirmed = "✅"
	iconPending   = "⏳"
	iconCancelled = "❌"
	iconDining    = "🍽"
)

// Exporter renders the schedule grid (tables down, dates across) to an XLSX
// file managers can print for service.
type Exporter struct {
	store      domain.Store
	exportPath string
	logger     *zerolog.Logger
}

func NewExporter(store domain.Store, exportPath string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		store:      store,
		exportPath: exportPath,
		logger:     logger,
	}
}

// ExportSchedule writes the grid for [startDate, endDate] and returns the
// file path.
func (e *Exporter) ExportSchedule(ctx context.Context, restaurantID int64, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.exportPath, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	dailyBookings, err := e.store.GetDailyBookings(ctx, restaurantID,
		startDate, endDate.AddDate(0, 0, 1))
	if err != nil {
		return "", fmt.Errorf("error getting bookings: %v", err)
	}

	tables, err := e.store.GetActiveTables(ctx, restaurantID)
	if err != nil {
		return "", fmt.Errorf("error getting tables: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Schedule"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	restaurantName := fmt.Sprintf("Restaurant %d", restaurantID)
	if r, ok := e.store.GetRestaurant(restaurantID); ok {
		restaurantName = r.Name
	}
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s: %s - %s",
		restaurantName, startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	dateCols := e.writeDateHeaders(f, sheetName, startDate, endDate)
	e.writeTableHeaders(f, sheetName, tables)
	e.writeBookingCells(f, sheetName, dailyBookings, tables, dateCols)

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	for i := 'B'; i <= 'Z'; i++ {
		_ = f.SetColWidth(sheetName, string(i), string(i), 20)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(dateCols) + 1)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", style)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("schedule_%d_%s_to_%s.xlsx",
		restaurantID,
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.exportPath, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}

func (e *Exporter) writeDateHeaders(f *excelize.File, sheetName string, startDate, endDate time.Time) map[string]int {
	col := 2
	currentDate := startDate
	dateCols := make(map[string]int)

	for !currentDate.After(endDate) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, currentDate.Format("02.01"))
		dateCols[currentDate.Format("2006-01-02")] = col

		style, _ := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		_ = f.SetCellStyle(sheetName, cell, cell, style)

		col++
		currentDate = currentDate.AddDate(0, 0, 1)
	}
	return dateCols
}

func (e *Exporter) writeTableHeaders(f *excelize.File, sheetName string, tables []*models.Table) {
	row := 3
	for _, table := range tables {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		label := fmt.Sprintf("Table %d (%d seats)", table.Number, table.Capacity)
		if table.Section != "" {
			label = fmt.Sprintf("Table %d (%d seats, %s)", table.Number, table.Capacity, table.Section)
		}
		_ = f.SetCellValue(sheetName, cell, label)

		style, _ := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
			Font: &excelize.Font{Bold: true},
		})
		_ = f.SetCellStyle(sheetName, cell, cell, style)

		row++
	}
}

func (e *Exporter) writeBookingCells(
	f *excelize.File, sheetName string,
	dailyBookings map[string][]*models.Booking,
	tables []*models.Table,
	dateCols map[string]int,
) {
	for dateKey, bookings := range dailyBookings {
		col, exists := dateCols[dateKey]
		if !exists {
			continue
		}

		row := 3
		for _, table := range tables {
			cell, _ := excelize.CoordinatesToCellName(col, row)

			var tableBookings []*models.Booking
			for _, b := range bookings {
				if b.HoldsTable(table.ID) {
					tableBookings = append(tableBookings, b)
				}
			}

			var cellValue string
			for _, b := range tableBookings {
				if !models.IsBlocking(b.Status) && b.Status != models.StatusCompleted {
					continue
				}
				cellValue += fmt.Sprintf("%s %s %s x%d\n",
					statusIcon(b.Status), b.StartAt.Format("15:04"), b.GuestName, b.PartySize)
				if b.Notes != "" {
					cellValue += fmt.Sprintf("   💬 %s\n", b.Notes)
				}
			}
			if cellValue == "" {
				cellValue = "Free"
			}

			_ = f.SetCellValue(sheetName, cell, cellValue)

			if styleID, err := e.cellStyle(f, tableBookings); err == nil {
				_ = f.SetCellStyle(sheetName, cell, cell, styleID)
			}
			row++
		}
	}
}

func statusIcon(status string) string {
	switch status {
	case models.StatusPending:
		return iconPending
	case models.StatusConfirmed:
		return iconConfirmed
	case models.StatusNoShow, models.StatusCancelledByUser, models.StatusCancelledByRestaurant,
		models.StatusDeclinedByRestaurant, models.StatusAutoDeclined, models.StatusAcceptanceFailed:
		return iconCancelled
	default:
		return iconDining
	}
}

// cellStyle colors a cell by its day: empty is white, any pending booking is
// yellow, otherwise green.
func (e *Exporter) cellStyle(f *excelize.File, tableBookings []*models.Booking) (int, error) {
	fill := "#FFFFFF"
	hasActive := false
	hasPending := false
	for _, b := range tableBookings {
		if !models.IsBlocking(b.Status) {
			continue
		}
		hasActive = true
		if b.Status == models.StatusPending {
			hasPending = true
		}
	}
	if hasActive {
		fill = "#C6EFCE"
		if hasPending {
			fill = "#FFEB9C"
		}
	}

	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
			WrapText:   true,
		},
	})
}
