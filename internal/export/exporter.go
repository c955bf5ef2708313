package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"helmsman/internal/calendar"
	"helmsman/internal/domain"
	"helmsman/internal/models"
)

const sheetName = "Schedule"

// ScheduleExporter renders a captain's month into an Excel workbook:
// one row per day, one column per vessel, reservations listed in the cell.
type ScheduleExporter struct {
	store  domain.Store
	path   string
	logger *zerolog.Logger
}

func NewScheduleExporter(store domain.Store, path string, logger *zerolog.Logger) *ScheduleExporter {
	return &ScheduleExporter{store: store, path: path, logger: logger}
}

// MonthlySchedule returns the workbook as bytes for direct download.
func (e *ScheduleExporter) MonthlySchedule(ctx context.Context, captainID string, ym calendar.YearMonth) ([]byte, error) {
	f, err := e.build(ctx, captainID, ym)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveMonthlySchedule writes the workbook into the configured exports
// directory and returns the file path.
func (e *ScheduleExporter) SaveMonthlySchedule(ctx context.Context, captainID string, ym calendar.YearMonth) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f, err := e.build(ctx, captainID, ym)
	if err != nil {
		return "", err
	}
	defer f.Close()

	filePath := filepath.Join(e.path, fmt.Sprintf("schedule_%s_%s.xlsx", captainID, ym.String()))
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("schedule workbook created")
	return filePath, nil
}

func (e *ScheduleExporter) build(ctx context.Context, captainID string, ym calendar.YearMonth) (*excelize.File, error) {
	captain, err := e.store.GetCaptain(ctx, captainID)
	if err != nil {
		return nil, err
	}
	vessels, err := e.store.GetCaptainVessels(ctx, captainID)
	if err != nil {
		return nil, err
	}
	sort.Slice(vessels, func(i, j int) bool { return vessels[i].Name < vessels[j].Name })

	loc := captain.Location()
	monthStart := time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, 0)
	reservations, err := e.store.CaptainReservationsInRange(ctx, captainID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	// Группируем заявки по дню и судну
	byCell := make(map[string]map[string][]*models.Reservation)
	for _, r := range reservations {
		day := calendar.DateKey(r.ScheduledStart, loc)
		if byCell[day] == nil {
			byCell[day] = make(map[string][]*models.Reservation)
		}
		byCell[day][r.VesselID] = append(byCell[day][r.VesselID], r)
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s: %s", captain.DisplayName, ym.String()))
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	e.writeVesselHeaders(f, vessels)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for day := 1; day <= ym.Days(); day++ {
		row := day + 2
		date := time.Date(ym.Year, ym.Month, day, 0, 0, 0, 0, loc)
		dayCell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, dayCell, date.Format("02.01 Mon"))
		_ = f.SetCellStyle(sheetName, dayCell, dayCell, headerStyle)

		dayKey := calendar.DateKey(date, loc)
		for vi, vessel := range vessels {
			cell, _ := excelize.CoordinatesToCellName(vi+2, row)
			cellReservations := byCell[dayKey][vessel.ID]
			_ = f.SetCellValue(sheetName, cell, renderCell(cellReservations, vessel.Capacity))
			if styleID, err := e.cellStyle(f, cellReservations, vessel.Capacity); err == nil {
				_ = f.SetCellStyle(sheetName, cell, cell, styleID)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 14)
	if len(vessels) > 0 {
		last, _ := excelize.ColumnNumberToName(len(vessels) + 1)
		_ = f.SetColWidth(sheetName, "B", last, 32)
		_ = f.MergeCell(sheetName, "A1", last+"1")
	}
	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

func (e *ScheduleExporter) writeVesselHeaders(f *excelize.File, vessels []*models.Vessel) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for vi, vessel := range vessels {
		cell, _ := excelize.CoordinatesToCellName(vi+2, 2)
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%s (%d)", vessel.Name, vessel.Capacity))
		_ = f.SetCellStyle(sheetName, cell, cell, style)
	}
}

func renderCell(reservations []*models.Reservation, capacity int) string {
	if len(reservations) == 0 {
		return ""
	}

	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].ScheduledStart.Before(reservations[j].ScheduledStart)
	})

	booked := 0
	var out string
	for _, r := range reservations {
		out += fmt.Sprintf("%s %s %s×%d (%s)\n",
			statusIcon(r.Status),
			r.ScheduledStart.Format("15:04"),
			r.GuestName,
			r.PartySize,
			r.Status)
		if r.CountsAgainstCapacity() {
			booked += r.PartySize
		}
	}
	out += fmt.Sprintf("\nBooked: %d/%d", booked, capacity)
	return out
}

func statusIcon(status models.Status) string {
	switch status {
	case models.StatusConfirmed, models.StatusCompleted, models.StatusRescheduled:
		return "✅"
	case models.StatusPendingDeposit:
		return "⏳"
	case models.StatusWeatherHold:
		return "🌧"
	case models.StatusCancelled, models.StatusExpired, models.StatusNoShow:
		return "❌"
	default:
		return "❓"
	}
}

// cellStyle colors a day cell by how loaded the vessel is: red when full,
// yellow when an unconfirmed deposit or weather hold is pending, green when
// everything is confirmed.
func (e *ScheduleExporter) cellStyle(f *excelize.File, reservations []*models.Reservation, capacity int) (int, error) {
	base := excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true}

	booked := 0
	hasPending := false
	active := 0
	for _, r := range reservations {
		if !r.CountsAgainstCapacity() {
			continue
		}
		active++
		booked += r.PartySize
		if r.Status == models.StatusPendingDeposit || r.Status == models.StatusWeatherHold {
			hasPending = true
		}
	}

	color := "#FFFFFF"
	switch {
	case active == 0:
	case booked >= capacity:
		color = "#FFC7CE"
	case hasPending:
		color = "#FFEB9C"
	default:
		color = "#C6EFCE"
	}

	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &base,
	})
}
