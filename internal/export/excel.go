// Package export renders occupancy reports: a per-space × per-day grid of
// bookings over a date range, as an XLSX workbook.
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"deskhive/internal/domain"
	"deskhive/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

type Exporter struct {
	reader domain.StoreReader
	logger *zerolog.Logger
	now    func() time.Time
}

func NewExporter(reader domain.StoreReader, logger *zerolog.Logger) *Exporter {
	return &Exporter{reader: reader, logger: logger, now: time.Now}
}

// WriteRange writes the occupancy grid for [startDate, endDate] to w.
// Cancelled bookings are excluded; completed shows as its effective status.
func (e *Exporter) WriteRange(ctx context.Context, w io.Writer, startDate, endDate time.Time) error {
	if endDate.Before(startDate) {
		return fmt.Errorf("export range end %s precedes start %s", endDate.Format("2006-01-02"), startDate.Format("2006-01-02"))
	}

	spaces, err := e.reader.ListActiveSpaces(ctx)
	if err != nil {
		return fmt.Errorf("error getting active spaces: %w", err)
	}

	bookings, err := e.reader.ListBookings(ctx, models.BookingFilter{
		Statuses: []string{models.StatusPending, models.StatusConfirmed},
		From:     startDate,
		To:       endDate.AddDate(0, 0, 1),
	})
	if err != nil {
		return fmt.Errorf("error getting bookings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02")))

	days := e.writeDateHeaders(f, startDate, endDate)
	e.writeSpaceRows(f, spaces, days, bookings)

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	if len(days) > 0 {
		last, _ := excelize.ColumnNumberToName(len(days) + 1)
		_ = f.SetColWidth(sheetName, "B", last, 16)
		_ = f.MergeCell(sheetName, "A1", last+"1")
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err == nil {
		_ = f.SetCellStyle(sheetName, "A1", "A1", style)
	}

	return f.Write(w)
}

func (e *Exporter) writeDateHeaders(f *excelize.File, startDate, endDate time.Time) []time.Time {
	var days []time.Time
	col := 2
	for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, day.Format("Mon 02.01"))
		days = append(days, day)
		col++
	}
	return days
}

func (e *Exporter) writeSpaceRows(f *excelize.File, spaces []*models.Space, days []time.Time, bookings []*models.Booking) {
	now := e.now()
	for i, space := range spaces {
		row := 3 + i
		nameCell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, nameCell, space.Name)

		for j, day := range days {
			dayWindow := models.Window{Start: day, End: day.AddDate(0, 0, 1)}
			count := 0
			status := ""
			for _, b := range bookings {
				if b.SpaceID != space.ID {
					continue
				}
				if !dayWindow.Overlaps(models.Window{Start: b.StartTime, End: b.EndTime}) {
					continue
				}
				count++
				status = b.EffectiveStatus(now)
			}

			cell, _ := excelize.CoordinatesToCellName(2+j, row)
			switch {
			case count == 0:
				_ = f.SetCellValue(sheetName, cell, "free")
			case count == 1:
				_ = f.SetCellValue(sheetName, cell, status)
			default:
				_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%d/%d booked", count, space.Capacity))
			}
		}
	}
}
