package timesheet

import (
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	// SheetName is the single worksheet every timesheet carries.
	SheetName = "Timesheet"
	// TitleCell holds the employee name; the caching layer stamps it when
	// materializing a per-employee copy from a blank template.
	TitleCell = "A1"
	// periodCell holds the human-readable reporting period.
	periodCell = "A2"

	headerRow    = 4
	firstDataRow = 5
)

// Generator renders month-grid timesheet spreadsheets for a fixed reporting
// period. The period is captured at construction so that every render and
// every cache key derived from it refer to the same month and year.
type Generator struct {
	month time.Month
	year  int
}

// NewGenerator creates a generator for the reporting period containing now.
func NewGenerator(now time.Time) *Generator {
	return &Generator{month: now.Month(), year: now.Year()}
}

// Period returns the reporting month and year the generator was built for.
func (g *Generator) Period() (time.Month, int) {
	return g.month, g.year
}

// Render generates a timesheet for the configured period and returns the
// path of the saved file. An empty employeeName produces a reusable blank
// period template with no employee-specific data; otherwise the employee
// name is written into the title cell.
func (g *Generator) Render(employeeName string) (string, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", SheetName); err != nil {
		return "", fmt.Errorf("failed to rename default sheet: %w", err)
	}

	if err := g.writeHeader(file, employeeName); err != nil {
		return "", err
	}

	if err := g.writeDays(file); err != nil {
		return "", err
	}

	if err := g.sizeColumns(file); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "timesheet_*.xlsx")
	if err != nil {
		return "", fmt.Errorf("failed to create timesheet file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close timesheet file: %w", err)
	}

	if err = file.SaveAs(tmp.Name()); err != nil {
		return "", fmt.Errorf("failed to save timesheet: %w", err)
	}

	return tmp.Name(), nil
}

// writeHeader fills the title, the period line and the table header row.
func (g *Generator) writeHeader(file *excelize.File, employeeName string) error {
	var err error

	title := "Timesheet"
	if employeeName != "" {
		title = "Timesheet - " + employeeName
	}

	titleStyle, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return fmt.Errorf("failed to create title style: %w", err)
	}
	boldStyle, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err = file.SetCellValue(SheetName, TitleCell, title); err != nil {
		return fmt.Errorf("failed to set title: %w", err)
	}
	if err = file.SetCellStyle(SheetName, TitleCell, TitleCell, titleStyle); err != nil {
		return fmt.Errorf("failed to style title: %w", err)
	}

	period := fmt.Sprintf("Period: %s %d", g.month.String(), g.year)
	if err = file.SetCellValue(SheetName, periodCell, period); err != nil {
		return fmt.Errorf("failed to set period: %w", err)
	}
	if err = file.SetCellStyle(SheetName, periodCell, periodCell, boldStyle); err != nil {
		return fmt.Errorf("failed to style period: %w", err)
	}

	headers := []string{"Date", "Day", "Regular Hours", "Overtime Hours", "Total Hours"}
	cell, _ := excelize.CoordinatesToCellName(1, headerRow)
	if err = file.SetSheetRow(SheetName, cell, &headers); err != nil {
		return fmt.Errorf("failed to set header row: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	if err = file.SetCellStyle(SheetName, cell, lastHeader, boldStyle); err != nil {
		return fmt.Errorf("failed to style header row: %w", err)
	}

	return nil
}

// writeDays fills one row per calendar day with sample hours: 8 regular
// hours on weekdays, none on weekends, one overtime hour on Fridays.
func (g *Generator) writeDays(file *excelize.File) error {
	totalDays := daysInMonth(g.year, g.month)

	for day := 1; day <= totalDays; day++ {
		date := time.Date(g.year, g.month, day, 0, 0, 0, 0, time.UTC)
		weekday := date.Weekday()

		regularHours := 8
		if weekday == time.Saturday || weekday == time.Sunday {
			regularHours = 0
		}
		overtimeHours := 0
		if weekday == time.Friday {
			overtimeHours = 1
		}

		rowData := []interface{}{
			date.Format("2006-01-02"),
			weekday.String()[:3],
			regularHours,
			overtimeHours,
			regularHours + overtimeHours,
		}
		cell, _ := excelize.CoordinatesToCellName(1, firstDataRow+day-1)

		if err := file.SetSheetRow(SheetName, cell, &rowData); err != nil {
			return fmt.Errorf("failed to set row for day %d: %w", day, err)
		}
	}

	return nil
}

// sizeColumns sets fixed widths sized for the data they hold.
func (g *Generator) sizeColumns(file *excelize.File) error {
	widths := map[string]float64{
		"A": 14, "B": 8, "C": 15, "D": 16, "E": 13,
	}
	for col, width := range widths {
		if err := file.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	return nil
}

// daysInMonth returns the number of calendar days in the given month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
