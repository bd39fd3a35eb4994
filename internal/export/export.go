// Package export renders reports as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"hrdesk/internal/analytics"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Attendance writes one row per member with the period totals.
func Attendance(w io.Writer, from, to string, rows []analytics.MemberAttendance) error {
	data := make([][]any, len(rows))
	for i, r := range rows {
		data[i] = []any{r.MemberID, r.Name, r.Department, r.Present, r.Late, r.Absent, r.OnLeave, round2(r.HoursWorked)}
	}
	return write(w, "Attendance", from, to,
		[]string{"Member ID", "Name", "Department", "Present", "Late", "Absent", "On leave", "Hours worked"}, data)
}

// Leave writes one row per leave request.
func Leave(w io.Writer, from, to string, rows []analytics.LeaveRow) error {
	data := make([][]any, len(rows))
	for i, r := range rows {
		data[i] = []any{r.ID, r.MemberID, r.Name, r.Type, r.StartDate, r.EndDate, r.Days, r.Status, r.Reason}
	}
	return write(w, "Leave", from, to,
		[]string{"Request ID", "Member ID", "Name", "Type", "Start", "End", "Days", "Status", "Reason"}, data)
}

func write(w io.Writer, sheet, from, to string, headers []string, rows [][]any) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	// period on a second sheet so the data sheet stays a plain table
	if _, err := f.NewSheet("Period"); err != nil {
		return err
	}
	if err := f.SetSheetRow("Period", "A1", &[]any{"From", from}); err != nil {
		return err
	}
	if err := f.SetSheetRow("Period", "A2", &[]any{"To", to}); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write %s workbook: %w", sheet, err)
	}
	return nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
