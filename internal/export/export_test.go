package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hrdesk/internal/analytics"
)

func open(t *testing.T, b *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(b)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestAttendanceWorkbook(t *testing.T) {
	var buf bytes.Buffer
	err := Attendance(&buf, "2024-05-01", "2024-05-31", []analytics.MemberAttendance{
		{MemberID: 7, Name: "Alice", Department: "Ops", Present: 20, Late: 2, OnLeave: 1, HoursWorked: 161.333333},
		{MemberID: 9, Name: "Bob"},
	})
	require.NoError(t, err)

	f := open(t, &buf)
	assert.Equal(t, []string{"Attendance", "Period"}, f.GetSheetList())

	rows, err := f.GetRows("Attendance")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Hours worked", rows[0][7])
	assert.Equal(t, []string{"7", "Alice", "Ops", "20", "2", "0", "1", "161.33"}, rows[1])
	assert.Equal(t, "Bob", rows[2][1])

	period, err := f.GetRows("Period")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"From", "2024-05-01"}, {"To", "2024-05-31"}}, period)
}

func TestLeaveWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Leave(&buf, "2024-05-01", "2024-05-31", []analytics.LeaveRow{
		{ID: 1, MemberID: 7, Name: "Alice", Type: "annual", StartDate: "2024-05-06", EndDate: "2024-05-10", Days: 5, Status: "approved", Reason: "trip"},
	}))

	rows, err := open(t, &buf).GetRows("Leave")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Reason", rows[0][8])
	assert.Equal(t, []string{"1", "7", "Alice", "annual", "2024-05-06", "2024-05-10", "5", "approved", "trip"}, rows[1])
}

func TestEmptyWorkbookKeepsHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Leave(&buf, "2024-05-01", "2024-05-31", nil))
	rows, err := open(t, &buf).GetRows("Leave")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
