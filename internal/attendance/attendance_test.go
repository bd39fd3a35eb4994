package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdesk/internal/db/dbtest"
	"hrdesk/internal/models"
	"hrdesk/internal/store"
)

func newService(t *testing.T, now time.Time) *Service {
	t.Helper()
	tbl := store.New[models.Attendance](dbtest.New(t), nil, store.AttendanceSpec)
	svc := New(tbl, Policy{Location: time.UTC, WorkdayStart: "09:00", Grace: 15 * time.Minute})
	svc.Now = func() time.Time { return now }
	return svc
}

func TestStatusAt(t *testing.T) {
	p := Policy{Location: time.UTC, WorkdayStart: "09:00", Grace: 15 * time.Minute}
	day := func(h, m int) time.Time { return time.Date(2024, 5, 6, h, m, 0, 0, time.UTC) }

	assert.Equal(t, models.AttendancePresent, p.StatusAt(day(8, 30)))
	assert.Equal(t, models.AttendancePresent, p.StatusAt(day(9, 15)))
	assert.Equal(t, models.AttendanceLate, p.StatusAt(day(9, 16)))

	bad := Policy{WorkdayStart: "nine"}
	assert.Equal(t, models.AttendancePresent, bad.StatusAt(day(23, 0)))
}

func TestCheckInOut(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, time.Date(2024, 5, 6, 9, 40, 0, 0, time.UTC))

	_, err := svc.CheckOut(ctx, 1, 10)
	assert.ErrorIs(t, err, ErrNotCheckedIn)

	row, err := svc.CheckIn(ctx, 1, 10, models.SourceWeb, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-06", row.WorkDate)
	assert.Equal(t, models.AttendanceLate, row.Status)

	_, err = svc.CheckIn(ctx, 1, 10, models.SourceWeb, nil)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)

	svc.Now = func() time.Time { return time.Date(2024, 5, 6, 17, 40, 0, 0, time.UTC) }
	row, err = svc.CheckOut(ctx, 1, 10)
	require.NoError(t, err)
	require.NotNil(t, row.CheckOut)
	assert.Equal(t, 8*time.Hour, row.Worked())

	_, err = svc.CheckOut(ctx, 1, 10)
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)
}

func TestCheckInFillsManualRow(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, time.Date(2024, 5, 6, 8, 55, 0, 0, time.UTC))
	scope := store.Scope{OrgID: 1, All: true}

	require.NoError(t, svc.Attendance.Create(ctx, scope, &models.Attendance{
		MemberID: 10, WorkDate: "2024-05-06", Status: models.AttendanceAbsent, Source: models.SourceManual,
	}))
	row, err := svc.CheckIn(ctx, 1, 10, models.SourceWeb, nil)
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, row.Status)
	assert.Equal(t, models.SourceWeb, row.Source)

	require.NoError(t, svc.Attendance.Create(ctx, scope, &models.Attendance{
		MemberID: 11, WorkDate: "2024-05-06", Status: models.AttendanceOnLeave,
	}))
	_, err = svc.CheckIn(ctx, 1, 11, models.SourceWeb, nil)
	assert.ErrorIs(t, err, ErrOnLeave)
}

func TestPunchToggles(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC))

	row, action, err := svc.Punch(ctx, 1, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, "check_in", action)
	assert.Equal(t, models.SourceKiosk, row.Source)
	require.NotNil(t, row.DeviceID)
	assert.Equal(t, int64(3), *row.DeviceID)

	_, action, err = svc.Punch(ctx, 1, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, "check_out", action)

	_, _, err = svc.Punch(ctx, 1, 10, 3)
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)
}
