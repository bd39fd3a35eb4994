package leave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdesk/internal/db/dbtest"
	"hrdesk/internal/models"
	"hrdesk/internal/query"
	"hrdesk/internal/store"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc := New(store.NewTables(dbtest.New(t), nil), time.UTC)
	svc.Now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestSubmitValidatesAndCountsWeekdays(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	req, err := svc.Submit(ctx, 1, 10, Input{Type: models.LeaveAnnual, StartDate: "2024-05-06", EndDate: "2024-05-12", Reason: " trip "})
	require.NoError(t, err)
	assert.Equal(t, 5, req.Days)
	assert.Equal(t, models.LeavePending, req.Status)
	assert.Equal(t, "trip", req.Reason)

	for _, in := range []Input{
		{Type: "holiday", StartDate: "2024-05-06", EndDate: "2024-05-06"},
		{Type: models.LeaveSick, StartDate: "2024-05-07", EndDate: "2024-05-06"},
		{Type: models.LeaveSick, StartDate: "06/05/2024", EndDate: "2024-05-06"},
		{Type: models.LeaveSick, StartDate: "2024-05-11", EndDate: "2024-05-12"},
	} {
		_, err := svc.Submit(ctx, 1, 10, in)
		assert.ErrorIs(t, err, ErrInvalid, "%+v", in)
	}
}

func TestSubmitRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Submit(ctx, 1, 10, Input{Type: models.LeaveAnnual, StartDate: "2024-05-06", EndDate: "2024-05-10"})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, 1, 10, Input{Type: models.LeaveSick, StartDate: "2024-05-10", EndDate: "2024-05-14"})
	assert.ErrorIs(t, err, ErrOverlap)

	// other members and adjacent ranges are fine
	_, err = svc.Submit(ctx, 1, 11, Input{Type: models.LeaveSick, StartDate: "2024-05-10", EndDate: "2024-05-14"})
	assert.NoError(t, err)
	_, err = svc.Submit(ctx, 1, 10, Input{Type: models.LeaveSick, StartDate: "2024-05-13", EndDate: "2024-05-14"})
	assert.NoError(t, err)

	n, err := svc.Tables.Leave.Count(ctx, store.Scope{OrgID: 1, All: true}, query.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestConcurrentSubmitsAcceptOne(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, lost int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(ctx, 1, 10, Input{Type: models.LeaveAnnual, StartDate: "2024-05-06", EndDate: "2024-05-08"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrOverlap):
				lost++
			default:
				t.Errorf("submit: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, lost)
	n, err := svc.Tables.Leave.Count(ctx, store.Scope{OrgID: 1, All: true}, query.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReviewMarksAttendance(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	scope := store.Scope{OrgID: 1, All: true}

	for _, day := range []string{"2024-05-03", "2024-05-06", "2024-05-07"} {
		require.NoError(t, svc.Tables.Attendance.Create(ctx, scope, &models.Attendance{
			MemberID: 10, WorkDate: day, Status: models.AttendanceAbsent,
		}))
	}
	req, err := svc.Submit(ctx, 1, 10, Input{Type: models.LeaveAnnual, StartDate: "2024-05-06", EndDate: "2024-05-08"})
	require.NoError(t, err)

	out, err := svc.Review(ctx, 1, req.ID, 99, true, "enjoy")
	require.NoError(t, err)
	assert.Equal(t, models.LeaveApproved, out.Status)
	require.NotNil(t, out.ReviewerID)
	assert.Equal(t, int64(99), *out.ReviewerID)
	assert.NotNil(t, out.ReviewedAt)

	rows, err := svc.Tables.Attendance.List(ctx, scope, query.Query{}.Eq("status", models.AttendanceOnLeave))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-05-06", rows[0].WorkDate)

	_, err = svc.Review(ctx, 1, req.ID, 99, false, "")
	assert.ErrorIs(t, err, ErrNotPending)
	_, err = svc.Review(ctx, 2, req.ID, 99, true, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRejectLeavesAttendanceAlone(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	scope := store.Scope{OrgID: 1, All: true}

	require.NoError(t, svc.Tables.Attendance.Create(ctx, scope, &models.Attendance{
		MemberID: 10, WorkDate: "2024-05-06", Status: models.AttendancePresent,
	}))
	req, err := svc.Submit(ctx, 1, 10, Input{Type: models.LeaveSick, StartDate: "2024-05-06", EndDate: "2024-05-06"})
	require.NoError(t, err)
	out, err := svc.Review(ctx, 1, req.ID, 99, false, "no")
	require.NoError(t, err)
	assert.Equal(t, models.LeaveRejected, out.Status)

	n, err := svc.Tables.Attendance.Count(ctx, scope, query.Query{}.Eq("status", models.AttendanceOnLeave))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	req, err := svc.Submit(ctx, 1, 10, Input{Type: models.LeaveAnnual, StartDate: "2024-05-06", EndDate: "2024-05-06"})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, 1, 11, req.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Review(ctx, 1, req.ID, 99, true, "")
	require.NoError(t, err)
	out, err := svc.Cancel(ctx, 1, 10, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveCancelled, out.Status)

	_, err = svc.Cancel(ctx, 1, 10, req.ID)
	assert.ErrorIs(t, err, ErrNotCancelable)

	started, err := svc.Submit(ctx, 1, 10, Input{Type: models.LeaveSick, StartDate: "2024-04-29", EndDate: "2024-05-02"})
	require.NoError(t, err)
	_, err = svc.Review(ctx, 1, started.ID, 99, true, "")
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, 1, 10, started.ID)
	assert.ErrorIs(t, err, ErrNotCancelable)
}
