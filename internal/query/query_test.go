package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdesk/internal/db/dbtest"
	"hrdesk/internal/models"
)

var cols = NewColumns("id", "member_id", "status", "start_date", "reason")

func TestParse(t *testing.T) {
	v, _ := url.ParseQuery("status=in.(pending,approved)&start_date=gte.2024-01-01&member_id=7&order=start_date.desc,id&limit=5000&offset=10")
	q, err := Parse(v, cols)
	require.NoError(t, err)

	assert.Len(t, q.Filters, 3)
	assert.Equal(t, []OrderBy{{Column: "start_date", Desc: true}, {Column: "id"}}, q.Order)
	assert.Equal(t, MaxLimit, q.Limit)
	assert.Equal(t, 10, q.Offset)

	byCol := map[string]Filter{}
	for _, f := range q.Filters {
		byCol[f.Column] = f
	}
	assert.Equal(t, []string{"pending", "approved"}, byCol["status"].Values)
	assert.Equal(t, Gte, byCol["start_date"].Op)
	assert.Equal(t, Filter{Column: "member_id", Op: Eq, Value: "7"}, byCol["member_id"])
}

func TestParseErrors(t *testing.T) {
	cases := map[string]error{
		"password_hash=eq.x":  ErrUnknownColumn,
		"order=password_hash": ErrUnknownColumn,
		"order=id.sideways":   ErrBadFilter,
		"status=in.pending":   ErrBadFilter,
		"status=in.()":        ErrBadFilter,
		"reason=is.maybe":     ErrBadFilter,
		"limit=-1":            ErrBadFilter,
		"offset=abc":          ErrBadFilter,
		"status=bogus.x":      ErrBadFilter,
		"reason=john.doe":     ErrBadFilter,
	}
	for raw, want := range cases {
		v, _ := url.ParseQuery(raw)
		_, err := Parse(v, cols)
		assert.ErrorIs(t, err, want, raw)
	}
}

func TestParseDottedValues(t *testing.T) {
	for raw, want := range map[string]string{
		"reason=2024.01":     "2024.01",
		"reason=Dr.Smith":    "Dr.Smith",
		"reason=eq.john.doe": "john.doe",
		"reason=eq.bogus.x":  "bogus.x",
		"reason=v1.2":        "v1.2",
	} {
		v, _ := url.ParseQuery(raw)
		q, err := Parse(v, cols)
		require.NoError(t, err, raw)
		require.Len(t, q.Filters, 1, raw)
		assert.Equal(t, Eq, q.Filters[0].Op, raw)
		assert.Equal(t, want, q.Filters[0].Value, raw)
	}
}

func TestParseReservedKeys(t *testing.T) {
	v, _ := url.ParseQuery("from=2024-01-01&status=eq.pending")
	q, err := Parse(v, cols, "from")
	require.NoError(t, err)
	assert.Len(t, q.Filters, 1)
	assert.Equal(t, DefaultLimit, q.Limit)
}

func TestApplyAgainstDatabase(t *testing.T) {
	gdb := dbtest.New(t)
	rows := []models.LeaveRequest{
		{MemberID: 1, Type: models.LeaveAnnual, StartDate: "2024-01-10", EndDate: "2024-01-11", Status: models.LeavePending, Reason: "Family trip"},
		{MemberID: 1, Type: models.LeaveSick, StartDate: "2024-02-01", EndDate: "2024-02-01", Status: models.LeaveApproved},
		{MemberID: 2, Type: models.LeaveAnnual, StartDate: "2024-03-01", EndDate: "2024-03-05", Status: models.LeaveRejected},
	}
	for i := range rows {
		rows[i].OrgID = 1
	}
	require.NoError(t, gdb.Create(&rows).Error)

	v, _ := url.ParseQuery("member_id=eq.1&order=start_date.desc")
	q, err := Parse(v, cols)
	require.NoError(t, err)
	var got []models.LeaveRequest
	require.NoError(t, q.Apply(gdb.Model(&models.LeaveRequest{})).Find(&got).Error)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-02-01", got[0].StartDate)

	v, _ = url.ParseQuery("reason=ilike.*trip*")
	q, err = Parse(v, cols)
	require.NoError(t, err)
	got = nil
	require.NoError(t, q.Apply(gdb.Model(&models.LeaveRequest{})).Find(&got).Error)
	require.Len(t, got, 1)

	v, _ = url.ParseQuery("status=in.(approved,rejected)&limit=1&offset=1")
	q, err = Parse(v, cols)
	require.NoError(t, err)
	got = nil
	require.NoError(t, q.Apply(gdb.Model(&models.LeaveRequest{})).Find(&got).Error)
	require.Len(t, got, 1)
	assert.Equal(t, models.LeaveRejected, got[0].Status)

	var n int64
	require.NoError(t, Query{}.Eq("member_id", 2).Where(gdb.Model(&models.LeaveRequest{})).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
