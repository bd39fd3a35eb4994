// Package attendance implements clock-in and clock-out against the org's
// workday policy.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hrdesk/internal/dates"
	"hrdesk/internal/models"
	"hrdesk/internal/query"
	"hrdesk/internal/store"
)

var (
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrNotCheckedIn      = errors.New("not checked in today")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
	ErrOnLeave           = errors.New("on leave today")
)

// Policy decides when an arrival counts as late.
type Policy struct {
	Location     *time.Location
	WorkdayStart string // HH:MM
	Grace        time.Duration
}

// LateAfter returns the instant after which a check-in on day is late.
func (p Policy) LateAfter(day string) (time.Time, error) {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation(dates.Layout+" 15:04", day+" "+p.WorkdayStart, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("workday start %q: %w", p.WorkdayStart, err)
	}
	return start.Add(p.Grace), nil
}

// StatusAt classifies a check-in made at t.
func (p Policy) StatusAt(t time.Time) models.AttendanceStatus {
	limit, err := p.LateAfter(dates.Today(t, p.loc()))
	if err != nil || !t.After(limit) {
		return models.AttendancePresent
	}
	return models.AttendanceLate
}

func (p Policy) loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

type Service struct {
	Attendance *store.Table[models.Attendance]
	Policy     Policy
	Now        func() time.Time
}

func New(t *store.Table[models.Attendance], p Policy) *Service {
	return &Service{Attendance: t, Policy: p, Now: time.Now}
}

// Today returns the current work date in the org's timezone.
func (s *Service) Today() string { return dates.Today(s.Now(), s.Policy.loc()) }

func (s *Service) today(ctx context.Context, orgID, memberID int64) (*models.Attendance, error) {
	row, err := s.Attendance.First(ctx, store.Scope{OrgID: orgID, All: true},
		query.Query{}.Eq("member_id", memberID).Eq("work_date", s.Today()))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return row, err
}

// CheckIn opens today's record for the member.
func (s *Service) CheckIn(ctx context.Context, orgID, memberID int64, source string, deviceID *int64) (*models.Attendance, error) {
	now := s.Now()
	row, err := s.today(ctx, orgID, memberID)
	if err != nil {
		return nil, err
	}
	scope := store.Scope{OrgID: orgID, All: true}
	status := s.Policy.StatusAt(now)

	if row != nil {
		if row.CheckIn != nil {
			return nil, ErrAlreadyCheckedIn
		}
		if row.Status == models.AttendanceOnLeave {
			return nil, ErrOnLeave
		}
		return s.Attendance.Update(ctx, scope, row.ID, map[string]any{
			"check_in":  now,
			"status":    status,
			"source":    source,
			"device_id": deviceID,
		})
	}

	row = &models.Attendance{
		MemberID: memberID,
		WorkDate: s.Today(),
		CheckIn:  &now,
		Status:   status,
		Source:   source,
		DeviceID: deviceID,
	}
	if err := s.Attendance.Create(ctx, scope, row); err != nil {
		return nil, err
	}
	return row, nil
}

// CheckOut closes today's record for the member.
func (s *Service) CheckOut(ctx context.Context, orgID, memberID int64) (*models.Attendance, error) {
	row, err := s.today(ctx, orgID, memberID)
	if err != nil {
		return nil, err
	}
	if row == nil || row.CheckIn == nil {
		return nil, ErrNotCheckedIn
	}
	if row.CheckOut != nil {
		return nil, ErrAlreadyCheckedOut
	}
	return s.Attendance.Update(ctx, store.Scope{OrgID: orgID, All: true}, row.ID, map[string]any{
		"check_out": s.Now(),
	})
}

// Punch toggles the member's state for a kiosk badge swipe and reports
// which action it took.
func (s *Service) Punch(ctx context.Context, orgID, memberID, deviceID int64) (*models.Attendance, string, error) {
	row, err := s.today(ctx, orgID, memberID)
	if err != nil {
		return nil, "", err
	}
	if row == nil || row.CheckIn == nil {
		row, err = s.CheckIn(ctx, orgID, memberID, models.SourceKiosk, &deviceID)
		return row, "check_in", err
	}
	row, err = s.CheckOut(ctx, orgID, memberID)
	return row, "check_out", err
}
