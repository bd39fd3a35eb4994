// Package leave implements the leave request workflow: submit, review and
// cancel.
package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm/clause"

	"hrdesk/internal/dates"
	"hrdesk/internal/models"
	"hrdesk/internal/query"
	"hrdesk/internal/store"
)

var (
	ErrInvalid       = errors.New("invalid leave request")
	ErrOverlap       = errors.New("overlaps an existing leave request")
	ErrNotPending    = errors.New("leave request is not pending")
	ErrNotCancelable = errors.New("leave request can no longer be cancelled")
)

type Input struct {
	Type      models.LeaveType `json:"type"`
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
	Reason    string           `json:"reason"`
}

type Service struct {
	Tables   *store.Tables
	Location *time.Location
	Now      func() time.Time
}

func New(t *store.Tables, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{Tables: t, Location: loc, Now: time.Now}
}

func (s *Service) validate(in Input) (int, error) {
	if !in.Type.Valid() {
		return 0, fmt.Errorf("%w: unknown type %q", ErrInvalid, in.Type)
	}
	start, err := dates.Parse(in.StartDate)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	end, err := dates.Parse(in.EndDate)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if end.Before(start) {
		return 0, fmt.Errorf("%w: end_date before start_date", ErrInvalid)
	}
	days := dates.Weekdays(start, end)
	if days == 0 {
		return 0, fmt.Errorf("%w: range has no working days", ErrInvalid)
	}
	return days, nil
}

// Submit files a pending request for the member.
func (s *Service) Submit(ctx context.Context, orgID, memberID int64, in Input) (*models.LeaveRequest, error) {
	days, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	scope := store.Scope{OrgID: orgID, All: true}
	q := query.Query{}.
		Eq("member_id", memberID).
		With("status", query.In, []string{string(models.LeavePending), string(models.LeaveApproved)}).
		With("start_date", query.Lte, in.EndDate).
		With("end_date", query.Gte, in.StartDate)
	req := &models.LeaveRequest{
		MemberID:  memberID,
		Type:      in.Type,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Days:      days,
		Reason:    strings.TrimSpace(in.Reason),
		Status:    models.LeavePending,
	}
	// The member row lock serializes concurrent submissions for one member.
	err = s.Tables.Tx(ctx, func(tx *store.Tables) error {
		var locked []models.Member
		if err := tx.DB().WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND org_id = ?", memberID, orgID).
			Find(&locked).Error; err != nil {
			return err
		}
		n, err := tx.Leave.Count(ctx, scope, q)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrOverlap
		}
		return tx.Leave.Create(ctx, scope, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Review approves or rejects a pending request. Approval marks the member's
// existing attendance rows in the range as on leave.
func (s *Service) Review(ctx context.Context, orgID, id, reviewerID int64, approve bool, note string) (*models.LeaveRequest, error) {
	scope := store.Scope{OrgID: orgID, All: true}
	status := models.LeaveRejected
	if approve {
		status = models.LeaveApproved
	}

	var out *models.LeaveRequest
	err := s.Tables.Tx(ctx, func(tx *store.Tables) error {
		req, err := tx.Leave.Get(ctx, scope, id)
		if err != nil {
			return err
		}
		if req.Status != models.LeavePending {
			return ErrNotPending
		}
		now := s.Now()
		out, err = tx.Leave.Update(ctx, scope, id, map[string]any{
			"status":      status,
			"reviewer_id": reviewerID,
			"reviewed_at": now,
			"review_note": strings.TrimSpace(note),
		})
		if err != nil || !approve {
			return err
		}
		_, err = tx.Attendance.UpdateWhere(ctx, scope, query.Query{}.
			Eq("member_id", req.MemberID).
			With("work_date", query.Gte, req.StartDate).
			With("work_date", query.Lte, req.EndDate),
			map[string]any{"status": models.AttendanceOnLeave})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel withdraws the member's own request. Approved requests can only be
// cancelled before they start.
func (s *Service) Cancel(ctx context.Context, orgID, memberID, id int64) (*models.LeaveRequest, error) {
	scope := store.Scope{OrgID: orgID, MemberID: memberID}
	req, err := s.Tables.Leave.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	switch req.Status {
	case models.LeavePending:
	case models.LeaveApproved:
		if req.StartDate <= dates.Today(s.Now(), s.Location) {
			return nil, ErrNotCancelable
		}
	default:
		return nil, ErrNotCancelable
	}
	return s.Tables.Leave.Update(ctx, scope, id, map[string]any{"status": models.LeaveCancelled})
}
