// Package projects holds the project operations that span several tables.
package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"hrdesk/internal/models"
	"hrdesk/internal/query"
	"hrdesk/internal/store"
)

var (
	ErrAlreadyOnTeam = errors.New("member is already on the project team")
	ErrUnknownMember = errors.New("member is not part of this organization")
	ErrBadStatus     = errors.New("milestone status must be pending or done")
)

type Service struct {
	Tables *store.Tables
	Now    func() time.Time
}

func New(t *store.Tables) *Service { return &Service{Tables: t, Now: time.Now} }

func org(orgID int64) store.Scope { return store.Scope{OrgID: orgID, All: true} }

// AddMember puts a member on the project team.
func (s *Service) AddMember(ctx context.Context, orgID, projectID, memberID int64, role string) (*models.ProjectTeam, error) {
	if _, err := s.Tables.Projects.Get(ctx, org(orgID), projectID); err != nil {
		return nil, err
	}
	if _, err := s.Tables.Members.Get(ctx, org(orgID), memberID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownMember
		}
		return nil, err
	}
	n, err := s.Tables.ProjectTeam.Count(ctx, org(orgID), query.Query{}.Eq("project_id", projectID).Eq("member_id", memberID))
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrAlreadyOnTeam
	}
	row := &models.ProjectTeam{ProjectID: projectID, MemberID: memberID, Role: strings.TrimSpace(role)}
	if err := s.Tables.ProjectTeam.Create(ctx, org(orgID), row); err != nil {
		return nil, err
	}
	return row, nil
}

// RemoveMember takes a member off the project team.
func (s *Service) RemoveMember(ctx context.Context, orgID, projectID, memberID int64) error {
	n, err := s.Tables.ProjectTeam.DeleteWhere(ctx, org(orgID), query.Query{}.Eq("project_id", projectID).Eq("member_id", memberID))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes a project with its team, budget lines and milestones, and
// detaches its tasks, all in one transaction. Team rows go first.
func (s *Service) Delete(ctx context.Context, orgID, projectID int64) error {
	return s.Tables.Tx(ctx, func(tx *store.Tables) error {
		if _, err := tx.Projects.Get(ctx, org(orgID), projectID); err != nil {
			return err
		}
		byProject := query.Query{}.Eq("project_id", projectID)
		if _, err := tx.ProjectTeam.DeleteWhere(ctx, org(orgID), byProject); err != nil {
			return err
		}
		if _, err := tx.ProjectBudget.DeleteWhere(ctx, org(orgID), byProject); err != nil {
			return err
		}
		if _, err := tx.ProjectMilestone.DeleteWhere(ctx, org(orgID), byProject); err != nil {
			return err
		}
		if _, err := tx.Tasks.UpdateWhere(ctx, org(orgID), byProject, map[string]any{"project_id": nil}); err != nil {
			return err
		}
		return tx.Projects.Delete(ctx, org(orgID), projectID)
	})
}

// SetMilestoneStatus moves a milestone between pending and done.
func (s *Service) SetMilestoneStatus(ctx context.Context, orgID, id int64, status string) (*models.ProjectMilestone, error) {
	fields := map[string]any{"status": status}
	switch status {
	case models.MilestoneDone:
		fields["completed_at"] = s.Now()
	case models.MilestonePending:
		fields["completed_at"] = nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadStatus, status)
	}
	return s.Tables.ProjectMilestone.Update(ctx, org(orgID), id, fields)
}

type TeamMember struct {
	MemberID int64  `json:"member_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type BudgetTotals struct {
	Planned   float64 `json:"planned"`
	Spent     float64 `json:"spent"`
	Remaining float64 `json:"remaining"`
}

type Overview struct {
	Project    models.Project `json:"project"`
	Team       []TeamMember   `json:"team"`
	Budget     BudgetTotals   `json:"budget"`
	Milestones map[string]int `json:"milestones"`
	Tasks      map[string]int `json:"tasks"`
	Progress   float64        `json:"progress"`
}

// Overview gathers what a project page shows: team, budget totals,
// milestone and task counts. Progress is the share of done tasks.
func (s *Service) Overview(ctx context.Context, orgID, projectID int64) (*Overview, error) {
	p, err := s.Tables.Projects.Get(ctx, org(orgID), projectID)
	if err != nil {
		return nil, err
	}
	ov := &Overview{
		Project:    *p,
		Team:       []TeamMember{},
		Milestones: map[string]int{models.MilestonePending: 0, models.MilestoneDone: 0},
		Tasks:      map[string]int{},
	}

	err = s.Tables.DB().WithContext(ctx).Table("project_team").
		Select("project_team.member_id, member.name, member.email, project_team.role").
		Joins("JOIN member ON member.id = project_team.member_id").
		Where("project_team.org_id = ? AND project_team.project_id = ?", orgID, projectID).
		Order("member.name").
		Scan(&ov.Team).Error
	if err != nil {
		return nil, fmt.Errorf("project team: %w", err)
	}
	if ov.Team == nil {
		ov.Team = []TeamMember{}
	}

	db := s.Tables.DB().WithContext(ctx)
	err = db.Model(&models.ProjectBudget{}).
		Select("COALESCE(SUM(planned), 0) AS planned, COALESCE(SUM(spent), 0) AS spent").
		Where("org_id = ? AND project_id = ?", orgID, projectID).
		Scan(&ov.Budget).Error
	if err != nil {
		return nil, fmt.Errorf("project budget: %w", err)
	}
	ov.Budget.Remaining = ov.Budget.Planned - ov.Budget.Spent

	milestones, err := countByStatus(db.Model(&models.ProjectMilestone{}), orgID, projectID)
	if err != nil {
		return nil, fmt.Errorf("project milestones: %w", err)
	}
	for st, n := range milestones {
		ov.Milestones[st] = n
	}

	tasks, err := countByStatus(db.Model(&models.Task{}), orgID, projectID)
	if err != nil {
		return nil, fmt.Errorf("project tasks: %w", err)
	}
	total := 0
	for st, n := range tasks {
		ov.Tasks[st] = n
		total += n
	}
	if total > 0 {
		ov.Progress = float64(ov.Tasks[string(models.TaskDone)]) / float64(total)
	}
	return ov, nil
}

func countByStatus(db *gorm.DB, orgID, projectID int64) (map[string]int, error) {
	var rows []struct {
		Status string
		N      int
	}
	err := db.Select("status, COUNT(*) AS n").
		Where("org_id = ? AND project_id = ?", orgID, projectID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
