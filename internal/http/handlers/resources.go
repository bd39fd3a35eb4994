package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"hrdesk/internal/auth"
	"hrdesk/internal/dates"
	"hrdesk/internal/models"
	"hrdesk/internal/rbac"
	"hrdesk/internal/store"
)

func badInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadInput, fmt.Sprintf(format, args...))
}

func checkDate(name string, v *string) error {
	if v == nil || *v == "" {
		return nil
	}
	if _, err := dates.Parse(*v); err != nil {
		return badInput("%s: %v", name, err)
	}
	return nil
}

func dateField(fields map[string]any, name string) error {
	v, ok := fields[name]
	if !ok || v == nil {
		return nil
	}
	s, isStr := v.(string)
	if !isStr {
		return badInput("%s must be a YYYY-MM-DD string", name)
	}
	return checkDate(name, &s)
}

var taskPriorities = map[string]bool{"low": true, "medium": true, "high": true}

func (d *Deps) TaskResource() Resource[models.Task] {
	return Resource[models.Task]{
		Table:         d.Tables.Tasks,
		Resource:      rbac.Tasks,
		Writable:      []string{"project_id", "assignee_id", "title", "description", "priority", "status", "due_date"},
		OwnerWritable: []string{"status"},
		BeforeCreate: func(c *gin.Context, cl *auth.Claims, t *models.Task) error {
			t.Title = strings.TrimSpace(t.Title)
			if t.Title == "" {
				return badInput("title is required")
			}
			if t.Status == "" {
				t.Status = models.TaskTodo
			}
			if !t.Status.Valid() {
				return badInput("unknown status %q", t.Status)
			}
			if t.Priority == "" {
				t.Priority = "medium"
			}
			if !taskPriorities[t.Priority] {
				return badInput("unknown priority %q", t.Priority)
			}
			if err := checkDate("due_date", t.DueDate); err != nil {
				return err
			}
			t.CreatorID = cl.MemberID
			t.CompletedAt = nil
			if t.Status == models.TaskDone {
				now := d.Now()
				t.CompletedAt = &now
			}
			return nil
		},
		BeforeUpdate: func(c *gin.Context, old *models.Task, fields map[string]any) error {
			if p, ok := fields["priority"]; ok {
				if s, _ := p.(string); !taskPriorities[s] {
					return badInput("unknown priority %v", p)
				}
			}
			if err := dateField(fields, "due_date"); err != nil {
				return err
			}
			v, ok := fields["status"]
			if !ok {
				return nil
			}
			s, _ := v.(string)
			st := models.TaskStatus(s)
			if !st.Valid() {
				return badInput("unknown status %v", v)
			}
			switch {
			case st == models.TaskDone && old.Status != models.TaskDone:
				fields["completed_at"] = d.Now()
			case st != models.TaskDone:
				fields["completed_at"] = nil
			}
			return nil
		},
	}
}

func (d *Deps) ScheduleResource() Resource[models.Schedule] {
	return Resource[models.Schedule]{
		Table:    d.Tables.Schedules,
		Resource: rbac.Schedules,
		Writable: []string{"member_id", "title", "date", "start_time", "end_time", "shift", "location", "note"},
		BeforeCreate: func(c *gin.Context, cl *auth.Claims, s *models.Schedule) error {
			if s.MemberID == 0 {
				return badInput("member_id is required")
			}
			if s.Date == "" {
				return badInput("date is required")
			}
			return checkDate("date", &s.Date)
		},
		BeforeUpdate: func(c *gin.Context, _ *models.Schedule, fields map[string]any) error {
			return dateField(fields, "date")
		},
	}
}

func (d *Deps) EventResource() Resource[models.Event] {
	return Resource[models.Event]{
		Table:       d.Tables.Events,
		Resource:    rbac.Events,
		Writable:    []string{"title", "description", "starts_at", "ends_at", "location", "member_id"},
		TimeColumns: []string{"starts_at", "ends_at"},
		BeforeCreate: func(c *gin.Context, cl *auth.Claims, e *models.Event) error {
			e.Title = strings.TrimSpace(e.Title)
			if e.Title == "" {
				return badInput("title is required")
			}
			if e.StartsAt.IsZero() {
				return badInput("starts_at is required")
			}
			if e.EndsAt != nil && e.EndsAt.Before(e.StartsAt) {
				return badInput("ends_at before starts_at")
			}
			e.CreatedBy = cl.MemberID
			return nil
		},
	}
}

// AttendanceResource serves manual attendance entries made by managers.
func (d *Deps) AttendanceResource() Resource[models.Attendance] {
	return Resource[models.Attendance]{
		Table:       d.Tables.Attendance,
		Resource:    rbac.Attendance,
		Writable:    []string{"check_in", "check_out", "status", "note"},
		TimeColumns: []string{"check_in", "check_out"},
		BeforeCreate: func(c *gin.Context, cl *auth.Claims, a *models.Attendance) error {
			if a.MemberID == 0 {
				return badInput("member_id is required")
			}
			if a.WorkDate == "" {
				a.WorkDate = d.Attendance.Today()
			}
			if err := checkDate("work_date", &a.WorkDate); err != nil {
				return err
			}
			if a.Status == "" {
				a.Status = models.AttendancePresent
			}
			if !a.Status.Valid() {
				return badInput("unknown status %q", a.Status)
			}
			a.Source = models.SourceManual
			a.DeviceID = nil
			return nil
		},
		BeforeUpdate: func(c *gin.Context, _ *models.Attendance, fields map[string]any) error {
			if v, ok := fields["status"]; ok {
				s, _ := v.(string)
				if !models.AttendanceStatus(s).Valid() {
					return badInput("unknown status %v", v)
				}
			}
			fields["source"] = models.SourceManual
			return nil
		},
	}
}

var projectStatuses = map[models.ProjectStatus]bool{
	models.ProjectPlanning: true, models.ProjectActive: true, models.ProjectOnHold: true,
	models.ProjectCompleted: true, models.ProjectCancelled: true,
}

func (d *Deps) ProjectResource() Resource[models.Project] {
	return Resource[models.Project]{
		Table:    d.Tables.Projects,
		Resource: rbac.Projects,
		Writable: []string{"name", "description", "status", "manager_id", "start_date", "end_date"},
		BeforeCreate: func(c *gin.Context, cl *auth.Claims, p *models.Project) error {
			p.Name = strings.TrimSpace(p.Name)
			if p.Name == "" {
				return badInput("name is required")
			}
			if p.Status == "" {
				p.Status = models.ProjectPlanning
			}
			if !projectStatuses[p.Status] {
				return badInput("unknown status %q", p.Status)
			}
			if err := checkDate("start_date", p.StartDate); err != nil {
				return err
			}
			return checkDate("end_date", p.EndDate)
		},
		BeforeUpdate: func(c *gin.Context, _ *models.Project, fields map[string]any) error {
			if v, ok := fields["status"]; ok {
				s, _ := v.(string)
				if !projectStatuses[models.ProjectStatus(s)] {
					return badInput("unknown status %v", v)
				}
			}
			if err := dateField(fields, "start_date"); err != nil {
				return err
			}
			return dateField(fields, "end_date")
		},
	}
}

// projectExists guards child rows against dangling project ids.
func (d *Deps) projectExists(c *gin.Context, orgID, projectID int64) error {
	if projectID == 0 {
		return badInput("project_id is required")
	}
	_, err := d.Tables.Projects.Get(c.Request.Context(), store.Scope{OrgID: orgID, All: true}, projectID)
	return err
}

func (d *Deps) BudgetResource() Resource[models.ProjectBudget] {
	return Resource[models.ProjectBudget]{
		Table:    d.Tables.ProjectBudget,
		Resource: rbac.Projects,
		Writable: []string{"category", "planned", "spent", "note"},
		BeforeCreate: func(c *gin.Context, cl *auth.Claims, b *models.ProjectBudget) error {
			b.Category = strings.TrimSpace(b.Category)
			if b.Category == "" {
				return badInput("category is required")
			}
			if b.Planned < 0 || b.Spent < 0 {
				return badInput("amounts must not be negative")
			}
			return d.projectExists(c, cl.OrgID, b.ProjectID)
		},
	}
}

func (d *Deps) MilestoneResource() Resource[models.ProjectMilestone] {
	return Resource[models.ProjectMilestone]{
		Table:    d.Tables.ProjectMilestone,
		Resource: rbac.Projects,
		Writable: []string{"title", "due_date"},
		BeforeCreate: func(c *gin.Context, cl *auth.Claims, m *models.ProjectMilestone) error {
			m.Title = strings.TrimSpace(m.Title)
			if m.Title == "" {
				return badInput("title is required")
			}
			if err := checkDate("due_date", m.DueDate); err != nil {
				return err
			}
			m.Status = models.MilestonePending
			m.CompletedAt = nil
			return d.projectExists(c, cl.OrgID, m.ProjectID)
		},
		BeforeUpdate: func(c *gin.Context, _ *models.ProjectMilestone, fields map[string]any) error {
			return dateField(fields, "due_date")
		},
	}
}

// Read-only tables whose writes go through dedicated handlers.

func (d *Deps) MemberResource() Resource[models.Member] {
	return Resource[models.Member]{Table: d.Tables.Members, Resource: rbac.Members}
}

func (d *Deps) TeamResource() Resource[models.ProjectTeam] {
	return Resource[models.ProjectTeam]{Table: d.Tables.ProjectTeam, Resource: rbac.Projects}
}

func (d *Deps) LeaveResource() Resource[models.LeaveRequest] {
	return Resource[models.LeaveRequest]{Table: d.Tables.Leave, Resource: rbac.Leave}
}

func (d *Deps) MessageResource() Resource[models.Message] {
	return Resource[models.Message]{Table: d.Tables.Messages, Resource: rbac.Messages}
}

func (d *Deps) DailyReportResource() Resource[models.DailyReport] {
	return Resource[models.DailyReport]{Table: d.Tables.DailyReports, Resource: rbac.Reports}
}

func (d *Deps) WeeklyReportResource() Resource[models.WeeklyReport] {
	return Resource[models.WeeklyReport]{Table: d.Tables.WeeklyReports, Resource: rbac.Reports}
}

func (d *Deps) DocumentResource() Resource[models.EmployeeDocument] {
	return Resource[models.EmployeeDocument]{Table: d.Tables.Documents, Resource: rbac.Documents}
}
