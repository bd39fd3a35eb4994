package store

import (
	"context"
	"log"

	"gorm.io/gorm"

	"hrdesk/internal/models"
	"hrdesk/internal/query"
	"hrdesk/internal/rbac"
	"hrdesk/internal/realtime"
)

var (
	MemberSpec = Spec{
		Name:    "member",
		Columns: query.NewColumns("id", "email", "name", "phone", "department", "position", "badge_code", "joined_on", "created_at", "updated_at"),
	}
	AttendanceSpec = Spec{
		Name:    "attendance",
		Owners:  []string{"member_id"},
		Columns: query.NewColumns("id", "member_id", "work_date", "check_in", "check_out", "status", "source", "device_id", "created_at", "updated_at"),
	}
	LeaveSpec = Spec{
		Name:    "leave_requests",
		Owners:  []string{"member_id"},
		Columns: query.NewColumns("id", "member_id", "type", "start_date", "end_date", "days", "status", "reviewer_id", "reviewed_at", "reason", "created_at", "updated_at"),
	}
	TaskSpec = Spec{
		Name:    "tasks",
		Owners:  []string{"assignee_id", "creator_id"},
		Columns: query.NewColumns("id", "project_id", "assignee_id", "creator_id", "title", "priority", "status", "due_date", "completed_at", "created_at", "updated_at"),
	}
	ProjectSpec = Spec{
		Name:    "projects",
		Columns: query.NewColumns("id", "name", "status", "manager_id", "start_date", "end_date", "created_at", "updated_at"),
	}
	ProjectTeamSpec = Spec{
		Name:    "project_team",
		Columns: query.NewColumns("id", "project_id", "member_id", "role", "created_at"),
	}
	ProjectBudgetSpec = Spec{
		Name:    "project_budget",
		Columns: query.NewColumns("id", "project_id", "category", "planned", "spent", "created_at", "updated_at"),
	}
	ProjectMilestoneSpec = Spec{
		Name:    "project_milestone",
		Columns: query.NewColumns("id", "project_id", "title", "due_date", "status", "completed_at", "created_at", "updated_at"),
	}
	ScheduleSpec = Spec{
		Name:    "schedules",
		Owners:  []string{"member_id"},
		Columns: query.NewColumns("id", "member_id", "title", "date", "start_time", "end_time", "shift", "location", "created_at", "updated_at"),
	}
	MessageSpec = Spec{
		Name:    "messages",
		Owners:  []string{"sender_id", "receiver_id"},
		Columns: query.NewColumns("id", "sender_id", "receiver_id", "is_read", "read_at", "created_at"),
	}
	EventSpec = Spec{
		Name:    "events",
		Owners:  []string{"member_id"},
		Shared:  "member_id",
		Columns: query.NewColumns("id", "title", "starts_at", "ends_at", "location", "member_id", "created_by", "created_at", "updated_at"),
	}
	DailyReportSpec = Spec{
		Name:    "daily_reports",
		Owners:  []string{"member_id"},
		Columns: query.NewColumns("id", "member_id", "report_date", "hours_worked", "created_at", "updated_at"),
	}
	WeeklyReportSpec = Spec{
		Name:    "weekly_reports",
		Owners:  []string{"member_id"},
		Columns: query.NewColumns("id", "member_id", "week_start", "created_at", "updated_at"),
	}
	DocumentSpec = Spec{
		Name:    "employee_documents",
		Owners:  []string{"member_id"},
		Columns: query.NewColumns("id", "member_id", "title", "category", "file_name", "content_type", "size", "uploaded_by", "created_at"),
	}
)

// Tables bundles the typed tables of every resource.
type Tables struct {
	db  *gorm.DB
	pub realtime.Publisher

	Members          *Table[models.Member]
	Attendance       *Table[models.Attendance]
	Leave            *Table[models.LeaveRequest]
	Tasks            *Table[models.Task]
	Projects         *Table[models.Project]
	ProjectTeam      *Table[models.ProjectTeam]
	ProjectBudget    *Table[models.ProjectBudget]
	ProjectMilestone *Table[models.ProjectMilestone]
	Schedules        *Table[models.Schedule]
	Messages         *Table[models.Message]
	Events           *Table[models.Event]
	DailyReports     *Table[models.DailyReport]
	WeeklyReports    *Table[models.WeeklyReport]
	Documents        *Table[models.EmployeeDocument]
}

func NewTables(db *gorm.DB, pub realtime.Publisher) *Tables {
	if pub == nil {
		pub = realtime.Discard{}
	}
	return &Tables{
		db:               db,
		pub:              pub,
		Members:          New[models.Member](db, pub, MemberSpec),
		Attendance:       New[models.Attendance](db, pub, AttendanceSpec),
		Leave:            New[models.LeaveRequest](db, pub, LeaveSpec),
		Tasks:            New[models.Task](db, pub, TaskSpec),
		Projects:         New[models.Project](db, pub, ProjectSpec),
		ProjectTeam:      New[models.ProjectTeam](db, pub, ProjectTeamSpec),
		ProjectBudget:    New[models.ProjectBudget](db, pub, ProjectBudgetSpec),
		ProjectMilestone: New[models.ProjectMilestone](db, pub, ProjectMilestoneSpec),
		Schedules:        New[models.Schedule](db, pub, ScheduleSpec),
		Messages:         New[models.Message](db, pub, MessageSpec),
		Events:           New[models.Event](db, pub, EventSpec),
		DailyReports:     New[models.DailyReport](db, pub, DailyReportSpec),
		WeeklyReports:    New[models.WeeklyReport](db, pub, WeeklyReportSpec),
		Documents:        New[models.EmployeeDocument](db, pub, DocumentSpec),
	}
}

func (t *Tables) DB() *gorm.DB { return t.db }

// Tx runs fn with every table bound to one transaction. Change events are
// published only once the transaction has committed.
func (t *Tables) Tx(ctx context.Context, fn func(tx *Tables) error) error {
	buf := &realtime.Buffer{}
	err := t.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(NewTables(gtx, buf))
	})
	if err != nil {
		return err
	}
	if err := buf.Flush(ctx, t.pub); err != nil {
		log.Printf("⚠️ publishing committed changes: %v", err)
	}
	return nil
}

// Register makes every table subscribable on the hub. Members holding the
// resource's manage capability receive every row, the rest only rows they
// own.
func Register(h *realtime.Hub) {
	for _, r := range []struct {
		spec     Spec
		resource string
	}{
		{MemberSpec, rbac.Members},
		{AttendanceSpec, rbac.Attendance},
		{LeaveSpec, rbac.Leave},
		{TaskSpec, rbac.Tasks},
		{ProjectSpec, rbac.Projects},
		{ProjectTeamSpec, rbac.Projects},
		{ProjectBudgetSpec, rbac.Projects},
		{ProjectMilestoneSpec, rbac.Projects},
		{ScheduleSpec, rbac.Schedules},
		{MessageSpec, rbac.Messages},
		{EventSpec, rbac.Events},
		{DailyReportSpec, rbac.Reports},
		{WeeklyReportSpec, rbac.Reports},
		{DocumentSpec, rbac.Documents},
	} {
		h.Register(r.spec.Name, rbac.Manage(r.resource), r.spec.Visibility())
	}
}
