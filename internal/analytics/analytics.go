// Package analytics aggregates attendance, leave, task and project data for
// dashboards and exports.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"hrdesk/internal/models"
)

type Service struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{DB: db} }

type statusCount struct {
	Status string
	N      int64
}

func (s *Service) countBy(ctx context.Context, model any, orgID int64, column string, where string, args ...any) (map[string]int64, error) {
	var rows []statusCount
	db := s.DB.WithContext(ctx).Model(model).
		Select(column+" AS status, COUNT(*) AS n").
		Where("org_id = ?", orgID)
	if where != "" {
		db = db.Where(where, args...)
	}
	if err := db.Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

type MemberCounts struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Pending int64 `json:"pending"`
}

type TodayAttendance struct {
	Date         string `json:"date"`
	Present      int64  `json:"present"`
	Late         int64  `json:"late"`
	OnLeave      int64  `json:"on_leave"`
	NotCheckedIn int64  `json:"not_checked_in"`
}

type Dashboard struct {
	Members        MemberCounts     `json:"members"`
	Today          TodayAttendance  `json:"today"`
	PendingLeave   int64            `json:"pending_leave"`
	Tasks          map[string]int64 `json:"tasks"`
	OverdueTasks   int64            `json:"overdue_tasks"`
	Projects       map[string]int64 `json:"projects"`
	UpcomingEvents []models.Event   `json:"upcoming_events"`
}

// Dashboard summarizes the org as of today. now bounds the upcoming events
// window of seven days.
func (s *Service) Dashboard(ctx context.Context, orgID int64, today string, now time.Time) (*Dashboard, error) {
	d := &Dashboard{Today: TodayAttendance{Date: today}}

	perms, err := s.countBy(ctx, &models.Permission{}, orgID, "status", "")
	if err != nil {
		return nil, fmt.Errorf("member counts: %w", err)
	}
	for st, n := range perms {
		d.Members.Total += n
		switch models.MemberStatus(st) {
		case models.MemberActive:
			d.Members.Active = n
		case models.MemberPending:
			d.Members.Pending = n
		}
	}

	att, err := s.countBy(ctx, &models.Attendance{}, orgID, "status", "work_date = ?", today)
	if err != nil {
		return nil, fmt.Errorf("attendance today: %w", err)
	}
	d.Today.Present = att[string(models.AttendancePresent)]
	d.Today.Late = att[string(models.AttendanceLate)]
	d.Today.OnLeave = att[string(models.AttendanceOnLeave)]

	var checkedIn int64
	if err := s.DB.WithContext(ctx).Model(&models.Attendance{}).
		Where("org_id = ? AND work_date = ? AND check_in IS NOT NULL", orgID, today).
		Count(&checkedIn).Error; err != nil {
		return nil, fmt.Errorf("attendance today: %w", err)
	}
	d.Today.NotCheckedIn = d.Members.Active - checkedIn - d.Today.OnLeave
	if d.Today.NotCheckedIn < 0 {
		d.Today.NotCheckedIn = 0
	}

	if err := s.DB.WithContext(ctx).Model(&models.LeaveRequest{}).
		Where("org_id = ? AND status = ?", orgID, models.LeavePending).
		Count(&d.PendingLeave).Error; err != nil {
		return nil, fmt.Errorf("pending leave: %w", err)
	}

	if d.Tasks, err = s.countBy(ctx, &models.Task{}, orgID, "status", ""); err != nil {
		return nil, fmt.Errorf("task counts: %w", err)
	}
	if err := s.overdue(ctx, orgID, today).Count(&d.OverdueTasks).Error; err != nil {
		return nil, fmt.Errorf("overdue tasks: %w", err)
	}
	if d.Projects, err = s.countBy(ctx, &models.Project{}, orgID, "status", ""); err != nil {
		return nil, fmt.Errorf("project counts: %w", err)
	}

	if err := s.DB.WithContext(ctx).
		Where("org_id = ? AND starts_at >= ? AND starts_at < ?", orgID, now, now.Add(7*24*time.Hour)).
		Order("starts_at").Limit(20).
		Find(&d.UpcomingEvents).Error; err != nil {
		return nil, fmt.Errorf("upcoming events: %w", err)
	}
	if d.UpcomingEvents == nil {
		d.UpcomingEvents = []models.Event{}
	}
	return d, nil
}

func (s *Service) overdue(ctx context.Context, orgID int64, today string) *gorm.DB {
	return s.DB.WithContext(ctx).Model(&models.Task{}).
		Where("org_id = ? AND status <> ? AND due_date IS NOT NULL AND due_date < ?", orgID, models.TaskDone, today)
}

type MemberAttendance struct {
	MemberID    int64   `json:"member_id"`
	Name        string  `json:"name"`
	Department  string  `json:"department"`
	Present     int     `json:"present"`
	Late        int     `json:"late"`
	Absent      int     `json:"absent"`
	OnLeave     int     `json:"on_leave"`
	HoursWorked float64 `json:"hours_worked"`
}

// AttendanceSummary totals each member's attendance in [from, to]. Members
// without records are included with zeros.
func (s *Service) AttendanceSummary(ctx context.Context, orgID int64, from, to string) ([]MemberAttendance, error) {
	var members []models.Member
	if err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).Order("name, id").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	var rows []models.Attendance
	if err := s.DB.WithContext(ctx).
		Where("org_id = ? AND work_date >= ? AND work_date <= ?", orgID, from, to).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}

	out := make([]MemberAttendance, len(members))
	idx := make(map[int64]int, len(members))
	for i, m := range members {
		out[i] = MemberAttendance{MemberID: m.ID, Name: m.Name, Department: m.Department}
		idx[m.ID] = i
	}
	for _, r := range rows {
		i, ok := idx[r.MemberID]
		if !ok {
			continue
		}
		sum := &out[i]
		switch r.Status {
		case models.AttendancePresent, models.AttendanceHalfDay:
			sum.Present++
		case models.AttendanceLate:
			sum.Present++
			sum.Late++
		case models.AttendanceAbsent:
			sum.Absent++
		case models.AttendanceOnLeave:
			sum.OnLeave++
		}
		sum.HoursWorked += r.Worked().Hours()
	}
	return out, nil
}

type AssigneeTasks struct {
	AssigneeID     int64   `json:"assignee_id"`
	Name           string  `json:"name"`
	Total          int64   `json:"total"`
	Done           int64   `json:"done"`
	Overdue        int64   `json:"overdue"`
	CompletionRate float64 `json:"completion_rate"`
}

// TaskStats reports per-assignee task totals. Unassigned tasks are not
// counted.
func (s *Service) TaskStats(ctx context.Context, orgID int64, today string) ([]AssigneeTasks, error) {
	var tasks []models.Task
	if err := s.DB.WithContext(ctx).Where("org_id = ? AND assignee_id IS NOT NULL", orgID).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}
	byID := map[int64]*AssigneeTasks{}
	for _, t := range tasks {
		st, ok := byID[*t.AssigneeID]
		if !ok {
			st = &AssigneeTasks{AssigneeID: *t.AssigneeID}
			byID[*t.AssigneeID] = st
		}
		st.Total++
		if t.Status == models.TaskDone {
			st.Done++
		} else if t.DueDate != nil && *t.DueDate < today {
			st.Overdue++
		}
	}

	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	if len(ids) > 0 {
		var members []models.Member
		if err := s.DB.WithContext(ctx).Where("org_id = ? AND id IN ?", orgID, ids).Find(&members).Error; err != nil {
			return nil, fmt.Errorf("task stats: %w", err)
		}
		for _, m := range members {
			byID[m.ID].Name = m.Name
		}
	}

	out := make([]AssigneeTasks, 0, len(byID))
	for _, st := range byID {
		st.CompletionRate = float64(st.Done) / float64(st.Total)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssigneeID < out[j].AssigneeID })
	return out, nil
}

type BudgetLine struct {
	Category string  `json:"category"`
	Planned  float64 `json:"planned"`
	Spent    float64 `json:"spent"`
}

type ProjectBudget struct {
	ProjectID   int64        `json:"project_id"`
	Name        string       `json:"name"`
	Lines       []BudgetLine `json:"lines"`
	Planned     float64      `json:"planned"`
	Spent       float64      `json:"spent"`
	Utilization float64      `json:"utilization"`
}

// Budgets groups budget lines per project and category. A zero projectID
// covers every project of the org.
func (s *Service) Budgets(ctx context.Context, orgID, projectID int64) ([]ProjectBudget, error) {
	pq := s.DB.WithContext(ctx).Where("org_id = ?", orgID).Order("id")
	if projectID > 0 {
		pq = pq.Where("id = ?", projectID)
	}
	var projects []models.Project
	if err := pq.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("budgets: %w", err)
	}
	if len(projects) == 0 {
		return []ProjectBudget{}, nil
	}
	ids := make([]int64, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}

	var lines []struct {
		ProjectID int64
		Category  string
		Planned   float64
		Spent     float64
	}
	if err := s.DB.WithContext(ctx).Model(&models.ProjectBudget{}).
		Select("project_id, category, SUM(planned) AS planned, SUM(spent) AS spent").
		Where("org_id = ? AND project_id IN ?", orgID, ids).
		Group("project_id, category").
		Order("project_id, category").
		Scan(&lines).Error; err != nil {
		return nil, fmt.Errorf("budgets: %w", err)
	}

	out := make([]ProjectBudget, len(projects))
	idx := make(map[int64]int, len(projects))
	for i, p := range projects {
		out[i] = ProjectBudget{ProjectID: p.ID, Name: p.Name, Lines: []BudgetLine{}}
		idx[p.ID] = i
	}
	for _, l := range lines {
		pb := &out[idx[l.ProjectID]]
		pb.Lines = append(pb.Lines, BudgetLine{Category: l.Category, Planned: l.Planned, Spent: l.Spent})
		pb.Planned += l.Planned
		pb.Spent += l.Spent
	}
	for i := range out {
		if out[i].Planned > 0 {
			out[i].Utilization = out[i].Spent / out[i].Planned
		}
	}
	return out, nil
}

// LeaveRows lists leave requests overlapping [from, to] with the member
// name attached.
func (s *Service) LeaveRows(ctx context.Context, orgID int64, from, to string) ([]LeaveRow, error) {
	var rows []LeaveRow
	err := s.DB.WithContext(ctx).Table("leave_requests").
		Select("leave_requests.id, leave_requests.member_id, member.name, leave_requests.type, " +
			"leave_requests.start_date, leave_requests.end_date, leave_requests.days, leave_requests.status, leave_requests.reason").
		Joins("JOIN member ON member.id = leave_requests.member_id").
		Where("leave_requests.org_id = ? AND leave_requests.start_date <= ? AND leave_requests.end_date >= ?", orgID, to, from).
		Order("leave_requests.start_date, leave_requests.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("leave rows: %w", err)
	}
	if rows == nil {
		rows = []LeaveRow{}
	}
	return rows, nil
}

type LeaveRow struct {
	ID        int64  `json:"id"`
	MemberID  int64  `json:"member_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
}
