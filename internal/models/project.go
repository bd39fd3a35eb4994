package models

import "time"

type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

type Project struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	Name        string        `gorm:"size:255;not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	Status      ProjectStatus `gorm:"size:16;default:planning;index" json:"status"`
	ManagerID   *int64        `gorm:"index" json:"manager_id"`
	StartDate   *string       `gorm:"size:10" json:"start_date"`
	EndDate     *string       `gorm:"size:10" json:"end_date"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type ProjectTeam struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	ProjectID int64     `gorm:"not null;uniqueIndex:idx_project_team_member" json:"project_id"`
	MemberID  int64     `gorm:"not null;uniqueIndex:idx_project_team_member" json:"member_id"`
	Role      string    `gorm:"size:100" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectTeam) TableName() string { return "project_team" }

type ProjectBudget struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	ProjectID int64     `gorm:"index;not null" json:"project_id"`
	Category  string    `gorm:"size:100;not null" json:"category"`
	Planned   float64   `json:"planned"`
	Spent     float64   `json:"spent"`
	Note      string    `gorm:"size:500" json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProjectBudget) TableName() string { return "project_budget" }

const (
	MilestonePending = "pending"
	MilestoneDone    = "done"
)

type ProjectMilestone struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	ProjectID   int64      `gorm:"index;not null" json:"project_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	DueDate     *string    `gorm:"size:10" json:"due_date"`
	Status      string     `gorm:"size:16;default:pending" json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (ProjectMilestone) TableName() string { return "project_milestone" }
