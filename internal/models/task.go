package models

import "time"

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskReview, TaskDone:
		return true
	}
	return false
}

type Task struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	ProjectID   *int64     `gorm:"index" json:"project_id"`
	AssigneeID  *int64     `gorm:"index" json:"assignee_id"`
	CreatorID   int64      `json:"creator_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Priority    string     `gorm:"size:16;default:medium" json:"priority"`
	Status      TaskStatus `gorm:"size:16;default:todo;index" json:"status"`
	DueDate     *string    `gorm:"size:10" json:"due_date"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
