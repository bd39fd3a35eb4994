package models

import "time"

type DailyReport struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	MemberID    int64     `gorm:"not null;uniqueIndex:idx_daily_member_date" json:"member_id"`
	ReportDate  string    `gorm:"size:10;not null;uniqueIndex:idx_daily_member_date" json:"report_date"`
	Summary     string    `gorm:"type:text" json:"summary"`
	Blockers    string    `gorm:"type:text" json:"blockers"`
	HoursWorked float64   `json:"hours_worked"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type WeeklyReport struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	MemberID        int64     `gorm:"not null;uniqueIndex:idx_weekly_member_week" json:"member_id"`
	WeekStart       string    `gorm:"size:10;not null;uniqueIndex:idx_weekly_member_week" json:"week_start"`
	Accomplishments string    `gorm:"type:text" json:"accomplishments"`
	Plans           string    `gorm:"type:text" json:"plans"`
	Challenges      string    `gorm:"type:text" json:"challenges"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
