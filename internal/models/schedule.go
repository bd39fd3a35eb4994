package models

import "time"

type Schedule struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	MemberID  int64     `gorm:"index;not null" json:"member_id"`
	Title     string    `gorm:"size:255" json:"title"`
	Date      string    `gorm:"size:10;not null;index" json:"date"`
	StartTime string    `gorm:"size:5" json:"start_time"`
	EndTime   string    `gorm:"size:5" json:"end_time"`
	Shift     string    `gorm:"size:50" json:"shift"`
	Location  string    `gorm:"size:200" json:"location"`
	Note      string    `gorm:"size:500" json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
