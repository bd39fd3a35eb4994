package models

import "time"

type EmployeeDocument struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	MemberID    int64     `gorm:"index;not null" json:"member_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Category    string    `gorm:"size:100" json:"category"`
	ObjectKey   string    `gorm:"size:500;not null" json:"-"`
	FileName    string    `gorm:"size:255" json:"file_name"`
	ContentType string    `gorm:"size:100" json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  int64     `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}
