package models

import "time"

// Event is a calendar entry or announcement. A nil MemberID targets everyone.
type Event struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	StartsAt    time.Time  `gorm:"index" json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Location    string     `gorm:"size:200" json:"location"`
	MemberID    *int64     `gorm:"index" json:"member_id"`
	CreatedBy   int64      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
