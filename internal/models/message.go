package models

import "time"

// Message is a direct chat message between two members.
type Message struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	SenderID   int64      `gorm:"index;not null" json:"sender_id"`
	ReceiverID int64      `gorm:"index;not null" json:"receiver_id"`
	Body       string     `gorm:"type:text;not null" json:"body"`
	IsRead     bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt     *time.Time `json:"read_at"`
	CreatedAt  time.Time  `json:"created_at"`
}
