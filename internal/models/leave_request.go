package models

import "time"

type LeaveType string

const (
	LeaveAnnual LeaveType = "annual"
	LeaveSick   LeaveType = "sick"
	LeaveUnpaid LeaveType = "unpaid"
	LeaveOther  LeaveType = "other"
)

func (t LeaveType) Valid() bool {
	switch t {
	case LeaveAnnual, LeaveSick, LeaveUnpaid, LeaveOther:
		return true
	}
	return false
}

type LeaveStatus string

const (
	LeavePending   LeaveStatus = "pending"
	LeaveApproved  LeaveStatus = "approved"
	LeaveRejected  LeaveStatus = "rejected"
	LeaveCancelled LeaveStatus = "cancelled"
)

type LeaveRequest struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	MemberID   int64       `gorm:"index;not null" json:"member_id"`
	Type       LeaveType   `gorm:"size:16;not null" json:"type"`
	StartDate  string      `gorm:"size:10;not null;index" json:"start_date"`
	EndDate    string      `gorm:"size:10;not null" json:"end_date"`
	Days       int         `json:"days"`
	Reason     string      `gorm:"type:text" json:"reason"`
	Status     LeaveStatus `gorm:"size:16;not null;index" json:"status"`
	ReviewerID *int64      `json:"reviewer_id,omitempty"`
	ReviewedAt *time.Time  `json:"reviewed_at,omitempty"`
	ReviewNote string      `gorm:"size:500" json:"review_note"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
