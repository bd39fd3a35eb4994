package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID            int64          `gorm:"primaryKey" json:"id"`
	OrgID         int64          `gorm:"index;not null" json:"org_id"`
	MemberID      int64          `gorm:"index" json:"member_id"`             // zero for system and device actions
	Action        string         `gorm:"size:200;not null" json:"action"`    // e.g. "leave.approve", "project.delete"
	ResourceType  string         `gorm:"size:100" json:"resource_type"`      // e.g. "member", "project"
	ResourceID    int64          `gorm:"index" json:"resource_id"`
	Metadata      datatypes.JSON `json:"metadata"`
	IP            string         `gorm:"size:64" json:"ip"`
	InitiatorName string         `gorm:"size:255" json:"initiator_name"`
	UserAgent     string         `gorm:"size:255" json:"user_agent"`
	CreatedAt     time.Time      `json:"created_at"`
}
