package models

import "time"

// Permission holds the role and account status of a member.
type Permission struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	MemberID  int64        `gorm:"uniqueIndex;not null" json:"member_id"`
	RoleID    int64        `gorm:"index;not null" json:"role_id"`
	Status    MemberStatus `gorm:"size:16;default:active" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	Role *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

func (Permission) TableName() string { return "permission" }
