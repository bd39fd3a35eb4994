package models

import "time"

type MemberStatus string

const (
	MemberActive    MemberStatus = "active"
	MemberPending   MemberStatus = "pending"
	MemberSuspended MemberStatus = "suspended"
)

func (s MemberStatus) Valid() bool {
	switch s {
	case MemberActive, MemberPending, MemberSuspended:
		return true
	}
	return false
}

// Member is an employee or admin account. Badge codes are unique within an
// org, so OrgID carries the composite index instead of embedding OrgScoped.
type Member struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	OrgID        int64     `gorm:"not null;uniqueIndex:idx_member_org_badge,priority:1" json:"org_id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string    `gorm:"size:200" json:"name"`
	Phone        string    `gorm:"size:50" json:"phone"`
	Department   string    `gorm:"size:100;index" json:"department"`
	Position     string    `gorm:"size:100" json:"position"`
	BadgeCode    *string   `gorm:"size:64;uniqueIndex:idx_member_org_badge,priority:2" json:"badge_code,omitempty"`
	JoinedOn     string    `gorm:"size:10" json:"joined_on"`
	AvatarURL    string    `gorm:"size:500" json:"avatar_url"`
	AuthProvider string    `gorm:"size:20;default:local" json:"auth_provider"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Permission *Permission `gorm:"foreignKey:MemberID" json:"permission,omitempty"`
}

func (Member) TableName() string { return "member" }

func (m *Member) SetOrgID(id int64) { m.OrgID = id }
