package models

import "time"

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

type Role struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	Name         string       `gorm:"size:200;not null" json:"name"`
	Slug         string       `gorm:"size:200;not null" json:"slug"`
	Description  string       `json:"description"`
	IsSystem     bool         `gorm:"default:false" json:"is_system"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Capabilities []Capability `gorm:"many2many:role_capabilities;" json:"capabilities,omitempty"`
}
