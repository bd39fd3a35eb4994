package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DeviceOnline  = "online"
	DeviceOffline = "offline"
)

// Device is a registered attendance kiosk.
type Device struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	Name          string         `gorm:"size:200;not null" json:"name"`
	Location      string         `gorm:"size:200" json:"location"`
	KeyHash       string         `gorm:"size:255" json:"-"`
	Status        string         `gorm:"size:50" json:"status"`
	LastHeartbeat *time.Time     `json:"last_heartbeat"`
	Metadata      datatypes.JSON `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// DeviceToken is a one-time, optionally time-limited token used to register
// a kiosk.
type DeviceToken struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	Token     string     `gorm:"size:128;index;not null" json:"-"`
	DeviceID  *int64     `gorm:"index" json:"device_id"`
	Used      bool       `gorm:"default:false" json:"used"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}
