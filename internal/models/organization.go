package models

import "time"

type Organization struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Slug      string    `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Members []Member `gorm:"foreignKey:OrgID" json:"-"`
	Roles   []Role   `gorm:"foreignKey:OrgID" json:"-"`
}

// OrgScoped is embedded by every tenant table.
type OrgScoped struct {
	OrgID int64 `gorm:"index;not null" json:"org_id"`
}

func (o *OrgScoped) SetOrgID(id int64) { o.OrgID = id }

// Tenanted is implemented by every model embedding OrgScoped.
type Tenanted interface {
	SetOrgID(id int64)
}
