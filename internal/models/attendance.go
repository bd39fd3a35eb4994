package models

import "time"

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceHalfDay AttendanceStatus = "half_day"
	AttendanceOnLeave AttendanceStatus = "on_leave"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceLate, AttendanceAbsent, AttendanceHalfDay, AttendanceOnLeave:
		return true
	}
	return false
}

const (
	SourceWeb    = "web"
	SourceKiosk  = "kiosk"
	SourceManual = "manual"
)

type Attendance struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	OrgScoped
	MemberID  int64            `gorm:"not null;uniqueIndex:idx_attendance_member_day" json:"member_id"`
	WorkDate  string           `gorm:"size:10;not null;index;uniqueIndex:idx_attendance_member_day" json:"work_date"`
	CheckIn   *time.Time       `json:"check_in"`
	CheckOut  *time.Time       `json:"check_out"`
	Status    AttendanceStatus `gorm:"size:16;not null" json:"status"`
	Source    string           `gorm:"size:16;default:web" json:"source"`
	DeviceID  *int64           `gorm:"index" json:"device_id,omitempty"`
	Note      string           `gorm:"size:500" json:"note"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (Attendance) TableName() string { return "attendance" }

// Worked returns the time between check-in and check-out, zero when open.
func (a Attendance) Worked() time.Duration {
	if a.CheckIn == nil || a.CheckOut == nil || a.CheckOut.Before(*a.CheckIn) {
		return 0
	}
	return a.CheckOut.Sub(*a.CheckIn)
}
