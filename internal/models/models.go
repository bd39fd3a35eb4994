package models

// All lists every model for auto-migration.
func All() []any {
	return []any{
		&Organization{},
		&Capability{},
		&Role{},
		&Member{},
		&Permission{},
		&Attendance{},
		&LeaveRequest{},
		&Task{},
		&Project{},
		&ProjectTeam{},
		&ProjectBudget{},
		&ProjectMilestone{},
		&Schedule{},
		&Message{},
		&Event{},
		&DailyReport{},
		&WeeklyReport{},
		&EmployeeDocument{},
		&AuditLog{},
		&Device{},
		&DeviceToken{},
	}
}
