package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdesk/internal/db"
	"hrdesk/internal/db/dbtest"
	"hrdesk/internal/models"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := db.Open("oracle", "whatever")
	assert.Error(t, err)
}

func TestAutoMigrateCreatesTables(t *testing.T) {
	gdb := dbtest.New(t)

	for _, table := range []string{
		"member", "permission", "attendance", "leave_requests", "tasks",
		"projects", "project_team", "project_budget", "project_milestone",
		"schedules", "messages", "events", "daily_reports", "weekly_reports",
		"employee_documents", "audit_logs", "devices", "device_tokens",
	} {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}

	// Running it twice is harmless.
	require.NoError(t, db.AutoMigrate(gdb))

	a := models.Attendance{MemberID: 1, WorkDate: "2024-05-06", Status: models.AttendancePresent}
	a.OrgID = 1
	require.NoError(t, gdb.Create(&a).Error)
	dup := models.Attendance{MemberID: 1, WorkDate: "2024-05-06", Status: models.AttendanceLate}
	dup.OrgID = 1
	assert.Error(t, gdb.Create(&dup).Error, "one attendance row per member and day")
}
