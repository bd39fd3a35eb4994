package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hrdesk/internal/auth"
	"hrdesk/internal/http/handlers"
	"hrdesk/internal/models"
	"hrdesk/internal/rbac"
	"hrdesk/internal/storage"
)

// NewRouter mounts every route. local is non-nil when documents are kept on
// disk and must be served behind signed URLs.
func NewRouter(d *handlers.Deps, local *storage.Local) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "realtime_sessions": d.Hub.Sessions()})
	})
	// favicon fix
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	// Public routes
	r.POST("/api/v1/auth/login", d.Login())
	r.POST("/api/v1/auth/signup", d.Signup())
	r.POST("/api/v1/auth/logout", d.Logout())
	r.POST("/devices/register", d.RegisterDevice())
	kiosk := r.Group("/devices", auth.Device(d.DB))
	{
		kiosk.POST("/heartbeat", d.DeviceHeartbeat())
		kiosk.POST("/punch", d.DevicePunch())
	}
	if local != nil {
		r.GET("/files/*key", handlers.ServeFile(local))
	}

	api := r.Group("/api/v1", auth.JWT(d.DB, d.Settings.JWTSecret), handlers.Capabilities(d.Checker))
	{
		api.GET("/me", d.Me())
		api.POST("/me/password", d.ChangeOwnPassword())

		// Members
		manageMembers := handlers.Require(rbac.Manage(rbac.Members))
		d.MemberResource().Mount(api, "/members", nil)
		api.POST("/members", manageMembers, d.CreateMember())
		api.PATCH("/members/:id", handlers.CanUse(rbac.Members), d.UpdateMember())
		api.DELETE("/members/:id", manageMembers, d.DeleteMember())
		api.POST("/members/:id/activate", manageMembers, d.SetMemberStatus(models.MemberActive))
		api.POST("/members/:id/deactivate", manageMembers, d.SetMemberStatus(models.MemberSuspended))
		api.POST("/members/:id/password", manageMembers, d.ResetPassword())
		api.POST("/members/:id/role", handlers.Require(rbac.Manage(rbac.Roles)), d.AssignRole())

		// Roles
		api.GET("/roles", handlers.Require(rbac.Read(rbac.Roles), rbac.Manage(rbac.Roles)), d.ListRoles())
		api.GET("/capabilities", handlers.Require(rbac.Read(rbac.Roles), rbac.Manage(rbac.Roles)), d.ListCapabilities())

		// Attendance
		api.POST("/attendance/check-in", handlers.CanUse(rbac.Attendance), d.CheckIn())
		api.POST("/attendance/check-out", handlers.CanUse(rbac.Attendance), d.CheckOut())
		api.GET("/attendance/today", handlers.CanUse(rbac.Attendance), d.AttendanceToday())
		d.AttendanceResource().Mount(api, "/attendance", handlers.Require(rbac.Manage(rbac.Attendance)))

		// Leave
		d.LeaveResource().Mount(api, "/leave", nil)
		api.POST("/leave", handlers.CanUse(rbac.Leave), d.SubmitLeave())
		api.DELETE("/leave/:id", handlers.Require(rbac.Manage(rbac.Leave)), d.LeaveResource().Delete())
		api.POST("/leave/:id/approve", handlers.Require(rbac.Manage(rbac.Leave)), d.ReviewLeave(true))
		api.POST("/leave/:id/reject", handlers.Require(rbac.Manage(rbac.Leave)), d.ReviewLeave(false))
		api.POST("/leave/:id/cancel", handlers.CanUse(rbac.Leave), d.CancelLeave())

		// Tasks and schedules
		d.TaskResource().Mount(api, "/tasks", handlers.Require(rbac.Manage(rbac.Tasks)))
		d.ScheduleResource().Mount(api, "/schedules", handlers.Require(rbac.Manage(rbac.Schedules)))

		// Projects
		manageProjects := handlers.Require(rbac.Manage(rbac.Projects))
		projects := d.ProjectResource()
		projects.Mount(api, "/projects", nil)
		api.POST("/projects", manageProjects, projects.Create())
		api.PATCH("/projects/:id", manageProjects, projects.Update())
		api.DELETE("/projects/:id", manageProjects, d.DeleteProject())
		api.GET("/projects/:id/overview", handlers.CanUse(rbac.Projects), d.ProjectOverview())
		api.POST("/projects/:id/team", manageProjects, d.AddTeamMember())
		api.DELETE("/projects/:id/team/:member_id", manageProjects, d.RemoveTeamMember())
		d.TeamResource().Mount(api, "/project-team", nil)
		d.BudgetResource().Mount(api, "/project-budget", manageProjects)
		d.MilestoneResource().Mount(api, "/project-milestones", manageProjects)
		api.POST("/project-milestones/:id/status", manageProjects, d.SetMilestoneStatus())

		// Chat
		api.POST("/messages", handlers.CanUse(rbac.Messages), d.SendMessage())
		api.GET("/messages/conversation/:peer", handlers.CanUse(rbac.Messages), d.Conversation())
		api.GET("/messages/unread", handlers.CanUse(rbac.Messages), d.UnreadCounts())
		api.POST("/messages/read", handlers.CanUse(rbac.Messages), d.MarkRead())
		d.MessageResource().Mount(api, "/messages", nil)
		api.DELETE("/messages/:id", handlers.CanUse(rbac.Messages), d.DeleteMessage())

		// Events
		d.EventResource().Mount(api, "/events", handlers.Require(rbac.Manage(rbac.Events)))

		// Reports
		d.DailyReportResource().Mount(api, "/reports/daily", nil)
		api.POST("/reports/daily", handlers.CanUse(rbac.Reports), d.UpsertDailyReport())
		d.WeeklyReportResource().Mount(api, "/reports/weekly", nil)
		api.POST("/reports/weekly", handlers.CanUse(rbac.Reports), d.UpsertWeeklyReport())

		// Documents
		d.DocumentResource().Mount(api, "/documents", nil)
		api.POST("/documents", handlers.CanUse(rbac.Documents), d.UploadDocument())
		api.GET("/documents/:id/url", handlers.CanUse(rbac.Documents), d.DocumentURL())
		api.DELETE("/documents/:id", handlers.CanUse(rbac.Documents), d.DeleteDocument())

		// Assistant
		api.POST("/assistant/chat", handlers.Require(rbac.AssistantUse), d.AssistantChat())

		// Analytics and exports
		analytics := api.Group("", handlers.Require(rbac.Read(rbac.Analytics)))
		analytics.GET("/analytics/dashboard", d.Dashboard())
		analytics.GET("/analytics/attendance", d.AttendanceSummary())
		analytics.GET("/analytics/tasks", d.TaskStats())
		analytics.GET("/analytics/budgets", d.Budgets())
		analytics.GET("/exports/attendance.xlsx", d.ExportAttendance())
		analytics.GET("/exports/leave.xlsx", d.ExportLeave())

		// Kiosks
		api.GET("/devices", handlers.Require(rbac.Manage(rbac.Devices)), d.ListDevices())
		api.POST("/devices/tokens", handlers.Require(rbac.Manage(rbac.Devices)), d.CreateDeviceToken())

		// Audit Trail
		api.GET("/audit", handlers.Require(rbac.Read(rbac.Audit)), d.ListAudit())

		// Realtime
		api.GET("/realtime", d.Realtime())
	}

	return r
}
