package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hrdesk/internal/auth"
	"hrdesk/internal/dates"
	"hrdesk/internal/export"
)

func (d *Deps) Dashboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := auth.MustClaims(c)
		now := d.Now()
		out, err := d.Analytics.Dashboard(c.Request.Context(), cl.OrgID, dates.Today(now, d.Settings.Location), now)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": out})
	}
}

// period reads from/to, answering 400 itself when they are malformed.
func (d *Deps) period(c *gin.Context) (string, string, bool) {
	from, to, err := dates.Range(c.Query("from"), c.Query("to"), d.Now(), d.Settings.Location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}
	return from, to, true
}

func (d *Deps) AttendanceSummary() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := d.period(c)
		if !ok {
			return
		}
		rows, err := d.Analytics.AttendanceSummary(c.Request.Context(), auth.MustClaims(c).OrgID, from, to)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "data": rows})
	}
}

func (d *Deps) TaskStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		today := dates.Today(d.Now(), d.Settings.Location)
		rows, err := d.Analytics.TaskStats(c.Request.Context(), auth.MustClaims(c).OrgID, today)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows})
	}
}

func (d *Deps) Budgets() gin.HandlerFunc {
	return func(c *gin.Context) {
		var projectID int64
		if v := c.Query("project_id"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
				return
			}
			projectID = id
		}
		rows, err := d.Analytics.Budgets(c.Request.Context(), auth.MustClaims(c).OrgID, projectID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows})
	}
}

// ExportAttendance downloads the attendance summary as a workbook.
func (d *Deps) ExportAttendance() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := d.period(c)
		if !ok {
			return
		}
		rows, err := d.Analytics.AttendanceSummary(c.Request.Context(), auth.MustClaims(c).OrgID, from, to)
		if err != nil {
			fail(c, err)
			return
		}
		var buf bytes.Buffer
		if err := export.Attendance(&buf, from, to, rows); err != nil {
			fail(c, err)
			return
		}
		d.audit(c, "export.attendance", "attendance", 0, map[string]any{"from": from, "to": to})
		sendWorkbook(c, fmt.Sprintf("attendance_%s_%s.xlsx", from, to), &buf)
	}
}

// ExportLeave downloads leave requests overlapping the period.
func (d *Deps) ExportLeave() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := d.period(c)
		if !ok {
			return
		}
		rows, err := d.Analytics.LeaveRows(c.Request.Context(), auth.MustClaims(c).OrgID, from, to)
		if err != nil {
			fail(c, err)
			return
		}
		var buf bytes.Buffer
		if err := export.Leave(&buf, from, to, rows); err != nil {
			fail(c, err)
			return
		}
		d.audit(c, "export.leave", "leave_request", 0, map[string]any{"from": from, "to": to})
		sendWorkbook(c, fmt.Sprintf("leave_%s_%s.xlsx", from, to), &buf)
	}
}

func sendWorkbook(c *gin.Context, name string, buf *bytes.Buffer) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
