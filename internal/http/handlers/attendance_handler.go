package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hrdesk/internal/auth"
	"hrdesk/internal/models"
	"hrdesk/internal/query"
	"hrdesk/internal/store"
)

func (d *Deps) CheckIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := auth.MustClaims(c)
		row, err := d.Attendance.CheckIn(c.Request.Context(), cl.OrgID, cl.MemberID, models.SourceWeb, nil)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": row})
	}
}

func (d *Deps) CheckOut() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := auth.MustClaims(c)
		row, err := d.Attendance.CheckOut(c.Request.Context(), cl.OrgID, cl.MemberID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": row})
	}
}

// AttendanceToday returns the caller's record for today, null when there
// is none yet.
func (d *Deps) AttendanceToday() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := auth.MustClaims(c)
		today := d.Attendance.Today()
		rows, err := d.Tables.Attendance.List(c.Request.Context(), store.Scope{OrgID: cl.OrgID, MemberID: cl.MemberID},
			query.Query{Limit: 1}.Eq("member_id", cl.MemberID).Eq("work_date", today))
		if err != nil {
			fail(c, err)
			return
		}
		var row *models.Attendance
		if len(rows) > 0 {
			row = &rows[0]
		}
		c.JSON(http.StatusOK, gin.H{"date": today, "data": row})
	}
}
