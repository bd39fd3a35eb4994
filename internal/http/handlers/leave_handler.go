package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hrdesk/internal/auth"
	"hrdesk/internal/leave"
)

// SubmitLeave files a leave request for the caller.
func (d *Deps) SubmitLeave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in leave.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cl := auth.MustClaims(c)
		req, err := d.Leave.Submit(c.Request.Context(), cl.OrgID, cl.MemberID, in)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": req})
	}
}

// ReviewLeave returns the approve or reject handler.
func (d *Deps) ReviewLeave(approve bool) gin.HandlerFunc {
	action := "leave.reject"
	if approve {
		action = "leave.approve"
	}
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var in struct {
			Note string `json:"note"`
		}
		// body is optional
		_ = c.ShouldBindJSON(&in)

		cl := auth.MustClaims(c)
		req, err := d.Leave.Review(c.Request.Context(), cl.OrgID, id, cl.MemberID, approve, in.Note)
		if err != nil {
			fail(c, err)
			return
		}
		d.audit(c, action, "leave_request", id, map[string]any{"member_id": req.MemberID, "days": req.Days})
		c.JSON(http.StatusOK, gin.H{"data": req})
	}
}

func (d *Deps) CancelLeave() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		cl := auth.MustClaims(c)
		req, err := d.Leave.Cancel(c.Request.Context(), cl.OrgID, cl.MemberID, id)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": req})
	}
}
