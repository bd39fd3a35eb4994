package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hrdesk/internal/auth"
)

// DeleteProject removes the project with its team, budget and milestones.
func (d *Deps) DeleteProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		cl := auth.MustClaims(c)
		if err := d.Projects.Delete(c.Request.Context(), cl.OrgID, id); err != nil {
			fail(c, err)
			return
		}
		d.audit(c, "project.delete", "project", id, nil)
		c.JSON(http.StatusOK, gin.H{"message": "project deleted"})
	}
}

func (d *Deps) ProjectOverview() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		cl := auth.MustClaims(c)
		ov, err := d.Projects.Overview(c.Request.Context(), cl.OrgID, id)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": ov})
	}
}

func (d *Deps) AddTeamMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var in struct {
			MemberID int64  `json:"member_id" binding:"required"`
			Role     string `json:"role"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cl := auth.MustClaims(c)
		row, err := d.Projects.AddMember(c.Request.Context(), cl.OrgID, id, in.MemberID, in.Role)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": row})
	}
}

func (d *Deps) RemoveTeamMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		memberID, ok := idParam(c, "member_id")
		if !ok {
			return
		}
		cl := auth.MustClaims(c)
		if err := d.Projects.RemoveMember(c.Request.Context(), cl.OrgID, id, memberID); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "removed from team"})
	}
}

// SetMilestoneStatus marks a milestone done or pending again.
func (d *Deps) SetMilestoneStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var in struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cl := auth.MustClaims(c)
		row, err := d.Projects.SetMilestoneStatus(c.Request.Context(), cl.OrgID, id, in.Status)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": row})
	}
}
