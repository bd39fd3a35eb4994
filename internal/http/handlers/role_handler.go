package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hrdesk/internal/auth"
	"hrdesk/internal/models"
	"hrdesk/internal/rbac"
)

// ListRoles returns the org's roles with their capability keys.
func (d *Deps) ListRoles() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := auth.MustClaims(c)
		var roles []models.Role
		if err := d.DB.WithContext(c.Request.Context()).
			Preload("Capabilities").
			Where("org_id = ?", cl.OrgID).
			Order("id").
			Find(&roles).Error; err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"roles": roles})
	}
}

// ListCapabilities returns the capability catalog.
func (d *Deps) ListCapabilities() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"capabilities": rbac.Catalog()})
	}
}
