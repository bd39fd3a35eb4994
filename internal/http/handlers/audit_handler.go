package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"hrdesk/internal/audit"
	"hrdesk/internal/auth"
)

// ListAudit pages through the org's audit log, newest first. Pass the
// returned next_cursor as after_id to fetch the following page.
func (d *Deps) ListAudit() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := auth.MustClaims(c)

		limit := audit.DefaultLimit
		if limitStr := c.Query("limit"); limitStr != "" {
			if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= audit.MaxLimit {
				limit = parsed
			}
		}

		var afterID int64
		if cursorStr := c.Query("after_id"); cursorStr != "" {
			if parsed, err := strconv.ParseInt(cursorStr, 10, 64); err == nil && parsed > 0 {
				afterID = parsed
			}
		}

		logs, next, err := audit.List(c.Request.Context(), d.DB, cl.OrgID, afterID, limit, strings.TrimSpace(c.Query("q")))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"logs":        logs,
			"next_cursor": next,
		})
	}
}
