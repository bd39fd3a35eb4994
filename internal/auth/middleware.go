package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hrdesk/internal/models"
)

const claimsKey = "claims"

// JWT returns a Gin middleware that validates JWT tokens from the
// Authorization header, a "token" cookie or an "access_token" query
// parameter, and verifies that the member is still active.
func JWT(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearer(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := Parse(secret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		// Verify member still exists and is active
		var perm models.Permission
		err = db.WithContext(c.Request.Context()).
			Where("member_id = ? AND org_id = ?", claims.MemberID, claims.OrgID).
			First(&perm).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "member not found"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to verify session"})
			return
		}
		switch perm.Status {
		case models.MemberActive:
		case models.MemberPending:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account awaiting approval"})
			return
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account suspended"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func bearer(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	// ✅ Fallback: cookie set at login, then query (browsers cannot set
	// headers on websocket upgrades)
	if cookie, err := c.Cookie(CookieName); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("access_token")
}

// FromContext returns the claims stored by JWT.
func FromContext(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	cl, ok := v.(*Claims)
	return cl, ok
}

// MustClaims is FromContext for routes behind JWT.
func MustClaims(c *gin.Context) *Claims {
	cl, ok := FromContext(c)
	if !ok {
		panic("auth: claims missing, route not behind JWT middleware")
	}
	return cl
}
