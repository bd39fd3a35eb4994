package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hrdesk/internal/accounts"
	"hrdesk/internal/auth"
	"hrdesk/internal/models"
	"hrdesk/internal/realtime"
	"hrdesk/internal/store"
)

// Login authenticates the member and returns a JWT.
func (d *Deps) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var member models.Member
		err := d.DB.WithContext(c.Request.Context()).
			Preload("Permission.Role").
			Where("email = ?", accounts.NormalizeEmail(input.Email)).
			First(&member).Error
		if err != nil || !accounts.CheckPassword(member.PasswordHash, input.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		if member.Permission == nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "account has no role"})
			return
		}
		switch member.Permission.Status {
		case models.MemberActive:
		case models.MemberPending:
			c.JSON(http.StatusForbidden, gin.H{"error": "account awaiting approval"})
			return
		default:
			c.JSON(http.StatusForbidden, gin.H{"error": "account suspended"})
			return
		}

		tokenString, exp, err := auth.Issue(d.Settings.JWTSecret, &member, d.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
			return
		}

		// ✅ Set JWT as cookie (browser will send it automatically)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(auth.CookieName, tokenString, int(auth.TokenTTL.Seconds()), "/", "", d.Settings.SecureCookie, true)

		// ✅ Also return token in JSON (for API clients)
		c.JSON(http.StatusOK, gin.H{
			"token":      tokenString,
			"expires_at": exp,
			"member":     member,
		})
	}
}

// Signup creates a self-registered employee account. Depending on
// configuration it starts active or waits for an admin.
func (d *Deps) Signup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
			Name     string `json:"name" binding:"required"`
			Org      string `json:"org"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		slug := strings.TrimSpace(input.Org)
		if slug == "" {
			slug = d.Settings.SignupOrg
		}
		var org models.Organization
		if err := d.DB.WithContext(c.Request.Context()).Where("slug = ?", slug).First(&org).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown organization"})
				return
			}
			fail(c, err)
			return
		}

		status := models.MemberActive
		if d.Settings.SignupNeedsAdmin {
			status = models.MemberPending
		}
		member, err := accounts.Create(c.Request.Context(), d.DB, accounts.NewMember{
			OrgID:    org.ID,
			Email:    input.Email,
			Name:     input.Name,
			Password: input.Password,
			RoleSlug: models.RoleEmployee,
			Status:   status,
		})
		if err != nil {
			fail(c, err)
			return
		}
		d.Tables.Members.Publish(c.Request.Context(), realtime.Insert, org.ID, member, nil)
		log.Printf("👤 Signup %s (org=%s, status=%s)", member.Email, org.Slug, status)

		c.JSON(http.StatusCreated, gin.H{"member": member, "status": status})
	}
}

// Logout clears the session cookie.
func (d *Deps) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(auth.CookieName, "", -1, "/", "", d.Settings.SecureCookie, true)
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

// Me returns the current member, role, status and capability keys.
func (d *Deps) Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := auth.MustClaims(c)
		member, err := accounts.Load(c.Request.Context(), d.DB, cl.OrgID, cl.MemberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = store.ErrNotFound
			}
			fail(c, err)
			return
		}
		resp := gin.H{
			"member":       member,
			"capabilities": capsOf(c).Keys(),
		}
		if member.Permission != nil {
			resp["status"] = member.Permission.Status
			if member.Permission.Role != nil {
				resp["role"] = member.Permission.Role.Slug
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ChangeOwnPassword requires the current password.
func (d *Deps) ChangeOwnPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Current string `json:"current" binding:"required"`
			New     string `json:"new" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cl := auth.MustClaims(c)
		member, err := d.Tables.Members.Get(c.Request.Context(), store.Scope{OrgID: cl.OrgID, All: true}, cl.MemberID)
		if err != nil {
			fail(c, err)
			return
		}
		if !accounts.CheckPassword(member.PasswordHash, input.Current) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "current password is incorrect"})
			return
		}
		if err := d.setPassword(c, cl.OrgID, cl.MemberID, input.New); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	}
}

func (d *Deps) setPassword(c *gin.Context, orgID, memberID int64, pw string) error {
	if err := accounts.ValidatePassword(pw); err != nil {
		return err
	}
	hash, err := accounts.HashPassword(pw)
	if err != nil {
		return err
	}
	// hash changes are not broadcast
	return d.DB.WithContext(c.Request.Context()).Model(&models.Member{}).
		Where("id = ? AND org_id = ?", memberID, orgID).
		Update("password_hash", hash).Error
}
