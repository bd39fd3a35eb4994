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
	"hrdesk/internal/rbac"
	"hrdesk/internal/realtime"
	"hrdesk/internal/store"
)

// CreateMember is the admin path for creating accounts with a chosen role
// and status.
func (d *Deps) CreateMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Email      string              `json:"email" binding:"required,email"`
			Name       string              `json:"name" binding:"required"`
			Password   string              `json:"password" binding:"required"`
			Role       string              `json:"role"`
			Status     models.MemberStatus `json:"status"`
			Department string              `json:"department"`
			Position   string              `json:"position"`
			Phone      string              `json:"phone"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cl := auth.MustClaims(c)
		member, err := accounts.Create(c.Request.Context(), d.DB, accounts.NewMember{
			OrgID:      cl.OrgID,
			Email:      in.Email,
			Name:       in.Name,
			Password:   in.Password,
			RoleSlug:   in.Role,
			Status:     in.Status,
			Department: in.Department,
			Position:   in.Position,
			Phone:      in.Phone,
		})
		if err != nil {
			fail(c, err)
			return
		}
		d.Tables.Members.Publish(c.Request.Context(), realtime.Insert, cl.OrgID, member, nil)
		d.audit(c, "member.create", "member", member.ID, map[string]any{"email": member.Email, "role": in.Role})
		c.JSON(http.StatusCreated, gin.H{"member": member})
	}
}

var (
	selfMemberFields    = []string{"name", "phone", "avatar_url"}
	managerMemberFields = []string{"name", "phone", "avatar_url", "department", "position", "badge_code", "joined_on"}
)

// UpdateMember lets members edit their own contact fields and managers edit
// employment fields of anyone in the org.
func (d *Deps) UpdateMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		cl := auth.MustClaims(c)
		allowed := selfMemberFields
		switch {
		case manages(c, rbac.Members):
			allowed = managerMemberFields
		case id != cl.MemberID:
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "missing": rbac.Manage(rbac.Members)})
			return
		}

		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fields, err := Resource[models.Member]{}.fields(body, allowed)
		if err != nil {
			fail(c, err)
			return
		}
		if err := dateField(fields, "joined_on"); err != nil {
			fail(c, err)
			return
		}
		if v, ok := fields["badge_code"]; ok {
			// empty badge clears it so the unique index only sees real codes
			if s, _ := v.(string); strings.TrimSpace(s) == "" {
				fields["badge_code"] = nil
			}
		}

		member, err := d.Tables.Members.Update(c.Request.Context(), store.Scope{OrgID: cl.OrgID, All: true}, id, fields)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"member": member})
	}
}

// SetMemberStatus returns a handler that moves a member's permission to
// status. Used for approve/activate and deactivate.
func (d *Deps) SetMemberStatus(status models.MemberStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		cl := auth.MustClaims(c)
		if id == cl.MemberID && status != models.MemberActive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot deactivate yourself"})
			return
		}
		member, err := d.updatePermission(c, cl.OrgID, id, map[string]any{"status": status})
		if err != nil {
			fail(c, err)
			return
		}
		d.audit(c, "member.status", "member", id, map[string]any{"status": status})
		c.JSON(http.StatusOK, gin.H{"member": member})
	}
}

// AssignRole switches a member to another role of the org.
func (d *Deps) AssignRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var in struct {
			Role string `json:"role" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cl := auth.MustClaims(c)

		var role models.Role
		err := d.DB.WithContext(c.Request.Context()).Where("org_id = ? AND slug = ?", cl.OrgID, in.Role).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, accounts.ErrUnknownRole)
			return
		}
		if err != nil {
			fail(c, err)
			return
		}
		if id == cl.MemberID && role.Slug != models.RoleAdmin {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot drop your own admin role"})
			return
		}
		member, err := d.updatePermission(c, cl.OrgID, id, map[string]any{"role_id": role.ID})
		if err != nil {
			fail(c, err)
			return
		}
		d.audit(c, "member.assign_role", "member", id, map[string]any{"role": role.Slug})
		c.JSON(http.StatusOK, gin.H{"member": member})
	}
}

// updatePermission changes the member's permission row and announces the
// member as updated.
func (d *Deps) updatePermission(c *gin.Context, orgID, memberID int64, fields map[string]any) (*models.Member, error) {
	ctx := c.Request.Context()
	old, err := accounts.Load(ctx, d.DB, orgID, memberID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	res := d.DB.WithContext(ctx).Model(&models.Permission{}).
		Where("member_id = ? AND org_id = ?", memberID, orgID).
		Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	member, err := accounts.Load(ctx, d.DB, orgID, memberID)
	if err != nil {
		return nil, err
	}
	d.Tables.Members.Publish(ctx, realtime.Update, orgID, member, old)
	d.dropSessions(orgID, memberID)
	return member, nil
}

// dropSessions closes the member's realtime sessions. Their capabilities
// were captured at connect time, so the client must reconnect to pick up the
// new ones.
func (d *Deps) dropSessions(orgID, memberID int64) {
	if n := d.Hub.DetachMember(orgID, memberID); n > 0 {
		log.Printf("🔌 closed %d realtime session(s) of member %d after access change", n, memberID)
	}
}

// DeleteMember removes the permission record first, then the member.
func (d *Deps) DeleteMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		cl := auth.MustClaims(c)
		if id == cl.MemberID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete yourself"})
			return
		}
		ctx := c.Request.Context()
		err := d.Tables.Tx(ctx, func(tx *store.Tables) error {
			if err := tx.DB().Where("member_id = ? AND org_id = ?", id, cl.OrgID).Delete(&models.Permission{}).Error; err != nil {
				return err
			}
			return tx.Members.Delete(ctx, store.Scope{OrgID: cl.OrgID, All: true}, id)
		})
		if err != nil {
			fail(c, err)
			return
		}
		d.dropSessions(cl.OrgID, id)
		d.audit(c, "member.delete", "member", id, nil)
		c.JSON(http.StatusOK, gin.H{"message": "member deleted"})
	}
}

// ResetPassword sets another member's password.
func (d *Deps) ResetPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var in struct {
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cl := auth.MustClaims(c)
		if _, err := d.Tables.Members.Get(c.Request.Context(), store.Scope{OrgID: cl.OrgID, All: true}, id); err != nil {
			fail(c, err)
			return
		}
		if err := d.setPassword(c, cl.OrgID, id, in.Password); err != nil {
			fail(c, err)
			return
		}
		d.audit(c, "member.reset_password", "member", id, nil)
		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	}
}
