package seed

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"hrdesk/internal/accounts"
	"hrdesk/internal/models"
	"hrdesk/internal/rbac"
)

type Options struct {
	OrgName       string
	OrgSlug       string
	AdminEmail    string
	AdminPassword string
}

// FirstSetup is idempotent: it ensures the default org, the capability
// catalog, the system roles and an admin member.
func FirstSetup(ctx context.Context, db *gorm.DB, opts Options) (*models.Organization, error) {
	if opts.OrgSlug == "" {
		opts.OrgSlug = "default"
	}
	if opts.OrgName == "" {
		opts.OrgName = "Default Organization"
	}
	db = db.WithContext(ctx)

	// -------------------------
	// 1) Ensure default org
	// -------------------------
	org := models.Organization{Name: opts.OrgName, Slug: opts.OrgSlug}
	if err := db.Where("slug = ?", org.Slug).FirstOrCreate(&org).Error; err != nil {
		return nil, err
	}

	// -------------------------
	// 2) Ensure capabilities
	// -------------------------
	caps := map[string]models.Capability{}
	for _, def := range rbac.Catalog() {
		c := models.Capability{Key: def.Key, Resource: def.Resource, Action: def.Action, Description: def.Description}
		if err := db.Where("code = ?", c.Key).FirstOrCreate(&c).Error; err != nil {
			return nil, err
		}
		caps[c.Key] = c
	}

	// -------------------------
	// 3) Ensure roles + role_capabilities
	// -------------------------
	if err := EnsureRoles(db, org.ID, caps); err != nil {
		return nil, err
	}

	// -------------------------
	// 4) Ensure admin member
	// -------------------------
	if opts.AdminEmail == "" {
		return &org, nil
	}
	_, err := accounts.Create(ctx, db, accounts.NewMember{
		OrgID:    org.ID,
		Email:    opts.AdminEmail,
		Name:     "Administrator",
		Password: opts.AdminPassword,
		RoleSlug: models.RoleAdmin,
		Status:   models.MemberActive,
	})
	switch {
	case err == nil:
		log.Printf("✅ Seed OK | admin=%s | org=%s | roles=[admin,manager,employee] | capabilities=%d",
			opts.AdminEmail, org.Slug, len(caps))
	case errors.Is(err, accounts.ErrEmailTaken):
		// already seeded
	default:
		return nil, err
	}
	return &org, nil
}

// EnsureRoles creates the system roles of an org and grants their default
// capabilities.
func EnsureRoles(db *gorm.DB, orgID int64, caps map[string]models.Capability) error {
	names := map[string]string{
		models.RoleAdmin:    "Administrator",
		models.RoleManager:  "Manager",
		models.RoleEmployee: "Employee",
	}
	for slug, keys := range rbac.Defaults() {
		role := models.Role{Name: names[slug], Slug: slug, IsSystem: true}
		role.OrgID = orgID
		if err := db.Where("org_id = ? AND slug = ?", orgID, slug).FirstOrCreate(&role).Error; err != nil {
			return err
		}

		grant := make([]models.Capability, 0, len(keys))
		for _, k := range keys {
			if c, ok := caps[k]; ok {
				grant = append(grant, c)
			}
		}
		if len(grant) == 0 {
			continue
		}
		// join rows are inserted with ON CONFLICT DO NOTHING, so reseeding is safe
		if err := db.Model(&role).Omit("Capabilities.*").Association("Capabilities").Append(grant); err != nil {
			return err
		}
	}
	return nil
}
