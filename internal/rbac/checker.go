package rbac

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"hrdesk/internal/models"
)

type Checker struct{ DB *gorm.DB }

func (c Checker) Can(ctx context.Context, memberID, orgID int64, capKey string) (bool, error) {
	// JOIN permission -> roles -> role_capabilities -> capabilities by key
	var count int64
	err := c.base(ctx, memberID, orgID).
		Where("c.code = ?", capKey).
		Count(&count).Error
	return count > 0, err
}

// Capabilities returns every capability key granted to the member.
func (c Checker) Capabilities(ctx context.Context, memberID, orgID int64) (Set, error) {
	var keys []string
	if err := c.base(ctx, memberID, orgID).Distinct().Pluck("c.code", &keys).Error; err != nil {
		return nil, err
	}
	set := make(Set, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set, nil
}

func (c Checker) base(ctx context.Context, memberID, orgID int64) *gorm.DB {
	return c.DB.WithContext(ctx).
		Table("permission p").
		Joins("JOIN roles r ON r.id = p.role_id AND r.org_id = ?", orgID).
		Joins("JOIN role_capabilities rc ON rc.role_id = r.id").
		Joins("JOIN capabilities c ON c.id = rc.capability_id").
		Where("p.member_id = ? AND p.org_id = ? AND p.status = ?", memberID, orgID, models.MemberActive)
}

// Set is a resolved capability set.
type Set map[string]struct{}

func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

func (s Set) Keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

// Helper to compose like "leave:manage" from resource+action
func Key(resource, action string) string { return strings.ToLower(resource + ":" + action) }

// Read and Manage build the two standard capability keys of a resource.
func Read(resource string) string   { return Key(resource, "read") }
func Manage(resource string) string { return Key(resource, "manage") }
