package accounts_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hrdesk/internal/accounts"
	"hrdesk/internal/db/dbtest"
	"hrdesk/internal/models"
	"hrdesk/internal/seed"
)

func TestCreate(t *testing.T) {
	gdb := dbtest.New(t)
	ctx := context.Background()
	org, err := seed.FirstSetup(ctx, gdb, seed.Options{})
	require.NoError(t, err)

	m, err := accounts.Create(ctx, gdb, accounts.NewMember{
		OrgID: org.ID, Email: "  Jane@Example.com ", Name: " Jane ", Password: "longenough",
		Status: models.MemberPending,
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", m.Email)
	assert.Equal(t, "Jane", m.Name)
	require.NotNil(t, m.Permission)
	assert.Equal(t, models.MemberPending, m.Permission.Status)
	assert.Equal(t, models.RoleEmployee, m.Permission.Role.Slug)
	assert.True(t, accounts.CheckPassword(m.PasswordHash, "longenough"))

	_, err = accounts.Create(ctx, gdb, accounts.NewMember{OrgID: org.ID, Email: "jane@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, accounts.ErrEmailTaken)

	_, err = accounts.Create(ctx, gdb, accounts.NewMember{OrgID: org.ID, Email: "bob@example.com", Password: "short"})
	assert.ErrorIs(t, err, accounts.ErrWeakPassword)

	_, err = accounts.Create(ctx, gdb, accounts.NewMember{OrgID: org.ID, Email: "bob@example.com", Password: strings.Repeat("x", 80)})
	assert.ErrorIs(t, err, accounts.ErrWeakPassword)

	_, err = accounts.Create(ctx, gdb, accounts.NewMember{OrgID: org.ID, Email: "bob@example.com", Password: "longenough", RoleSlug: "ceo"})
	assert.ErrorIs(t, err, accounts.ErrUnknownRole)

	var count int64
	gdb.Model(&models.Member{}).Count(&count)
	assert.Equal(t, int64(1), count, "failed creations leave no rows behind")

	loaded, err := accounts.Load(ctx, gdb, org.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, loaded.Permission.Role.Slug)
}

func TestBadgeCodeUniquePerOrg(t *testing.T) {
	gdb := dbtest.New(t)
	other := models.Organization{Name: "Other", Slug: "other"}
	first := models.Organization{Name: "First", Slug: "first"}
	require.NoError(t, gdb.Create(&first).Error)
	require.NoError(t, gdb.Create(&other).Error)

	badge := "B-7"
	require.NoError(t, gdb.Create(&models.Member{OrgID: first.ID, Email: "a@first.test", BadgeCode: &badge}).Error)
	require.NoError(t, gdb.Create(&models.Member{OrgID: other.ID, Email: "a@other.test", BadgeCode: &badge}).Error,
		"the same badge may be issued by two orgs")
	require.NoError(t, gdb.Create(&models.Member{OrgID: first.ID, Email: "nobadge1@first.test"}).Error)
	require.NoError(t, gdb.Create(&models.Member{OrgID: first.ID, Email: "nobadge2@first.test"}).Error)

	err := gdb.Create(&models.Member{OrgID: first.ID, Email: "b@first.test", BadgeCode: &badge}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey, "badge codes are unique within an org")
}
