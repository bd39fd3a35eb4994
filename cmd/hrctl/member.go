package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hrdesk/internal/accounts"
	"hrdesk/internal/models"
)

var memberFlags struct {
	org      string
	email    string
	name     string
	password string
	role     string
	status   string
}

// memberCmd represents the member command
var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage member accounts",
}

var createMemberCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a member with a role",
	RunE: func(cmd *cobra.Command, args []string) error {
		org, err := orgBySlug(memberFlags.org)
		if err != nil {
			return err
		}
		m, err := accounts.Create(cmd.Context(), gdb, accounts.NewMember{
			OrgID:    org.ID,
			Email:    memberFlags.email,
			Name:     memberFlags.name,
			Password: memberFlags.password,
			RoleSlug: memberFlags.role,
			Status:   models.MemberStatus(memberFlags.status),
		})
		if err != nil {
			return err
		}
		fmt.Printf("✅ member %s created (id %d, role %s)\n", m.Email, m.ID, memberFlags.role)
		return nil
	},
}

func orgBySlug(slug string) (*models.Organization, error) {
	if slug == "" {
		slug = cfg.SignupOrg
	}
	var org models.Organization
	if err := gdb.Where("slug = ?", slug).First(&org).Error; err != nil {
		return nil, fmt.Errorf("organization %q: %w", slug, err)
	}
	return &org, nil
}

func init() {
	f := createMemberCmd.Flags()
	f.StringVar(&memberFlags.org, "org", "", "organization slug (defaults to SIGNUP_ORG)")
	f.StringVar(&memberFlags.email, "email", "", "login email")
	f.StringVar(&memberFlags.name, "name", "", "display name")
	f.StringVar(&memberFlags.password, "password", "", "initial password")
	f.StringVar(&memberFlags.role, "role", models.RoleEmployee, "role slug: admin, manager or employee")
	f.StringVar(&memberFlags.status, "status", string(models.MemberActive), "active, pending or suspended")
	_ = createMemberCmd.MarkFlagRequired("email")
	_ = createMemberCmd.MarkFlagRequired("name")
	_ = createMemberCmd.MarkFlagRequired("password")

	memberCmd.AddCommand(createMemberCmd)
}
