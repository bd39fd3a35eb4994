package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hrdesk/internal/db"
	"hrdesk/internal/seed"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.AutoMigrate(gdb); err != nil {
			return err
		}
		fmt.Println("✅ schema up to date")
		return nil
	},
}

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Ensure the default org, capabilities, roles and admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		org, err := seed.FirstSetup(cmd.Context(), gdb, seed.Options{
			OrgSlug:       cfg.SignupOrg,
			AdminEmail:    cfg.AdminEmail,
			AdminPassword: cfg.AdminPassword,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✅ org %q (id %d) seeded, admin %s\n", org.Slug, org.ID, cfg.AdminEmail)
		return nil
	},
}
