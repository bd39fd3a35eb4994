package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"hrdesk/internal/config"
	"hrdesk/internal/db"
)

var (
	cfg config.Config
	gdb *gorm.DB
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hrctl",
	Short: "hrdesk administration",
	Long:  "Maintenance commands for an hrdesk database: migrations, seeding, accounts and exports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		var err error
		gdb, err = db.Open(cfg.DBDriver, cfg.DSN)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(memberCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
