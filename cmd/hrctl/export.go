package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"hrdesk/internal/analytics"
	"hrdesk/internal/dates"
	"hrdesk/internal/export"
)

var exportFlags struct {
	org  string
	from string
	to   string
	out  string
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write spreadsheet exports",
}

var exportAttendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Export the attendance summary as .xlsx",
	RunE: func(cmd *cobra.Command, args []string) error {
		org, err := orgBySlug(exportFlags.org)
		if err != nil {
			return err
		}
		from, to, err := dates.Range(exportFlags.from, exportFlags.to, time.Now(), cfg.Location)
		if err != nil {
			return err
		}
		rows, err := analytics.New(gdb).AttendanceSummary(cmd.Context(), org.ID, from, to)
		if err != nil {
			return err
		}

		out := exportFlags.out
		if out == "" {
			out = fmt.Sprintf("attendance_%s_%s.xlsx", from, to)
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := export.Attendance(f, from, to, rows); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("✅ %d members written to %s\n", len(rows), out)
		return nil
	},
}

func init() {
	f := exportAttendanceCmd.Flags()
	f.StringVar(&exportFlags.org, "org", "", "organization slug (defaults to SIGNUP_ORG)")
	f.StringVar(&exportFlags.from, "from", "", "first day, YYYY-MM-DD (default 30 days ago)")
	f.StringVar(&exportFlags.to, "to", "", "last day, YYYY-MM-DD (default today)")
	f.StringVar(&exportFlags.out, "out", "", "output file")

	exportCmd.AddCommand(exportAttendanceCmd)
}
