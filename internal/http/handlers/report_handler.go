package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hrdesk/internal/auth"
	"hrdesk/internal/dates"
	"hrdesk/internal/models"
	"hrdesk/internal/query"
	"hrdesk/internal/store"
)

// UpsertDailyReport writes the caller's report for a day, today by
// default. A second submission for the same day replaces the first.
func (d *Deps) UpsertDailyReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			ReportDate  string  `json:"report_date"`
			Summary     string  `json:"summary"`
			Blockers    string  `json:"blockers"`
			HoursWorked float64 `json:"hours_worked"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if in.ReportDate == "" {
			in.ReportDate = dates.Today(d.Now(), d.Settings.Location)
		}
		if err := checkDate("report_date", &in.ReportDate); err != nil {
			fail(c, err)
			return
		}
		if in.HoursWorked < 0 || in.HoursWorked > 24 {
			fail(c, badInput("hours_worked must be between 0 and 24"))
			return
		}

		cl := auth.MustClaims(c)
		ctx := c.Request.Context()
		s := store.Scope{OrgID: cl.OrgID, MemberID: cl.MemberID}
		existing, err := d.Tables.DailyReports.First(ctx, s, query.Query{}.Eq("member_id", cl.MemberID).Eq("report_date", in.ReportDate))
		switch {
		case err == nil:
			row, err := d.Tables.DailyReports.Update(ctx, s, existing.ID, map[string]any{
				"summary":      strings.TrimSpace(in.Summary),
				"blockers":     strings.TrimSpace(in.Blockers),
				"hours_worked": in.HoursWorked,
			})
			if err != nil {
				fail(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"data": row})
		case errors.Is(err, store.ErrNotFound):
			row := &models.DailyReport{
				MemberID:    cl.MemberID,
				ReportDate:  in.ReportDate,
				Summary:     strings.TrimSpace(in.Summary),
				Blockers:    strings.TrimSpace(in.Blockers),
				HoursWorked: in.HoursWorked,
			}
			if err := d.Tables.DailyReports.Create(ctx, s, row); err != nil {
				fail(c, err)
				return
			}
			c.JSON(http.StatusCreated, gin.H{"data": row})
		default:
			fail(c, err)
		}
	}
}

// UpsertWeeklyReport writes the caller's report for the week containing
// week_start (this week by default), keyed by that week's Monday.
func (d *Deps) UpsertWeeklyReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			WeekStart       string `json:"week_start"`
			Accomplishments string `json:"accomplishments"`
			Plans           string `json:"plans"`
			Challenges      string `json:"challenges"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if in.WeekStart == "" {
			in.WeekStart = dates.Today(d.Now(), d.Settings.Location)
		}
		day, err := dates.Parse(in.WeekStart)
		if err != nil {
			fail(c, badInput("week_start: %v", err))
			return
		}
		week := dates.Format(dates.Monday(day))

		cl := auth.MustClaims(c)
		ctx := c.Request.Context()
		s := store.Scope{OrgID: cl.OrgID, MemberID: cl.MemberID}
		existing, err := d.Tables.WeeklyReports.First(ctx, s, query.Query{}.Eq("member_id", cl.MemberID).Eq("week_start", week))
		switch {
		case err == nil:
			row, err := d.Tables.WeeklyReports.Update(ctx, s, existing.ID, map[string]any{
				"accomplishments": strings.TrimSpace(in.Accomplishments),
				"plans":           strings.TrimSpace(in.Plans),
				"challenges":      strings.TrimSpace(in.Challenges),
			})
			if err != nil {
				fail(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"data": row})
		case errors.Is(err, store.ErrNotFound):
			row := &models.WeeklyReport{
				MemberID:        cl.MemberID,
				WeekStart:       week,
				Accomplishments: strings.TrimSpace(in.Accomplishments),
				Plans:           strings.TrimSpace(in.Plans),
				Challenges:      strings.TrimSpace(in.Challenges),
			}
			if err := d.Tables.WeeklyReports.Create(ctx, s, row); err != nil {
				fail(c, err)
				return
			}
			c.JSON(http.StatusCreated, gin.H{"data": row})
		default:
			fail(c, err)
		}
	}
}
