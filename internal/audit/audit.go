// Package audit records and lists the org's audit trail.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hrdesk/internal/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Entry struct {
	OrgID        int64
	MemberID     int64
	Initiator    string
	Action       string // e.g. "leave.approve"
	ResourceType string
	ResourceID   int64
	Meta         map[string]any
	IP           string
	UserAgent    string
}

// Record writes e. Failures are logged and never fail the caller's
// operation.
func Record(ctx context.Context, db *gorm.DB, e Entry) {
	var meta datatypes.JSON
	if len(e.Meta) > 0 {
		b, err := json.Marshal(e.Meta)
		if err != nil {
			log.Printf("⚠️ audit %s: metadata: %v", e.Action, err)
		} else {
			meta = datatypes.JSON(b)
		}
	}
	row := models.AuditLog{
		OrgID:         e.OrgID,
		MemberID:      e.MemberID,
		Action:        e.Action,
		ResourceType:  e.ResourceType,
		ResourceID:    e.ResourceID,
		Metadata:      meta,
		IP:            e.IP,
		InitiatorName: e.Initiator,
		UserAgent:     truncate(e.UserAgent, 255),
		CreatedAt:     time.Now(),
	}
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Printf("⚠️ audit %s: %v", e.Action, err)
	}
}

// List pages through the org's entries newest first. afterID is the cursor
// returned by the previous page; next is nil on the last page.
func List(ctx context.Context, db *gorm.DB, orgID, afterID int64, limit int, search string) (logs []models.AuditLog, next *int64, err error) {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	q := db.WithContext(ctx).Model(&models.AuditLog{}).Where("org_id = ?", orgID).Order("id DESC")
	if afterID > 0 {
		q = q.Where("id < ?", afterID)
	}
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + search + "%"
		q = q.Where("(initiator_name LIKE ? OR action LIKE ? OR resource_type LIKE ? OR ip LIKE ?)",
			like, like, like, like)
	}
	if err := q.Limit(limit + 1).Find(&logs).Error; err != nil {
		return nil, nil, err
	}
	if len(logs) > limit {
		cursor := logs[limit-1].ID
		logs = logs[:limit]
		next = &cursor
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, next, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
