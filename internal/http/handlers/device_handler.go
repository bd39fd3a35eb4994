package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hrdesk/internal/audit"
	"hrdesk/internal/auth"
	"hrdesk/internal/models"
)

// CreateDeviceToken issues a one-time kiosk registration token.
func (d *Deps) CreateDeviceToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := auth.MustClaims(c)
		var req struct {
			TTLMinutes int `json:"ttl_minutes"` // 0 = no expiry
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		if req.TTLMinutes < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ttl_minutes must not be negative"})
			return
		}

		tok, err := auth.NewSecret(32)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
			return
		}

		var expires *time.Time
		if req.TTLMinutes > 0 {
			t := d.Now().Add(time.Duration(req.TTLMinutes) * time.Minute)
			expires = &t
		}

		rt := models.DeviceToken{Token: tok, ExpiresAt: expires}
		rt.OrgID = cl.OrgID
		if err := d.DB.WithContext(c.Request.Context()).Create(&rt).Error; err != nil {
			fail(c, err)
			return
		}
		d.audit(c, "device_token.create", "device_token", rt.ID, map[string]any{"ttl_minutes": req.TTLMinutes})

		c.JSON(http.StatusCreated, gin.H{
			"token":      tok,
			"expires_at": expires,
			"id":         rt.ID,
		})
	}
}

var errTokenUnusable = errors.New("registration token invalid, used or expired")

// RegisterDevice trades a registration token for device credentials. The
// key is returned once and only its bcrypt hash is stored.
func (d *Deps) RegisterDevice() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Token    string `json:"token" binding:"required"`
			Name     string `json:"name" binding:"required"`
			Location string `json:"location"`
			Hostname string `json:"hostname"`
			OS       string `json:"os"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		key, err := auth.NewSecret(32)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate key"})
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash key"})
			return
		}

		meta, _ := json.Marshal(map[string]any{"hostname": req.Hostname, "os": req.OS})
		now := d.Now()
		dev := models.Device{
			Name:          strings.TrimSpace(req.Name),
			Location:      strings.TrimSpace(req.Location),
			KeyHash:       string(hash),
			Status:        models.DeviceOnline,
			LastHeartbeat: &now,
			Metadata:      datatypes.JSON(meta),
		}

		err = d.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var rt models.DeviceToken
			if err := tx.Where("token = ? AND used = ?", req.Token, false).First(&rt).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errTokenUnusable
				}
				return err
			}
			if rt.ExpiresAt != nil && now.After(*rt.ExpiresAt) {
				return errTokenUnusable
			}
			dev.OrgID = rt.OrgID
			if err := tx.Create(&dev).Error; err != nil {
				return err
			}
			// the used = false guard keeps concurrent registrations from sharing a token
			res := tx.Model(&models.DeviceToken{}).Where("id = ? AND used = ?", rt.ID, false).
				Updates(map[string]any{"used": true, "device_id": dev.ID})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errTokenUnusable
			}
			return nil
		})
		if errors.Is(err, errTokenUnusable) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			fail(c, err)
			return
		}

		audit.Record(c.Request.Context(), d.DB, audit.Entry{
			OrgID:        dev.OrgID,
			Initiator:    "device:" + dev.Name,
			Action:       "device.register",
			ResourceType: "device",
			ResourceID:   dev.ID,
			Meta:         map[string]any{"location": dev.Location},
			IP:           c.ClientIP(),
			UserAgent:    c.GetHeader("User-Agent"),
		})
		log.Printf("✅ Kiosk %s (%d) registered for org %d", dev.Name, dev.ID, dev.OrgID)
		c.JSON(http.StatusCreated, gin.H{
			"device_id":  dev.ID,
			"device_key": key,
		})
	}
}

// DeviceHeartbeat marks the calling kiosk online.
func (d *Deps) DeviceHeartbeat() gin.HandlerFunc {
	return func(c *gin.Context) {
		dev := auth.DeviceFromContext(c)
		now := d.Now()
		if err := d.DB.WithContext(c.Request.Context()).Model(&models.Device{}).
			Where("id = ?", dev.ID).
			Updates(map[string]any{
				"last_heartbeat": now,
				"status":         models.DeviceOnline,
			}).Error; err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "heartbeat ok"})
	}
}

// DevicePunch toggles attendance for the member holding badge_code.
func (d *Deps) DevicePunch() gin.HandlerFunc {
	return func(c *gin.Context) {
		dev := auth.DeviceFromContext(c)
		var req struct {
			BadgeCode string `json:"badge_code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "badge_code is required"})
			return
		}

		ctx := c.Request.Context()
		var m models.Member
		err := d.DB.WithContext(ctx).
			Joins("JOIN permission p ON p.member_id = member.id AND p.org_id = ?", dev.OrgID).
			Where("member.badge_code = ? AND p.status = ?", strings.TrimSpace(req.BadgeCode), models.MemberActive).
			First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown badge"})
			return
		}
		if err != nil {
			fail(c, err)
			return
		}

		row, action, err := d.Attendance.Punch(ctx, dev.OrgID, m.ID, dev.ID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"action": action,
			"member": gin.H{"id": m.ID, "name": m.Name},
			"data":   row,
		})
	}
}

// ListDevices returns the org's kiosks. Kiosks silent for longer than
// offlineAfter are reported offline.
func (d *Deps) ListDevices() gin.HandlerFunc {
	const offlineAfter = 2 * time.Minute
	return func(c *gin.Context) {
		cl := auth.MustClaims(c)
		var devices []models.Device
		if err := d.DB.WithContext(c.Request.Context()).
			Where("org_id = ?", cl.OrgID).Order("id").Find(&devices).Error; err != nil {
			fail(c, err)
			return
		}
		now := d.Now()
		for i := range devices {
			hb := devices[i].LastHeartbeat
			if hb == nil || now.Sub(*hb) > offlineAfter {
				devices[i].Status = models.DeviceOffline
			}
		}
		c.JSON(http.StatusOK, gin.H{"data": devices})
	}
}
