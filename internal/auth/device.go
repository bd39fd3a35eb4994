package auth

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hrdesk/internal/models"
)

const (
	DeviceIDHeader  = "X-Device-ID"
	DeviceKeyHeader = "X-Device-Key"
	deviceKey       = "device"
)

// NewSecret returns n random bytes, URL-safe base64 encoded. Used for
// registration tokens and device keys.
func NewSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Device authenticates kiosk requests by their id and key headers.
func Device(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.GetHeader(DeviceIDHeader), 10, 64)
		key := c.GetHeader(DeviceKeyHeader)
		if err != nil || key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing device credentials"})
			return
		}
		var dev models.Device
		if err := db.WithContext(c.Request.Context()).First(&dev, id).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown device"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(dev.KeyHash), []byte(key)) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid device key"})
			return
		}
		c.Set(deviceKey, &dev)
		c.Next()
	}
}

// DeviceFromContext returns the device authenticated by Device.
func DeviceFromContext(c *gin.Context) *models.Device {
	v, _ := c.Get(deviceKey)
	dev, _ := v.(*models.Device)
	return dev
}
