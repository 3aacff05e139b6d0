package mw

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"locker-dispatch-backend/internal/model"
	"locker-dispatch-backend/internal/store"
)

const deviceKeyHeader = "X-Device-Key"

const deviceContextKey = "device"

// HashDeviceKey returns the hex sha256 digest stored for a device API key.
func HashDeviceKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// DeviceAuth authenticates the device named in the route against the shared
// secret presented in the X-Device-Key header. The device must exist, be
// enabled, and present a key whose hash matches the stored one. The loaded
// device is attached to the request context.
func DeviceAuth(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(deviceKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + deviceKeyHeader})
			return
		}

		device, err := s.GetDevice(c.Request.Context(), c.Param("device_id"))
		if err != nil {
			if errors.Is(err, store.ErrDeviceNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown device"})
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unexpected server error"})
			}
			return
		}

		if !device.Enabled {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "device disabled"})
			return
		}

		presented := HashDeviceKey(key)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(device.APIKeyHash)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bad device key"})
			return
		}

		c.Set(deviceContextKey, device)
		c.Next()
	}
}

// AuthedDevice returns the device loaded by DeviceAuth.
func AuthedDevice(c *gin.Context) (model.Device, bool) {
	v, ok := c.Get(deviceContextKey)
	if !ok {
		return model.Device{}, false
	}
	device, ok := v.(model.Device)
	return device, ok
}
