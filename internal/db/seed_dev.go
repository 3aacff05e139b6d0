package db

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"locker-dispatch-backend/config"
	"locker-dispatch-backend/internal/model"
)

// SeedDev provisions one enabled device and its locker for local development.
// Production devices are provisioned out of band.
func SeedDev(db *gorm.DB, cfg *config.DevSeedConfig) error {
	sum := sha256.Sum256([]byte(cfg.DeviceKey))
	keyHash := hex.EncodeToString(sum[:])

	device := model.Device{
		ID:         cfg.DeviceID,
		APIKeyHash: keyHash,
		Enabled:    true,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"api_key_hash", "enabled"}),
	}).Create(&device).Error; err != nil {
		return fmt.Errorf("seed device %s: %w", cfg.DeviceID, err)
	}

	var count int64
	if err := db.Model(&model.Locker{}).Where("device_id = ?", device.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("seed locker lookup: %w", err)
	}
	if count > 0 {
		return nil
	}

	locker := model.Locker{
		Name:     cfg.LockerName,
		DeviceID: device.ID,
	}
	if err := db.Create(&locker).Error; err != nil {
		return fmt.Errorf("seed locker: %w", err)
	}
	if err := db.Model(&model.Device{}).Where("id = ?", device.ID).
		Update("locker_id", locker.ID).Error; err != nil {
		return fmt.Errorf("seed device binding: %w", err)
	}
	return nil
}
