package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Device represents a locker-controller board. Devices are provisioned out of
// band; the dispatch core only reads Enabled, APIKeyHash and LockerID.
type Device struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	APIKeyHash      string     `gorm:"size:64;not null" json:"-"`
	Enabled         bool       `gorm:"not null;default:true" json:"enabled"`
	LockerID        string     `gorm:"index;size:36" json:"lockerId"`
	FWVersion       string     `gorm:"size:64" json:"fwVersion"`
	LastHeartbeatAt *time.Time `json:"lastHeartbeatAt"`
	CreatedAt       time.Time  `gorm:"not null" json:"-"`
	UpdatedAt       time.Time  `gorm:"not null" json:"-"`
}

func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
