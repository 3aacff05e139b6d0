package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LockerStatus is the last device-reported state of a locker.
type LockerStatus string

const (
	LockerStatusLocked   LockerStatus = "LOCKED"
	LockerStatusUnlocked LockerStatus = "UNLOCKED"
	LockerStatusUnknown  LockerStatus = "UNKNOWN"
)

// Locker represents a physical locker unit with a bound controller device.
type Locker struct {
	ID         string       `gorm:"primaryKey;size:36" json:"id"`
	Name       string       `gorm:"size:128;not null" json:"name"`
	DeviceID   string       `gorm:"index;size:36;not null" json:"deviceId"`
	Status     LockerStatus `gorm:"size:32;not null" json:"status"`
	LastSeenAt *time.Time   `json:"lastSeenAt"`
	CreatedAt  time.Time    `gorm:"not null" json:"-"`
	UpdatedAt  time.Time    `gorm:"not null" json:"-"`
}

// BeforeCreate assigns an opaque ID, mirroring store-assigned document IDs.
func (l *Locker) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = LockerStatusLocked
	}
	return nil
}
