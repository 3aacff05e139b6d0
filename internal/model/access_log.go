package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessLog is a write-once audit record, appended exactly once per terminal
// command transition. No code path updates or deletes rows in this table.
type AccessLog struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	LockerID   string    `gorm:"index;size:36;not null" json:"lockerId"`
	DeviceID   string    `gorm:"size:36;not null" json:"deviceId"`
	UserID     string    `gorm:"size:128" json:"userId"`
	Method     string    `gorm:"size:32;not null" json:"method"`
	Success    bool      `gorm:"not null" json:"success"`
	Confidence *float64  `json:"confidence"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
}

func (a *AccessLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
