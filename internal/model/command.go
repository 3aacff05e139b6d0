package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommandStatus is the closed set of states a command moves through:
// PENDING -> SENT -> DONE | FAILED. DONE and FAILED are terminal.
type CommandStatus string

const (
	CommandStatusPending CommandStatus = "PENDING"
	CommandStatusSent    CommandStatus = "SENT"
	CommandStatusDone    CommandStatus = "DONE"
	CommandStatusFailed  CommandStatus = "FAILED"
)

// Terminal reports whether no further transitions are permitted.
func (s CommandStatus) Terminal() bool {
	return s == CommandStatusDone || s == CommandStatusFailed
}

// CommandType tags the kind of work requested from a device.
type CommandType string

const CommandTypeUnlock CommandType = "UNLOCK"

// CommandResult holds the device-reported outcome of a terminal command.
// All fields are nil until the command reaches DONE or FAILED.
type CommandResult struct {
	Message    *string  `json:"message"`
	Confidence *float64 `json:"confidence"`
	Method     *string  `json:"method"`
}

// Command is a unit of work routed to exactly one locker's device. The
// composite index backs the per-locker FIFO claim query.
type Command struct {
	ID          string        `gorm:"primaryKey;size:36" json:"id"`
	LockerID    string        `gorm:"size:36;not null;index:idx_commands_queue,priority:1" json:"lockerId"`
	Type        CommandType   `gorm:"size:32;not null" json:"type"`
	RequestedBy string        `gorm:"size:128" json:"requestedBy"`
	Status      CommandStatus `gorm:"size:16;not null;index:idx_commands_queue,priority:2" json:"status"`
	CreatedAt   time.Time     `gorm:"not null;index:idx_commands_queue,priority:3" json:"createdAt"`
	SentAt      *time.Time    `json:"sentAt"`
	DoneAt      *time.Time    `json:"doneAt"`
	Result      CommandResult `gorm:"embedded;embeddedPrefix:result_" json:"result"`
}

func (c *Command) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
