package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"locker-dispatch-backend/internal/model"
)

// Store defines the interface for all database operations of the dispatch
// core. Coordination between concurrent requests is delegated entirely to the
// database; the claim and report operations use conditional updates keyed on
// the command's current status so that exactly one writer wins.
type Store interface {
	DB() *gorm.DB

	ListLockers(ctx context.Context) ([]model.Locker, error)
	CreateLocker(ctx context.Context, name, deviceID string) (model.Locker, error)

	GetDevice(ctx context.Context, id string) (model.Device, error)

	EnqueueCommand(ctx context.Context, lockerID, requestedBy string) (model.Command, error)
	ClaimNextCommand(ctx context.Context, device model.Device) (*model.Command, error)
	CompleteCommand(ctx context.Context, device model.Device, report ResultReport) (model.Command, error)
	ExpireStaleCommands(ctx context.Context, cutoff time.Time) ([]model.Command, error)

	RecordHeartbeat(ctx context.Context, device model.Device, status model.LockerStatus, fwVersion string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

func (s *gormStore) ListLockers(ctx context.Context) ([]model.Locker, error) {
	var lockers []model.Locker
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&lockers).Error; err != nil {
		return nil, fmt.Errorf("failed to list lockers: %w", err)
	}
	return lockers, nil
}

func (s *gormStore) CreateLocker(ctx context.Context, name, deviceID string) (model.Locker, error) {
	locker := model.Locker{
		Name:     name,
		DeviceID: deviceID,
		Status:   model.LockerStatusLocked,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&locker).Error; err != nil {
			return fmt.Errorf("failed to create locker: %w", err)
		}
		// Bind the device back to its locker so device-scoped requests can
		// resolve their locker without a join.
		res := tx.Model(&model.Device{}).Where("id = ?", deviceID).Update("locker_id", locker.ID)
		if res.Error != nil {
			return fmt.Errorf("failed to bind device %s: %w", deviceID, res.Error)
		}
		return nil
	})
	if err != nil {
		return model.Locker{}, err
	}
	return locker, nil
}

func (s *gormStore) GetDevice(ctx context.Context, id string) (model.Device, error) {
	var device model.Device
	err := s.db.WithContext(ctx).First(&device, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Device{}, ErrDeviceNotFound
	}
	if err != nil {
		return model.Device{}, fmt.Errorf("failed to load device %s: %w", id, err)
	}
	return device, nil
}

// EnqueueCommand creates a PENDING unlock command for the locker. The caller
// gets the command id back immediately; execution happens whenever the bound
// device next polls.
func (s *gormStore) EnqueueCommand(ctx context.Context, lockerID, requestedBy string) (model.Command, error) {
	var cmd model.Command
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locker model.Locker
		if err := tx.First(&locker, "id = ?", lockerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLockerNotFound
			}
			return fmt.Errorf("failed to load locker %s: %w", lockerID, err)
		}

		cmd = model.Command{
			LockerID:    locker.ID,
			Type:        model.CommandTypeUnlock,
			RequestedBy: requestedBy,
			Status:      model.CommandStatusPending,
			CreatedAt:   time.Now().UTC(),
		}
		if err := tx.Create(&cmd).Error; err != nil {
			return fmt.Errorf("failed to enqueue command: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Command{}, err
	}
	return cmd, nil
}

// ClaimNextCommand hands out at most one PENDING command for the polling
// device's locker, oldest first. The transition to SENT is a conditional
// update keyed on status=PENDING; when zero rows are affected a concurrent
// poller has already claimed the command and this poll returns no command.
func (s *gormStore) ClaimNextCommand(ctx context.Context, device model.Device) (*model.Command, error) {
	if device.LockerID == "" {
		return nil, nil
	}

	var claimed *model.Command
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cmd model.Command
		err := tx.
			Where("locker_id = ? AND status = ?", device.LockerID, model.CommandStatusPending).
			Order("created_at ASC").
			First(&cmd).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to find pending command: %w", err)
		}

		now := time.Now().UTC()
		res := tx.Model(&model.Command{}).
			Where("id = ? AND status = ?", cmd.ID, model.CommandStatusPending).
			Updates(map[string]any{
				"status":  model.CommandStatusSent,
				"sent_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to claim command %s: %w", cmd.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost the race to another poller.
			return nil
		}

		cmd.Status = model.CommandStatusSent
		cmd.SentAt = &now
		claimed = &cmd
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// CompleteCommand records a device-reported outcome. The terminal status
// update and the audit log insert share one transaction so a crash between
// them cannot leave a terminal command without its audit entry.
func (s *gormStore) CompleteCommand(ctx context.Context, device model.Device, report ResultReport) (model.Command, error) {
	var cmd model.Command
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&cmd, "id = ?", report.CommandID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommandNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load command %s: %w", report.CommandID, err)
		}

		if cmd.LockerID != device.LockerID {
			return ErrWrongLocker
		}

		status := model.CommandStatusDone
		if !report.Success {
			status = model.CommandStatusFailed
		}

		now := time.Now().UTC()
		res := tx.Model(&model.Command{}).
			Where("id = ? AND status = ?", cmd.ID, model.CommandStatusSent).
			Updates(map[string]any{
				"status":            status,
				"done_at":           now,
				"result_message":    report.Message,
				"result_confidence": report.Confidence,
				"result_method":     report.Method,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to complete command %s: %w", cmd.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			// The command exists but is not SENT: either still PENDING or
			// already terminal. Terminal states never transition again.
			return ErrCommandNotClaimable
		}

		method := DefaultAccessMethod
		if report.Method != nil && *report.Method != "" {
			method = *report.Method
		}
		entry := model.AccessLog{
			LockerID:   cmd.LockerID,
			DeviceID:   device.ID,
			UserID:     cmd.RequestedBy,
			Method:     method,
			Success:    report.Success,
			Confidence: report.Confidence,
			CreatedAt:  now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to append access log: %w", err)
		}

		cmd.Status = status
		cmd.DoneAt = &now
		cmd.Result = model.CommandResult{
			Message:    report.Message,
			Confidence: report.Confidence,
			Method:     report.Method,
		}
		return nil
	})
	if err != nil {
		return model.Command{}, err
	}
	return cmd, nil
}

// ExpireStaleCommands fails every SENT command whose claim happened before
// cutoff, appending an audit entry per command. Returns the commands that
// were failed so callers can notify subscribers.
func (s *gormStore) ExpireStaleCommands(ctx context.Context, cutoff time.Time) ([]model.Command, error) {
	var expired []model.Command
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale []model.Command
		if err := tx.
			Where("status = ? AND sent_at < ?", model.CommandStatusSent, cutoff).
			Order("sent_at ASC").
			Find(&stale).Error; err != nil {
			return fmt.Errorf("failed to find stale commands: %w", err)
		}

		now := time.Now().UTC()
		message := "no result reported before timeout"
		for _, cmd := range stale {
			res := tx.Model(&model.Command{}).
				Where("id = ? AND status = ?", cmd.ID, model.CommandStatusSent).
				Updates(map[string]any{
					"status":         model.CommandStatusFailed,
					"done_at":        now,
					"result_message": message,
				})
			if res.Error != nil {
				return fmt.Errorf("failed to expire command %s: %w", cmd.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				// A result arrived between the read and the update; leave it.
				continue
			}

			var locker model.Locker
			deviceID := ""
			if err := tx.First(&locker, "id = ?", cmd.LockerID).Error; err == nil {
				deviceID = locker.DeviceID
			}
			entry := model.AccessLog{
				LockerID:  cmd.LockerID,
				DeviceID:  deviceID,
				UserID:    cmd.RequestedBy,
				Method:    TimeoutAccessMethod,
				Success:   false,
				CreatedAt: now,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to append access log: %w", err)
			}

			cmd.Status = model.CommandStatusFailed
			cmd.DoneAt = &now
			cmd.Result.Message = &message
			expired = append(expired, cmd)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

// RecordHeartbeat updates device liveness and, when the device is bound to a
// locker and reported a status, the locker's last-known state. These are two
// independent writes: presence data is advisory, so partial application on
// failure is acceptable.
func (s *gormStore) RecordHeartbeat(ctx context.Context, device model.Device, status model.LockerStatus, fwVersion string) error {
	now := time.Now().UTC()

	updates := map[string]any{"last_heartbeat_at": now}
	if fwVersion != "" {
		updates["fw_version"] = fwVersion
	}
	if err := s.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ?", device.ID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update device heartbeat: %w", err)
	}

	if device.LockerID != "" && status != "" {
		if err := s.db.WithContext(ctx).
			Model(&model.Locker{}).
			Where("id = ?", device.LockerID).
			Updates(map[string]any{
				"status":       status,
				"last_seen_at": now,
			}).Error; err != nil {
			return fmt.Errorf("failed to update locker presence: %w", err)
		}
	}
	return nil
}
