package sweeper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"locker-dispatch-backend/config"
	"locker-dispatch-backend/internal/db"
	"locker-dispatch-backend/internal/model"
	"locker-dispatch-backend/internal/store"
)

func TestSweepOnce(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(testDB))

	cfg := &config.Config{}
	cfg.Dispatch.SweepEnabled = true
	cfg.Dispatch.SentTimeout = 5 * time.Minute

	s := store.NewGormStore(testDB)
	svc := NewService(cfg, s, nil)
	ctx := context.Background()

	device := model.Device{APIKeyHash: "h", Enabled: true}
	require.NoError(t, testDB.Create(&device).Error)
	locker := model.Locker{Name: "L1", DeviceID: device.ID}
	require.NoError(t, testDB.Create(&locker).Error)
	require.NoError(t, testDB.Model(&model.Device{}).Where("id = ?", device.ID).
		Update("locker_id", locker.ID).Error)
	device.LockerID = locker.ID

	_, err = s.EnqueueCommand(ctx, locker.ID, "user-1")
	require.NoError(t, err)
	claimed, err := s.ClaimNextCommand(ctx, device)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	// A recently claimed command survives the sweep.
	svc.SweepOnce(ctx)
	var cmd model.Command
	require.NoError(t, testDB.First(&cmd, "id = ?", claimed.ID).Error)
	assert.Equal(t, model.CommandStatusSent, cmd.Status)

	// Backdate the claim past the timeout and sweep again.
	require.NoError(t, testDB.Model(&model.Command{}).Where("id = ?", claimed.ID).
		Update("sent_at", time.Now().UTC().Add(-10*time.Minute)).Error)
	svc.SweepOnce(ctx)

	require.NoError(t, testDB.First(&cmd, "id = ?", claimed.ID).Error)
	assert.Equal(t, model.CommandStatusFailed, cmd.Status)
	require.NotNil(t, cmd.DoneAt)

	var entries []model.AccessLog
	require.NoError(t, testDB.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, store.TimeoutAccessMethod, entries[0].Method)
	assert.False(t, entries[0].Success)
}
