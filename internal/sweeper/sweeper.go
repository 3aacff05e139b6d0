package sweeper

import (
	"context"
	"log"
	"time"

	"locker-dispatch-backend/config"
	"locker-dispatch-backend/internal/notification"
	"locker-dispatch-backend/internal/store"
)

// Service periodically fails SENT commands that never received a result.
// Without it a claimed command would stay SENT forever once a device drops
// offline mid-execution.
type Service struct {
	cfg      *config.Config
	store    store.Store
	notifier *notification.WorkerPool
}

// NewService creates a new sweeper service. The notifier may be nil.
func NewService(cfg *config.Config, s store.Store, notifier *notification.WorkerPool) *Service {
	return &Service{
		cfg:      cfg,
		store:    s,
		notifier: notifier,
	}
}

// Run starts the sweep loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Dispatch.SweepEnabled {
		log.Println("Command sweeper is disabled. Not starting.")
		return
	}
	log.Println("Starting command sweeper...")

	timer := time.NewTimer(s.cfg.Dispatch.SweepInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Command sweeper shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Dispatch.SweepInterval)
		}
	}
}

// SweepOnce performs a single staleness pass.
func (s *Service) SweepOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.Dispatch.SentTimeout)

	expired, err := s.store.ExpireStaleCommands(ctx, cutoff)
	if err != nil {
		log.Printf("Sweep failed: %v", err)
		return
	}

	for _, cmd := range expired {
		log.Printf("Command %s for locker %s timed out after %s", cmd.ID, cmd.LockerID, s.cfg.Dispatch.SentTimeout)
		if s.notifier != nil {
			s.notifier.Dispatch(notification.Event{LockerID: cmd.LockerID, Success: false})
		}
	}
}
