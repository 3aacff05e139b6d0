package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"locker-dispatch-backend/internal/notification"
	"locker-dispatch-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	webpush  *webpush.Options
	notifier *notification.WorkerPool
}

// NewHandler creates a new API handler. The webpush options and notifier may
// be nil when push notifications are disabled.
func NewHandler(s store.Store, webpushOptions *webpush.Options, notifier *notification.WorkerPool) *Handler {
	return &Handler{
		store:    s,
		webpush:  webpushOptions,
		notifier: notifier,
	}
}
