package notification

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/shaharia-lab/alertmail/internal/eventbus"
	"github.com/shaharia-lab/alertmail/internal/storage"
)

// DeliveryRecorder writes dispatch outcome events to the notification log.
type DeliveryRecorder struct {
	store   storage.NotificationStore
	logger  *slog.Logger
	timeout time.Duration
}

// NewDeliveryRecorder creates a DeliveryRecorder backed by store.
func NewDeliveryRecorder(store storage.NotificationStore, logger *slog.Logger) *DeliveryRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliveryRecorder{store: store, logger: logger, timeout: 10 * time.Second}
}

// Subscribe registers the recorder for dispatch outcome events on bus.
func (r *DeliveryRecorder) Subscribe(bus eventbus.EventBus) {
	bus.Subscribe(eventbus.Listen(r.Handle, EventNotificationSent, EventNotificationFailed))
}

// Handle converts a dispatch outcome event into a log entry and stores it.
// Store errors are logged, never returned.
func (r *DeliveryRecorder) Handle(e eventbus.Event) {
	entry := storage.NotificationLogEntry{
		DispatchID: e.Payload["dispatch_id"],
		AlertName:  e.Payload["alert"],
		Provider:   e.Payload["provider"],
		Subject:    e.Payload["subject"],
		Status:     storage.StatusSent,
		CreatedAt:  e.Timestamp,
	}
	if n, err := strconv.Atoi(e.Payload["recipients"]); err == nil {
		entry.Recipients = n
	}
	if e.Type == EventNotificationFailed {
		entry.Status = storage.StatusFailed
		entry.ErrorMsg = e.Payload["error"]
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.store.LogNotification(ctx, entry); err != nil {
		r.logger.Error("failed to record notification delivery",
			"dispatch_id", entry.DispatchID, "alert", entry.AlertName, "error", err)
	}
}
