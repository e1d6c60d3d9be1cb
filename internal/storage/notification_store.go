package storage

import (
	"context"
	"time"
)

// Notification delivery statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// NotificationLogEntry records a single notification delivery attempt.
type NotificationLogEntry struct {
	ID         int64     `json:"id"`
	DispatchID string    `json:"dispatch_id"`
	AlertName  string    `json:"alert_name"`
	Provider   string    `json:"provider"`
	Subject    string    `json:"subject"`
	Recipients int       `json:"recipients"`
	Status     string    `json:"status"`
	ErrorMsg   string    `json:"error_msg"`
	CreatedAt  time.Time `json:"created_at"`
}

// NotificationStore defines the interface for persisting notification delivery logs.
type NotificationStore interface {
	// LogNotification records a notification delivery attempt.
	LogNotification(ctx context.Context, entry NotificationLogEntry) error
	// ListNotifications returns the most recent notification log entries, up to limit.
	ListNotifications(ctx context.Context, limit int) ([]NotificationLogEntry, error)
	// PruneNotifications deletes entries created before the given time and
	// returns how many were removed.
	PruneNotifications(ctx context.Context, before time.Time) (int64, error)
}
