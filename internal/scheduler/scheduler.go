// Package scheduler runs periodic maintenance jobs, currently the retention
// pruning of the notification log.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/shaharia-lab/alertmail/internal/storage"
)

// EventPublisher allows the scheduler to emit events without depending on a
// concrete event bus implementation.
type EventPublisher interface {
	Publish(eventType string, payload map[string]string)
}

// EventLogPruned is published after each successful prune run.
const EventLogPruned = "notification_log.pruned"

// Config holds the scheduler configuration.
type Config struct {
	Store     storage.NotificationStore
	Retention time.Duration
	// PruneAt is the daily "HH:MM" run time. Empty runs every 24h from start.
	PruneAt string
	Logger  *slog.Logger
	// EventPublisher is optional. When set, prune results are published.
	EventPublisher EventPublisher
	// Now defaults to time.Now.
	Now func() time.Time
}

// Scheduler manages the retention job using gocron.
type Scheduler struct {
	cron   gocron.Scheduler
	cfg    Config
	jobID  uuid.UUID
	mu     sync.Mutex
	logger *slog.Logger
}

// New creates a new Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("scheduler: notification store is required")
	}
	if cfg.Retention <= 0 {
		return nil, fmt.Errorf("scheduler: retention must be positive, got %s", cfg.Retention)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	return &Scheduler{cron: cron, cfg: cfg, logger: cfg.Logger}, nil
}

// Start schedules the retention job and starts the gocron scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	jobDef, err := s.buildJobDefinition()
	if err != nil {
		return fmt.Errorf("building retention job: %w", err)
	}

	job, err := s.cron.NewJob(jobDef, gocron.NewTask(func() {
		if _, err := s.Prune(ctx); err != nil {
			s.logger.Error("notification log prune failed", "error", err)
		}
	}))
	if err != nil {
		return fmt.Errorf("scheduling retention job: %w", err)
	}

	s.mu.Lock()
	s.jobID = job.ID()
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("retention scheduler started", "retention", s.cfg.Retention, "prune_at", s.cfg.PruneAt)
	return nil
}

// Stop shuts down the gocron scheduler.
func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}

// NextRun reports when the retention job runs next.
func (s *Scheduler) NextRun() (time.Time, error) {
	s.mu.Lock()
	id := s.jobID
	s.mu.Unlock()
	for _, j := range s.cron.Jobs() {
		if j.ID() == id {
			return j.NextRun()
		}
	}
	return time.Time{}, fmt.Errorf("retention job not scheduled")
}

// Prune deletes notification log entries older than the retention period and
// returns how many were removed.
func (s *Scheduler) Prune(ctx context.Context) (int64, error) {
	cutoff := s.cfg.Now().Add(-s.cfg.Retention)
	n, err := s.cfg.Store.PruneNotifications(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning notifications before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	s.logger.Info("notification log pruned", "removed", n, "before", cutoff)
	if s.cfg.EventPublisher != nil {
		s.cfg.EventPublisher.Publish(EventLogPruned, map[string]string{
			"removed": strconv.FormatInt(n, 10),
			"before":  cutoff.UTC().Format(time.RFC3339),
		})
	}
	return n, nil
}

// buildJobDefinition converts the configured run time into a gocron JobDefinition.
func (s *Scheduler) buildJobDefinition() (gocron.JobDefinition, error) {
	if s.cfg.PruneAt == "" {
		return gocron.DurationJob(24 * time.Hour), nil
	}
	hour, minute, err := parseAtTime(s.cfg.PruneAt)
	if err != nil {
		return nil, err
	}
	return gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))), nil
}

// parseAtTime parses an "HH:MM" string.
func parseAtTime(at string) (uint, uint, error) {
	parts := strings.Split(at, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid at_time format: %s", at)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parsing hour from at_time: %w", err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("parsing minute from at_time: %w", err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("at_time values out of range: %d:%d", hour, minute)
	}
	return uint(hour), uint(minute), nil //nolint:gosec // bounds checked above
}
