package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of events editors emit for one save.
const reloadDebounce = 200 * time.Millisecond

// WatchMailConfigFile applies the YAML mail configuration at path once, then
// again every time the file changes, until ctx is cancelled. The parent
// directory is watched so that atomic renames by editors are picked up.
// Load or apply failures after the first are logged and the previous
// configuration stays in effect.
func WatchMailConfigFile(ctx context.Context, path string, apply func(context.Context, *MailConfig) error, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := LoadMailConfigFile(path)
	if err != nil {
		return err
	}
	if err := apply(ctx, cfg); err != nil {
		return fmt.Errorf("applying mail config file: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	go func() {
		defer w.Close() //nolint:errcheck

		target := filepath.Clean(path)
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(reloadDebounce)
				} else {
					timer.Reset(reloadDebounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				reload(ctx, path, apply, logger)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("mail config watcher error", "error", err)
			}
		}
	}()
	return nil
}

func reload(ctx context.Context, path string, apply func(context.Context, *MailConfig) error, logger *slog.Logger) {
	cfg, err := LoadMailConfigFile(path)
	if err != nil {
		logger.Warn("mail config reload skipped", "path", path, "error", err)
		return
	}
	if err := apply(ctx, cfg); err != nil {
		logger.Warn("mail config reload rejected", "path", path, "error", err)
		return
	}
	logger.Info("mail config reloaded", "path", path)
}
