package config

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaharia-lab/alertmail/internal/metrics"
)

// MailConfigManager is the MailConfigSource backed by a MailConfigStore.
// Updates are validated, persisted and then pushed to every registered
// listener.
type MailConfigManager struct {
	store  MailConfigStore
	logger *slog.Logger

	updateMu sync.Mutex

	mu        sync.RWMutex
	listeners []MailConfigListener
}

// NewMailConfigManager creates a MailConfigManager backed by the given store.
func NewMailConfigManager(store MailConfigStore, logger *slog.Logger) *MailConfigManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailConfigManager{store: store, logger: logger}
}

// GetGlobalConfig returns a copy of the stored configuration, or nil when
// nothing has been saved yet.
func (m *MailConfigManager) GetGlobalConfig(ctx context.Context) (*MailConfig, error) {
	cfg, err := m.store.LoadMailConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading mail config: %w", err)
	}
	return cfg.Clone(), nil
}

// RegisterListener subscribes l to future updates.
func (m *MailConfigManager) RegisterListener(l MailConfigListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Update validates and persists cfg, then pushes it to all listeners. Updates
// are serialized so listeners observe them in the order they were stored.
func (m *MailConfigManager) Update(ctx context.Context, cfg *MailConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is empty", ErrInvalidMailConfig)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.updateMu.Lock()
	defer m.updateMu.Unlock()

	if err := m.store.SaveMailConfig(ctx, cfg.Clone()); err != nil {
		return fmt.Errorf("persisting mail config: %w", err)
	}
	metrics.MailConfigUpdates.Inc()

	m.mu.RLock()
	listeners := make([]MailConfigListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.RUnlock()

	for _, l := range listeners {
		m.notify(l, cfg.Clone())
	}
	m.logger.Info("mail config updated",
		"host", cfg.ServerHost, "port", cfg.ServerPort,
		"from", cfg.FromAddress, "listeners", len(listeners))
	return nil
}

func (m *MailConfigManager) notify(l MailConfigListener, cfg *MailConfig) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("mail config listener panicked", "panic", r)
		}
	}()
	l.ReceiveConfigurationUpdate(cfg)
}
