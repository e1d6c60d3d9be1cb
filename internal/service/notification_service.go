package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaharia-lab/alertmail/internal/action"
	"github.com/shaharia-lab/alertmail/internal/alert"
	"github.com/shaharia-lab/alertmail/internal/config"
	"github.com/shaharia-lab/alertmail/internal/doc"
	"github.com/shaharia-lab/alertmail/internal/storage"
)

const maskedPassword = "***"

// Dispatcher delivers one action for a firing alert.
type Dispatcher interface {
	Dispatch(ctx context.Context, act action.Action, a alert.Alert, res alert.TriggerResult) (bool, error)
}

// MailConfigManager reads and replaces the global mail configuration.
type MailConfigManager interface {
	GetGlobalConfig(ctx context.Context) (*config.MailConfig, error)
	Update(ctx context.Context, cfg *config.MailConfig) error
}

// DispatchRequest is a firing alert described in JSON: its actions, each an
// object with a single key naming the action type, and its trigger result.
type DispatchRequest struct {
	Actions []json.RawMessage `json:"actions"`
	Result  json.RawMessage   `json:"result"`
}

// DispatchOutcome reports the result of one action.
type DispatchOutcome struct {
	Kind  action.Kind `json:"kind"`
	Sent  bool        `json:"sent"`
	Error string      `json:"error,omitempty"`
}

// NotificationService manages the mail configuration, dispatches alerts and
// exposes the delivery log.
type NotificationService interface {
	// GetMailConfig returns the current mail configuration with the password masked.
	GetMailConfig(ctx context.Context) (*config.MailConfig, error)
	// UpdateMailConfig replaces the mail configuration. If the password is
	// the mask sentinel, the stored password is preserved.
	UpdateMailConfig(ctx context.Context, cfg *config.MailConfig) error
	// Dispatch parses req and runs every action for the alert named name.
	Dispatch(ctx context.Context, name string, req DispatchRequest) ([]DispatchOutcome, error)
	// DispatchAlert runs every action of an already-parsed definition.
	DispatchAlert(ctx context.Context, def *alert.Definition, res alert.TriggerResult) ([]DispatchOutcome, error)
	// TestNotification sends a synthetic alert to recipient using the current configuration.
	TestNotification(ctx context.Context, recipient string) error
	// ListLog returns the most recent notification log entries.
	ListLog(ctx context.Context, limit int) ([]storage.NotificationLogEntry, error)
}

// notificationServiceImpl implements NotificationService.
type notificationServiceImpl struct {
	mailConfig MailConfigManager
	dispatcher Dispatcher
	registry   *action.Registry
	store      storage.NotificationStore
	logger     *slog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	mailConfig MailConfigManager,
	dispatcher Dispatcher,
	registry *action.Registry,
	store storage.NotificationStore,
	logger *slog.Logger,
) NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &notificationServiceImpl{
		mailConfig: mailConfig,
		dispatcher: dispatcher,
		registry:   registry,
		store:      store,
		logger:     logger,
	}
}

// GetMailConfig returns the current mail configuration with the password masked.
func (s *notificationServiceImpl) GetMailConfig(ctx context.Context) (*config.MailConfig, error) {
	cfg, err := s.mailConfig.GetGlobalConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, &NotFoundError{Resource: "mail config", ID: "global"}
	}
	if cfg.HasPassword() {
		masked := maskedPassword
		cfg.FromPassword = &masked
	}
	return cfg, nil
}

// UpdateMailConfig validates and saves the mail configuration. If the incoming
// password is the mask sentinel, the previously stored password is preserved.
func (s *notificationServiceImpl) UpdateMailConfig(ctx context.Context, incoming *config.MailConfig) error {
	if incoming == nil {
		return &ValidationError{Message: "mail config is required"}
	}
	cfg := incoming.Clone()
	if cfg.FromPassword != nil && *cfg.FromPassword == maskedPassword {
		existing, err := s.mailConfig.GetGlobalConfig(ctx)
		if err != nil {
			return fmt.Errorf("loading existing mail config: %w", err)
		}
		cfg.FromPassword = nil
		if existing != nil {
			cfg.FromPassword = existing.FromPassword
		}
	}
	if err := cfg.Validate(); err != nil {
		return &ValidationError{Field: "mail_config", Message: err.Error()}
	}
	if err := s.mailConfig.Update(ctx, cfg); err != nil {
		return fmt.Errorf("saving mail config: %w", err)
	}
	return nil
}

// Dispatch parses the actions and result in req and dispatches them.
func (s *notificationServiceImpl) Dispatch(ctx context.Context, name string, req DispatchRequest) ([]DispatchOutcome, error) {
	if name == "" {
		return nil, &ValidationError{Field: "alert", Message: "alert name is required"}
	}
	if len(req.Actions) == 0 {
		return nil, &ValidationError{Field: "actions", Message: "at least one action is required"}
	}
	if len(req.Result) == 0 {
		return nil, &ValidationError{Field: "result", Message: "trigger result is required"}
	}

	def := &alert.Definition{AlertName: name}
	for i, raw := range req.Actions {
		act, err := s.parseAction(raw)
		if err != nil {
			return nil, &ValidationError{Field: fmt.Sprintf("actions[%d]", i), Message: err.Error()}
		}
		def.Actions = append(def.Actions, act)
	}

	res, err := alert.ParseSearchResult(req.Result)
	if err != nil {
		return nil, &ValidationError{Field: "result", Message: err.Error()}
	}
	return s.DispatchAlert(ctx, def, res)
}

// DispatchAlert runs every action in order. All actions are attempted; the
// returned error is the first failure.
func (s *notificationServiceImpl) DispatchAlert(ctx context.Context, def *alert.Definition, res alert.TriggerResult) ([]DispatchOutcome, error) {
	outcomes := make([]DispatchOutcome, 0, len(def.Actions))
	var firstErr error
	for _, act := range def.Actions {
		sent, err := s.dispatcher.Dispatch(ctx, act, def, res)
		o := DispatchOutcome{Kind: act.Kind(), Sent: sent}
		if err != nil {
			o.Error = err.Error()
			if firstErr == nil {
				firstErr = err
			}
		}
		outcomes = append(outcomes, o)
	}
	s.logger.Debug("alert actions dispatched", "alert", def.Name(), "actions", len(outcomes), "error", firstErr)
	return outcomes, firstErr
}

// TestNotification sends a synthetic alert so operators can verify the mail
// configuration end to end.
func (s *notificationServiceImpl) TestNotification(ctx context.Context, recipient string) error {
	if recipient == "" {
		return &ValidationError{Field: "recipient", Message: "recipient is required"}
	}
	act := action.NewSMTPAction(nil, []string{recipient})
	res := &alert.SearchResult{
		Trigger:  "a test notification was requested",
		Request:  &alert.SearchRequest{},
		Response: map[string]any{"hits": map[string]any{"total": 0, "hits": []any{}}},
	}
	_, err := s.dispatcher.Dispatch(ctx, act, alert.Named("test-notification"), res)
	return err
}

// ListLog returns the most recent notification log entries.
func (s *notificationServiceImpl) ListLog(ctx context.Context, limit int) ([]storage.NotificationLogEntry, error) {
	return s.store.ListNotifications(ctx, limit)
}

// parseAction decodes one {"<kind>": {...}} object through the registry.
func (s *notificationServiceImpl) parseAction(raw json.RawMessage) (action.Action, error) {
	var entry map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decoding action: %w", err)
	}
	if len(entry) != 1 {
		return nil, errors.New("expected exactly one action type")
	}
	var kind string
	var body json.RawMessage
	for k, v := range entry {
		kind, body = k, v
	}
	act, err := s.registry.Parse(action.Kind(kind), doc.NewJSONReader(bytes.NewReader(body)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return act, nil
}
