package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/alertmail/internal/alert"
	"github.com/shaharia-lab/alertmail/internal/config"
	"github.com/shaharia-lab/alertmail/internal/service"
	"github.com/shaharia-lab/alertmail/internal/storage"
)

// MockNotificationService is a mock implementation of service.NotificationService.
type MockNotificationService struct {
	mock.Mock
}

//nolint:revive
func (m *MockNotificationService) GetMailConfig(ctx context.Context) (*config.MailConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*config.MailConfig), args.Error(1)
}

//nolint:revive
func (m *MockNotificationService) UpdateMailConfig(ctx context.Context, cfg *config.MailConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationService) Dispatch(ctx context.Context, name string, req service.DispatchRequest) ([]service.DispatchOutcome, error) {
	args := m.Called(ctx, name, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.DispatchOutcome), args.Error(1)
}

//nolint:revive
func (m *MockNotificationService) DispatchAlert(ctx context.Context, def *alert.Definition, res alert.TriggerResult) ([]service.DispatchOutcome, error) {
	args := m.Called(ctx, def, res)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.DispatchOutcome), args.Error(1)
}

//nolint:revive
func (m *MockNotificationService) TestNotification(ctx context.Context, recipient string) error {
	args := m.Called(ctx, recipient)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationService) ListLog(ctx context.Context, limit int) ([]storage.NotificationLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.NotificationLogEntry), args.Error(1)
}
