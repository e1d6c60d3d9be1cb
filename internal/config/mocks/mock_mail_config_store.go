package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/alertmail/internal/config"
)

// MockMailConfigStore is a mock implementation of config.MailConfigStore.
type MockMailConfigStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockMailConfigStore) LoadMailConfig(ctx context.Context) (*config.MailConfig, error) {
	args := m.Called(ctx)
	cfg, _ := args.Get(0).(*config.MailConfig)
	return cfg, args.Error(1)
}

//nolint:revive
func (m *MockMailConfigStore) SaveMailConfig(ctx context.Context, cfg *config.MailConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// MockMailConfigSource is a mock implementation of config.MailConfigSource.
type MockMailConfigSource struct {
	mock.Mock
}

//nolint:revive
func (m *MockMailConfigSource) GetGlobalConfig(ctx context.Context) (*config.MailConfig, error) {
	args := m.Called(ctx)
	cfg, _ := args.Get(0).(*config.MailConfig)
	return cfg, args.Error(1)
}

//nolint:revive
func (m *MockMailConfigSource) RegisterListener(l config.MailConfigListener) {
	m.Called(l)
}
