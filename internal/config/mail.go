package config

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidMailConfig matches every validation failure returned by
// MailConfig.Validate.
var ErrInvalidMailConfig = errors.New("invalid mail configuration")

// MailConfig is the process-wide SMTP configuration. Values are treated as
// immutable snapshots: replace the whole value instead of mutating fields.
type MailConfig struct {
	ServerHost   string  `json:"email_server,omitempty" yaml:"email_server"`
	ServerPort   int     `json:"email_port,omitempty" yaml:"email_port"`
	FromAddress  string  `json:"from_address" yaml:"from_address"`
	FromPassword *string `json:"from_password,omitempty" yaml:"from_password"`
}

// HasPassword reports whether a credential password is configured. An empty
// password counts as absent, so the session stays unauthenticated.
func (c *MailConfig) HasPassword() bool {
	return c.FromPassword != nil && *c.FromPassword != ""
}

// Password returns the configured password, or "" when none is set.
func (c *MailConfig) Password() string {
	if c.FromPassword == nil {
		return ""
	}
	return *c.FromPassword
}

// Clone returns a deep copy of c.
func (c *MailConfig) Clone() *MailConfig {
	if c == nil {
		return nil
	}
	out := *c
	if c.FromPassword != nil {
		p := *c.FromPassword
		out.FromPassword = &p
	}
	return &out
}

// Validate checks that the snapshot can be used to build a session. Host and
// port may be left empty; session construction supplies defaults for them.
func (c *MailConfig) Validate() error {
	if c.FromAddress == "" {
		return fmt.Errorf("%w: from_address is required", ErrInvalidMailConfig)
	}
	if _, err := mail.ParseAddress(c.FromAddress); err != nil {
		return fmt.Errorf("%w: from_address %q: %v", ErrInvalidMailConfig, c.FromAddress, err)
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return fmt.Errorf("%w: email_port %d out of range", ErrInvalidMailConfig, c.ServerPort)
	}
	return nil
}

// MailConfigStore persists the global mail configuration.
type MailConfigStore interface {
	// LoadMailConfig returns the stored configuration, or nil if none has
	// been saved yet.
	LoadMailConfig(ctx context.Context) (*MailConfig, error)
	// SaveMailConfig replaces the stored configuration.
	SaveMailConfig(ctx context.Context, cfg *MailConfig) error
}

// MailConfigListener receives pushed configuration updates.
type MailConfigListener interface {
	ReceiveConfigurationUpdate(cfg *MailConfig)
}

// MailConfigSource supplies the global mail configuration on demand and
// pushes later replacements to registered listeners.
type MailConfigSource interface {
	// GetGlobalConfig returns the current configuration, or nil if none exists.
	GetGlobalConfig(ctx context.Context) (*MailConfig, error)
	// RegisterListener subscribes l to future updates.
	RegisterListener(l MailConfigListener)
}

// LoadMailConfigFile reads a MailConfig from a YAML file.
func LoadMailConfigFile(path string) (*MailConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("reading mail config file: %w", err)
	}
	var cfg MailConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing mail config file %s: %w", path, err)
	}
	return &cfg, nil
}

// StaticMailConfigSource serves a fixed configuration and never pushes
// updates. It backs one-shot commands that read the configuration from a file.
type StaticMailConfigSource struct {
	cfg *MailConfig
}

// NewStaticMailConfigSource returns a source that always yields a copy of cfg.
func NewStaticMailConfigSource(cfg *MailConfig) *StaticMailConfigSource {
	return &StaticMailConfigSource{cfg: cfg.Clone()}
}

// GetGlobalConfig implements MailConfigSource.
func (s *StaticMailConfigSource) GetGlobalConfig(context.Context) (*MailConfig, error) {
	return s.cfg.Clone(), nil
}

// RegisterListener implements MailConfigSource. The configuration never
// changes, so listeners are not retained.
func (s *StaticMailConfigSource) RegisterListener(MailConfigListener) {}
