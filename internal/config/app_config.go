package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultProductName is the label used in notification subjects.
const DefaultProductName = "Elasticsearch"

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 8990.
	Port int `envconfig:"PORT" default:"8990"`

	// DataDir is the root data directory. Defaults to ~/.alertmail.
	DataDir string `envconfig:"ALERTMAIL_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// ProductName is the triggering system's label in notification subjects.
	ProductName string `envconfig:"ALERTMAIL_PRODUCT_NAME" default:"Elasticsearch"`

	// MailConfigFile is an optional YAML file mirrored into the global mail
	// configuration on startup and whenever it changes.
	MailConfigFile string `envconfig:"ALERTMAIL_MAIL_CONFIG_FILE"`

	// SMTPTLSPolicy is "opportunistic" (STARTTLS when offered), "mandatory" or "none".
	SMTPTLSPolicy string `envconfig:"ALERTMAIL_SMTP_TLS" default:"opportunistic"`

	// SMTPTimeout bounds each SMTP connection and command.
	SMTPTimeout time.Duration `envconfig:"ALERTMAIL_SMTP_TIMEOUT" default:"30s"`

	// LogRetention is how long notification log rows are kept.
	LogRetention time.Duration `envconfig:"ALERTMAIL_LOG_RETENTION" default:"720h"`

	// PruneAt is the daily "HH:MM" time the notification log is pruned.
	PruneAt string `envconfig:"ALERTMAIL_PRUNE_AT" default:"03:00"`

	// CORSOrigins lists the origins allowed to call the API from a browser.
	CORSOrigins []string `envconfig:"ALERTMAIL_CORS_ORIGINS"`

	// OTelEnabled turns on OTLP export of traces, metrics and logs.
	OTelEnabled bool `envconfig:"ALERTMAIL_OTEL_ENABLED" default:"false"`

	// OTelEndpoint is the OTLP gRPC collector endpoint.
	OTelEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`

	// OTelInsecure disables TLS towards the collector.
	OTelInsecure bool `envconfig:"ALERTMAIL_OTEL_INSECURE" default:"true"`

	// OTelSamplingRate is the trace sampling probability.
	OTelSamplingRate float64 `envconfig:"ALERTMAIL_OTEL_SAMPLING_RATE" default:"1.0"`
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.alertmail if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".alertmail")
	}
	if c.ProductName == "" {
		c.ProductName = DefaultProductName
	}
	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory (~/.alertmail/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DBPath returns the path to the SQLite database.
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir, "alertmail.db")
}
