package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/alertmail/internal/action"
	"github.com/shaharia-lab/alertmail/internal/api"
	"github.com/shaharia-lab/alertmail/internal/build"
	"github.com/shaharia-lab/alertmail/internal/config"
	"github.com/shaharia-lab/alertmail/internal/eventbus"
	"github.com/shaharia-lab/alertmail/internal/logger"
	"github.com/shaharia-lab/alertmail/internal/notification"
	"github.com/shaharia-lab/alertmail/internal/scheduler"
	"github.com/shaharia-lab/alertmail/internal/server"
	"github.com/shaharia-lab/alertmail/internal/service"
	"github.com/shaharia-lab/alertmail/internal/storage"
	"github.com/shaharia-lab/alertmail/internal/telemetry"
)

// NewServeCmd returns the "serve" subcommand that starts the HTTP server.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the alert notification API server",
		Long: `Start the HTTP server exposing the mail configuration, alert dispatch
and notification log APIs, plus /health and /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			logFile := filepath.Join(cfg.LogDir(), "system.log")
			printBanner(build.Version, fmt.Sprintf("http://localhost:%d", cfg.Port), logFile)

			if err := runServe(cfg); err != nil {
				return fmt.Errorf("%w (logs: %s)", err, logFile)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")
	return cmd
}

func runServe(cfg *config.AppConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sysLogger, logCloser, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logCloser.Close() //nolint:errcheck

	providers, shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Options{
		Enabled:        cfg.OTelEnabled,
		ServiceVersion: build.Version,
		Endpoint:       cfg.OTelEndpoint,
		Insecure:       cfg.OTelInsecure,
		SamplingRate:   cfg.OTelSamplingRate,
		Logger:         sysLogger,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		if serr := shutdownTelemetry(context.Background()); serr != nil {
			sysLogger.Warn("telemetry shutdown", "error", serr)
		}
	}()
	if cfg.OTelEnabled {
		sysLogger = slog.New(slogmulti.Fanout(sysLogger.Handler(), providers.SlogHandler("github.com/shaharia-lab/alertmail")))
	}
	slog.SetDefault(sysLogger)

	sysLogger.Info("alertmail starting",
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.String("version", build.Version),
		slog.String("commit", build.CommitSHA),
		slog.String("build_date", build.BuildDate),
	)

	db, fresh, err := storage.NewSQLiteDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck
	if fresh {
		sysLogger.Info("initialized new database", "path", cfg.DBPath())
	}

	mailConfigStore := storage.NewSQLiteMailConfigStore(db)
	notificationStore := storage.NewSQLiteNotificationStore(db)
	mailConfigMgr := config.NewMailConfigManager(mailConfigStore, sysLogger)

	bus := eventbus.New(4, sysLogger)
	defer bus.Close()
	notification.NewDeliveryRecorder(notificationStore, sysLogger).Subscribe(bus)

	dispatcher, err := newDispatcher(cfg, mailConfigMgr, sysLogger,
		notification.WithEventPublisher(bus),
		notification.WithTracerProvider(providers.Tracer),
	)
	if err != nil {
		return err
	}

	if cfg.MailConfigFile != "" {
		if err := config.WatchMailConfigFile(ctx, cfg.MailConfigFile, mailConfigMgr.Update, sysLogger); err != nil {
			return fmt.Errorf("loading mail config file: %w", err)
		}
		sysLogger.Info("watching mail config file", "path", cfg.MailConfigFile)
	}

	sched, err := scheduler.New(scheduler.Config{
		Store:          notificationStore,
		Retention:      cfg.LogRetention,
		PruneAt:        cfg.PruneAt,
		Logger:         sysLogger,
		EventPublisher: bus,
	})
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer func() {
		if serr := sched.Stop(); serr != nil {
			sysLogger.Warn("scheduler shutdown", "error", serr)
		}
	}()

	notificationSvc := service.NewNotificationService(mailConfigMgr, dispatcher, action.DefaultRegistry(), notificationStore, sysLogger)
	apiSrv := api.New(notificationSvc, sysLogger)
	srv := server.New(apiSrv, cfg.Port, sysLogger, server.Options{AllowedOrigins: cfg.CORSOrigins})

	sysLogger.Info("server ready", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newDispatcher builds a Dispatcher from the application configuration.
func newDispatcher(cfg *config.AppConfig, source config.MailConfigSource, log *slog.Logger, extra ...notification.Option) (*notification.Dispatcher, error) {
	policy, err := notification.ParseTLSPolicy(cfg.SMTPTLSPolicy)
	if err != nil {
		return nil, fmt.Errorf("ALERTMAIL_SMTP_TLS: %w", err)
	}
	opts := []notification.Option{
		notification.WithProductName(cfg.ProductName),
		notification.WithTLSPolicy(policy),
		notification.WithTransport(notification.NewSMTPTransport(cfg.SMTPTimeout)),
		notification.WithLogger(log.With("component", "dispatcher")),
	}
	return notification.NewDispatcher(source, append(opts, extra...)...), nil
}

// printBanner writes the startup banner to stdout. All structured logs go
// to the log file instead.
func printBanner(version, serverURL, logFile string) {
	fmt.Println(bannerStyle.Render("alertmail " + version))
	fmt.Println(field("api", serverURL+"/api"))
	fmt.Println(field("metrics", serverURL+"/metrics"))
	fmt.Println(field("logs", logFile))
	fmt.Println()
}
