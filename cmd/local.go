package cmd

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/shaharia-lab/alertmail/internal/action"
	"github.com/shaharia-lab/alertmail/internal/config"
	"github.com/shaharia-lab/alertmail/internal/eventbus"
	"github.com/shaharia-lab/alertmail/internal/notification"
	"github.com/shaharia-lab/alertmail/internal/service"
	"github.com/shaharia-lab/alertmail/internal/storage"
)

// localEnv is the wiring shared by the one-shot commands: the database, the
// mail config manager and a notification service whose deliveries are logged.
type localEnv struct {
	db       *sql.DB
	bus      eventbus.EventBus
	mailCfg  *config.MailConfigManager
	notifLog storage.NotificationStore
	svc      service.NotificationService
}

// openLocal opens the database under cfg.DataDir. When source is nil the
// dispatcher reads the mail configuration from the database.
func openLocal(cfg *config.AppConfig, source config.MailConfigSource) (*localEnv, error) {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	db, _, err := storage.NewSQLiteDB(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	env := &localEnv{
		db:       db,
		bus:      eventbus.New(1, log),
		mailCfg:  config.NewMailConfigManager(storage.NewSQLiteMailConfigStore(db), log),
		notifLog: storage.NewSQLiteNotificationStore(db),
	}
	notification.NewDeliveryRecorder(env.notifLog, log).Subscribe(env.bus)

	if source == nil {
		source = env.mailCfg
	}
	dispatcher, err := newDispatcher(cfg, source, log, notification.WithEventPublisher(env.bus))
	if err != nil {
		env.Close()
		return nil, err
	}
	env.svc = service.NewNotificationService(env.mailCfg, dispatcher, action.DefaultRegistry(), env.notifLog, log)
	return env, nil
}

// Close drains pending log events before closing the database.
func (e *localEnv) Close() {
	e.bus.Close()
	_ = e.db.Close()
}
