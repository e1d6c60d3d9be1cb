package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shaharia-lab/alertmail/internal/config"
)

// SQLiteMailConfigStore implements config.MailConfigStore backed by a SQLite database.
type SQLiteMailConfigStore struct {
	db *sql.DB
}

// NewSQLiteMailConfigStore returns a new SQLiteMailConfigStore.
func NewSQLiteMailConfigStore(db *sql.DB) *SQLiteMailConfigStore {
	return &SQLiteMailConfigStore{db: db}
}

// LoadMailConfig returns the persisted mail configuration, or nil if none
// has been saved.
func (s *SQLiteMailConfigStore) LoadMailConfig(ctx context.Context) (*config.MailConfig, error) {
	var (
		cfg      config.MailConfig
		password sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT server_host, server_port, from_address, from_password
		FROM mail_config WHERE id = 1`).Scan(
		&cfg.ServerHost, &cfg.ServerPort, &cfg.FromAddress, &password,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading mail config: %w", err)
	}
	if password.Valid {
		cfg.FromPassword = &password.String
	}
	return &cfg, nil
}

// SaveMailConfig persists the mail configuration (single row, id=1).
func (s *SQLiteMailConfigStore) SaveMailConfig(ctx context.Context, cfg *config.MailConfig) error {
	if cfg == nil {
		return errors.New("saving mail config: nil configuration")
	}
	var password sql.NullString
	if cfg.FromPassword != nil {
		password = sql.NullString{String: *cfg.FromPassword, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mail_config
			(id, server_host, server_port, from_address, from_password, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			server_host = excluded.server_host,
			server_port = excluded.server_port,
			from_address = excluded.from_address,
			from_password = excluded.from_password,
			updated_at = excluded.updated_at`,
		cfg.ServerHost, cfg.ServerPort, cfg.FromAddress, password, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving mail config: %w", err)
	}
	return nil
}
