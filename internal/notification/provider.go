// Package notification renders alert reports and delivers them over SMTP,
// holding a hot-reloadable snapshot of the global mail configuration.
package notification

import (
	"context"

	"github.com/wneessen/go-mail"
)

// Transport delivers a composed message using the given session.
type Transport interface {
	// Name returns the transport identifier (e.g. "smtp").
	Name() string
	// Send opens a connection described by s and transmits m.
	Send(ctx context.Context, s Session, m *mail.Msg) error
}
