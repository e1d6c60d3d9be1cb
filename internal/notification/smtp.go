package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPTransport delivers messages via SMTP using the go-mail library. Each
// Send opens its own connection.
type SMTPTransport struct {
	timeout time.Duration
}

// NewSMTPTransport creates an SMTPTransport. A zero timeout keeps go-mail's
// default.
func NewSMTPTransport(timeout time.Duration) *SMTPTransport {
	return &SMTPTransport{timeout: timeout}
}

// Name returns the transport identifier.
func (t *SMTPTransport) Name() string { return "smtp" }

// Send dials the server described by s and transmits m.
func (t *SMTPTransport) Send(ctx context.Context, s Session, m *mail.Msg) error {
	c, err := mail.NewClient(s.Host, s.clientOptions(t.timeout)...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	return c.DialAndSendWithContext(ctx, m)
}
