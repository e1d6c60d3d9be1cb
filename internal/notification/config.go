package notification

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/shaharia-lab/alertmail/internal/config"
)

// Defaults used when the mail configuration leaves host or port unset.
const (
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 587
)

// Session holds the transport parameters for one delivery. It is built from
// a single configuration snapshot and never changes afterwards.
type Session struct {
	Host      string
	Port      int
	From      string
	Username  string
	Password  string
	Auth      bool
	TLSPolicy mail.TLSPolicy
}

// NewSession builds a Session from cfg. A configured password enables SMTP
// AUTH with the from address as the user name.
func NewSession(cfg *config.MailConfig, policy mail.TLSPolicy) Session {
	s := Session{
		Host:      cfg.ServerHost,
		Port:      cfg.ServerPort,
		From:      cfg.FromAddress,
		TLSPolicy: policy,
	}
	if s.Host == "" {
		s.Host = DefaultSMTPHost
	}
	if s.Port == 0 {
		s.Port = DefaultSMTPPort
	}
	if cfg.HasPassword() {
		s.Auth = true
		s.Username = cfg.FromAddress
		s.Password = cfg.Password()
	}
	return s
}

// Addr returns host:port.
func (s Session) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// clientOptions converts the session into go-mail client options.
func (s Session) clientOptions(timeout time.Duration) []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.Port),
		mail.WithTLSPolicy(s.TLSPolicy),
	}
	if s.Auth {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.Username),
			mail.WithPassword(s.Password),
		)
	}
	if timeout > 0 {
		opts = append(opts, mail.WithTimeout(timeout))
	}
	return opts
}

// ParseTLSPolicy converts a policy name to a go-mail TLSPolicy: "opportunistic"
// (STARTTLS when offered, also the empty default), "mandatory" or "none".
func ParseTLSPolicy(name string) (mail.TLSPolicy, error) {
	switch name {
	case "", "opportunistic", "starttls":
		return mail.TLSOpportunistic, nil
	case "mandatory":
		return mail.TLSMandatory, nil
	case "none":
		return mail.NoTLS, nil
	}
	return mail.TLSOpportunistic, fmt.Errorf("unknown TLS policy %q", name)
}
