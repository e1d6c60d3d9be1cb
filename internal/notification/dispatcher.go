package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaharia-lab/alertmail/internal/action"
	"github.com/shaharia-lab/alertmail/internal/alert"
	"github.com/shaharia-lab/alertmail/internal/config"
	"github.com/shaharia-lab/alertmail/internal/metrics"
)

// Event types published after each dispatch.
const (
	EventNotificationSent   = "notification.sent"
	EventNotificationFailed = "notification.failed"
)

const (
	tracerName       = "github.com/shaharia-lab/alertmail/internal/notification"
	headerDispatchID = mail.Header("X-Alertmail-Dispatch-Id")
	headerAlertName  = mail.Header("X-Alertmail-Alert")
)

// EventPublisher is the subset of the event bus used by the Dispatcher.
type EventPublisher interface {
	Publish(eventType string, payload map[string]string)
}

// Dispatcher renders and delivers e-mail notifications for firing alerts. It
// is safe for concurrent use and receives mail configuration updates as a
// config.MailConfigListener.
type Dispatcher struct {
	cache     *configCache
	product   string
	tlsPolicy mail.TLSPolicy
	transport Transport
	events    EventPublisher
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithProductName sets the label used in notification subjects.
func WithProductName(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.product = name
		}
	}
}

// WithTLSPolicy sets the STARTTLS policy. The default upgrades the connection
// whenever the server offers STARTTLS.
func WithTLSPolicy(p mail.TLSPolicy) Option {
	return func(d *Dispatcher) { d.tlsPolicy = p }
}

// WithTransport replaces the SMTP transport.
func WithTransport(t Transport) Option {
	return func(d *Dispatcher) { d.transport = t }
}

// WithEventPublisher publishes a delivery event after every dispatch.
func WithEventPublisher(p EventPublisher) Option {
	return func(d *Dispatcher) { d.events = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithTracerProvider sets the provider dispatch spans are created from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *Dispatcher) { d.tracer = tp.Tracer(tracerName) }
}

// NewDispatcher creates a Dispatcher that lazily fetches its configuration
// from source and subscribes to source for updates on first use.
func NewDispatcher(source config.MailConfigSource, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		product:   config.DefaultProductName,
		tlsPolicy: mail.TLSOpportunistic,
		transport: NewSMTPTransport(0),
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(d)
	}
	d.cache = newConfigCache(source, d)
	return d
}

// ReceiveConfigurationUpdate implements config.MailConfigListener. The new
// snapshot is used by every dispatch that starts after this call returns.
func (d *Dispatcher) ReceiveConfigurationUpdate(cfg *config.MailConfig) {
	if !d.cache.replace(cfg) {
		d.logger.Warn("ignoring empty mail config update")
		return
	}
	d.logger.Info("mail config snapshot replaced", "host", cfg.ServerHost, "port", cfg.ServerPort)
}

// Dispatch renders the report for a firing alert and sends it to the
// action's recipients. It returns true only when the transport accepted the
// message. Failures are *ConfigurationUnavailableError, *DeliveryFailedError
// or, for an action variant other than e-mail, *WrongActionError.
func (d *Dispatcher) Dispatch(ctx context.Context, act action.Action, a alert.Alert, res alert.TriggerResult) (bool, error) {
	smtpAction, ok := act.(*action.SMTPAction)
	if !ok || smtpAction == nil {
		var got action.Kind
		if act != nil {
			got = act.Kind()
		}
		metrics.DispatchTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return false, &WrongActionError{Want: action.KindEmail, Got: got}
	}

	dispatchID := uuid.NewString()
	alertName := a.Name()
	ctx, span := d.tracer.Start(ctx, "notification.Dispatch", trace.WithAttributes(
		attribute.String("alertmail.dispatch_id", dispatchID),
		attribute.String("alertmail.alert", alertName),
		attribute.Int("alertmail.recipients", len(smtpAction.Recipients())),
	))
	defer span.End()

	start := time.Now()
	subject, err := d.deliver(ctx, dispatchID, smtpAction, alertName, res)
	metrics.DispatchDuration.Observe(time.Since(start).Seconds())

	logger := d.logger.With("dispatch_id", dispatchID, "alert", alertName)
	payload := map[string]string{
		"dispatch_id": dispatchID,
		"alert":       alertName,
		"provider":    d.transport.Name(),
		"subject":     subject,
		"recipients":  strconv.Itoa(len(smtpAction.Recipients())),
	}

	if err != nil {
		metrics.DispatchTotal.WithLabelValues(resultLabel(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("notification dispatch failed", "error", err)
		payload["error"] = err.Error()
		d.publish(EventNotificationFailed, payload)
		return false, err
	}

	metrics.DispatchTotal.WithLabelValues(metrics.ResultSent).Inc()
	span.SetStatus(codes.Ok, "")
	logger.Info("notification sent", "recipients", len(smtpAction.Recipients()), "duration", time.Since(start))
	d.publish(EventNotificationSent, payload)
	return true, nil
}

// deliver runs one dispatch against a single configuration snapshot and
// returns the rendered subject.
func (d *Dispatcher) deliver(ctx context.Context, dispatchID string, act *action.SMTPAction, alertName string, res alert.TriggerResult) (string, error) {
	cfg, err := d.cache.get(ctx)
	if err != nil {
		return "", err
	}
	if err := cfg.Validate(); err != nil {
		return "", &ConfigurationUnavailableError{Err: err}
	}

	session := NewSession(cfg, d.tlsPolicy)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("smtp.host", session.Host),
		attribute.Int("smtp.port", session.Port),
		attribute.Bool("smtp.auth", session.Auth),
	)

	report := Render(d.product, act, alertName, res)
	msg, err := composeMessage(session.From, act.Recipients(), report)
	if err != nil {
		return report.Subject, &DeliveryFailedError{Host: session.Host, Port: session.Port, Err: err}
	}
	msg.SetGenHeader(headerDispatchID, dispatchID)
	msg.SetGenHeader(headerAlertName, alertName)

	if err := d.transport.Send(ctx, session, msg); err != nil {
		return report.Subject, &DeliveryFailedError{Host: session.Host, Port: session.Port, Err: err}
	}
	return report.Subject, nil
}

// composeMessage builds the outgoing message. Every recipient must be a valid
// address; one bad address fails the whole message.
func composeMessage(from string, recipients []string, r Report) (*mail.Msg, error) {
	if len(recipients) == 0 {
		return nil, errors.New("no recipients")
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	for _, rcpt := range recipients {
		if err := m.AddTo(rcpt); err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", rcpt, err)
		}
	}
	m.Subject(r.Subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, r.Body)
	if html, err := buildReportHTML(r); err == nil {
		m.AddAlternativeString(mail.TypeTextHTML, html)
	}
	return m, nil
}

func (d *Dispatcher) publish(eventType string, payload map[string]string) {
	if d.events != nil {
		d.events.Publish(eventType, payload)
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrConfigurationUnavailable):
		return metrics.ResultConfigUnavailable
	case errors.Is(err, ErrDeliveryFailed):
		return metrics.ResultDeliveryFailed
	default:
		return metrics.ResultRejected
	}
}
