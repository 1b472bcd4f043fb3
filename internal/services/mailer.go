package services

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/example/backoffice/internal/config"
)

// smtpTimeout bounds dialing and each SMTP exchange.
const smtpTimeout = 15 * time.Second

// Mailer sends plain-text email over SMTP.
type Mailer struct {
	cfg     config.SMTPConfig
	log     *zap.Logger
	timeout time.Duration
	send    func(ctx context.Context, msg *mail.Msg) error
}

// NewMailer creates a Mailer. An empty host turns Send into a no-op.
func NewMailer(cfg config.SMTPConfig, log *zap.Logger) *Mailer {
	m := &Mailer{cfg: cfg, log: log, timeout: smtpTimeout}
	m.send = m.dialAndSend
	return m
}

func (m *Mailer) Name() string { return "smtp" }

// Send delivers n to its recipients. Cancelling ctx aborts the SMTP session.
func (m *Mailer) Send(ctx context.Context, n Notification) error {
	if m.cfg.Host == "" {
		m.log.Debug("SMTP host not configured, skipping email", zap.String("template", string(n.Template)))
		return nil
	}
	if len(n.Recipients) == 0 {
		return nil
	}

	msg, err := buildMessage(m.cfg.From, n)
	if err != nil {
		return fmt.Errorf("build email: %w", err)
	}

	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// dialAndSend runs one SMTP session. The connection carries a hard deadline
// and is closed as soon as ctx ends.
func (m *Mailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	var release func() bool
	defer func() {
		if release != nil {
			release()
		}
	}()

	dial := func(dialCtx context.Context, network, addr string) (net.Conn, error) {
		d := net.Dialer{Timeout: m.timeout}
		conn, err := d.DialContext(dialCtx, network, addr)
		if err != nil {
			return nil, err
		}
		if err := conn.SetDeadline(time.Now().Add(m.timeout)); err != nil {
			conn.Close()
			return nil, err
		}
		release = context.AfterFunc(ctx, func() { _ = conn.Close() })
		return conn, nil
	}

	opts := []mail.Option{
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.timeout),
		mail.WithDialContextFunc(dial),
	}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func buildMessage(from string, n Notification) (*mail.Msg, error) {
	subject, body := renderEmail(n)

	msg := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := msg.From(from); err != nil {
		return nil, err
	}
	if err := msg.To(n.Recipients...); err != nil {
		return nil, err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
