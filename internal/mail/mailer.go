// Package mail delivers the two transactional emails of the pipeline: the
// form-link email sent after an order, and the finished plan email with the
// PDF attached.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/ozzie78066/bulkbot/internal/pkg/metrics"
	"github.com/ozzie78066/bulkbot/internal/plan"
)

// Mailer is the outbound email surface consumed by the webhook handlers.
type Mailer interface {
	// SendFormLink emails the single-use form URL to a buyer.
	SendFormLink(ctx context.Context, to string, v plan.Variant, formURL string) error
	// SendPlan emails the finished document, with an optional intro-video
	// link appended to the body when videoURL is non-empty.
	SendPlan(ctx context.Context, to, name string, pdf []byte, videoURL string) error
}

// Config holds SMTP transport settings. Missing credentials surface as send
// errors, not construction errors.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// DefaultFrom is the historical sender identity.
const DefaultFrom = "BulkBot AI <bulkbotplans@gmail.com>"

// SMTPMailer sends mail through an authenticated SMTP server.
type SMTPMailer struct {
	cfg    Config
	logger *zap.Logger
}

// NewSMTPMailer creates a Mailer for the given transport settings.
func NewSMTPMailer(cfg Config, logger *zap.Logger) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = DefaultFrom
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// SendFormLink implements Mailer.
func (m *SMTPMailer) SendFormLink(ctx context.Context, to string, v plan.Variant, formURL string) error {
	body := fmt.Sprintf(
		`<p>Thanks for buying the <b>%s</b> plan!</p>
<p>Fill in your details here (link is single-use):<br>
<a href="%s">%s</a></p>`,
		html.EscapeString(v.DisplayName()), formURL, html.EscapeString(formURL))

	err := m.send(ctx, to, "Your BulkBot form link", body, nil)
	m.record("form_link", err)
	return err
}

// SendPlan implements Mailer.
func (m *SMTPMailer) SendPlan(ctx context.Context, to, name string, pdf []byte, videoURL string) error {
	body := fmt.Sprintf("<p>Hi %s, your personalised plan is attached!</p>", html.EscapeString(name))
	if videoURL != "" {
		body += fmt.Sprintf(`<p>New to training? Watch the intro: <a href="%s">%s</a></p>`,
			videoURL, html.EscapeString(videoURL))
	}

	err := m.send(ctx, to, "Your BulkBot Plan 💪", body, pdf)
	m.record("plan", err)
	return err
}

func (m *SMTPMailer) record(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.MailSentTotal.WithLabelValues(kind, status).Inc()
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, htmlBody string, attachment []byte) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)
	if attachment != nil {
		if err := msg.AttachReader("Plan.pdf", bytes.NewReader(attachment)); err != nil {
			return fmt.Errorf("attach plan: %w", err)
		}
	}

	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	m.logger.Info("mail sent", zap.String("subject", subject))
	return nil
}
