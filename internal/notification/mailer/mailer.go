// Package mailer sends operator emails over SMTP.
package mailer

import (
	"context"
	"fmt"

	"rfv_copilot_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// Mailer sends plain-text operator emails. Disabled mailers accept every
// send as a no-op so callers never branch on configuration.
type Mailer struct {
	cfg     config.EmailConfig
	enabled bool
}

// New creates a mailer from the email configuration.
func New(cfg config.EmailConfig) *Mailer {
	return &Mailer{cfg: cfg, enabled: cfg.GetEmailEnabled()}
}

// Enabled reports whether emails are actually sent.
func (m *Mailer) Enabled() bool {
	return m.enabled
}

// Send delivers one plain-text email to the digest recipients.
func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	if !m.enabled {
		return nil
	}

	recipients := m.cfg.GetDigestRecipients()
	if len(recipients) == 0 {
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.cfg.GetEmailFromName(), m.cfg.GetEmailFromAddress()); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(recipients...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(m.cfg.GetSMTPHost(),
		gomail.WithPort(m.cfg.GetSMTPPort()),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.GetSMTPUsername()),
		gomail.WithPassword(m.cfg.GetSMTPPassword()),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	return client.DialAndSendWithContext(ctx, msg)
}
