// Package mailer sends kit-ready notifications over SMTP.
package mailer

import (
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"

	"github.com/propkit/marketing-kit-api/config"
	"github.com/propkit/marketing-kit-api/internal/core"
)

// SMTPMailer delivers notification mail through a configured relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// New creates an SMTPMailer. Call only when cfg.Configured() is true.
func New(cfg config.SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From}, nil
}

// SendKitReady sends the notification containing the time-limited download link.
func (m *SMTPMailer) SendKitReady(ctx context.Context, params core.NotificationParams) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(params.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	msg.Subject(fmt.Sprintf("Your marketing kit for %s is ready", params.Address))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Your marketing kit for %s is ready.\n\n"+
			"Download it here (link expires):\n%s\n",
		params.Address, params.DownloadURL))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send notification to %s: %w", params.To, err)
	}
	return nil
}
