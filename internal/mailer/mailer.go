// Package mailer is the SMTP email transport used by the notification
// dispatcher.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/freeplay/yourleague-service/internal/config"
)

// Message is one email to one recipient.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// SMTPMailer sends every message on its own SMTP connection, so concurrent
// sends never share session state.
type SMTPMailer struct {
	host string
	opts []mail.Option
	from string
}

// New returns a mailer for cfg. It reports an error when the host or sender
// address is missing.
func New(cfg config.SMTP) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is not configured")
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	if from == "" {
		return nil, errors.New("smtp sender address is not configured")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(tlsPolicy(cfg.TLSPolicy)),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	// Validate the options once at startup.
	if _, err := mail.NewClient(cfg.Host, opts...); err != nil {
		return nil, fmt.Errorf("invalid smtp settings: %w", err)
	}

	return &SMTPMailer{host: cfg.Host, opts: opts, from: from}, nil
}

func tlsPolicy(name string) mail.TLSPolicy {
	switch strings.ToLower(name) {
	case "none":
		return mail.NoTLS
	case "opportunistic":
		return mail.TLSOpportunistic
	default:
		return mail.TLSMandatory
	}
}

// Send delivers msg. Errors carry the SMTP server's response.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	email := mail.NewMsg()
	if err := email.From(m.from); err != nil {
		return fmt.Errorf("invalid sender %q: %w", m.from, err)
	}
	if err := email.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	email.Subject(msg.Subject)
	email.SetBodyString(mail.TypeTextHTML, msg.HTML)

	client, err := mail.NewClient(m.host, m.opts...)
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, email); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}
