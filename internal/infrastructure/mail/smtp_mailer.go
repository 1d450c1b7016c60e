// Package mail delivers transactional email (member invitations, daily digests).
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bizdesk/backend/internal/application/shared"
	"github.com/bizdesk/backend/internal/infrastructure/config"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// ErrNoRecipients is returned when a message has no To addresses
var ErrNoRecipients = errors.New("mail: message has no recipients")

// SMTPMailer sends email through an SMTP relay
type SMTPMailer struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewSMTPMailer creates a new SMTPMailer
func NewSMTPMailer(cfg config.MailConfig, logger *zap.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail: smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("mail: from address is required")
	}
	return &SMTPMailer{cfg: cfg, logger: logger}, nil
}

// Send delivers one message, opening a fresh SMTP connection
func (m *SMTPMailer) Send(ctx context.Context, msg shared.Message) error {
	gm, err := m.buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("mail: failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, gm); err != nil {
		m.logger.Error("Failed to send email",
			zap.Strings("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return fmt.Errorf("mail: failed to send: %w", err)
	}

	m.logger.Info("Email sent",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)))
	return nil
}

func (m *SMTPMailer) clientOptions() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(tlsPolicy(m.cfg.TLSPolicy)),
	}
	if m.cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(m.cfg.Timeout))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}
	return opts
}

func (m *SMTPMailer) buildMessage(msg shared.Message) (*gomail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}

	gm := gomail.NewMsg()
	if m.cfg.FromName != "" {
		if err := gm.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
			return nil, fmt.Errorf("mail: invalid from address: %w", err)
		}
	} else if err := gm.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("mail: invalid from address: %w", err)
	}
	if err := gm.To(msg.To...); err != nil {
		return nil, fmt.Errorf("mail: invalid recipient: %w", err)
	}
	gm.Subject(msg.Subject)

	switch {
	case msg.HTMLBody != "":
		gm.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
		if msg.TextBody != "" {
			gm.AddAlternativeString(gomail.TypeTextPlain, msg.TextBody)
		}
	default:
		gm.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	}

	for _, a := range msg.Attachments {
		opts := []gomail.FileOption{}
		if a.ContentType != "" {
			opts = append(opts, gomail.WithFileContentType(gomail.ContentType(a.ContentType)))
		}
		if err := gm.AttachReader(a.Filename, bytes.NewReader(a.Data), opts...); err != nil {
			return nil, fmt.Errorf("mail: failed to attach %s: %w", a.Filename, err)
		}
	}
	return gm, nil
}

// tlsPolicy maps the configured policy name; unknown values require TLS
func tlsPolicy(name string) gomail.TLSPolicy {
	switch strings.ToLower(name) {
	case "opportunistic":
		return gomail.TLSOpportunistic
	case "none":
		return gomail.NoTLS
	default:
		return gomail.TLSMandatory
	}
}

// Ensure SMTPMailer implements Mailer
var _ shared.Mailer = (*SMTPMailer)(nil)
