package mail

import (
	"context"
	"sync"

	"github.com/bizdesk/backend/internal/application/shared"
	"github.com/bizdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// LogMailer records messages instead of sending them.
// Used when mail is disabled so invitations and digests stay visible in logs.
type LogMailer struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []shared.Message
}

// NewLogMailer creates a new LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message and keeps it for inspection
func (m *LogMailer) Send(_ context.Context, msg shared.Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	m.logger.Info("Email not sent, mail is disabled",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)))
	return nil
}

// Sent returns a copy of the recorded messages
func (m *LogMailer) Sent() []shared.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]shared.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// Ensure LogMailer implements Mailer
var _ shared.Mailer = (*LogMailer)(nil)

// NewMailer returns an SMTP mailer when mail is enabled, otherwise a LogMailer
func NewMailer(cfg config.MailConfig, logger *zap.Logger) (shared.Mailer, error) {
	if !cfg.Enabled {
		logger.Warn("Mail disabled, outgoing email will only be logged")
		return NewLogMailer(logger), nil
	}
	return NewSMTPMailer(cfg, logger)
}
