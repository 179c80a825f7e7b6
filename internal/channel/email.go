package channel

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
)

// EmailConfig holds SMTP settings for the email channel.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromAddress  string
	FromName     string
}

// dialer is the subset of gomail used by the adapter, extracted for tests.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailAdapter delivers messages over SMTP.
type EmailAdapter struct {
	cfg    EmailConfig
	dialer dialer
}

// NewEmailAdapter creates an email channel adapter.
func NewEmailAdapter(cfg EmailConfig) *EmailAdapter {
	return &EmailAdapter{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
}

// Name implements Adapter.
func (a *EmailAdapter) Name() string {
	return model.ChannelEmail
}

// Send implements Adapter. SMTP has no provider message ID, so a local one is
// generated for the responses table.
func (a *EmailAdapter) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	if a.cfg.SMTPHost == "" {
		return "", fmt.Errorf("%w: smtp not configured", apperrors.ErrTransport)
	}
	if msg.Lead == nil || msg.Lead.Email == "" {
		return "", fmt.Errorf("%w: lead has no email address", apperrors.ErrBadRequest)
	}

	subject := msg.Subject
	if subject == "" {
		subject = fmt.Sprintf("Hello %s", msg.Lead.Name)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", a.cfg.FromAddress, a.cfg.FromName)
	m.SetHeader("To", msg.Lead.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", msg.Body)

	if err := a.dialer.DialAndSend(m); err != nil {
		return "", fmt.Errorf("%w: smtp send failed: %w", apperrors.ErrTransport, err)
	}

	externalID := uuid.New().String()
	logger.FromContext(ctx).Debug("Email delivered",
		zap.String("lead_id", msg.Lead.ID),
		zap.String("external_message_id", externalID),
	)
	return externalID, nil
}
