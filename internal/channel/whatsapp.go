package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
)

// WhatsAppConfig holds the gateway connection settings.
type WhatsAppConfig struct {
	GatewayURL  string
	AccessToken string
	SenderID    string
	Timeout     time.Duration
}

// WhatsAppAdapter delivers messages through an HTTP WhatsApp gateway.
type WhatsAppAdapter struct {
	cfg    WhatsAppConfig
	client *http.Client
}

// NewWhatsAppAdapter creates a WhatsApp channel adapter.
func NewWhatsAppAdapter(cfg WhatsAppConfig) *WhatsAppAdapter {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &WhatsAppAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Name implements Adapter.
func (a *WhatsAppAdapter) Name() string {
	return model.ChannelWhatsApp
}

type whatsAppSendRequest struct {
	SenderID string `json:"sender_id"`
	To       string `json:"to"`
	Type     string `json:"type"`
	Body     string `json:"body"`
}

type whatsAppSendResponse struct {
	MessageID string `json:"message_id"`
	Error     *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Send implements Adapter. It posts the message to the gateway and returns
// the gateway-assigned message ID.
func (a *WhatsAppAdapter) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	if a.cfg.GatewayURL == "" || a.cfg.AccessToken == "" {
		return "", fmt.Errorf("%w: whatsapp gateway not configured", apperrors.ErrTransport)
	}
	if msg.Lead == nil || msg.Lead.Phone == "" {
		return "", fmt.Errorf("%w: lead has no phone number", apperrors.ErrBadRequest)
	}

	payload := whatsAppSendRequest{
		SenderID: a.cfg.SenderID,
		To:       msg.Lead.Phone,
		Type:     "text",
		Body:     msg.Body,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal payload: %w", apperrors.ErrTransport, err)
	}

	url := fmt.Sprintf("%s/v1/messages", a.cfg.GatewayURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %w", apperrors.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", a.cfg.AccessToken))

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: gateway request failed: %w", apperrors.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		logger.FromContext(ctx).Warn("WhatsApp gateway rejected message",
			zap.Int("status_code", resp.StatusCode),
			zap.String("lead_id", msg.Lead.ID),
		)
		return "", fmt.Errorf("%w: gateway returned status %d", apperrors.ErrTransport, resp.StatusCode)
	}

	var result whatsAppSendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%w: failed to parse gateway response: %w", apperrors.ErrTransport, err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("%w: gateway error %d: %s", apperrors.ErrTransport, result.Error.Code, result.Error.Message)
	}

	logger.FromContext(ctx).Debug("WhatsApp message delivered",
		zap.String("lead_id", msg.Lead.ID),
		zap.String("external_message_id", result.MessageID),
	)
	return result.MessageID, nil
}
