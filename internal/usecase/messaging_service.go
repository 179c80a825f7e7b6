package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/channel"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/observer"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
)

// SendMessageInput describes an ad-hoc send requested through the API.
// Channel is optional; when empty the lead's preferred channel is used.
// Message overrides AI composition when set.
type SendMessageInput struct {
	LeadID    string            `json:"leadId" validate:"required"`
	Channel   string            `json:"channel" validate:"omitempty,oneof=whatsapp email"`
	Message   string            `json:"message"`
	Variables map[string]string `json:"variables"`
}

// SendToLead delivers a single message outside the daily batch. It still
// consumes the daily quota so manual sends cannot blow past the limit.
func (s *Service) SendToLead(ctx context.Context, input SendMessageInput) (*model.Response, error) {
	if input.LeadID == "" {
		return nil, fmt.Errorf("%w: leadId is required", apperrors.ErrBadRequest)
	}

	lead, err := s.leadRepo.FindByID(ctx, input.LeadID)
	if err != nil {
		return nil, err
	}

	if !lead.Contactable() {
		return nil, fmt.Errorf("%w: lead has no contact information", apperrors.ErrBadRequest)
	}
	channelName := input.Channel
	if channelName == "" {
		channelName = lead.PreferredChannel()
	}
	adapter := s.channels.Get(channelName)
	if adapter == nil {
		return nil, fmt.Errorf("%w: unknown channel %q", apperrors.ErrBadRequest, channelName)
	}

	s.quota.ResetIfNewDay()
	if !s.quota.TryReserve() {
		return nil, fmt.Errorf("%w: daily limit of %d messages reached", apperrors.ErrRateLimited, s.quota.Limit())
	}

	body := input.Message
	if body == "" {
		body = s.composer.ComposeOutreach(ctx, lead, input.Variables)
	}

	externalID, err := adapter.Send(ctx, channel.OutboundMessage{Lead: lead, Body: body})
	observer.IncMessageSent(channelName, err)
	if err != nil {
		s.quota.Release()
		s.recordFailedSend(ctx, lead, channelName, body)
		return nil, err
	}

	response := &model.Response{
		LeadID:            lead.ID,
		Channel:           channelName,
		Direction:         model.DirectionOutgoing,
		MessageContent:    body,
		Status:            model.ResponseStatusSent,
		ExternalMessageID: externalID,
	}
	if err := s.responseRepo.Save(ctx, response); err != nil {
		return nil, fmt.Errorf("message sent but failed to record response: %w", err)
	}

	if lead.Status == model.LeadStatusNew {
		now := utils.Now()
		if err := s.leadRepo.UpdateStatus(ctx, lead.ID, model.LeadStatusContacted, &now); err != nil {
			logger.FromContext(ctx).Warn("Failed to mark lead as contacted",
				zap.String("lead_id", lead.ID),
				zap.Error(err),
			)
		}
	}

	s.events.MessageSent(ctx, response)
	return response, nil
}

// recordFailedSend keeps a failed delivery attempt in the history for the
// explicitly requested send paths. Failure to record is only logged since
// the send error is what matters upstream.
func (s *Service) recordFailedSend(ctx context.Context, lead *model.Lead, channelName, body string) {
	response := &model.Response{
		LeadID:         lead.ID,
		Channel:        channelName,
		Direction:      model.DirectionOutgoing,
		MessageContent: body,
		Status:         model.ResponseStatusFailed,
	}
	if err := s.responseRepo.Save(ctx, response); err != nil {
		logger.FromContext(ctx).Warn("Failed to record failed send",
			zap.String("lead_id", lead.ID),
			zap.Error(err),
		)
	}
}

// GetConversation returns the recorded message history for a lead, newest
// first. A zero limit returns everything.
func (s *Service) GetConversation(ctx context.Context, leadID string, limit int) ([]model.Response, error) {
	if _, err := s.leadRepo.FindByID(ctx, leadID); err != nil {
		return nil, err
	}
	return s.responseRepo.FindByLeadID(ctx, leadID, limit)
}
