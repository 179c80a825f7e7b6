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

// ReplyInput is the payload of an inbound message webhook. The lead is
// identified by phone or email depending on the channel.
type ReplyInput struct {
	Channel           string `json:"channel" validate:"required,oneof=whatsapp email"`
	From              string `json:"from" validate:"required"`
	Message           string `json:"message" validate:"required"`
	ExternalMessageID string `json:"externalMessageId"`
}

// ReplyResult reports what HandleReply did with the inbound message.
type ReplyResult struct {
	Lead        *model.Lead     `json:"lead"`
	Incoming    *model.Response `json:"incoming"`
	AutoReply   *model.Response `json:"autoReply,omitempty"`
	AutoReplied bool            `json:"autoReplied"`
}

// HandleReply processes an inbound message from a lead: the message is
// recorded, the lead moves to replied and an AI-drafted answer goes back
// out if quota allows. Messages from numbers or addresses we never
// contacted are rejected so the webhook cannot create phantom leads.
func (s *Service) HandleReply(ctx context.Context, input ReplyInput) (*ReplyResult, error) {
	if input.From == "" || input.Message == "" {
		return nil, fmt.Errorf("%w: from and message are required", apperrors.ErrBadRequest)
	}

	lead, err := s.lookupLeadByAddress(ctx, input.Channel, input.From)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			logger.FromContext(ctx).Warn("Inbound message from unknown sender ignored",
				zap.String("channel", input.Channel),
				zap.String("from", input.From),
			)
		}
		return nil, err
	}

	incoming := &model.Response{
		LeadID:            lead.ID,
		Channel:           input.Channel,
		Direction:         model.DirectionIncoming,
		MessageContent:    input.Message,
		Status:            model.ResponseStatusReceived,
		ExternalMessageID: input.ExternalMessageID,
	}
	if err := s.responseRepo.Save(ctx, incoming); err != nil {
		return nil, fmt.Errorf("failed to record inbound message: %w", err)
	}
	observer.IncReplyReceived(input.Channel)

	if lead.Status == model.LeadStatusNew || lead.Status == model.LeadStatusContacted {
		if err := s.leadRepo.UpdateStatus(ctx, lead.ID, model.LeadStatusReplied, nil); err != nil {
			logger.FromContext(ctx).Warn("Failed to mark lead as replied",
				zap.String("lead_id", lead.ID),
				zap.Error(err),
			)
		} else {
			lead.Status = model.LeadStatusReplied
		}
	}

	result := &ReplyResult{Lead: lead, Incoming: incoming}

	// The inbound message is already stored at this point. An exhausted
	// quota only suppresses the automatic answer.
	s.quota.ResetIfNewDay()
	if !s.quota.TryReserve() {
		logger.FromContext(ctx).Info("Quota exhausted, skipping auto-reply",
			zap.String("lead_id", lead.ID),
		)
		return result, nil
	}

	autoReply, err := s.sendAutoReply(ctx, lead, input.Channel)
	if err != nil {
		s.quota.Release()
		logger.FromContext(ctx).Warn("Auto-reply failed",
			zap.String("lead_id", lead.ID),
			zap.Error(err),
		)
		return result, nil
	}
	result.AutoReply = autoReply
	result.AutoReplied = true
	return result, nil
}

func (s *Service) lookupLeadByAddress(ctx context.Context, channelName, from string) (*model.Lead, error) {
	if channelName == model.ChannelWhatsApp {
		return s.leadRepo.FindByPhone(ctx, from)
	}
	return s.leadRepo.FindByEmail(ctx, from)
}

func (s *Service) sendAutoReply(ctx context.Context, lead *model.Lead, channelName string) (*model.Response, error) {
	adapter := s.channels.Get(channelName)
	if adapter == nil {
		return nil, fmt.Errorf("no adapter registered for channel %q", channelName)
	}

	history, err := s.responseRepo.FindByLeadID(ctx, lead.ID, replyHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	body := s.composer.ComposeReply(ctx, lead, history)
	externalID, err := adapter.Send(ctx, channel.OutboundMessage{Lead: lead, Body: body})
	observer.IncMessageSent(channelName, err)
	if err != nil {
		s.recordFailedSend(ctx, lead, channelName, body)
		return nil, err
	}

	outgoing := &model.Response{
		LeadID:            lead.ID,
		Channel:           channelName,
		Direction:         model.DirectionOutgoing,
		MessageContent:    body,
		Status:            model.ResponseStatusSent,
		ExternalMessageID: externalID,
	}
	if err := s.responseRepo.Save(ctx, outgoing); err != nil {
		return nil, fmt.Errorf("auto-reply sent but failed to record response: %w", err)
	}

	now := utils.Now()
	if err := s.leadRepo.UpdateStatus(ctx, lead.ID, lead.Status, &now); err != nil {
		logger.FromContext(ctx).Warn("Failed to update last contacted time",
			zap.String("lead_id", lead.ID),
			zap.Error(err),
		)
	}

	s.events.MessageSent(ctx, outgoing)
	return outgoing, nil
}
