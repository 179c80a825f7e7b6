package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
)

// generateHistoryLimit bounds how many recent messages feed a draft.
const generateHistoryLimit = 3

// GenerateMessage drafts a message for a lead without sending it. Leads
// with conversation history get a follow-up grounded in the most recent
// messages; fresh leads get a cold outreach draft.
func (s *Service) GenerateMessage(ctx context.Context, leadID string, variables map[string]string) (string, error) {
	lead, err := s.leadRepo.FindByID(ctx, leadID)
	if err != nil {
		return "", err
	}

	history, err := s.responseRepo.FindByLeadID(ctx, leadID, generateHistoryLimit)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to load history for message draft",
			zap.String("lead_id", leadID),
			zap.Error(err),
		)
		history = nil
	}
	if len(history) > 0 {
		return s.composer.ComposeReply(ctx, lead, history), nil
	}
	return s.composer.ComposeOutreach(ctx, lead, variables), nil
}

// SummarizeConversation builds (or refreshes) the stored summary of a
// lead's conversation history.
func (s *Service) SummarizeConversation(ctx context.Context, leadID string) (*model.Summary, error) {
	lead, err := s.leadRepo.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	history, err := s.responseRepo.FindByLeadID(ctx, leadID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: lead has no conversation history", apperrors.ErrBadRequest)
	}

	text, keyPoints := s.composer.SummarizeConversation(ctx, lead, history)

	summary := &model.Summary{
		LeadID:              lead.ID,
		ConversationSummary: text,
		KeyPoints:           datatypes.JSON(utils.MustMarshalJSON(keyPoints)),
	}
	if err := s.summaryRepo.Upsert(ctx, summary); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Conversation summarized",
		zap.String("lead_id", lead.ID),
		zap.Int("history_size", len(history)),
	)
	return summary, nil
}

// GetSummary returns the stored summary for a lead.
func (s *Service) GetSummary(ctx context.Context, leadID string) (*model.Summary, error) {
	return s.summaryRepo.FindByLeadID(ctx, leadID)
}

// ExtractKeyPoints pulls key discussion points out of arbitrary text.
func (s *Service) ExtractKeyPoints(ctx context.Context, text string) ([]string, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", apperrors.ErrBadRequest)
	}
	return s.composer.ExtractKeyPoints(ctx, text), nil
}
