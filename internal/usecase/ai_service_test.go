package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
)

func TestGenerateMessage(t *testing.T) {
	h := newHarness(t, 10)

	lead := &model.Lead{ID: "lead-1", Name: "Jordan", Company: "Acme"}
	h.leadRepo.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)
	h.responseRepo.On("FindByLeadID", mock.Anything, "lead-1", 3).Return([]model.Response{}, nil)

	msg, err := h.svc.GenerateMessage(context.Background(), "lead-1", nil)

	require.NoError(t, err)
	assert.Contains(t, msg, "Jordan")
}

func TestGenerateMessage_UsesHistoryForFollowUp(t *testing.T) {
	h := newHarness(t, 10)

	lead := &model.Lead{ID: "lead-1", Name: "Jordan", Company: "Acme"}
	h.leadRepo.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)
	h.responseRepo.On("FindByLeadID", mock.Anything, "lead-1", 3).Return([]model.Response{
		{LeadID: "lead-1", Direction: model.DirectionIncoming, MessageContent: "How much does it cost?"},
	}, nil)

	msg, err := h.svc.GenerateMessage(context.Background(), "lead-1", nil)

	require.NoError(t, err)
	assert.Contains(t, msg, "Jordan")
	assert.NotContains(t, msg, "quick chat", "leads with history should not get the cold template")
}

func TestGenerateMessage_LeadNotFound(t *testing.T) {
	h := newHarness(t, 10)
	h.leadRepo.On("FindByID", mock.Anything, "missing").Return(nil, apperrors.ErrNotFound)

	_, err := h.svc.GenerateMessage(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSummarizeConversation_UpsertsSummary(t *testing.T) {
	h := newHarness(t, 10)

	lead := &model.Lead{ID: "lead-1", Name: "Jordan"}
	history := []model.Response{
		{LeadID: "lead-1", Direction: model.DirectionIncoming, MessageContent: "Sounds good"},
		{LeadID: "lead-1", Direction: model.DirectionOutgoing, MessageContent: "Hi Jordan"},
	}
	h.leadRepo.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)
	h.responseRepo.On("FindByLeadID", mock.Anything, "lead-1", 0).Return(history, nil)

	var upserted *model.Summary
	h.summaryRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*model.Summary")).
		Run(func(args mock.Arguments) {
			upserted = args.Get(1).(*model.Summary)
		}).Return(nil)

	summary, err := h.svc.SummarizeConversation(context.Background(), "lead-1")

	require.NoError(t, err)
	require.NotNil(t, upserted)
	assert.Equal(t, "lead-1", summary.LeadID)
	assert.NotEmpty(t, summary.ConversationSummary)

	var points []string
	require.NoError(t, utils.UnmarshalJSON(summary.KeyPoints, &points))
	assert.NotEmpty(t, points)
}

func TestSummarizeConversation_NoHistory(t *testing.T) {
	h := newHarness(t, 10)

	lead := &model.Lead{ID: "lead-1", Name: "Jordan"}
	h.leadRepo.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)
	h.responseRepo.On("FindByLeadID", mock.Anything, "lead-1", 0).Return([]model.Response{}, nil)

	_, err := h.svc.SummarizeConversation(context.Background(), "lead-1")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	h.summaryRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestExtractKeyPoints_EmptyText(t *testing.T) {
	h := newHarness(t, 10)

	_, err := h.svc.ExtractKeyPoints(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestCreateLead_Success(t *testing.T) {
	h := newHarness(t, 10)
	h.leadRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Lead")).Return(nil)

	lead, err := h.svc.CreateLead(context.Background(), CreateLeadInput{
		Name:      "Jordan",
		Email:     "jordan@example.com",
		SourceURL: "https://example.com/people/jordan",
	})

	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusNew, lead.Status)
	assert.Equal(t, "manual", lead.Source)
	assert.Equal(t, "https://example.com/people/jordan", lead.SourceURL)
}

func TestCreateLead_NoContactInfo(t *testing.T) {
	h := newHarness(t, 10)

	_, err := h.svc.CreateLead(context.Background(), CreateLeadInput{Name: "Jordan"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	h.leadRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateLead_MissingName(t *testing.T) {
	h := newHarness(t, 10)

	_, err := h.svc.CreateLead(context.Background(), CreateLeadInput{Email: "j@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
