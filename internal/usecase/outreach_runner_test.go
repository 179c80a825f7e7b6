package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/channel"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/composer"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/config"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/events"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/quota"
	storagemock "gitlab.com/timkado/api/daisi-lead-outreach/internal/storage/mock"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
)

// fakeAdapter records sends and fails on demand.
type fakeAdapter struct {
	name  string
	sent  []channel.OutboundMessage
	errOn map[int]error // attempt index -> error
	err   error         // error for every attempt
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Send(ctx context.Context, msg channel.OutboundMessage) (string, error) {
	idx := len(f.sent)
	f.sent = append(f.sent, msg)
	if err, ok := f.errOn[idx]; ok {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("ext-%d", idx), nil
}

type harness struct {
	svc          *Service
	leadRepo     *storagemock.LeadRepoMock
	responseRepo *storagemock.ResponseRepoMock
	jobRepo      *storagemock.JobRepoMock
	summaryRepo  *storagemock.SummaryRepoMock
	whatsapp     *fakeAdapter
	email        *fakeAdapter
	paceCalls    int
}

func newHarness(t *testing.T, dailyLimit int) *harness {
	t.Helper()
	logger.Log = zaptest.NewLogger(t).Named("test")

	h := &harness{
		leadRepo:     new(storagemock.LeadRepoMock),
		responseRepo: new(storagemock.ResponseRepoMock),
		jobRepo:      new(storagemock.JobRepoMock),
		summaryRepo:  new(storagemock.SummaryRepoMock),
		whatsapp:     &fakeAdapter{name: model.ChannelWhatsApp, errOn: map[int]error{}},
		email:        &fakeAdapter{name: model.ChannelEmail, errOn: map[int]error{}},
	}

	h.svc = NewService(
		h.leadRepo,
		h.responseRepo,
		h.jobRepo,
		h.summaryRepo,
		channel.NewRegistry(h.whatsapp, h.email),
		composer.New(nil),
		quota.NewTracker(dailyLimit),
		events.NoopPublisher{},
		config.OutreachConfig{DailyLimit: dailyLimit, PacingFloorMs: 3000, PacingJitterMs: 5000},
	)
	h.svc.sleep = func(time.Duration) { h.paceCalls++ }
	h.svc.randInt = func(n int) int { return 0 }
	return h
}

func (h *harness) expectJobLifecycle() {
	h.jobRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Job")).Return(nil)
	h.jobRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Job")).Return(nil)
}

func TestRunDailyOutreach_QuotaExhausted(t *testing.T) {
	h := newHarness(t, 0)
	h.expectJobLifecycle()

	job, err := h.svc.RunDailyOutreach(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, 0, job.LeadsSent)
	h.leadRepo.AssertNotCalled(t, "FindEligible", mock.Anything, mock.Anything)
	h.jobRepo.AssertExpectations(t)
}

func TestRunDailyOutreach_NoEligibleLeads(t *testing.T) {
	h := newHarness(t, 10)
	h.expectJobLifecycle()
	h.leadRepo.On("FindEligible", mock.Anything, 10).Return([]model.Lead{}, nil)

	job, err := h.svc.RunDailyOutreach(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, 0, job.LeadsProcessed)
	assert.Equal(t, 0, job.LeadsSent)
}

func TestRunDailyOutreach_SendsBatch(t *testing.T) {
	h := newHarness(t, 10)
	h.expectJobLifecycle()

	leads := []model.Lead{
		{ID: "lead-1", Name: "A", Phone: "+628111", Status: model.LeadStatusNew},
		{ID: "lead-2", Name: "B", Email: "b@example.com", Status: model.LeadStatusNew},
	}
	h.leadRepo.On("FindEligible", mock.Anything, 10).Return(leads, nil)
	h.responseRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Response")).Return(nil)
	h.leadRepo.On("UpdateStatus", mock.Anything, mock.Anything, model.LeadStatusContacted, mock.Anything).Return(nil)

	job, err := h.svc.RunDailyOutreach(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, job.LeadsProcessed)
	assert.Equal(t, 2, job.LeadsSent)
	assert.Len(t, h.whatsapp.sent, 1)
	assert.Len(t, h.email.sent, 1)
	assert.Equal(t, 2, h.svc.quota.SentToday())
}

func TestRunDailyOutreach_PhoneWinsOverEmail(t *testing.T) {
	h := newHarness(t, 10)
	h.expectJobLifecycle()

	leads := []model.Lead{
		{ID: "lead-1", Name: "A", Phone: "+628111", Email: "a@example.com", Status: model.LeadStatusNew},
	}
	h.leadRepo.On("FindEligible", mock.Anything, 10).Return(leads, nil)
	h.responseRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Response")).Return(nil)
	h.leadRepo.On("UpdateStatus", mock.Anything, "lead-1", model.LeadStatusContacted, mock.Anything).Return(nil)

	_, err := h.svc.RunDailyOutreach(context.Background())

	assert.NoError(t, err)
	assert.Len(t, h.whatsapp.sent, 1)
	assert.Empty(t, h.email.sent)
}

func TestRunDailyOutreach_FailedLeadDoesNotStopRun(t *testing.T) {
	h := newHarness(t, 10)
	h.expectJobLifecycle()

	leads := []model.Lead{
		{ID: "lead-1", Name: "A", Phone: "+628111", Status: model.LeadStatusNew},
		{ID: "lead-2", Name: "B", Phone: "+628222", Status: model.LeadStatusNew},
	}
	h.whatsapp.errOn[0] = errors.New("gateway timeout")
	h.leadRepo.On("FindEligible", mock.Anything, 10).Return(leads, nil)
	h.responseRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Response")).Return(nil)
	h.leadRepo.On("UpdateStatus", mock.Anything, "lead-2", model.LeadStatusContacted, mock.Anything).Return(nil)

	job, err := h.svc.RunDailyOutreach(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, 2, job.LeadsProcessed)
	assert.Equal(t, 1, job.LeadsSent)
	// The failed send releases its quota reservation.
	assert.Equal(t, 1, h.svc.quota.SentToday())
	h.leadRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, "lead-1", mock.Anything, mock.Anything)
}

func TestRunDailyOutreach_PacesAfterEveryLead(t *testing.T) {
	h := newHarness(t, 10)
	h.expectJobLifecycle()

	leads := []model.Lead{
		{ID: "lead-1", Name: "A", Phone: "+628111", Status: model.LeadStatusNew},
		{ID: "lead-2", Name: "B", Phone: "+628222", Status: model.LeadStatusNew},
		{ID: "lead-3", Name: "C", Phone: "+628333", Status: model.LeadStatusNew},
	}
	h.whatsapp.errOn[1] = errors.New("gateway timeout")
	h.leadRepo.On("FindEligible", mock.Anything, 10).Return(leads, nil)
	h.responseRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Response")).Return(nil)
	h.leadRepo.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := h.svc.RunDailyOutreach(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 3, h.paceCalls)
}

func TestRunDailyOutreach_EligibleLookupFailureFailsJob(t *testing.T) {
	h := newHarness(t, 10)
	h.expectJobLifecycle()
	h.leadRepo.On("FindEligible", mock.Anything, 10).Return(nil, errors.New("db down"))

	job, err := h.svc.RunDailyOutreach(context.Background())

	assert.Error(t, err)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "db down")
}

func TestRunDailyOutreach_SendFailureLeavesNoRecord(t *testing.T) {
	h := newHarness(t, 10)
	h.expectJobLifecycle()

	leads := []model.Lead{
		{ID: "lead-1", Name: "A", Phone: "+628111", Status: model.LeadStatusNew},
	}
	h.whatsapp.err = errors.New("gateway down")
	h.leadRepo.On("FindEligible", mock.Anything, 10).Return(leads, nil)

	job, err := h.svc.RunDailyOutreach(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, 0, job.LeadsSent)
	// A failed delivery writes nothing: the lead stays new and eligible.
	h.responseRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	h.leadRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunDailyOutreach_StoreFailureAfterSendAbortsRun(t *testing.T) {
	h := newHarness(t, 10)
	h.expectJobLifecycle()

	leads := []model.Lead{
		{ID: "lead-1", Name: "A", Phone: "+628111", Status: model.LeadStatusNew},
		{ID: "lead-2", Name: "B", Phone: "+628222", Status: model.LeadStatusNew},
	}
	h.leadRepo.On("FindEligible", mock.Anything, 10).Return(leads, nil)
	h.responseRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Response")).
		Return(errors.New("store unavailable"))

	job, err := h.svc.RunDailyOutreach(context.Background())

	assert.Error(t, err)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "store unavailable")
	// The first message went out before the store broke, so the run stops
	// there and the second lead is never attempted.
	assert.Len(t, h.whatsapp.sent, 1)
	assert.Equal(t, 1, job.LeadsProcessed)
	assert.Equal(t, 0, job.LeadsSent)
	// The delivered message keeps its quota slot.
	assert.Equal(t, 1, h.svc.quota.SentToday())
}

func TestRunDailyOutreach_StopsAtRemainingQuota(t *testing.T) {
	h := newHarness(t, 2)
	h.expectJobLifecycle()

	// The batch can be larger than the remaining quota when a concurrent
	// sender consumes slots between the fetch and the loop.
	leads := []model.Lead{
		{ID: "lead-1", Name: "A", Phone: "+628111", Status: model.LeadStatusNew},
		{ID: "lead-2", Name: "B", Phone: "+628222", Status: model.LeadStatusNew},
		{ID: "lead-3", Name: "C", Phone: "+628333", Status: model.LeadStatusNew},
	}
	h.leadRepo.On("FindEligible", mock.Anything, 2).Return(leads, nil)
	h.responseRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Response")).Return(nil)
	h.leadRepo.On("UpdateStatus", mock.Anything, mock.Anything, model.LeadStatusContacted, mock.Anything).Return(nil)

	job, err := h.svc.RunDailyOutreach(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Len(t, h.whatsapp.sent, 2)
	assert.Equal(t, 2, job.LeadsSent)
	// The lead the run stopped on was never attempted and is not counted.
	assert.Equal(t, 2, job.LeadsProcessed)
	assert.Equal(t, 2, h.svc.quota.SentToday())
	h.leadRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, "lead-3", mock.Anything, mock.Anything)
}
