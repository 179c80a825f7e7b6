package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/channel"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/composer"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/config"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/events"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/quota"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/scheduler"
	storagemock "gitlab.com/timkado/api/daisi-lead-outreach/internal/storage/mock"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/usecase"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/workerpool"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
)

type stubAdapter struct {
	name string
	err  error
	sent int
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) Send(ctx context.Context, msg channel.OutboundMessage) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.sent++
	return fmt.Sprintf("ext-%d", a.sent), nil
}

type apiHarness struct {
	server       *Server
	router       http.Handler
	leadRepo     *storagemock.LeadRepoMock
	responseRepo *storagemock.ResponseRepoMock
	jobRepo      *storagemock.JobRepoMock
	summaryRepo  *storagemock.SummaryRepoMock
	whatsapp     *stubAdapter
	email        *stubAdapter
}

func newAPIHarness(t *testing.T, dailyLimit int) *apiHarness {
	t.Helper()
	logger.Log = zaptest.NewLogger(t).Named("test")

	h := &apiHarness{
		leadRepo:     new(storagemock.LeadRepoMock),
		responseRepo: new(storagemock.ResponseRepoMock),
		jobRepo:      new(storagemock.JobRepoMock),
		summaryRepo:  new(storagemock.SummaryRepoMock),
		whatsapp:     &stubAdapter{name: model.ChannelWhatsApp},
		email:        &stubAdapter{name: model.ChannelEmail},
	}

	tracker := quota.NewTracker(dailyLimit)
	svc := usecase.NewService(
		h.leadRepo,
		h.responseRepo,
		h.jobRepo,
		h.summaryRepo,
		channel.NewRegistry(h.whatsapp, h.email),
		composer.New(nil),
		tracker,
		events.NoopPublisher{},
		config.OutreachConfig{DailyLimit: dailyLimit},
	)

	sched, err := scheduler.New(config.OutreachConfig{RunAt: "09:00", Timezone: "Etc/UTC"}, tracker, func(ctx context.Context) {})
	require.NoError(t, err)
	t.Cleanup(sched.Shutdown)

	dispatcher, err := workerpool.NewDispatcher(config.JobWorkerPoolConfig{
		PoolSize:   2,
		QueueSize:  8,
		ExpiryTime: time.Minute,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(dispatcher.Release)

	h.server = New(svc, sched, dispatcher, 0, false, nil)
	h.router = h.server.Router()
	return h
}

func (h *apiHarness) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = bytes.NewBuffer(nil)
		require.NoError(t, json.NewEncoder(reqBody).Encode(body))
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestHealthEndpoint(t *testing.T) {
	h := newAPIHarness(t, 10)

	rec, env := h.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestReadyEndpoint_DependencyDown(t *testing.T) {
	h := newAPIHarness(t, 10)
	h.server.readyCheck = func(ctx context.Context) error { return assert.AnError }

	rec, env := h.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "error", env.Status)
}

func TestCreateLead(t *testing.T) {
	h := newAPIHarness(t, 10)
	h.leadRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Lead")).Return(nil)

	rec, env := h.do(t, http.MethodPost, "/api/leads", map[string]string{
		"name":  "Jordan",
		"email": "jordan@example.com",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, http.StatusCreated, env.StatusCode)
}

func TestCreateLead_ValidationError(t *testing.T) {
	h := newAPIHarness(t, 10)

	rec, env := h.do(t, http.MethodPost, "/api/leads", map[string]string{"name": "Jordan"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", env.Status)
	assert.Contains(t, env.Error, "email or phone")
}

func TestGetLead_NotFound(t *testing.T) {
	h := newAPIHarness(t, 10)
	h.leadRepo.On("FindByID", mock.Anything, "missing").Return(nil, apperrors.ErrNotFound)

	rec, env := h.do(t, http.MethodGet, "/api/leads/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", env.Status)
}

func TestUpdateLead(t *testing.T) {
	h := newAPIHarness(t, 10)
	lead := &model.Lead{ID: "lead-1", Name: "Jordan", Email: "jordan@example.com", Status: model.LeadStatusNew}
	h.leadRepo.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)
	h.leadRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Lead")).Return(nil)

	rec, env := h.do(t, http.MethodPut, "/api/leads/lead-1", map[string]string{
		"company": "Acme",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	data := env.Data.(map[string]interface{})
	assert.Equal(t, "Acme", data["company"])
}

func TestUpdateLead_CannotDropAllContactInfo(t *testing.T) {
	h := newAPIHarness(t, 10)
	lead := &model.Lead{ID: "lead-1", Name: "Jordan", Email: "jordan@example.com"}
	h.leadRepo.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)

	rec, _ := h.do(t, http.MethodPut, "/api/leads/lead-1", map[string]string{
		"email": "",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	h.leadRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteLead(t *testing.T) {
	h := newAPIHarness(t, 10)
	h.leadRepo.On("Delete", mock.Anything, "lead-1").Return(nil)

	rec, env := h.do(t, http.MethodDelete, "/api/leads/lead-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
}

func TestDeleteLead_NotFound(t *testing.T) {
	h := newAPIHarness(t, 10)
	h.leadRepo.On("Delete", mock.Anything, "missing").Return(apperrors.ErrNotFound)

	rec, _ := h.do(t, http.MethodDelete, "/api/leads/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMessage_QuotaReached(t *testing.T) {
	h := newAPIHarness(t, 0)
	lead := &model.Lead{ID: "lead-1", Name: "Jordan", Phone: "+628111", Status: model.LeadStatusNew}
	h.leadRepo.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)

	rec, env := h.do(t, http.MethodPost, "/api/messaging/send", map[string]string{
		"leadId":  "lead-1",
		"message": "hi",
	})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "error", env.Status)
}

func TestSendMessage_Success(t *testing.T) {
	h := newAPIHarness(t, 10)
	lead := &model.Lead{ID: "lead-1", Name: "Jordan", Phone: "+628111", Status: model.LeadStatusContacted}
	h.leadRepo.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)
	h.responseRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Response")).Return(nil)

	rec, env := h.do(t, http.MethodPost, "/api/messaging/send", map[string]string{
		"leadId":  "lead-1",
		"message": "hi",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, 1, h.whatsapp.sent)
}

func TestReplyWebhook_UnknownSender(t *testing.T) {
	h := newAPIHarness(t, 10)
	h.leadRepo.On("FindByPhone", mock.Anything, "+620000").Return(nil, apperrors.ErrNotFound)

	rec, _ := h.do(t, http.MethodPost, "/api/messaging/reply", map[string]string{
		"channel": "whatsapp",
		"from":    "+620000",
		"message": "hello",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWhatsAppIncomingWebhook(t *testing.T) {
	h := newAPIHarness(t, 10)
	lead := &model.Lead{ID: "lead-1", Name: "Jordan", Phone: "+628111", Status: model.LeadStatusContacted}
	h.leadRepo.On("FindByPhone", mock.Anything, "+628111").Return(lead, nil)
	h.leadRepo.On("UpdateStatus", mock.Anything, "lead-1", mock.Anything, mock.Anything).Return(nil)
	h.responseRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Response")).Return(nil)
	h.responseRepo.On("FindByLeadID", mock.Anything, "lead-1", 10).Return([]model.Response{
		{LeadID: "lead-1", Direction: model.DirectionOutgoing, MessageContent: "hi there"},
	}, nil)

	rec, env := h.do(t, http.MethodPost, "/api/messaging/whatsapp/incoming", map[string]string{
		"from":    "+628111",
		"message": "tell me more",
	})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	data := env.Data.(map[string]interface{})
	assert.Equal(t, true, data["autoReplied"])
	assert.Equal(t, 1, h.whatsapp.sent)
}

func TestRunScraper_ReturnsJobID(t *testing.T) {
	h := newAPIHarness(t, 10)

	completed := make(chan struct{})
	var once sync.Once
	h.jobRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Job")).Return(nil)
	h.jobRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Job")).
		Run(func(args mock.Arguments) {
			if args.Get(1).(*model.Job).Status == model.JobStatusCompleted {
				once.Do(func() { close(completed) })
			}
		}).Return(nil)
	h.leadRepo.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, apperrors.ErrNotFound)
	h.leadRepo.On("FindByPhone", mock.Anything, mock.Anything).Return(nil, apperrors.ErrNotFound)
	h.leadRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Lead")).Return(nil)

	rec, env := h.do(t, http.MethodPost, "/api/scraper/start", map[string]int{"count": 2})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["jobId"])

	select {
	case <-completed:
	case <-time.After(5 * time.Second):
		t.Fatal("scraper job did not complete")
	}
	waitForIdle(t, h)
}

func TestSchedulerLifecycleEndpoints(t *testing.T) {
	h := newAPIHarness(t, 10)
	h.jobRepo.On("FindLatestByType", mock.Anything, model.JobTypeMessaging).Return(nil, apperrors.ErrNotFound)

	rec, env := h.do(t, http.MethodGet, "/api/scheduler/status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := env.Data.(map[string]interface{})
	assert.Equal(t, scheduler.StatusStopped, data["schedulerStatus"])
	assert.Equal(t, float64(0), data["dailyLeadsSentToday"])
	assert.Equal(t, float64(10), data["dailyLimit"])

	rec, env = h.do(t, http.MethodPost, "/api/scheduler/start", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, scheduler.StatusRunning, env.Data.(map[string]interface{})["schedulerStatus"])

	rec, env = h.do(t, http.MethodPost, "/api/scheduler/stop", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, scheduler.StatusStopped, env.Data.(map[string]interface{})["schedulerStatus"])
}

func TestStartDailyJob_Accepted(t *testing.T) {
	h := newAPIHarness(t, 10)

	completed := make(chan struct{})
	var once sync.Once
	h.jobRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Job")).Return(nil)
	h.jobRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Job")).
		Run(func(args mock.Arguments) {
			if args.Get(1).(*model.Job).Status == model.JobStatusCompleted {
				once.Do(func() { close(completed) })
			}
		}).Return(nil)
	h.leadRepo.On("FindEligible", mock.Anything, mock.Anything).Return([]model.Lead{}, nil)

	rec, env := h.do(t, http.MethodPost, "/api/scheduler/start-daily-job", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "success", env.Status)

	select {
	case <-completed:
	case <-time.After(5 * time.Second):
		t.Fatal("daily outreach job did not complete")
	}
	waitForIdle(t, h)
}

// waitForIdle blocks until the dispatcher finishes its current tasks so
// background goroutines stop logging before the test logger closes.
func waitForIdle(t *testing.T, h *apiHarness) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.server.dispatcher.Running() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestInvalidJSONBody(t *testing.T) {
	h := newAPIHarness(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateMessage(t *testing.T) {
	h := newAPIHarness(t, 10)
	lead := &model.Lead{ID: "lead-1", Name: "Jordan", Company: "Acme"}
	h.leadRepo.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)
	h.responseRepo.On("FindByLeadID", mock.Anything, "lead-1", 3).Return([]model.Response{}, nil)

	rec, env := h.do(t, http.MethodPost, "/api/ai/generate-message", map[string]interface{}{
		"leadId": "lead-1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	data := env.Data.(map[string]interface{})
	assert.Contains(t, data["message"], "Jordan")
}

func TestExtractKeyPoints_MissingText(t *testing.T) {
	h := newAPIHarness(t, 10)

	rec, _ := h.do(t, http.MethodPost, "/api/ai/extract-key-points", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
