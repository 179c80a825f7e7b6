package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
)

// --- LeadRepo Mock ---

// LeadRepoMock mocks the LeadRepo interface
type LeadRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *LeadRepoMock) Save(ctx context.Context, lead *model.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

// Update mocks the Update method
func (m *LeadRepoMock) Update(ctx context.Context, lead *model.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

// UpdateStatus mocks the UpdateStatus method
func (m *LeadRepoMock) UpdateStatus(ctx context.Context, id, status string, lastContacted *time.Time) error {
	args := m.Called(ctx, id, status, lastContacted)
	return args.Error(0)
}

// FindByID mocks the FindByID method
func (m *LeadRepoMock) FindByID(ctx context.Context, id string) (*model.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lead), args.Error(1)
}

// FindByPhone mocks the FindByPhone method
func (m *LeadRepoMock) FindByPhone(ctx context.Context, phone string) (*model.Lead, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lead), args.Error(1)
}

// FindByEmail mocks the FindByEmail method
func (m *LeadRepoMock) FindByEmail(ctx context.Context, email string) (*model.Lead, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lead), args.Error(1)
}

// FindEligible mocks the FindEligible method
func (m *LeadRepoMock) FindEligible(ctx context.Context, limit int) ([]model.Lead, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

// FindByStatusPaginated mocks the FindByStatusPaginated method
func (m *LeadRepoMock) FindByStatusPaginated(ctx context.Context, status string, limit, offset int) ([]model.Lead, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

// Delete mocks the Delete method
func (m *LeadRepoMock) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *LeadRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- ResponseRepo Mock ---

// ResponseRepoMock mocks the ResponseRepo interface
type ResponseRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *ResponseRepoMock) Save(ctx context.Context, response *model.Response) error {
	args := m.Called(ctx, response)
	return args.Error(0)
}

// FindByLeadID mocks the FindByLeadID method
func (m *ResponseRepoMock) FindByLeadID(ctx context.Context, leadID string, limit int) ([]model.Response, error) {
	args := m.Called(ctx, leadID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Response), args.Error(1)
}

// CountOutgoingSentSince mocks the CountOutgoingSentSince method
func (m *ResponseRepoMock) CountOutgoingSentSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ResponseRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- JobRepo Mock ---

// JobRepoMock mocks the JobRepo interface
type JobRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *JobRepoMock) Save(ctx context.Context, job *model.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// Update mocks the Update method
func (m *JobRepoMock) Update(ctx context.Context, job *model.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// FindByID mocks the FindByID method
func (m *JobRepoMock) FindByID(ctx context.Context, id string) (*model.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

// FindLatestByType mocks the FindLatestByType method
func (m *JobRepoMock) FindLatestByType(ctx context.Context, jobType string) (*model.Job, error) {
	args := m.Called(ctx, jobType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

// FindPaginated mocks the FindPaginated method
func (m *JobRepoMock) FindPaginated(ctx context.Context, jobType string, limit, offset int) ([]model.Job, error) {
	args := m.Called(ctx, jobType, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Job), args.Error(1)
}

func (m *JobRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- SummaryRepo Mock ---

// SummaryRepoMock mocks the SummaryRepo interface
type SummaryRepoMock struct {
	mock.Mock
}

// Upsert mocks the Upsert method
func (m *SummaryRepoMock) Upsert(ctx context.Context, summary *model.Summary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

// FindByLeadID mocks the FindByLeadID method
func (m *SummaryRepoMock) FindByLeadID(ctx context.Context, leadID string) (*model.Summary, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Summary), args.Error(1)
}

func (m *SummaryRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
