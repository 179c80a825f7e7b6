package storage

import (
	"context"
	"time"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
)

// LeadRepoAdapter adapts the PostgresRepo to the LeadRepo interface
type LeadRepoAdapter struct {
	postgres *PostgresRepo
}

// NewLeadRepoAdapter creates a new lead repository adapter
func NewLeadRepoAdapter(postgres *PostgresRepo) LeadRepo {
	return &LeadRepoAdapter{postgres: postgres}
}

// Save saves a lead
func (a *LeadRepoAdapter) Save(ctx context.Context, lead *model.Lead) error {
	return a.postgres.SaveLead(ctx, lead)
}

// Update updates a lead
func (a *LeadRepoAdapter) Update(ctx context.Context, lead *model.Lead) error {
	return a.postgres.UpdateLead(ctx, lead)
}

// UpdateStatus updates a lead's status
func (a *LeadRepoAdapter) UpdateStatus(ctx context.Context, id, status string, lastContacted *time.Time) error {
	return a.postgres.UpdateLeadStatus(ctx, id, status, lastContacted)
}

// FindByID finds a lead by ID
func (a *LeadRepoAdapter) FindByID(ctx context.Context, id string) (*model.Lead, error) {
	return a.postgres.FindLeadByID(ctx, id)
}

// FindByPhone finds a lead by phone number
func (a *LeadRepoAdapter) FindByPhone(ctx context.Context, phone string) (*model.Lead, error) {
	return a.postgres.FindLeadByPhone(ctx, phone)
}

// FindByEmail finds a lead by email address
func (a *LeadRepoAdapter) FindByEmail(ctx context.Context, email string) (*model.Lead, error) {
	return a.postgres.FindLeadByEmail(ctx, email)
}

// FindEligible finds leads eligible for outreach
func (a *LeadRepoAdapter) FindEligible(ctx context.Context, limit int) ([]model.Lead, error) {
	return a.postgres.FindEligibleLeads(ctx, limit)
}

// FindByStatusPaginated lists leads by status
func (a *LeadRepoAdapter) FindByStatusPaginated(ctx context.Context, status string, limit, offset int) ([]model.Lead, error) {
	return a.postgres.FindLeadsByStatusPaginated(ctx, status, limit, offset)
}

// Delete removes a lead
func (a *LeadRepoAdapter) Delete(ctx context.Context, id string) error {
	return a.postgres.DeleteLead(ctx, id)
}

func (a *LeadRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// ResponseRepoAdapter adapts the PostgresRepo to the ResponseRepo interface
type ResponseRepoAdapter struct {
	postgres *PostgresRepo
}

// NewResponseRepoAdapter creates a new response repository adapter
func NewResponseRepoAdapter(postgres *PostgresRepo) ResponseRepo {
	return &ResponseRepoAdapter{postgres: postgres}
}

// Save appends a message record
func (a *ResponseRepoAdapter) Save(ctx context.Context, response *model.Response) error {
	return a.postgres.SaveResponse(ctx, response)
}

// FindByLeadID finds messages for a lead
func (a *ResponseRepoAdapter) FindByLeadID(ctx context.Context, leadID string, limit int) ([]model.Response, error) {
	return a.postgres.FindResponsesByLeadID(ctx, leadID, limit)
}

// CountOutgoingSentSince counts sent outgoing messages since a point in time
func (a *ResponseRepoAdapter) CountOutgoingSentSince(ctx context.Context, since time.Time) (int64, error) {
	return a.postgres.CountOutgoingSentSince(ctx, since)
}

func (a *ResponseRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// JobRepoAdapter adapts the PostgresRepo to the JobRepo interface
type JobRepoAdapter struct {
	postgres *PostgresRepo
}

// NewJobRepoAdapter creates a new job repository adapter
func NewJobRepoAdapter(postgres *PostgresRepo) JobRepo {
	return &JobRepoAdapter{postgres: postgres}
}

// Save saves a job
func (a *JobRepoAdapter) Save(ctx context.Context, job *model.Job) error {
	return a.postgres.SaveJob(ctx, job)
}

// Update updates a job
func (a *JobRepoAdapter) Update(ctx context.Context, job *model.Job) error {
	return a.postgres.UpdateJob(ctx, job)
}

// FindByID finds a job by ID
func (a *JobRepoAdapter) FindByID(ctx context.Context, id string) (*model.Job, error) {
	return a.postgres.FindJobByID(ctx, id)
}

// FindLatestByType finds the most recent job of a type
func (a *JobRepoAdapter) FindLatestByType(ctx context.Context, jobType string) (*model.Job, error) {
	return a.postgres.FindLatestJobByType(ctx, jobType)
}

// FindPaginated lists jobs
func (a *JobRepoAdapter) FindPaginated(ctx context.Context, jobType string, limit, offset int) ([]model.Job, error) {
	return a.postgres.FindJobsPaginated(ctx, jobType, limit, offset)
}

func (a *JobRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// SummaryRepoAdapter adapts the PostgresRepo to the SummaryRepo interface
type SummaryRepoAdapter struct {
	postgres *PostgresRepo
}

// NewSummaryRepoAdapter creates a new summary repository adapter
func NewSummaryRepoAdapter(postgres *PostgresRepo) SummaryRepo {
	return &SummaryRepoAdapter{postgres: postgres}
}

// Upsert creates or replaces the summary for a lead
func (a *SummaryRepoAdapter) Upsert(ctx context.Context, summary *model.Summary) error {
	return a.postgres.UpsertSummary(ctx, summary)
}

// FindByLeadID finds the summary for a lead
func (a *SummaryRepoAdapter) FindByLeadID(ctx context.Context, leadID string) (*model.Summary, error) {
	return a.postgres.FindSummaryByLeadID(ctx, leadID)
}

func (a *SummaryRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// Ensure adapters implement the interfaces
var _ LeadRepo = (*LeadRepoAdapter)(nil)
var _ ResponseRepo = (*ResponseRepoAdapter)(nil)
var _ JobRepo = (*JobRepoAdapter)(nil)
var _ SummaryRepo = (*SummaryRepoAdapter)(nil)
