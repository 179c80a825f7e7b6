package storage

import (
	"context"
	"time"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
)

// LeadRepo defines lead storage operations
type LeadRepo interface {
	Save(ctx context.Context, lead *model.Lead) error
	Update(ctx context.Context, lead *model.Lead) error
	UpdateStatus(ctx context.Context, id, status string, lastContacted *time.Time) error
	FindByID(ctx context.Context, id string) (*model.Lead, error)
	FindByPhone(ctx context.Context, phone string) (*model.Lead, error)
	FindByEmail(ctx context.Context, email string) (*model.Lead, error)
	FindEligible(ctx context.Context, limit int) ([]model.Lead, error)
	FindByStatusPaginated(ctx context.Context, status string, limit, offset int) ([]model.Lead, error)
	Delete(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

// ResponseRepo defines message history storage operations
type ResponseRepo interface {
	Save(ctx context.Context, response *model.Response) error
	FindByLeadID(ctx context.Context, leadID string, limit int) ([]model.Response, error)
	CountOutgoingSentSince(ctx context.Context, since time.Time) (int64, error)
	Close(ctx context.Context) error
}

// JobRepo defines background job storage operations
type JobRepo interface {
	Save(ctx context.Context, job *model.Job) error
	Update(ctx context.Context, job *model.Job) error
	FindByID(ctx context.Context, id string) (*model.Job, error)
	FindLatestByType(ctx context.Context, jobType string) (*model.Job, error)
	FindPaginated(ctx context.Context, jobType string, limit, offset int) ([]model.Job, error)
	Close(ctx context.Context) error
}

// SummaryRepo defines conversation summary storage operations
type SummaryRepo interface {
	Upsert(ctx context.Context, summary *model.Summary) error
	FindByLeadID(ctx context.Context, leadID string) (*model.Summary, error)
	Close(ctx context.Context) error
}
