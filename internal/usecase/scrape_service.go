package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/observer"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
)

const (
	defaultScrapeCount = 10
	maxScrapeCount     = 100
	scraperSource      = "scraper"
)

func normalizeScrapeCount(count int) int {
	if count <= 0 {
		return defaultScrapeCount
	}
	if count > maxScrapeCount {
		return maxScrapeCount
	}
	return count
}

// StartScrape creates the job record for a discovery run so the API can
// hand the ID back before the run happens in the background.
func (s *Service) StartScrape(ctx context.Context, count int) (*model.Job, error) {
	job := &model.Job{
		JobType: model.JobTypeScraper,
		Status:  model.JobStatusPending,
		Details: datatypes.JSON(utils.MustMarshalJSON(map[string]int{
			"requested": normalizeScrapeCount(count),
		})),
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create scraper job: %w", err)
	}
	return job, nil
}

// ExecuteScrape performs a lead discovery run for a previously created job:
// it generates plausible lead records and stores the ones not already
// known. Discovery runs outside the send quota; new leads just wait for the
// next outreach batch.
func (s *Service) ExecuteScrape(ctx context.Context, job *model.Job, count int) error {
	count = normalizeScrapeCount(count)

	start := utils.Now()
	job.Status = model.JobStatusInProgress
	job.StartedAt = &start
	if err := s.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to mark scraper job in progress: %w", err)
	}

	created := 0
	duplicates := 0
	for i := 0; i < count; i++ {
		lead := generateLead()
		switch err := s.storeDiscoveredLead(ctx, lead); {
		case err == nil:
			created++
			observer.IncLeadDiscovered("created")
			s.events.LeadCreated(ctx, lead)
		case apperrors.IsDuplicateError(err):
			duplicates++
			observer.IncLeadDiscovered("duplicate")
		default:
			observer.IncLeadDiscovered("invalid")
			logger.FromContext(ctx).Warn("Failed to store discovered lead",
				zap.String("email", lead.Email),
				zap.Error(err),
			)
		}
	}

	now := utils.Now()
	job.Status = model.JobStatusCompleted
	job.LeadsProcessed = count
	job.CompletedAt = &now
	job.Details = datatypes.JSON(utils.MustMarshalJSON(map[string]int{
		"created":    created,
		"duplicates": duplicates,
	}))
	if err := s.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to finalize scraper job: %w", err)
	}

	observer.IncJobFinished(model.JobTypeScraper, model.JobStatusCompleted)
	observer.ObserveJobDuration(model.JobTypeScraper, time.Since(start))
	s.events.JobCompleted(ctx, job)
	logger.FromContext(ctx).Info("Scraper run completed",
		zap.String("job_id", job.ID),
		zap.Int("generated", count),
		zap.Int("created", created),
		zap.Int("duplicates", duplicates),
	)
	return nil
}

// RunScraper runs a discovery job synchronously end to end.
func (s *Service) RunScraper(ctx context.Context, count int) (*model.Job, error) {
	job, err := s.StartScrape(ctx, count)
	if err != nil {
		return nil, err
	}
	if err := s.ExecuteScrape(ctx, job, count); err != nil {
		return job, err
	}
	return job, nil
}

// storeDiscoveredLead saves a lead unless its email or phone is already in
// the store. The unique indexes are the backstop for concurrent runs.
func (s *Service) storeDiscoveredLead(ctx context.Context, lead *model.Lead) error {
	if lead.Email != "" {
		if _, err := s.leadRepo.FindByEmail(ctx, lead.Email); err == nil {
			return apperrors.ErrDuplicate
		} else if !apperrors.IsNotFoundError(err) {
			return err
		}
	}
	if lead.Phone != "" {
		if _, err := s.leadRepo.FindByPhone(ctx, lead.Phone); err == nil {
			return apperrors.ErrDuplicate
		} else if !apperrors.IsNotFoundError(err) {
			return err
		}
	}
	return s.leadRepo.Save(ctx, lead)
}

// generateLead fabricates a realistic-looking lead record.
func generateLead() *model.Lead {
	name := gofakeit.Name()
	company := gofakeit.Company()
	scraped := utils.Now()
	lead := &model.Lead{
		Name:        name,
		Company:     company,
		Source:      scraperSource,
		SourceURL:   "https://" + gofakeit.DomainName() + "/company/" + strings.ToLower(strings.ReplaceAll(company, " ", "-")),
		DateScraped: &scraped,
		Status:      model.LeadStatusNew,
		Email:       strings.ToLower(gofakeit.Username()) + "@" + gofakeit.DomainName(),
	}
	// Roughly a third of discovered leads come with a phone number, which
	// routes them to the WhatsApp channel.
	if gofakeit.Number(0, 2) == 0 {
		lead.Phone = "+62" + gofakeit.DigitN(10)
	}
	return lead
}

// GetJob fetches a job record by ID.
func (s *Service) GetJob(ctx context.Context, id string) (*model.Job, error) {
	return s.jobRepo.FindByID(ctx, id)
}

// GetLatestJob fetches the most recent job of the given type.
func (s *Service) GetLatestJob(ctx context.Context, jobType string) (*model.Job, error) {
	return s.jobRepo.FindLatestByType(ctx, jobType)
}

// ListJobs returns a page of job records, optionally filtered by type.
func (s *Service) ListJobs(ctx context.Context, jobType string, page, limit int) ([]model.Job, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.jobRepo.FindPaginated(ctx, jobType, limit, (page-1)*limit)
}
