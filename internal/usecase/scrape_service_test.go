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

func TestRunScraper_CreatesLeads(t *testing.T) {
	h := newHarness(t, 10)
	h.expectJobLifecycle()

	h.leadRepo.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, apperrors.ErrNotFound)
	h.leadRepo.On("FindByPhone", mock.Anything, mock.Anything).Return(nil, apperrors.ErrNotFound)

	var saved []*model.Lead
	h.leadRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Lead")).
		Run(func(args mock.Arguments) {
			saved = append(saved, args.Get(1).(*model.Lead))
		}).Return(nil)

	job, err := h.svc.RunScraper(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, 5, job.LeadsProcessed)
	assert.Len(t, saved, 5)
	for _, lead := range saved {
		assert.Equal(t, "scraper", lead.Source)
		assert.Equal(t, model.LeadStatusNew, lead.Status)
		assert.NotEmpty(t, lead.Name)
		assert.NotEmpty(t, lead.Email)
		assert.NotEmpty(t, lead.SourceURL)
		require.NotNil(t, lead.DateScraped)
	}

	var details map[string]int
	require.NoError(t, utils.UnmarshalJSON(job.Details, &details))
	assert.Equal(t, 5, details["created"])
	assert.Equal(t, 0, details["duplicates"])
}

func TestRunScraper_SkipsDuplicates(t *testing.T) {
	h := newHarness(t, 10)
	h.expectJobLifecycle()

	// Every generated email is already known.
	h.leadRepo.On("FindByEmail", mock.Anything, mock.Anything).Return(&model.Lead{ID: "existing"}, nil)

	job, err := h.svc.RunScraper(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	h.leadRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	var details map[string]int
	require.NoError(t, utils.UnmarshalJSON(job.Details, &details))
	assert.Equal(t, 0, details["created"])
	assert.Equal(t, 3, details["duplicates"])
}

func TestRunScraper_DefaultAndMaxCount(t *testing.T) {
	h := newHarness(t, 10)
	h.expectJobLifecycle()

	h.leadRepo.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, apperrors.ErrNotFound)
	h.leadRepo.On("FindByPhone", mock.Anything, mock.Anything).Return(nil, apperrors.ErrNotFound)
	h.leadRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Lead")).Return(nil)

	job, err := h.svc.RunScraper(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, defaultScrapeCount, job.LeadsProcessed)

	job, err = h.svc.RunScraper(context.Background(), 5000)
	require.NoError(t, err)
	assert.Equal(t, maxScrapeCount, job.LeadsProcessed)
}

func TestGenerateLead(t *testing.T) {
	for i := 0; i < 20; i++ {
		lead := generateLead()
		assert.NotEmpty(t, lead.Name)
		assert.NotEmpty(t, lead.Email)
		assert.Contains(t, lead.Email, "@")
		assert.Equal(t, "scraper", lead.Source)
		assert.Regexp(t, `^https://`, lead.SourceURL)
		assert.NotNil(t, lead.DateScraped)
		if lead.Phone != "" {
			assert.Regexp(t, `^\+62\d{10}$`, lead.Phone)
		}
	}
}
