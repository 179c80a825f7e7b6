package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
)

func TestPostgresRepo_SaveJob_Success(t *testing.T) {
	repo, mock, teardown := newTestRepo(t)
	t.Cleanup(teardown)

	job := &model.Job{JobType: model.JobTypeMessaging}

	mock.ExpectExec(`INSERT INTO "jobs"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveJob(context.Background(), job)
	assert.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, model.JobStatusPending, job.Status)
}

func TestPostgresRepo_UpdateJob(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		job := model.NewJob(&model.Job{ID: "job-1", JobType: model.JobTypeMessaging, Status: model.JobStatusCompleted, LeadsSent: 3})
		mock.ExpectExec(`UPDATE "jobs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateJob(context.Background(), job)
		assert.NoError(t, err)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		job := model.NewJob(&model.Job{ID: "job-404", JobType: model.JobTypeScraper, Status: model.JobStatusFailed})
		mock.ExpectExec(`UPDATE "jobs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateJob(context.Background(), job)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestPostgresRepo_FindLatestJobByType(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		now := utils.Now()
		cols := []string{"id", "job_type", "status", "leads_processed", "leads_sent", "created_at"}
		rows := sqlmock.NewRows(cols).AddRow("job-7", model.JobTypeMessaging, model.JobStatusCompleted, 10, 8, now)
		mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE job_type = \$1`).
			WithArgs(model.JobTypeMessaging, 1).
			WillReturnRows(rows)

		job, err := repo.FindLatestJobByType(context.Background(), model.JobTypeMessaging)
		assert.NoError(t, err)
		assert.Equal(t, "job-7", job.ID)
		assert.Equal(t, 8, job.LeadsSent)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE job_type = \$1`).
			WithArgs(model.JobTypeSummary, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		job, err := repo.FindLatestJobByType(context.Background(), model.JobTypeSummary)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Nil(t, job)
	})
}
