package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/observer"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
)

// --- Job Repository Methods ---

// SaveJob inserts a new job record.
func (r *PostgresRepo) SaveJob(ctx context.Context, job *model.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}

	operation := func() error {
		if createErr := r.db.WithContext(ctx).Create(job).Error; createErr != nil {
			return checkConstraintViolation(createErr)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveJob", operation)
	observer.ObserveDbOperationDuration("save", "job", time.Since(startTime), commitErr)
	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save job after retries", zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// UpdateJob updates an existing job record by primary key.
func (r *PostgresRepo) UpdateJob(ctx context.Context, job *model.Job) error {
	job.UpdatedAt = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Job{}).
			Where("id = ?", job.ID).
			Updates(job)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return backoff.Permanent(fmt.Errorf("%w: job_id %s", apperrors.ErrNotFound, job.ID))
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateJob", operation)
	observer.ObserveDbOperationDuration("update", "job", time.Since(startTime), commitErr)
	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to update job after retries",
			zap.String("job_id", job.ID),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// FindJobByID finds a job by its ID.
func (r *PostgresRepo) FindJobByID(ctx context.Context, id string) (*model.Job, error) {
	loggerCtx := logger.FromContext(ctx)

	var job model.Job
	operation := func() error {
		result := r.db.WithContext(ctx).Where("id = ?", id).First(&job)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: job_id %s: %w", apperrors.ErrNotFound, id, result.Error)
			}
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindJobByID", operation)
	observer.ObserveDbOperationDuration("find_by_id", "job", time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		loggerCtx.Error("Failed to find job by ID after retries",
			zap.String("job_id", id),
			zap.Error(findErr))
		return nil, findErr
	}
	return &job, nil
}

// FindLatestJobByType returns the most recently created job of the given type.
func (r *PostgresRepo) FindLatestJobByType(ctx context.Context, jobType string) (*model.Job, error) {
	loggerCtx := logger.FromContext(ctx)

	var job model.Job
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("job_type = ?", jobType).
			Order("created_at DESC").
			First(&job)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: job_type %s: %w", apperrors.ErrNotFound, jobType, result.Error)
			}
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindLatestJobByType", operation)
	observer.ObserveDbOperationDuration("find_latest", "job", time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		loggerCtx.Error("Failed to find latest job by type after retries",
			zap.String("job_type", jobType),
			zap.Error(findErr))
		return nil, findErr
	}
	return &job, nil
}

// FindJobsPaginated lists jobs, newest first, optionally filtered by type.
func (r *PostgresRepo) FindJobsPaginated(ctx context.Context, jobType string, limit, offset int) ([]model.Job, error) {
	loggerCtx := logger.FromContext(ctx)

	var jobs []model.Job
	operation := func() error {
		query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset)
		if jobType != "" {
			query = query.Where("job_type = ?", jobType)
		}
		result := query.Find(&jobs)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindJobsPaginated", operation)
	observer.ObserveDbOperationDuration("list", "job", time.Since(startTime), findErr)

	if findErr != nil {
		loggerCtx.Error("Failed to list jobs after retries",
			zap.String("job_type", jobType),
			zap.Error(findErr))
		return nil, findErr
	}
	if jobs == nil {
		return []model.Job{}, nil
	}
	return jobs, nil
}
