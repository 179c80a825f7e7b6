package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/observer"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
)

// --- Response Repository Methods ---

// SaveResponse appends a message record for a lead. Rows are never updated.
func (r *PostgresRepo) SaveResponse(ctx context.Context, response *model.Response) error {
	if response.ID == "" {
		response.ID = uuid.New().String()
	}

	operation := func() error {
		if createErr := r.db.WithContext(ctx).Create(response).Error; createErr != nil {
			return checkConstraintViolation(createErr)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveResponse", operation)
	observer.ObserveDbOperationDuration("save", "response", time.Since(startTime), commitErr)
	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save response after retries",
			zap.String("lead_id", response.LeadID),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// FindResponsesByLeadID returns up to limit messages for a lead, newest first.
// A limit of 0 returns the full history.
func (r *PostgresRepo) FindResponsesByLeadID(ctx context.Context, leadID string, limit int) ([]model.Response, error) {
	loggerCtx := logger.FromContext(ctx)

	var responses []model.Response
	operation := func() error {
		query := r.db.WithContext(ctx).
			Where("lead_id = ?", leadID).
			Order("created_at DESC")
		if limit > 0 {
			query = query.Limit(limit)
		}
		result := query.Find(&responses)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindResponsesByLeadID", operation)
	observer.ObserveDbOperationDuration("find_by_lead", "response", time.Since(startTime), findErr)

	if findErr != nil {
		loggerCtx.Error("Failed to find responses by lead after retries",
			zap.String("lead_id", leadID),
			zap.Error(findErr))
		return nil, findErr
	}
	if responses == nil {
		return []model.Response{}, nil
	}
	return responses, nil
}

// CountOutgoingSentSince counts outgoing responses with status 'sent' created
// at or after the given time. Used to rehydrate the daily quota at boot.
func (r *PostgresRepo) CountOutgoingSentSince(ctx context.Context, since time.Time) (int64, error) {
	loggerCtx := logger.FromContext(ctx)

	var count int64
	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Response{}).
			Where("direction = ? AND status = ? AND created_at >= ?", model.DirectionOutgoing, model.ResponseStatusSent, since).
			Count(&count)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "CountOutgoingSentSince", operation)
	observer.ObserveDbOperationDuration("count_sent", "response", time.Since(startTime), findErr)

	if findErr != nil {
		loggerCtx.Error("Failed to count sent responses after retries",
			zap.Time("since", since),
			zap.Error(findErr))
		return 0, findErr
	}
	return count, nil
}
