package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/observer"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
)

// --- Summary Repository Methods ---

// UpsertSummary creates or replaces the summary for a lead. One row per lead
// is enforced by the unique index on lead_id.
func (r *PostgresRepo) UpsertSummary(ctx context.Context, summary *model.Summary) error {
	if summary.ID == "" {
		summary.ID = uuid.New().String()
	}
	summary.UpdatedAt = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lead_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"conversation_summary", "key_points", "updated_at"}),
		}).Create(summary)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpsertSummary", operation)
	observer.ObserveDbOperationDuration("upsert", "summary", time.Since(startTime), commitErr)
	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to upsert summary after retries",
			zap.String("lead_id", summary.LeadID),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// FindSummaryByLeadID finds the summary for a lead.
func (r *PostgresRepo) FindSummaryByLeadID(ctx context.Context, leadID string) (*model.Summary, error) {
	loggerCtx := logger.FromContext(ctx)

	var summary model.Summary
	operation := func() error {
		result := r.db.WithContext(ctx).Where("lead_id = ?", leadID).First(&summary)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: lead_id %s: %w", apperrors.ErrNotFound, leadID, result.Error)
			}
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindSummaryByLeadID", operation)
	observer.ObserveDbOperationDuration("find_by_lead", "summary", time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		loggerCtx.Error("Failed to find summary by lead after retries",
			zap.String("lead_id", leadID),
			zap.Error(findErr))
		return nil, findErr
	}
	return &summary, nil
}
