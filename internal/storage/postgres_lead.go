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

// --- Lead Repository Methods ---

// SaveLead inserts a new lead record. The ID is generated when empty.
func (r *PostgresRepo) SaveLead(ctx context.Context, lead *model.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.Status == "" {
		lead.Status = model.LeadStatusNew
	}

	operation := func() error {
		if createErr := r.db.WithContext(ctx).Create(lead).Error; createErr != nil {
			return checkConstraintViolation(createErr)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveLead", operation)
	observer.ObserveDbOperationDuration("save", "lead", time.Since(startTime), commitErr)
	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save lead after retries", zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// UpdateLead updates an existing lead record by primary key.
func (r *PostgresRepo) UpdateLead(ctx context.Context, lead *model.Lead) error {
	lead.UpdatedAt = utils.Now()

	operation := func() error {
		// Struct updates skip zero values, so list the columns explicitly
		// to let callers clear a field.
		result := r.db.WithContext(ctx).Model(&model.Lead{}).
			Where("id = ?", lead.ID).
			Select("name", "email", "phone", "company", "source", "source_url", "date_scraped", "status", "last_contacted", "notes", "metadata", "updated_at").
			Updates(lead)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return backoff.Permanent(fmt.Errorf("%w: lead_id %s", apperrors.ErrNotFound, lead.ID))
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateLead", operation)
	observer.ObserveDbOperationDuration("update", "lead", time.Since(startTime), commitErr)
	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to update lead after retries",
			zap.String("lead_id", lead.ID),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// UpdateLeadStatus updates only the status (and optionally last_contacted) of a lead.
func (r *PostgresRepo) UpdateLeadStatus(ctx context.Context, id, status string, lastContacted *time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": utils.Now(),
	}
	if lastContacted != nil {
		updates["last_contacted"] = *lastContacted
	}

	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Lead{}).
			Where("id = ?", id).
			Updates(updates)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return backoff.Permanent(fmt.Errorf("%w: lead_id %s", apperrors.ErrNotFound, id))
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateLeadStatus", operation)
	observer.ObserveDbOperationDuration("update_status", "lead", time.Since(startTime), commitErr)
	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to update lead status after retries",
			zap.String("lead_id", id),
			zap.String("status", status),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// DeleteLead removes a lead by primary key.
func (r *PostgresRepo) DeleteLead(ctx context.Context, id string) error {
	operation := func() error {
		result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Lead{})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return backoff.Permanent(fmt.Errorf("%w: lead_id %s", apperrors.ErrNotFound, id))
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "DeleteLead", operation)
	observer.ObserveDbOperationDuration("delete", "lead", time.Since(startTime), commitErr)
	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to delete lead after retries",
			zap.String("lead_id", id),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// FindLeadByID finds a lead by its ID.
func (r *PostgresRepo) FindLeadByID(ctx context.Context, id string) (*model.Lead, error) {
	loggerCtx := logger.FromContext(ctx)

	var lead model.Lead
	operation := func() error {
		result := r.db.WithContext(ctx).Where("id = ?", id).First(&lead)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: lead_id %s: %w", apperrors.ErrNotFound, id, result.Error)
			}
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindLeadByID", operation)
	observer.ObserveDbOperationDuration("find_by_id", "lead", time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		loggerCtx.Error("Failed to find lead by ID after retries",
			zap.String("lead_id", id),
			zap.Error(findErr))
		return nil, findErr
	}
	return &lead, nil
}

// FindLeadByPhone finds a lead by its phone number.
func (r *PostgresRepo) FindLeadByPhone(ctx context.Context, phone string) (*model.Lead, error) {
	loggerCtx := logger.FromContext(ctx)

	var lead model.Lead
	operation := func() error {
		result := r.db.WithContext(ctx).Where("phone = ?", phone).First(&lead)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: phone %s: %w", apperrors.ErrNotFound, phone, result.Error)
			}
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindLeadByPhone", operation)
	observer.ObserveDbOperationDuration("find_by_phone", "lead", time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		loggerCtx.Error("Failed to find lead by phone after retries",
			zap.String("phone", phone),
			zap.Error(findErr))
		return nil, findErr
	}
	return &lead, nil
}

// FindLeadByEmail finds a lead by its email address.
func (r *PostgresRepo) FindLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	loggerCtx := logger.FromContext(ctx)

	var lead model.Lead
	operation := func() error {
		result := r.db.WithContext(ctx).Where("email = ?", email).First(&lead)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: email %s: %w", apperrors.ErrNotFound, email, result.Error)
			}
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindLeadByEmail", operation)
	observer.ObserveDbOperationDuration("find_by_email", "lead", time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		loggerCtx.Error("Failed to find lead by email after retries",
			zap.String("email", email),
			zap.Error(findErr))
		return nil, findErr
	}
	return &lead, nil
}

// FindEligibleLeads returns up to limit leads with status 'new' that have a
// phone number or email address, oldest first.
func (r *PostgresRepo) FindEligibleLeads(ctx context.Context, limit int) ([]model.Lead, error) {
	loggerCtx := logger.FromContext(ctx)

	var leads []model.Lead
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("status = ? AND (phone <> '' OR email <> '')", model.LeadStatusNew).
			Order("created_at ASC").
			Limit(limit).
			Find(&leads)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil // Success, even if no records found
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindEligibleLeads", operation)
	observer.ObserveDbOperationDuration("find_eligible", "lead", time.Since(startTime), findErr)

	if findErr != nil {
		loggerCtx.Error("Failed to find eligible leads after retries",
			zap.Int("limit", limit),
			zap.Error(findErr))
		return nil, findErr
	}
	if leads == nil { // Ensure empty slice is returned, not nil
		return []model.Lead{}, nil
	}
	return leads, nil
}

// FindLeadsByStatusPaginated lists leads filtered by status. An empty status
// returns all leads.
func (r *PostgresRepo) FindLeadsByStatusPaginated(ctx context.Context, status string, limit, offset int) ([]model.Lead, error) {
	loggerCtx := logger.FromContext(ctx)

	var leads []model.Lead
	operation := func() error {
		query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset)
		if status != "" {
			query = query.Where("status = ?", status)
		}
		result := query.Find(&leads)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindLeadsByStatusPaginated", operation)
	observer.ObserveDbOperationDuration("list", "lead", time.Since(startTime), findErr)

	if findErr != nil {
		loggerCtx.Error("Failed to list leads after retries",
			zap.String("status", status),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
			zap.Error(findErr))
		return nil, findErr
	}
	if leads == nil {
		return []model.Lead{}, nil
	}
	return leads, nil
}
