package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/validator"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
)

// CreateLeadInput carries the fields accepted when registering a lead
// manually through the API.
type CreateLeadInput struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"omitempty,e164"`
	Company   string `json:"company"`
	Source    string `json:"source"`
	SourceURL string `json:"sourceUrl" validate:"omitempty,url"`
}

// CreateLead validates and stores a new lead. A lead needs at least one
// contact field so the outreach run can reach it later.
func (s *Service) CreateLead(ctx context.Context, input CreateLeadInput) (*model.Lead, error) {
	if err := validator.Validate(input); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	if input.Email == "" && input.Phone == "" {
		return nil, fmt.Errorf("%w: lead needs an email or phone number", apperrors.ErrValidation)
	}

	source := input.Source
	if source == "" {
		source = "manual"
	}

	lead := &model.Lead{
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Company:   input.Company,
		Source:    source,
		SourceURL: input.SourceURL,
		Status:    model.LeadStatusNew,
	}
	if err := s.leadRepo.Save(ctx, lead); err != nil {
		return nil, err
	}

	s.events.LeadCreated(ctx, lead)
	logger.FromContext(ctx).Info("Lead created",
		zap.String("lead_id", lead.ID),
		zap.String("source", lead.Source),
	)
	return lead, nil
}

// UpdateLeadInput carries the mutable lead fields. Nil pointers leave the
// stored value untouched.
type UpdateLeadInput struct {
	Name    *string `json:"name" validate:"omitempty,min=1"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" validate:"omitempty,e164"`
	Company *string `json:"company"`
	Status  *string `json:"status" validate:"omitempty,oneof=new contacted replied qualified unqualified"`
	Notes   *string `json:"notes"`
}

// UpdateLead patches an existing lead. The lead must stay contactable.
func (s *Service) UpdateLead(ctx context.Context, id string, input UpdateLeadInput) (*model.Lead, error) {
	if err := validator.Validate(input); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	lead, err := s.leadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		lead.Name = *input.Name
	}
	if input.Email != nil {
		lead.Email = *input.Email
	}
	if input.Phone != nil {
		lead.Phone = *input.Phone
	}
	if input.Company != nil {
		lead.Company = *input.Company
	}
	if input.Status != nil {
		lead.Status = *input.Status
	}
	if input.Notes != nil {
		lead.Notes = *input.Notes
	}

	if !lead.Contactable() {
		return nil, fmt.Errorf("%w: lead needs an email or phone number", apperrors.ErrValidation)
	}

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// DeleteLead removes a lead permanently.
func (s *Service) DeleteLead(ctx context.Context, id string) error {
	if err := s.leadRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("Lead deleted", zap.String("lead_id", id))
	return nil
}

// GetLead fetches a single lead by ID.
func (s *Service) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	return s.leadRepo.FindByID(ctx, id)
}

// ListLeads returns a page of leads, optionally filtered by status.
func (s *Service) ListLeads(ctx context.Context, status string, page, limit int) ([]model.Lead, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit
	return s.leadRepo.FindByStatusPaginated(ctx, status, limit, offset)
}
