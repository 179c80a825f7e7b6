package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/channel"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/observer"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
)

// RunDailyOutreach executes one outreach batch: it picks eligible leads up
// to the remaining daily quota, composes a message for each and delivers it
// over the lead's preferred channel. A delivery failure is logged and the
// run keeps going; a storage failure after a delivery aborts the run and
// marks the job failed. The returned job records what happened either way.
func (s *Service) RunDailyOutreach(ctx context.Context) (*model.Job, error) {
	start := utils.Now()
	log := logger.FromContext(ctx)

	s.quota.ResetIfNewDay()

	job := &model.Job{
		JobType:   model.JobTypeMessaging,
		Status:    model.JobStatusInProgress,
		StartedAt: &start,
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create outreach job: %w", err)
	}

	remaining := s.quota.Remaining()
	if remaining == 0 {
		log.Info("Daily quota exhausted, nothing to send",
			zap.Int("daily_limit", s.quota.Limit()),
		)
		return s.finishJob(ctx, job, 0, 0, "daily quota exhausted")
	}

	leads, err := s.leadRepo.FindEligible(ctx, remaining)
	if err != nil {
		s.failJob(ctx, job, fmt.Sprintf("failed to load eligible leads: %v", err))
		return job, err
	}
	if len(leads) == 0 {
		log.Info("No eligible leads for outreach run")
		return s.finishJob(ctx, job, 0, 0, "no eligible leads")
	}

	log.Info("Starting outreach run",
		zap.String("job_id", job.ID),
		zap.Int("eligible_leads", len(leads)),
		zap.Int("quota_remaining", remaining),
	)

	processed := 0
	sent := 0
	for i := range leads {
		lead := &leads[i]

		if !s.quota.TryReserve() {
			log.Info("Quota reached mid-run, stopping",
				zap.String("job_id", job.ID),
				zap.Int("sent", sent),
			)
			break
		}
		processed++

		if err := s.contactLead(ctx, lead); err != nil {
			if apperrors.IsDatabaseError(err) {
				// The message went out but the books did not balance. The
				// slot stays consumed and the run aborts so the delivered
				// send cannot be repeated against a stale lead state.
				job.LeadsProcessed = processed
				job.LeadsSent = sent
				s.failJob(ctx, job, fmt.Sprintf("outreach aborted on lead %s: %v", lead.ID, err))
				return job, err
			}
			s.quota.Release()
			log.Warn("Failed to contact lead, continuing with next",
				zap.String("lead_id", lead.ID),
				zap.Error(err),
			)
		} else {
			sent++
		}

		// Pause after every lead, success or not, to keep send pacing
		// indistinguishable from a human operator.
		s.pace()
	}

	observer.ObserveJobDuration(model.JobTypeMessaging, time.Since(start))
	return s.finishJob(ctx, job, processed, sent, "")
}

// contactLead composes, delivers and records a single outreach message.
func (s *Service) contactLead(ctx context.Context, lead *model.Lead) error {
	channelName := lead.PreferredChannel()
	adapter := s.channels.Get(channelName)
	if adapter == nil {
		return fmt.Errorf("no adapter registered for channel %q", channelName)
	}

	body := s.composer.ComposeOutreach(ctx, lead, nil)
	externalID, err := adapter.Send(ctx, channel.OutboundMessage{Lead: lead, Body: body})
	observer.IncMessageSent(channelName, err)
	if err != nil {
		// Nothing is persisted for a failed delivery; the lead stays
		// eligible for the next run.
		return err
	}

	response := &model.Response{
		LeadID:            lead.ID,
		Channel:           channelName,
		Direction:         model.DirectionOutgoing,
		MessageContent:    body,
		Status:            model.ResponseStatusSent,
		ExternalMessageID: externalID,
	}
	if err := s.responseRepo.Save(ctx, response); err != nil {
		return fmt.Errorf("%w: message sent but failed to record response: %w", apperrors.ErrDatabase, err)
	}

	now := utils.Now()
	if err := s.leadRepo.UpdateStatus(ctx, lead.ID, model.LeadStatusContacted, &now); err != nil {
		return fmt.Errorf("%w: message sent but failed to update lead: %w", apperrors.ErrDatabase, err)
	}

	s.events.MessageSent(ctx, response)
	logger.FromContext(ctx).Info("Outreach message delivered",
		zap.String("lead_id", lead.ID),
		zap.String("channel", channelName),
	)
	return nil
}

func (s *Service) finishJob(ctx context.Context, job *model.Job, processed, sent int, note string) (*model.Job, error) {
	now := utils.Now()
	job.Status = model.JobStatusCompleted
	job.LeadsProcessed = processed
	job.LeadsSent = sent
	job.CompletedAt = &now
	if note != "" {
		job.Details = datatypes.JSON(utils.MustMarshalJSON(map[string]string{"note": note}))
	}
	if err := s.jobRepo.Update(ctx, job); err != nil {
		logger.FromContext(ctx).Error("Failed to finalize job record",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return job, err
	}
	observer.IncJobFinished(job.JobType, job.Status)
	s.events.JobCompleted(ctx, job)
	logger.FromContext(ctx).Info("Job completed",
		zap.String("job_id", job.ID),
		zap.String("job_type", job.JobType),
		zap.Int("leads_processed", processed),
		zap.Int("leads_sent", sent),
	)
	return job, nil
}

func (s *Service) failJob(ctx context.Context, job *model.Job, message string) {
	now := utils.Now()
	job.Status = model.JobStatusFailed
	job.ErrorMessage = message
	job.CompletedAt = &now
	if err := s.jobRepo.Update(ctx, job); err != nil {
		logger.FromContext(ctx).Error("Failed to mark job as failed",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
	}
	observer.IncJobFinished(job.JobType, model.JobStatusFailed)
	s.events.JobCompleted(ctx, job)
}
