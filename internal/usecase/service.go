package usecase

import (
	"math/rand"
	"time"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/channel"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/composer"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/config"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/events"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/quota"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/storage"
)

// replyHistoryLimit bounds how much conversation context feeds the AI when
// drafting an automatic reply.
const replyHistoryLimit = 10

// Service wires the outreach domain together: lead storage, delivery
// channels, AI composition, the daily quota and event publishing.
type Service struct {
	leadRepo     storage.LeadRepo
	responseRepo storage.ResponseRepo
	jobRepo      storage.JobRepo
	summaryRepo  storage.SummaryRepo

	channels *channel.Registry
	composer *composer.Composer
	quota    *quota.Tracker
	events   events.Publisher

	outreachCfg config.OutreachConfig

	// sleep and randInt are swapped out in tests so pacing delays do not
	// slow the suite down.
	sleep   func(d time.Duration)
	randInt func(n int) int
}

// NewService creates the outreach service.
func NewService(
	leadRepo storage.LeadRepo,
	responseRepo storage.ResponseRepo,
	jobRepo storage.JobRepo,
	summaryRepo storage.SummaryRepo,
	channels *channel.Registry,
	comp *composer.Composer,
	tracker *quota.Tracker,
	publisher events.Publisher,
	outreachCfg config.OutreachConfig,
) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		leadRepo:     leadRepo,
		responseRepo: responseRepo,
		jobRepo:      jobRepo,
		summaryRepo:  summaryRepo,
		channels:     channels,
		composer:     comp,
		quota:        tracker,
		events:       publisher,
		outreachCfg:  outreachCfg,
		sleep:        time.Sleep,
		randInt:      rand.Intn,
	}
}

// Quota exposes the daily quota tracker for status reporting.
func (s *Service) Quota() *quota.Tracker {
	return s.quota
}

// pace sleeps for a random interval between sends so outbound traffic does
// not look machine-generated to the receiving platforms.
func (s *Service) pace() {
	jitter := s.outreachCfg.PacingJitterMs
	if jitter <= 0 {
		jitter = 1
	}
	delay := time.Duration(s.randInt(jitter)+s.outreachCfg.PacingFloorMs) * time.Millisecond
	s.sleep(delay)
}
