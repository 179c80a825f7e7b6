package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/config"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/quota"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
)

const (
	StatusRunning = "running"
	StatusStopped = "stopped"
)

// Scheduler drives the daily outreach run. The outreach cron can be started
// and stopped through the API; the quota reset cron always runs so the
// counter rolls over at midnight UTC even while outreach is paused.
type Scheduler struct {
	runOutreach func(ctx context.Context)

	mu       sync.Mutex
	outreach *cron.Cron
	running  bool

	quotaCron *cron.Cron
	spec      string
	location  *time.Location
}

// New builds a scheduler from the outreach config. It does not start
// anything; call Start (or let main do it when autoStart is on).
func New(cfg config.OutreachConfig, tracker *quota.Tracker, runOutreach func(ctx context.Context)) (*Scheduler, error) {
	spec, err := cronSpecFromRunAt(cfg.RunAt)
	if err != nil {
		return nil, err
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid outreach timezone %q: %w", cfg.Timezone, err)
	}

	s := &Scheduler{
		runOutreach: runOutreach,
		spec:        spec,
		location:    location,
		quotaCron:   cron.New(cron.WithLocation(time.UTC)),
	}

	if _, err := s.quotaCron.AddFunc("0 0 * * *", func() {
		logger.Log.Info("Resetting daily quota at UTC midnight")
		tracker.ResetIfNewDay()
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule quota reset: %w", err)
	}
	s.quotaCron.Start()

	return s, nil
}

// Start activates the daily outreach cron. It is a no-op while running.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	c := cron.New(cron.WithLocation(s.location))
	if _, err := c.AddFunc(s.spec, s.runOutreachSafely); err != nil {
		return fmt.Errorf("failed to schedule outreach run: %w", err)
	}
	c.Start()

	s.outreach = c
	s.running = true
	logger.Log.Info("Outreach scheduler started",
		zap.String("spec", s.spec),
		zap.String("timezone", s.location.String()),
	)
	return nil
}

// runOutreachSafely shields the cron loop from the runner: a panic in one
// invocation is logged and the schedule entry stays registered.
func (s *Scheduler) runOutreachSafely() {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("Outreach run panicked", zap.Any("panic", r))
		}
	}()

	ctx := logger.WithLogger(context.Background(), logger.Log.With(zap.String("trigger", "cron")))
	s.runOutreach(ctx)
}

// Stop halts the daily outreach cron. Quota resets keep running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.outreach.Stop()
	s.outreach = nil
	s.running = false
	logger.Log.Info("Outreach scheduler stopped")
}

// Status reports whether the outreach cron is active.
func (s *Scheduler) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return StatusRunning
	}
	return StatusStopped
}

// Shutdown stops all cron loops. Used during process shutdown.
func (s *Scheduler) Shutdown() {
	s.Stop()
	s.quotaCron.Stop()
}

// cronSpecFromRunAt converts an "HH:MM" wall-clock time into a cron spec.
func cronSpecFromRunAt(runAt string) (string, error) {
	parts := strings.Split(runAt, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid runAt %q, expected HH:MM", runAt)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid runAt hour in %q", runAt)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid runAt minute in %q", runAt)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
