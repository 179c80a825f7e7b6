package quota

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/observer"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
)

// Tracker enforces the daily outbound message quota. The counter rolls over
// automatically when the UTC calendar date changes, so a reset missed by the
// scheduler cannot leak quota across days.
type Tracker struct {
	mu     sync.Mutex
	limit  int
	sent   int
	dayKey string

	// now is injectable for tests
	now func() time.Time
}

// NewTracker creates a Tracker with the given daily limit.
func NewTracker(limit int) *Tracker {
	t := &Tracker{
		limit: limit,
		now:   utils.Now,
	}
	t.dayKey = utils.DayKey(t.now())
	observer.SetQuotaRemaining(t.remainingLocked())
	return t
}

// NewTrackerAt creates a Tracker with an injectable clock. Used by tests.
func NewTrackerAt(limit int, now func() time.Time) *Tracker {
	t := &Tracker{
		limit: limit,
		now:   now,
	}
	t.dayKey = utils.DayKey(t.now())
	return t
}

// Seed sets the sent counter for the current day, e.g. from a database count
// at boot. Values above the limit are kept as-is so Remaining clamps to zero.
func (t *Tracker) Seed(sent int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	t.sent = sent
	observer.SetQuotaRemaining(t.remainingLocked())
}

// Limit returns the configured daily limit.
func (t *Tracker) Limit() int {
	return t.limit
}

// SentToday returns the number of sends recorded for the current UTC day.
func (t *Tracker) SentToday() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	return t.sent
}

// Remaining returns how many sends are still allowed today.
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	return t.remainingLocked()
}

// TryReserve atomically consumes one unit of quota. It returns false when the
// day's quota is exhausted.
func (t *Tracker) TryReserve() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	if t.sent >= t.limit {
		return false
	}
	t.sent++
	observer.SetQuotaRemaining(t.remainingLocked())
	return true
}

// Release returns one unit of quota, used when a reserved send was not
// actually delivered.
func (t *Tracker) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	if t.sent > 0 {
		t.sent--
	}
	observer.SetQuotaRemaining(t.remainingLocked())
}

// ResetIfNewDay forces a rollover check. The midnight cron calls this; the
// check also runs inline on every read so the cron is belt only.
func (t *Tracker) ResetIfNewDay() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
}

// Reset clears today's counter unconditionally.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = 0
	t.dayKey = utils.DayKey(t.now())
	observer.SetQuotaRemaining(t.remainingLocked())
	if logger.Log != nil {
		logger.Log.Info("Daily send quota reset", zap.Int("limit", t.limit))
	}
}

func (t *Tracker) rolloverLocked() {
	key := utils.DayKey(t.now())
	if key != t.dayKey {
		t.dayKey = key
		t.sent = 0
		observer.SetQuotaRemaining(t.remainingLocked())
	}
}

func (t *Tracker) remainingLocked() int {
	remaining := t.limit - t.sent
	if remaining < 0 {
		return 0
	}
	return remaining
}
