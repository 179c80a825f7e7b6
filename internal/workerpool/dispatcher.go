package workerpool

import (
	"context"
	"fmt"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/config"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
)

// task carries a named unit of work through the pool.
type task struct {
	name string
	fn   func(ctx context.Context)
}

// Dispatcher runs background jobs (scraper runs, daily outreach, summaries)
// on a bounded ants pool so HTTP handlers can return 202 immediately.
type Dispatcher struct {
	pool       *ants.PoolWithFunc
	baseLogger *zap.Logger
}

// NewDispatcher creates and initializes the background job pool.
func NewDispatcher(cfg config.JobWorkerPoolConfig, baseLogger *zap.Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		baseLogger: baseLogger.Named("job_dispatcher"),
	}

	pool, err := ants.NewPoolWithFunc(cfg.PoolSize, func(i interface{}) {
		t, ok := i.(task)
		if !ok {
			d.baseLogger.Error("Invalid task data type received", zap.Any("data", i))
			return
		}
		ctx := logger.WithLogger(context.Background(), d.baseLogger.With(zap.String("task", t.name)))
		t.fn(ctx)
	},
		ants.WithExpiryDuration(cfg.ExpiryTime),
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(cfg.QueueSize),
		ants.WithPanicHandler(func(err interface{}) {
			d.baseLogger.Error("Panic recovered in job worker", zap.Any("panic_error", err), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job worker pool: %w", err)
	}
	d.pool = pool
	d.baseLogger.Info("Job worker pool initialized",
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("queue_size", cfg.QueueSize),
		zap.Duration("expiry_time", cfg.ExpiryTime),
	)
	return d, nil
}

// Submit queues fn for execution. It blocks while the queue is full and
// returns ants.ErrPoolOverload once the blocking limit is reached.
func (d *Dispatcher) Submit(name string, fn func(ctx context.Context)) error {
	if err := d.pool.Invoke(task{name: name, fn: fn}); err != nil {
		return fmt.Errorf("failed to submit task %q: %w", name, err)
	}
	return nil
}

// Running returns the number of workers currently executing tasks.
func (d *Dispatcher) Running() int {
	return d.pool.Running()
}

// Release stops the pool. Pending tasks in the queue are discarded.
func (d *Dispatcher) Release() {
	d.pool.Release()
	d.baseLogger.Info("Job worker pool released")
}
