// Package progress aggregates per-task outcomes under concurrent mutation
// and emits count-stepped progress lines.
package progress

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tracker tracks task outcomes. All mutation goes through one mutex; the
// succeeded count folds in skipped tasks so that succeeded+failed always
// equals the number of tasks processed.
type Tracker struct {
	mu        sync.Mutex
	logger    *zap.Logger
	total     int64
	step      int64
	succeeded int64
	skipped   int64
	failed    int64
	startTime time.Time
}

// NewTracker creates a tracker for a run of total tasks. A progress line is
// emitted every max(1, total/10) completions and when the last task lands.
func NewTracker(total int64, logger *zap.Logger) *Tracker {
	step := total / 10
	if step < 1 {
		step = 1
	}
	return &Tracker{
		logger:    logger,
		total:     total,
		step:      step,
		startTime: time.Now(),
	}
}

// AddSuccess records one rewritten object.
func (t *Tracker) AddSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.succeeded++
	t.maybeLogProgress()
}

// AddSkipped records one object skipped because the destination exists.
// Skipped counts toward succeeded in the aggregate.
func (t *Tracker) AddSkipped() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.succeeded++
	t.skipped++
	t.maybeLogProgress()
}

// AddFailed records one failed task.
func (t *Tracker) AddFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed++
	t.maybeLogProgress()
}

// maybeLogProgress must be called with the lock held.
func (t *Tracker) maybeLogProgress() {
	processed := t.succeeded + t.failed
	if processed%t.step != 0 && processed != t.total {
		return
	}

	elapsed := time.Since(t.startTime)
	t.logger.Info("Progress",
		zap.Int64("processed", processed),
		zap.Int64("total", t.total),
		zap.Duration("elapsed", elapsed),
		zap.Float64("tasks_per_sec", rate(processed, elapsed)),
	)
}

// Counts returns the aggregate (succeeded, failed) pair. Skipped tasks are
// included in succeeded.
func (t *Tracker) Counts() (succeeded, failed int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.succeeded, t.failed
}

// Skipped returns how many tasks were skipped via the existence gate.
func (t *Tracker) Skipped() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.skipped
}

// LogSummary emits the final run summary. Always called once after the full
// barrier, independent of the periodic step.
func (t *Tracker) LogSummary() {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.startTime)
	t.logger.Info("Repack finished",
		zap.Int64("succeeded", t.succeeded),
		zap.Int64("skipped", t.skipped),
		zap.Int64("failed", t.failed),
		zap.Duration("elapsed", elapsed),
		zap.Float64("tasks_per_sec", rate(t.succeeded, elapsed)),
	)
}

// rate guards against division by zero when no time has elapsed yet.
func rate(n int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(n) / elapsed.Seconds()
}
