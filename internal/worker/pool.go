package worker

import (
	"context"
	"sync"

	"s3repack/internal/journal"
	"s3repack/internal/progress"
	"s3repack/internal/storage"

	"go.uber.org/zap"
)

// Pool manages a fixed-size set of workers sharing one task channel. The
// pool size is the sole admission-control knob; there is no separate queue
// depth limit.
type Pool struct {
	size      int
	config    Config
	srcClient storage.Client
	dstClient storage.Client
	rewriter  Rewriter
	journal   journal.Store
	meter     Meter
	tracker   *progress.Tracker
	logger    *zap.Logger
}

// NewPool creates a new worker pool. journalStore may be nil when outcome
// journaling is disabled.
func NewPool(
	size int,
	config Config,
	srcClient storage.Client,
	dstClient storage.Client,
	rewriter Rewriter,
	journalStore journal.Store,
	meter Meter,
	tracker *progress.Tracker,
	logger *zap.Logger,
) *Pool {
	return &Pool{
		size:      size,
		config:    config,
		srcClient: srcClient,
		dstClient: dstClient,
		rewriter:  rewriter,
		journal:   journalStore,
		meter:     meter,
		tracker:   tracker,
		logger:    logger,
	}
}

// Start starts the worker pool
func (p *Pool) Start(ctx context.Context, tasks <-chan Task, wg *sync.WaitGroup) {
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go p.worker(ctx, i, tasks, wg)
	}
}

func (p *Pool) worker(ctx context.Context, id int, tasks <-chan Task, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := p.logger.With(zap.Int("worker_id", id))
	logger.Debug("Worker started")

	processor := &TaskProcessor{
		config:    p.config,
		srcClient: p.srcClient,
		dstClient: p.dstClient,
		rewriter:  p.rewriter,
		journal:   p.journal,
		meter:     p.meter,
		tracker:   p.tracker,
		logger:    logger,
	}

	for task := range tasks {
		processor.Process(ctx, task)
	}

	logger.Debug("Worker finished - no more tasks")
}
