// Package app wires the repack pipeline together and drives one full run.
package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"s3repack/internal/config"
	"s3repack/internal/journal"
	"s3repack/internal/metrics"
	"s3repack/internal/progress"
	"s3repack/internal/repack"
	"s3repack/internal/storage"
	"s3repack/internal/worker"

	"go.uber.org/zap"
)

// Worker-count default when the caller passes 0: object-store throughput
// benefits from concurrency well past one task per core.
const (
	DefaultWorkersPerCPU = 4
	DefaultWorkerCap     = 32
)

// Repacker represents the whole pipeline: lister, worker pool, per-object
// rewriter and outcome accounting.
type Repacker struct {
	cfg       *config.Config
	logger    *zap.Logger
	srcClient storage.Client
	dstClient storage.Client
	rewriter  worker.Rewriter
	journal   journal.Store
	metrics   *metrics.Collector
	meter     worker.Meter
	src       config.Location
	dst       config.Location
}

// New creates a Repacker from validated configuration. All clients and
// stores are constructed once here and injected into the components that
// use them.
func New(cfg *config.Config, logger *zap.Logger) (*Repacker, error) {
	src, err := config.ParseURI(cfg.Repack.Src)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	dst, err := config.ParseURI(cfg.Repack.Dst)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	srcClient, err := storage.NewMinIOClient(storage.Config{
		Endpoint:  cfg.Source.Endpoint,
		AccessKey: cfg.Source.AccessKey,
		SecretKey: cfg.Source.SecretKey,
		Secure:    cfg.Source.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create source client: %w", err)
	}

	dstClient, err := storage.NewMinIOClient(storage.Config{
		Endpoint:  cfg.Target.Endpoint,
		AccessKey: cfg.Target.AccessKey,
		SecretKey: cfg.Target.SecretKey,
		Secure:    cfg.Target.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create destination client: %w", err)
	}

	var journalStore journal.Store
	if cfg.Repack.Journal != "" {
		journalStore, err = journal.NewSQLiteStore(cfg.Repack.Journal)
		if err != nil {
			return nil, fmt.Errorf("failed to create journal store: %w", err)
		}
	}

	collector := metrics.New()

	return &Repacker{
		cfg:       cfg,
		logger:    logger,
		srcClient: srcClient,
		dstClient: dstClient,
		rewriter:  repack.New(srcClient, dstClient, cfg.Repack.BatchSize, ""),
		journal:   journalStore,
		metrics:   collector,
		meter:     collector,
		src:       src,
		dst:       dst,
	}, nil
}

// Run executes the pipeline: list, dispatch one task per key, block until
// every task has reported an outcome, return the aggregate counts. Skipped
// tasks are folded into succeeded.
func (r *Repacker) Run(ctx context.Context) (succeeded, failed int64, err error) {
	if r.metrics != nil && r.cfg.Repack.MetricsAddr != "" {
		go func() {
			if serveErr := r.metrics.StartServer(r.cfg.Repack.MetricsAddr); serveErr != nil {
				r.logger.Error("Failed to start metrics server", zap.Error(serveErr))
			}
		}()
	}

	filter := storage.ExtensionFilter(r.cfg.Repack.Extensions)
	keys, err := r.srcClient.ListKeys(ctx, r.src.Bucket, r.src.Prefix, filter)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list objects: %w", err)
	}

	total := len(keys)
	if total == 0 {
		r.logger.Info("No matching files found, nothing to do",
			zap.String("src", r.src.Bucket+"/"+r.src.Prefix),
		)
		return 0, 0, nil
	}

	workers := EffectiveWorkers(r.cfg.Repack.Workers)

	r.logger.Info("Starting repack",
		zap.Int("total", total),
		zap.String("src", r.src.Bucket+"/"+r.src.Prefix),
		zap.String("dst", r.dst.Bucket+"/"+r.dst.Prefix),
		zap.Int("workers", workers),
		zap.Int("batch_size", r.cfg.Repack.BatchSize),
		zap.Bool("skip_existing", r.cfg.Repack.SkipExisting),
	)

	tracker := progress.NewTracker(int64(total), r.logger)
	pool := worker.NewPool(
		workers,
		worker.Config{SkipExisting: r.cfg.Repack.SkipExisting},
		r.srcClient,
		r.dstClient,
		r.rewriter,
		r.journal,
		r.meter,
		tracker,
		r.logger,
	)

	tasks := make(chan worker.Task, workers*2)
	var wg sync.WaitGroup
	pool.Start(ctx, tasks, &wg)

	var dispatchErr error
	for _, key := range keys {
		task := worker.Task{
			SrcBucket: r.src.Bucket,
			SrcKey:    key,
			DstBucket: r.dst.Bucket,
			DstKey:    storage.DestKey(key, r.src.Prefix, r.dst.Prefix),
		}

		select {
		case tasks <- task:
		case <-ctx.Done():
			dispatchErr = ctx.Err()
		}
		if dispatchErr != nil {
			break
		}
	}

	// Full barrier: already dispatched tasks always run to completion.
	close(tasks)
	wg.Wait()

	tracker.LogSummary()
	succeeded, failed = tracker.Counts()
	return succeeded, failed, dispatchErr
}

// Close cleans up resources
func (r *Repacker) Close() error {
	if r.journal != nil {
		return r.journal.Close()
	}
	return nil
}

// EffectiveWorkers resolves the worker count: a positive caller value wins,
// otherwise DefaultWorkersPerCPU times the CPU count, capped at
// DefaultWorkerCap.
func EffectiveWorkers(requested int) int {
	if requested > 0 {
		return requested
	}

	workers := DefaultWorkersPerCPU * runtime.NumCPU()
	if workers > DefaultWorkerCap {
		workers = DefaultWorkerCap
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
