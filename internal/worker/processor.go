package worker

import (
	"context"
	"time"

	"s3repack/internal/journal"
	"s3repack/internal/progress"
	"s3repack/internal/storage"

	"go.uber.org/zap"
)

// TaskProcessor handles individual task processing. A task failure is
// isolated: it is recorded, logged with both keys, and never aborts sibling
// tasks.
type TaskProcessor struct {
	config    Config
	srcClient storage.Client
	dstClient storage.Client
	rewriter  Rewriter
	journal   journal.Store
	meter     Meter
	tracker   *progress.Tracker
	logger    *zap.Logger
}

// Process processes a single transfer task and reports exactly one outcome.
func (p *TaskProcessor) Process(ctx context.Context, task Task) {
	startTime := time.Now()

	p.meter.WorkerStarted()
	defer p.meter.WorkerDone()

	p.logger.Info("File start",
		zap.String("src", task.SrcBucket+"/"+task.SrcKey),
		zap.String("dst", task.DstBucket+"/"+task.DstKey),
	)

	if p.config.SkipExisting {
		if p.completedInJournal(task) {
			p.logger.Debug("Skipping journaled task", zap.String("key", task.DstKey))
			p.tracker.AddSkipped()
			p.meter.IncSkipped()
			return
		}

		if p.destinationExists(ctx, task) {
			p.logger.Debug("Skipping existing object", zap.String("key", task.DstKey))
			p.journalOutcome(task, journal.StatusCompleted, nil)
			p.tracker.AddSkipped()
			p.meter.IncSkipped()
			return
		}
	}

	err := p.rewriter.Rewrite(ctx, task.SrcBucket, task.SrcKey, task.DstBucket, task.DstKey)
	if err != nil {
		p.journalOutcome(task, journal.StatusFailed, err)
		p.tracker.AddFailed()
		p.meter.IncFailed()
		p.logger.Error("Task failed",
			zap.String("src", task.SrcBucket+"/"+task.SrcKey),
			zap.String("dst", task.DstBucket+"/"+task.DstKey),
			zap.Error(err),
		)
		return
	}

	p.propagateContentType(ctx, task)

	p.journalOutcome(task, journal.StatusCompleted, nil)
	p.tracker.AddSuccess()
	p.meter.IncSuccess()
	p.meter.ObserveDuration(time.Since(startTime))
	p.logger.Info("File done",
		zap.String("src", task.SrcBucket+"/"+task.SrcKey),
		zap.String("dst", task.DstBucket+"/"+task.DstKey),
		zap.Duration("duration", time.Since(startTime)),
	)
}

// destinationExists probes the destination key. Any probe failure, transient
// or not, reads as absence so the object is reprocessed rather than skipped.
func (p *TaskProcessor) destinationExists(ctx context.Context, task Task) bool {
	_, err := p.dstClient.HeadObject(ctx, task.DstBucket, task.DstKey)
	return err == nil
}

// completedInJournal reports whether a previous run already journaled this
// destination key as completed.
func (p *TaskProcessor) completedInJournal(task Task) bool {
	if p.journal == nil {
		return false
	}
	record, err := p.journal.Get(task.DstBucket, task.DstKey)
	return err == nil && record != nil && record.Status == journal.StatusCompleted
}

func (p *TaskProcessor) journalOutcome(task Task, status journal.Status, cause error) {
	if p.journal == nil {
		return
	}

	record := &journal.Record{
		Bucket: task.DstBucket,
		Key:    task.DstKey,
		Status: status,
	}
	if cause != nil {
		record.LastError = cause.Error()
	}

	if err := p.journal.Save(record); err != nil {
		p.logger.Warn("Failed to journal outcome",
			zap.String("key", task.DstKey),
			zap.Error(err),
		)
	}
}

// propagateContentType copies the source object's content-type onto the
// freshly uploaded destination. Best effort: the result is discarded and the
// task outcome is unaffected.
func (p *TaskProcessor) propagateContentType(ctx context.Context, task Task) {
	info, err := p.srcClient.HeadObject(ctx, task.SrcBucket, task.SrcKey)
	if err != nil {
		return
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_ = p.dstClient.ReplaceContentType(ctx, task.DstBucket, task.DstKey, contentType)
}
