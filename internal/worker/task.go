package worker

import (
	"context"
	"time"
)

// Task is one object transfer. Created once at dispatch, immutable, owned
// exclusively by the worker that processes it.
type Task struct {
	SrcBucket string `json:"src_bucket"`
	SrcKey    string `json:"src_key"`
	DstBucket string `json:"dst_bucket"`
	DstKey    string `json:"dst_key"`
}

// Config contains worker configuration
type Config struct {
	SkipExisting bool
}

// Rewriter performs one object's streaming repack.
type Rewriter interface {
	Rewrite(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error
}

// Meter receives task completion events.
type Meter interface {
	IncSuccess()
	IncSkipped()
	IncFailed()
	WorkerStarted()
	WorkerDone()
	ObserveDuration(d time.Duration)
}
