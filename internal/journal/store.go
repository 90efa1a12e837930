// Package journal persists per-task outcomes so a re-run can skip keys that
// already completed without probing the destination store.
package journal

import (
	"time"
)

// Status represents the recorded outcome of a repack task
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is one task's journaled outcome, keyed by destination bucket/key.
type Record struct {
	Bucket    string    `json:"bucket"`
	Key       string    `json:"key"`
	Status    Status    `json:"status"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the interface for outcome persistence
type Store interface {
	Get(bucket, key string) (*Record, error)
	Save(record *Record) error
	ListFailed() ([]*Record, error)
	Close() error
}
