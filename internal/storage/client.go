package storage

import (
	"context"
	"time"
)

// Client defines the interface for S3-compatible storage operations
type Client interface {
	// ListKeys returns every key under prefix that passes the extension
	// filter, as a single flat slice regardless of pagination.
	ListKeys(ctx context.Context, bucket, prefix string, filter ExtensionFilter) ([]string, error)

	// HeadObject performs a metadata-only probe for a single key.
	HeadObject(ctx context.Context, bucket, key string) (ObjectInfo, error)

	// DownloadFile streams an object into a local file.
	DownloadFile(ctx context.Context, bucket, key, path string) error

	// UploadFile streams a local file to an object key.
	UploadFile(ctx context.Context, bucket, key, path string) error

	// ReplaceContentType rewrites an existing object's content-type via a
	// metadata-only self copy.
	ReplaceContentType(ctx context.Context, bucket, key, contentType string) error
}

// ObjectInfo contains object metadata
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
	ContentType  string
	Metadata     map[string]string
}

// Config contains client configuration
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
}
