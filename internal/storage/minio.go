package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOClient implements the Client interface using minio-go
type MinIOClient struct {
	client *minio.Client
}

// NewMinIOClient creates a new MinIO client
func NewMinIOClient(cfg Config) (*MinIOClient, error) {
	endpoint, err := cleanEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, err
	}

	return &MinIOClient{client: client}, nil
}

// cleanEndpoint removes protocol and path from endpoint URL to get host:port format
func cleanEndpoint(endpoint string) (string, error) {
	if endpoint == "" {
		return "", fmt.Errorf("endpoint cannot be empty")
	}

	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if strings.Contains(endpoint, "/") {
			return "", fmt.Errorf("endpoint contains path but no protocol")
		}
		return endpoint, nil
	}

	parsedURL, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to parse endpoint URL: %w", err)
	}

	if parsedURL.Path != "" && parsedURL.Path != "/" {
		return "", fmt.Errorf("endpoint URL cannot have paths, only host:port is allowed (got path: %s)", parsedURL.Path)
	}

	return parsedURL.Host, nil
}

// ListKeys lists all matching keys under prefix. minio-go drives the
// paginated ListObjectsV2 calls internally; the caller sees one flat slice.
func (c *MinIOClient) ListKeys(ctx context.Context, bucket, prefix string, filter ExtensionFilter) ([]string, error) {
	var keys []string

	for obj := range c.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", bucket, prefix, obj.Err)
		}
		if filter.Match(obj.Key) {
			keys = append(keys, obj.Key)
		}
	}

	return keys, nil
}

// HeadObject gets object metadata
func (c *MinIOClient) HeadObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	info, err := c.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, err
	}

	return ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ETag:         info.ETag,
		LastModified: info.LastModified,
		ContentType:  info.ContentType,
		Metadata:     info.UserMetadata,
	}, nil
}

// DownloadFile downloads an object to a local path
func (c *MinIOClient) DownloadFile(ctx context.Context, bucket, key, path string) error {
	return c.client.FGetObject(ctx, bucket, key, path, minio.GetObjectOptions{})
}

// UploadFile uploads a local file to an object key
func (c *MinIOClient) UploadFile(ctx context.Context, bucket, key, path string) error {
	_, err := c.client.FPutObject(ctx, bucket, key, path, minio.PutObjectOptions{})
	return err
}

// ReplaceContentType performs a metadata-directive-REPLACE copy of the object
// onto itself, setting only the content-type.
func (c *MinIOClient) ReplaceContentType(ctx context.Context, bucket, key, contentType string) error {
	_, err := c.client.CopyObject(ctx,
		minio.CopyDestOptions{
			Bucket:          bucket,
			Object:          key,
			ReplaceMetadata: true,
			UserMetadata:    map[string]string{"Content-Type": contentType},
		},
		minio.CopySrcOptions{
			Bucket: bucket,
			Object: key,
		},
	)
	return err
}
