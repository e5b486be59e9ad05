// Package objstore wraps the S3-compatible bucket attachment copies are
// uploaded to, keyed by their derived attachment keys.
package objstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tinyland-inc/picolog/pkg/config"
)

// Putter is the single operation the audit pipeline needs. *Client satisfies
// it; tests substitute a fake.
type Putter interface {
	Put(ctx context.Context, key, contentType string, size int64, body io.Reader) error
}

type Client struct {
	mc     *minio.Client
	bucket string
}

func New(cfg config.ObjectStore) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: !cfg.Insecure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return &Client{mc: mc, bucket: cfg.Bucket}, nil
}

// Put uploads one object, preserving the content type and length reported by
// the source fetch. A size of -1 streams without a known length.
func (c *Client) Put(ctx context.Context, key, contentType string, size int64, body io.Reader) error {
	_, err := c.mc.PutObject(ctx, c.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
