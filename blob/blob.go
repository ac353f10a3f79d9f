// Package blob stores raw file bytes in an S3-compatible object store,
// addressed by key and served from a public base URL.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the object-store connection parameters.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	// PublicURL is the base under which uploaded keys are reachable,
	// for example https://cdn.example.com/uploads.
	PublicURL string
	UseSSL    bool
}

// Bucket provides blob storage in a single object-store bucket.
type Bucket struct {
	cli       *minio.Client
	bucket    string
	publicURL string
}

// Connect creates the client and verifies the bucket exists.
func Connect(ctx context.Context, cfg Config) (*Bucket, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	ok, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket exists: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}
	return &Bucket{
		cli:       cli,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

// Upload stores the blob under key.
func (b *Bucket) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := b.cli.PutObject(ctx, b.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// PublicURL returns the retrieval URL for a stored key.
func (b *Bucket) PublicURL(key string) string {
	return b.publicURL + "/" + key
}

// Remove deletes the given keys. Each removal is attempted even when an
// earlier one fails; the errors are joined.
func (b *Bucket) Remove(ctx context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		if err := b.cli.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
