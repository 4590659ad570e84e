// Package storage adapts an S3-compatible object store for room uploads.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"github.com/textbin/rooms_backend/config"
)

// Remover deletes stored objects by key. It is split from BlobStore so the
// retention cascade only depends on deletion.
type Remover interface {
	// Remove deletes the given keys as one best-effort batch. Keys that are
	// already gone are not an error.
	Remove(ctx context.Context, keys []string) error
}

// BlobStore is the object-store surface the write paths need.
type BlobStore interface {
	// Upload stores an object under key. Overwriting an existing object is
	// refused; keys are expected to be unique.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// PublicURL returns the public locator for a stored object.
	PublicURL(key string) string

	Remover
}

// MinioStore implements BlobStore against any S3-compatible endpoint.
type MinioStore struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

// NewMinioStore connects to the configured endpoint and verifies the bucket
// exists.
func NewMinioStore(ctx context.Context, cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.S3Bucket)
	}

	base := cfg.S3PublicBaseURL
	if base == "" {
		scheme := "http"
		if cfg.S3UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s", scheme, cfg.S3Endpoint)
	}

	return &MinioStore{
		client:        client,
		bucket:        cfg.S3Bucket,
		publicBaseURL: strings.TrimRight(base, "/"),
	}, nil
}

func (s *MinioStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	// Keys embed a timestamp and a random token, so an existing object
	// under the same key means something is wrong.
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err == nil {
		return fmt.Errorf("object %q already exists", key)
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *MinioStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, key)
}

func (s *MinioStore) Remove(ctx context.Context, keys []string) error {
	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objectsCh <- minio.ObjectInfo{Key: k}
	}
	close(objectsCh)

	var firstErr error
	for rErr := range s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rErr.Err != nil {
			log.Error().Err(rErr.Err).Str("key", rErr.ObjectName).Msg("failed to remove object")
			if firstErr == nil {
				firstErr = rErr.Err
			}
		}
	}
	return firstErr
}
