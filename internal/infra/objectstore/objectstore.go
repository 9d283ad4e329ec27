// Package objectstore provides read access to S3 compatible object storage.
package objectstore

import (
	"context"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	zlog "github.com/rs/zerolog/log"
)

// Config represents object storage connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Store reads audio objects from a bucket.
type Store struct {
	client *minio.Client
}

// New creates a new Store.
func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create minio client")
	}

	return &Store{client: client}, nil
}

// Ping checks that bucket exists.
func (s *Store) Ping(ctx context.Context, bucket string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return errors.Wrapf(err, "failed to check bucket %s", bucket)
	}
	if !exists {
		return errors.Newf("bucket %s does not exist", bucket)
	}
	return nil
}

// GetObject opens bucket/key for reading.
// The object is stat'ed first so a missing key fails here instead of on first read.
func (s *Store) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	stat, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s/%s", bucket, key)
	}

	object, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get %s/%s", bucket, key)
	}

	zlog.Debug().Msgf("objectstore: opened object: bucket=%s key=%s size=%d type=%s", bucket, key, stat.Size, stat.ContentType)
	return object, nil
}
