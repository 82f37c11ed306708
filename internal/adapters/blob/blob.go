// Package blob provides object storage access for hourly inputs and published artifacts
package blob

import (
	"bytes"
	"context"
	"io"

	perr "gridday/internal/platform/errors"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store is the object storage seam services depend on
type Store interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Config configures the minio-backed store
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

// MinioStore talks to an S3-compatible endpoint via minio-go
type MinioStore struct {
	client *minio.Client
	bucket string
}

var _ Store = (*MinioStore)(nil)

// Open builds a MinioStore from config
func Open(cfg Config) (*MinioStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, perr.InvalidArgf("blob: endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "blob: minio client")
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// Fetch reads the whole object at key
func (s *MinioStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "blob: get %s", key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, perr.NotFoundf("blob: %s", key)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "blob: read %s", key)
	}
	return data, nil
}

// Put writes data to key, overwriting any existing object
func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "blob: put %s", key)
	}
	return nil
}
