// Package minio stores compliance register exports in S3-compatible object
// storage.
package minio

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"github.com/turtacn/ComplianceSentinel/internal/config"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// objectAPI is the subset of *minio.Client used here.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketLifecycle(ctx context.Context, bucketName string, config *lifecycle.Configuration) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

// ExportRetentionDays is how long uploaded exports are kept.
const ExportRetentionDays = 365

// Store writes objects to a single bucket.
type Store struct {
	client objectAPI
	bucket string
	logger logging.Logger
}

// ObjectInfo describes an uploaded object.
type ObjectInfo struct {
	Bucket     string    `json:"bucket"`
	Key        string    `json:"key"`
	ETag       string    `json:"etag"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// NewStore connects and makes sure the bucket exists.
func NewStore(ctx context.Context, cfg config.MinIOConfig, log logging.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to create minio client")
	}
	s := newStore(client, cfg.Bucket, log)
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("MinIO store ready", logging.String("endpoint", cfg.Endpoint), logging.String("bucket", cfg.Bucket))
	return s, nil
}

func newStore(client objectAPI, bucket string, log logging.Logger) *Store {
	return &Store{client: client, bucket: bucket, logger: log}
}

// EnsureBucket creates the bucket and its retention rule when missing.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to check bucket existence")
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to create bucket").WithDetail(s.bucket)
	}
	s.logger.Info("Created bucket", logging.String("bucket", s.bucket))

	rules := lifecycle.NewConfiguration()
	rules.Rules = []lifecycle.Rule{{
		ID:         "exports-retention",
		Status:     "Enabled",
		Expiration: lifecycle.Expiration{Days: ExportRetentionDays},
	}}
	if err := s.client.SetBucketLifecycle(ctx, s.bucket, rules); err != nil {
		s.logger.Warn("Failed to set bucket lifecycle", logging.String("bucket", s.bucket), logging.Err(err))
	}
	return nil
}

// Put uploads size bytes from r under key.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*ObjectInfo, error) {
	if key == "" {
		return nil, errors.InvalidParam("object key required")
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "upload failed").WithDetail(key)
	}
	s.logger.Info("Object uploaded", logging.String("key", key), logging.Int64("size", info.Size))
	return &ObjectInfo{Bucket: s.bucket, Key: key, ETag: info.ETag, Size: info.Size, UploadedAt: time.Now().UTC()}, nil
}

// Upload stores data under key and returns its bucket/key location.
func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	info, err := s.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return "", err
	}
	return info.Bucket + "/" + info.Key, nil
}

// PresignedURL returns a temporary download link for key.
func (s *Store) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = time.Hour
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to presign download").WithDetail(key)
	}
	return u.String(), nil
}

//Personal.AI order the ending
