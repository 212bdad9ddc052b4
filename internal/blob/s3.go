package blob

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	PublicBase string
}

// S3Store keeps uploads in an S3 compatible bucket.
type S3Store struct {
	client *minio.Client
	bucket string
	base   string
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	base := cfg.PublicBase
	if strings.TrimSpace(base) == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	return &S3Store{client: client, bucket: cfg.Bucket, base: NormalizeBase(base)}, nil
}

func (s *S3Store) Put(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	if !IsImage(contentType) {
		return "", ErrNotImage
	}
	key := objectName(filename)
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	}); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return joinURL(s.base, key), nil
}

func (s *S3Store) Delete(ctx context.Context, rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrMissingURL
	}
	key, ok := relativeKey(s.base, rawURL)
	if !ok {
		return nil
	}
	if key == "" || strings.Contains(key, "..") {
		return ErrInvalidPath
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
