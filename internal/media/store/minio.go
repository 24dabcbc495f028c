package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Prefix    string
}

type minioStore struct {
	log    *logger.Logger
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioStore keeps media blobs as objects in an S3-compatible bucket, creating
// the bucket when it does not exist.
func NewMinioStore(ctx context.Context, log *logger.Logger, cfg MinioConfig) (Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("missing MINIO_ENDPOINT")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "coursecast-media"
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	exists, err := client.BucketExists(checkCtx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(checkCtx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket %q: %w", cfg.Bucket, err)
		}
		log.Info("Created media bucket", "bucket", cfg.Bucket)
	}

	return &minioStore{
		log:    log.With("service", "MinioMediaStore"),
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (m *minioStore) Put(ctx context.Context, mimeType string, data []byte) (Handle, error) {
	key := "media-" + uuid.NewString()
	_, err := m.client.PutObject(ctx, m.bucket, m.prefix+key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return Handle{}, fmt.Errorf("minio put media: %w", err)
	}
	return Handle{Key: key, MimeType: mimeType, Size: len(data)}, nil
}

func (m *minioStore) Open(ctx context.Context, key string) ([]byte, string, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, m.prefix+key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", m.openErr(err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, "", m.openErr(err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("minio read media: %w", err)
	}
	return data, info.ContentType, nil
}

func (m *minioStore) openErr(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" {
		return ErrNotFound
	}
	return fmt.Errorf("minio open media: %w", err)
}

func (m *minioStore) Revoke(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, m.prefix+key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio revoke media: %w", err)
	}
	return nil
}

func (m *minioStore) Close() error { return nil }
