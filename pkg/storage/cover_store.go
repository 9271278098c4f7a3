package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrUnsupportedImage is returned when an uploaded cover has a file
// extension outside the accepted set.
var ErrUnsupportedImage = errors.New("unsupported image type")

// presignExpiry bounds how long a resolved cover URL stays valid.
const presignExpiry = 15 * time.Minute

// CoverStore persists book cover images and resolves short-lived URLs
// for serving them.
type CoverStore interface {
	UploadCover(ctx context.Context, bookID uint, r io.Reader, size int64, filename, contentType string) (string, error)
	CoverURL(ctx context.Context, key string) (string, error)
	DeleteCover(ctx context.Context, key string) error
}

// Options configures the MinIO-backed cover store.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioCoverStore implements CoverStore on MinIO or any S3-compatible
// endpoint.
type MinioCoverStore struct {
	client *minio.Client
	bucket string
}

// NewMinioCoverStore connects to the configured endpoint and creates the
// bucket when it does not exist yet.
func NewMinioCoverStore(opts Options) (*MinioCoverStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioCoverStore{client: client, bucket: opts.Bucket}, nil
}

// UploadCover stores the image and returns the object key. Keys are
// namespaced per book so stale covers can be swept by prefix.
func (m *MinioCoverStore) UploadCover(ctx context.Context, bookID uint, r io.Reader, size int64, filename, contentType string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", ErrUnsupportedImage
	}
	key := fmt.Sprintf("covers/%d/%s%s", bookID, uuid.NewString(), ext)
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put cover: %w", err)
	}
	return key, nil
}

// CoverURL returns a pre-signed GET URL for the stored cover.
func (m *MinioCoverStore) CoverURL(ctx context.Context, key string) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, key, presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign cover: %w", err)
	}
	return url.String(), nil
}

// DeleteCover removes the stored object. Missing keys are not an error.
func (m *MinioCoverStore) DeleteCover(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete cover: %w", err)
	}
	return nil
}
