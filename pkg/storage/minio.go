// Package storage uploads cover images to an S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the object store connection settings. A zero Endpoint means
// image uploads are disabled.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base URL readers fetch images from, typically the
	// endpoint itself or a CDN in front of it.
	PublicURL string
}

// Enabled reports whether an object store is configured.
func (c Config) Enabled() bool { return c.Endpoint != "" }

// ImageStore uploads cover images and hands back public URLs.
type ImageStore struct {
	client *minio.Client
	cfg    Config
}

// New connects to the object store and ensures the bucket exists.
func New(ctx context.Context, cfg Config) (*ImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to object store: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.Bucket, err)
		}
	}
	return &ImageStore{client: client, cfg: cfg}, nil
}

// UploadImage stores the file and returns the URL to embed in a post. Object
// names are date-partitioned with a random component so uploads never collide
// and the original filename only survives as metadata.
func (s *ImageStore) UploadImage(ctx context.Context, fileName string, file io.Reader, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = ".jpg"
	}
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := time.Now()
	objectName := fmt.Sprintf("covers/%d/%02d/%s%s", now.Year(), now.Month(), uuid.NewString(), ext)

	_, err := s.client.PutObject(ctx, s.cfg.Bucket, objectName, file, size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"original-filename": fileName,
				"uploaded-at":       now.Format(time.RFC3339),
			},
		})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	base := strings.TrimSuffix(s.cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if s.cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + s.cfg.Endpoint
	}
	return fmt.Sprintf("%s/%s/%s", base, s.cfg.Bucket, objectName), nil
}

// DeleteImage removes an uploaded object.
func (s *ImageStore) DeleteImage(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
