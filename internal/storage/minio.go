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
	"github.com/vsrfleet/inspection-backend/internal/config"
)

// ObjectStorage is the collaborator interface for photo binaries. The
// services only persist metadata returned from these calls.
type ObjectStorage interface {
	Upload(ctx context.Context, inspectionID uint, fileName, contentType string, file io.Reader, size int64) (key string, url string, err error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string) (string, time.Time, error)
}

type MinIOStorage struct {
	client *minio.Client
	cfg    config.MinIO
}

func NewMinIOStorage(ctx context.Context, cfg config.MinIO) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &MinIOStorage{client: client, cfg: cfg}, nil
}

// Upload stores a photo binary under a unique, folder-style object name and
// returns the object key plus a display URL.
func (m *MinIOStorage) Upload(ctx context.Context, inspectionID uint, fileName, contentType string, file io.Reader, size int64) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = ".jpg"
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := time.Now()
	key := fmt.Sprintf("inspections/%d/%d/%02d/%s%s",
		inspectionID, now.Year(), int(now.Month()), uuid.New().String(), ext)

	_, err := m.client.PutObject(ctx, m.cfg.BucketName, key, file, size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"original-filename": fileName,
				"inspection-id":     fmt.Sprintf("%d", inspectionID),
				"uploaded-at":       now.Format(time.RFC3339),
			},
		})
	if err != nil {
		return "", "", fmt.Errorf("upload to minio: %w", err)
	}

	scheme := "http"
	if m.cfg.UseSSL {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s/%s/%s", scheme, m.cfg.Endpoint, m.cfg.BucketName, key)
	return key, url, nil
}

func (m *MinIOStorage) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.cfg.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete from minio: %w", err)
	}
	return nil
}

// PresignedURL returns a short-lived signed URL for a private photo.
func (m *MinIOStorage) PresignedURL(ctx context.Context, key string) (string, time.Time, error) {
	u, err := m.client.PresignedGetObject(ctx, m.cfg.BucketName, key, m.cfg.URLExpiry, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign url: %w", err)
	}
	return u.String(), time.Now().Add(m.cfg.URLExpiry), nil
}
