// Package storage archives raw transcript blobs to object storage
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	apperrors "github.com/meetingloop/backend/errors"
	"github.com/meetingloop/backend/pkg/config"
)

// MinIOArchive keeps an immutable copy of every processed transcript.
// The pipeline reads transcripts from the provider's URL; the archive
// exists so the raw input survives the provider's retention window.
type MinIOArchive struct {
	client *minio.Client
	bucket string
}

// NewMinIOArchive creates the archive client and ensures the bucket
func NewMinIOArchive(cfg *config.StorageConfig) (*MinIOArchive, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	archive := &MinIOArchive{
		client: minioClient,
		bucket: cfg.BucketName,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return archive, nil
}

func (m *MinIOArchive) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// ArchiveTranscript stores the raw transcript body under a
// per-meeting, timestamped key.
func (m *MinIOArchive) ArchiveTranscript(ctx context.Context, meetingID uuid.UUID, body []byte) error {
	objectName := fmt.Sprintf("transcripts/%s/%d.jsonl", meetingID, time.Now().Unix())

	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/x-ndjson",
	})
	if err != nil {
		return apperrors.ErrStorageFailed("upload "+objectName, err)
	}
	return nil
}
