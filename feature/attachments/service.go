package attachments

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"field-ops/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Service handles job-site attachment storage (photos, signatures,
// documents captured by technicians).
type Service struct {
	client storage.Client
	bucket string
	logger *zap.Logger
}

// NewService creates a new attachments service.
func NewService(client storage.Client, bucket string, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// objectKey namespaces attachments per organization and job.
func objectKey(orgID, jobID, name string) string {
	return fmt.Sprintf("%s/%s/%s", orgID, jobID, name)
}

// EnsureBucket creates the attachment bucket if it does not exist yet.
func (s *Service) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("Created attachment bucket", zap.String("bucket", s.bucket))
	return nil
}

// Upload stores one attachment.
func (s *Service) Upload(ctx context.Context, orgID, jobID, name string, data []byte, contentType string) error {
	key := objectKey(orgID, jobID, name)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Download streams one attachment back.
func (s *Service) Download(ctx context.Context, orgID, jobID, name string) (io.ReadCloser, error) {
	key := objectKey(orgID, jobID, name)
	reader, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return reader, nil
}

// List returns the attachment names stored for a job.
func (s *Service) List(ctx context.Context, orgID, jobID string) ([]string, error) {
	prefix := objectKey(orgID, jobID, "")
	names := []string{}
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, info.Err)
		}
		names = append(names, strings.TrimPrefix(info.Key, prefix))
	}
	return names, nil
}

// Remove deletes one attachment.
func (s *Service) Remove(ctx context.Context, orgID, jobID, name string) error {
	key := objectKey(orgID, jobID, name)
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
