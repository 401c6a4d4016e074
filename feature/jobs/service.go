package jobs

import (
	"context"
	"errors"
	"fmt"

	"field-ops/feature/jobs/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a job does not exist within the caller's
// organization.
var ErrNotFound = errors.New("job not found")

// Service handles job read operations.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new jobs service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// List returns all jobs visible to the organization, newest first.
func (s *Service) List(ctx context.Context, orgID string) ([]models.Job, error) {
	var jobs []models.Job
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// Get returns a single job scoped to the organization.
func (s *Service) Get(ctx context.Context, orgID, jobID string) (*models.Job, error) {
	var job models.Job
	err := s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", jobID, orgID).
		Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	return &job, nil
}
