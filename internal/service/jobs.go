package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/propkit/marketing-kit-api/internal/core"
	"github.com/propkit/marketing-kit-api/internal/domain/model"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 200
)

// JobsOptions groups dependencies for JobsService.
type JobsOptions struct {
	Repo   core.JobRepository // Required
	Logger *slog.Logger       // Optional
}

// JobsService exposes job records for operational visibility.
type JobsService struct {
	repo   core.JobRepository
	logger *slog.Logger
}

// NewJobsService constructs a JobsService.
func NewJobsService(opts JobsOptions) (*JobsService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobsService{repo: opts.Repo, logger: logger.With("component", "jobs")}, nil
}

// ListRecent returns the most recently created jobs, newest first. The limit
// is clamped to a sane operational range.
func (s *JobsService) ListRecent(ctx context.Context, limit int) ([]*model.Job, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

// GetByID returns one job record.
func (s *JobsService) GetByID(ctx context.Context, id string) (*model.Job, error) {
	return s.repo.GetByID(ctx, id)
}
