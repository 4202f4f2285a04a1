// Package data provides database repositories for the marketing kit backend.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/propkit/marketing-kit-api/internal/domain/model"
)

// JobRepo provides database operations for job records.
type JobRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection.
func NewJobRepo(db *sql.DB, logger *slog.Logger) *JobRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobRepo{DB: db, logger: logger.With("component", "job_repo")}
}

const jobColumns = `
  id,
  email,
  address,
  details,
  kind,
  status,
  correlation_id,
  artifact_key,
  last_error,
  created_at,
  updated_at
`

func scanJob(row interface{ Scan(dest ...any) error }) (*model.Job, error) {
	var j model.Job
	err := row.Scan(
		&j.ID,
		&j.Email,
		&j.Address,
		&j.Details,
		&j.Kind,
		&j.Status,
		&j.CorrelationID,
		&j.ArtifactKey,
		&j.LastError,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Create inserts a new job record in status processing.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO jobs (id, email, address, details, kind, status, correlation_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+jobColumns,
		req.ID, req.Email, req.Address, req.Details, req.Kind,
		model.JobStatusProcessing, req.CorrelationID,
	)

	job, err := scanJob(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("insert job %s: %w", req.ID, model.ErrDuplicateJob)
		}
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// GetByID returns the job with the given id.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// MarkReady transitions a job to ready and records the artifact key.
// The update is compare-and-swap on the prior status (processing or paid) so
// it never regresses a terminal state. Returns false when no eligible row
// matched; callers treat that as a non-fatal no-op.
func (r *JobRepo) MarkReady(ctx context.Context, id, artifactKey string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = $2, artifact_key = $3, updated_at = now()
		WHERE id = $1 AND status = ANY($4)`,
		id, model.JobStatusReady, artifactKey,
		[]string{string(model.JobStatusProcessing), string(model.JobStatusPaid)},
	)
	if err != nil {
		return false, fmt.Errorf("mark job %s ready: %w", id, err)
	}
	return oneRowAffected(res), nil
}

// MarkFailed transitions a job to failed and records the failing step.
func (r *JobRepo) MarkFailed(ctx context.Context, id, lastError string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = $2, last_error = $3, updated_at = now()
		WHERE id = $1 AND status = ANY($4)`,
		id, model.JobStatusFailed, lastError,
		[]string{string(model.JobStatusProcessing), string(model.JobStatusPaid)},
	)
	if err != nil {
		return false, fmt.Errorf("mark job %s failed: %w", id, err)
	}
	return oneRowAffected(res), nil
}

// MarkPaidByCorrelation transitions the most recent job with the given
// correlation id from processing to paid and clears its artifact key. A
// webhook may arrive before the matching job exists; absence of a match is
// not an error.
func (r *JobRepo) MarkPaidByCorrelation(ctx context.Context, correlationID string) (bool, error) {
	if correlationID == "" {
		return false, nil
	}
	res, err := r.DB.ExecContext(ctx, `
		WITH latest AS (
			SELECT id FROM jobs
			WHERE correlation_id = $1
			ORDER BY created_at DESC
			LIMIT 1
		)
		UPDATE jobs j
		SET status = $2, artifact_key = NULL, updated_at = now()
		FROM latest
		WHERE j.id = latest.id AND j.status = $3`,
		correlationID, model.JobStatusPaid, model.JobStatusProcessing,
	)
	if err != nil {
		return false, fmt.Errorf("mark paid by correlation %s: %w", correlationID, err)
	}
	return oneRowAffected(res), nil
}

// FindLatestByCorrelation returns the most recently created job with the
// given correlation id, or ErrJobNotFound.
func (r *JobRepo) FindLatestByCorrelation(ctx context.Context, correlationID string) (*model.Job, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM jobs
		WHERE correlation_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, correlationID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job by correlation %s: %w", correlationID, err)
	}
	return job, nil
}

const defaultListLimit = 50

// ListRecent returns jobs ordered by creation time, descending.
func (r *JobRepo) ListRecent(ctx context.Context, limit int) ([]*model.Job, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*model.Job, 0, limit)
	for rows.Next() {
		job, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan job: %w", scanErr)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

func oneRowAffected(res sql.Result) bool {
	n, err := res.RowsAffected()
	return err == nil && n == 1
}
