package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/propkit/marketing-kit-api/internal/adapters/media"
	"github.com/propkit/marketing-kit-api/internal/core"
	"github.com/propkit/marketing-kit-api/internal/domain/model"
)

// ErrGenerationFailed is surfaced to callers when any pipeline step fails.
// The specific failing step is recorded on the job and logged, not exposed.
var ErrGenerationFailed = errors.New("kit generation failed")

// Pipeline step names recorded in jobs.last_error on failure.
const (
	stepCreateWorkdir = "create workdir"
	stepGenerateCopy  = "generate copy"
	stepEnhanceImages = "enhance images"
	stepRenderDoc     = "render document"
	stepRenderVideo   = "render video"
	stepArchive       = "archive"
	stepUpload        = "upload"
	stepNotify        = "notify"
	stepFinalize      = "finalize"
)

const (
	docFileName     = "listing-kit.pdf"
	videoFileName   = "slideshow.mp4"
	copyFileName    = "copy.json"
	imagesDirName   = "images"
	archiveFileName = "kit.zip"
)

// PipelineOptions groups dependencies for PipelineService.
type PipelineOptions struct {
	Repo     core.JobRepository    // Required
	Copy     core.CopyGenerator    // Required
	Enhancer core.ImageEnhancer    // Required
	Document core.DocumentRenderer // Required
	Video    core.VideoRenderer    // Required
	Archiver core.Archiver         // Required
	Store    core.ObjectStore      // Required
	Mailer   core.Mailer           // Optional: nil means no mail transport configured
	Logger   *slog.Logger          // Optional

	WorkRoot       string        // Required: root for per-job working directories
	KeyPrefix      string        // Prepended to artifact keys
	EnhanceWorkers int           // Bounded per-image fan-out; min 1
	PresignTTL     time.Duration // Lifetime of the emailed download link
}

// PipelineService runs the artifact pipeline: copy → image enhancement →
// document → video → archive → upload → notify, updating the job record as
// it goes. Steps execute strictly in order; only per-image enhancement fans
// out, and its output ordering matches input ordering.
type PipelineService struct {
	repo     core.JobRepository
	copygen  core.CopyGenerator
	enhancer core.ImageEnhancer
	document core.DocumentRenderer
	video    core.VideoRenderer
	archiver core.Archiver
	store    core.ObjectStore
	mailer   core.Mailer
	logger   *slog.Logger

	workRoot       string
	keyPrefix      string
	enhanceWorkers int
	presignTTL     time.Duration
}

// NewPipelineService constructs a PipelineService.
func NewPipelineService(opts PipelineOptions) (*PipelineService, error) {
	switch {
	case opts.Repo == nil:
		return nil, errors.New("JobRepository is required")
	case opts.Copy == nil:
		return nil, errors.New("CopyGenerator is required")
	case opts.Enhancer == nil:
		return nil, errors.New("ImageEnhancer is required")
	case opts.Document == nil:
		return nil, errors.New("DocumentRenderer is required")
	case opts.Video == nil:
		return nil, errors.New("VideoRenderer is required")
	case opts.Archiver == nil:
		return nil, errors.New("Archiver is required")
	case opts.Store == nil:
		return nil, errors.New("ObjectStore is required")
	case opts.WorkRoot == "":
		return nil, errors.New("WorkRoot is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.EnhanceWorkers
	if workers < 1 {
		workers = 1
	}
	ttl := opts.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &PipelineService{
		repo:           opts.Repo,
		copygen:        opts.Copy,
		enhancer:       opts.Enhancer,
		document:       opts.Document,
		video:          opts.Video,
		archiver:       opts.Archiver,
		store:          opts.Store,
		mailer:         opts.Mailer,
		logger:         logger.With("component", "pipeline"),
		workRoot:       opts.WorkRoot,
		keyPrefix:      opts.KeyPrefix,
		enhanceWorkers: workers,
		presignTTL:     ttl,
	}, nil
}

// GenerateRequest carries validated, authorized inputs into the pipeline.
// PhotoPaths are the caller's saved uploads in input order; the caller owns
// their cleanup regardless of the outcome.
type GenerateRequest struct {
	Email         string
	Address       string
	Details       string
	Kind          model.JobKind
	CorrelationID string
	PhotoPaths    []string
}

// GenerateResult is the outcome of a successful pipeline run.
type GenerateResult struct {
	Job         *model.Job
	ArtifactKey string
}

// Generate creates a job record, runs every pipeline step in order, and
// finalizes the record. Any step failure marks the job failed with the step
// name, skips the remaining steps, and surfaces ErrGenerationFailed.
func (s *PipelineService) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	jobID := uuid.NewString()
	workDir := filepath.Join(s.workRoot, jobID)
	imagesDir := filepath.Join(workDir, imagesDirName)

	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", stepCreateWorkdir, err)
	}

	var correlationID *string
	if req.CorrelationID != "" {
		correlationID = &req.CorrelationID
	}

	// The record exists before any external side-effecting call, so a crash
	// mid-pipeline leaves a processing row as evidence of partial failure.
	job, err := s.repo.Create(ctx, &model.CreateJobRequest{
		ID:            jobID,
		Email:         req.Email,
		Address:       req.Address,
		Details:       req.Details,
		Kind:          req.Kind,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, fmt.Errorf("create job record: %w", err)
	}
	s.logger.InfoContext(ctx, "job started",
		"job_id", job.ID, "kind", job.Kind, "photos", len(req.PhotoPaths))

	key, err := s.run(ctx, job, req, workDir, imagesDir)
	if err != nil {
		return nil, err
	}

	final, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("reload job %s: %w", jobID, err)
	}
	s.logger.InfoContext(ctx, "job ready", "job_id", jobID, "artifact_key", key)
	return &GenerateResult{Job: final, ArtifactKey: key}, nil
}

// run executes steps 2-9 and returns the artifact key.
func (s *PipelineService) run(
	ctx context.Context,
	job *model.Job,
	req *GenerateRequest,
	workDir, imagesDir string,
) (string, error) {
	copyTxt, err := s.copygen.Generate(ctx, req.Address, req.Details)
	if err != nil {
		return "", s.fail(ctx, job.ID, stepGenerateCopy, err)
	}
	if err := writeCopyFile(filepath.Join(workDir, copyFileName), copyTxt); err != nil {
		return "", s.fail(ctx, job.ID, stepGenerateCopy, err)
	}

	enhanced, err := s.enhanceAll(ctx, req.PhotoPaths, imagesDir)
	if err != nil {
		return "", s.fail(ctx, job.ID, stepEnhanceImages, err)
	}

	docPath := filepath.Join(workDir, docFileName)
	if err := s.document.Render(ctx, core.DocumentParams{
		Address:    req.Address,
		Copy:       copyTxt,
		ImagePaths: enhanced,
		OutPath:    docPath,
	}); err != nil {
		return "", s.fail(ctx, job.ID, stepRenderDoc, err)
	}

	videoPath := filepath.Join(workDir, videoFileName)
	if err := s.video.Render(ctx, imagesDir, videoPath); err != nil {
		return "", s.fail(ctx, job.ID, stepRenderVideo, err)
	}

	// The archive lives outside workDir so it does not include itself.
	archivePath := filepath.Join(s.workRoot, job.ID+"-"+archiveFileName)
	if err := s.archiver.Archive(ctx, workDir, archivePath); err != nil {
		return "", s.fail(ctx, job.ID, stepArchive, err)
	}

	key := path.Join(s.keyPrefix, job.ID+".zip")
	if err := s.store.Put(ctx, key, archivePath); err != nil {
		return "", s.fail(ctx, job.ID, stepUpload, err)
	}

	if err := s.notify(ctx, req, key); err != nil {
		return "", s.fail(ctx, job.ID, stepNotify, err)
	}

	updated, err := s.repo.MarkReady(ctx, job.ID, key)
	if err != nil {
		return "", s.fail(ctx, job.ID, stepFinalize, err)
	}
	if !updated {
		// The job left processing/paid underneath us; keep the stored state.
		s.logger.WarnContext(ctx, "job not marked ready, status already terminal", "job_id", job.ID)
	}

	// The stored archive is now the artifact of record; local files of a
	// successful run are deleted so the work root does not grow without bound.
	// Failed runs keep their workdir for inspection.
	s.removeLocal(ctx, job.ID, archivePath, workDir)
	return key, nil
}

func (s *PipelineService) removeLocal(ctx context.Context, jobID string, paths ...string) {
	for _, p := range paths {
		if err := os.RemoveAll(p); err != nil {
			s.logger.WarnContext(ctx, "removing local job files failed",
				"job_id", jobID, "path", p, "error", err)
		}
	}
}

// enhanceAll fans per-image enhancement across a bounded worker group.
// Output order equals input order: slot i of the result is always image i.
func (s *PipelineService) enhanceAll(ctx context.Context, photos []string, imagesDir string) ([]string, error) {
	if len(photos) == 0 {
		return nil, errors.New("no photos to enhance")
	}

	enhanced := make([]string, len(photos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.enhanceWorkers)

	for i, src := range photos {
		dst := filepath.Join(imagesDir, fmt.Sprintf(media.ImagePattern, i+1))
		enhanced[i] = dst
		g.Go(func() error {
			return s.enhancer.Enhance(gctx, src, dst)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return enhanced, nil
}

func (s *PipelineService) notify(ctx context.Context, req *GenerateRequest, key string) error {
	if s.mailer == nil || req.Email == "" {
		return nil
	}

	url, err := s.store.PresignGet(ctx, key, s.presignTTL)
	if err != nil {
		return fmt.Errorf("presign download link: %w", err)
	}
	return s.mailer.SendKitReady(ctx, core.NotificationParams{
		To:          req.Email,
		Address:     req.Address,
		DownloadURL: url,
	})
}

// fail records the failing step on the job and wraps the sentinel. The full
// cause is logged server-side only; callers get a generic failure.
func (s *PipelineService) fail(ctx context.Context, jobID, step string, cause error) error {
	s.logger.ErrorContext(ctx, "pipeline step failed",
		"job_id", jobID, "step", step, "error", cause)
	if _, err := s.repo.MarkFailed(ctx, jobID, step); err != nil {
		s.logger.ErrorContext(ctx, "mark job failed errored", "job_id", jobID, "error", err)
	}
	return fmt.Errorf("%s: %w", step, ErrGenerationFailed)
}

func writeCopyFile(path string, lc model.ListingCopy) error {
	data, err := json.MarshalIndent(lc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode copy: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write copy file: %w", err)
	}
	return nil
}
