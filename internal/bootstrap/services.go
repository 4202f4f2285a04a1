package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	"github.com/propkit/marketing-kit-api/config"
	"github.com/propkit/marketing-kit-api/internal/adapters/archive"
	"github.com/propkit/marketing-kit-api/internal/adapters/copygen"
	"github.com/propkit/marketing-kit-api/internal/adapters/docgen"
	"github.com/propkit/marketing-kit-api/internal/adapters/mailer"
	"github.com/propkit/marketing-kit-api/internal/adapters/media"
	"github.com/propkit/marketing-kit-api/internal/adapters/redisdedup"
	"github.com/propkit/marketing-kit-api/internal/adapters/s3store"
	"github.com/propkit/marketing-kit-api/internal/adapters/stripepay"
	"github.com/propkit/marketing-kit-api/internal/core"
	"github.com/propkit/marketing-kit-api/internal/data"
	"github.com/propkit/marketing-kit-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Entitlement *service.EntitlementService
	Pipeline    *service.PipelineService
	Webhooks    *service.WebhookService
	Jobs        *service.JobsService
	Provider    core.PaymentProvider
	Store       core.ObjectStore
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices builds the adapter and service graph.
func NewServices(ctx context.Context, deps *ServiceDeps) (*ServiceContainer, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.Pipeline.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir %s: %w", cfg.Pipeline.WorkDir, err)
	}

	jobRepo := data.NewJobRepo(deps.DB, logger)
	provider := stripepay.New(cfg.Stripe, logger)

	store, err := buildObjectStore(ctx, cfg.S3)
	if err != nil {
		return nil, err
	}

	var kitMailer core.Mailer
	if cfg.SMTP.Configured() {
		m, err := mailer.New(cfg.SMTP)
		if err != nil {
			return nil, fmt.Errorf("create mailer: %w", err)
		}
		kitMailer = m
	} else {
		logger.Info("smtp not configured, kit-ready mail disabled")
	}

	entitlement, err := service.NewEntitlementService(service.EntitlementOptions{
		Provider: provider,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("entitlement service: %w", err)
	}

	pipeline, err := service.NewPipelineService(service.PipelineOptions{
		Repo:     jobRepo,
		Copy:     copygen.New(cfg.OpenAI, logger),
		Enhancer: media.NewEnhancer(cfg.Pipeline.ImageMaxDim),
		Document: docgen.NewPDFRenderer(),
		Video: media.NewSlideshowRenderer(media.SlideshowOptions{
			SecondsPerImage: cfg.Pipeline.SecondsPerImage,
			FrameRate:       cfg.Pipeline.FrameRate,
			MaxHeight:       cfg.Pipeline.VideoMaxHeight,
		}),
		Archiver: archive.NewZipArchiver(),
		Store:    store,
		Mailer:   kitMailer,
		Logger:   logger,

		WorkRoot:       cfg.Pipeline.WorkDir,
		KeyPrefix:      cfg.S3.KeyPrefix,
		EnhanceWorkers: cfg.Pipeline.EnhanceWorkers,
		PresignTTL:     cfg.S3.PresignTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline service: %w", err)
	}

	var deduper core.EventDeduper
	if deps.RedisClient != nil {
		deduper = redisdedup.New(deps.RedisClient, cfg.Redis.EventTTL)
	}
	webhooks, err := service.NewWebhookService(service.WebhookOptions{
		Repo:    jobRepo,
		Deduper: deduper,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook service: %w", err)
	}

	jobs, err := service.NewJobsService(service.JobsOptions{Repo: jobRepo, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("jobs service: %w", err)
	}

	return &ServiceContainer{
		Entitlement: entitlement,
		Pipeline:    pipeline,
		Webhooks:    webhooks,
		Jobs:        jobs,
		Provider:    provider,
		Store:       store,
	}, nil
}

// buildObjectStore creates the S3 client, honoring a custom endpoint for
// minio/localstack setups.
func buildObjectStore(ctx context.Context, cfg config.S3Config) (*s3store.Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Custom endpoints rarely support virtual-hosted bucket addressing.
			o.UsePathStyle = true
		}
	})

	return s3store.New(client, cfg), nil
}
