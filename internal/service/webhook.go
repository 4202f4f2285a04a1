package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/propkit/marketing-kit-api/internal/adapters/stripepay"
	"github.com/propkit/marketing-kit-api/internal/core"
)

// WebhookOptions groups dependencies for WebhookService.
type WebhookOptions struct {
	Repo    core.JobRepository // Required
	Deduper core.EventDeduper  // Optional: duplicate deliveries reapply harmlessly without it
	Logger  *slog.Logger       // Optional
}

// WebhookService applies verified payment provider events to job records.
// Signature verification happens at the HTTP edge; this service only ever
// sees events that passed it.
type WebhookService struct {
	repo    core.JobRepository
	deduper core.EventDeduper
	logger  *slog.Logger
}

// NewWebhookService constructs a WebhookService.
func NewWebhookService(opts WebhookOptions) (*WebhookService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookService{
		repo:    opts.Repo,
		deduper: opts.Deduper,
		logger:  logger.With("component", "webhook"),
	}, nil
}

// Process applies one verified event. A completed checkout session marks the
// most recent matching job paid and clears its artifact reference; the event
// may race ahead of the generation request, so a missing match is a no-op,
// not an error. Other event types are acknowledged without state change
// (reserved for subscription lifecycle handling).
func (s *WebhookService) Process(ctx context.Context, event *core.WebhookEvent) error {
	if event == nil {
		return errors.New("event is required")
	}

	if s.deduper != nil {
		first, err := s.deduper.FirstDelivery(ctx, event.ID)
		if err != nil {
			// Dedup is best effort; the CAS status update makes a replay harmless.
			s.logger.WarnContext(ctx, "event dedup unavailable", "event_id", event.ID, "error", err)
		} else if !first {
			s.logger.InfoContext(ctx, "duplicate event delivery ignored",
				"event_id", event.ID, "type", event.Type)
			return nil
		}
	}

	switch event.Type {
	case stripepay.EventCheckoutCompleted:
		updated, err := s.repo.MarkPaidByCorrelation(ctx, event.SessionID)
		if err != nil {
			return fmt.Errorf("reconcile session %s: %w", event.SessionID, err)
		}
		s.logger.InfoContext(ctx, "checkout session completed",
			"event_id", event.ID, "session_id", event.SessionID, "job_updated", updated)
	default:
		s.logger.DebugContext(ctx, "event acknowledged without action",
			"event_id", event.ID, "type", event.Type)
	}
	return nil
}
