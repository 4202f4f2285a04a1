// Package service contains the business logic of the marketing kit backend.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/propkit/marketing-kit-api/internal/core"
	"github.com/propkit/marketing-kit-api/internal/domain/model"
)

var (
	// ErrMissingSession is returned when a paid kind carries no payment
	// session identifier.
	ErrMissingSession = errors.New("payment session required")
	// ErrPaymentRequired is returned when the payment provider does not
	// report the session as settled.
	ErrPaymentRequired = errors.New("payment not confirmed")
)

// EntitlementOptions groups dependencies for EntitlementService.
type EntitlementOptions struct {
	Provider core.PaymentProvider // Required: payment provider
	Logger   *slog.Logger         // Optional: structured logger
}

// EntitlementService decides whether a generation request may proceed.
// It is advisory trust-the-provider logic: the payment provider remains the
// source of truth for payment state.
type EntitlementService struct {
	provider core.PaymentProvider
	logger   *slog.Logger
}

// NewEntitlementService constructs an EntitlementService.
func NewEntitlementService(opts EntitlementOptions) (*EntitlementService, error) {
	if opts.Provider == nil {
		return nil, errors.New("PaymentProvider is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EntitlementService{
		provider: opts.Provider,
		logger:   logger.With("component", "entitlement"),
	}, nil
}

// Authorize gates a generation request. Demo requests always pass without
// touching the provider; paid kinds require a correlation id resolving to a
// paid or complete session. On success it returns the email the payer gave
// at checkout so callers can fall back to it when the form omits one.
func (s *EntitlementService) Authorize(ctx context.Context, kind model.JobKind, correlationID string) (string, error) {
	if !kind.RequiresPayment() {
		return "", nil
	}
	if correlationID == "" {
		return "", ErrMissingSession
	}

	sess, err := s.provider.RetrieveSession(ctx, correlationID)
	if err != nil {
		s.logger.WarnContext(ctx, "payment session lookup failed",
			"correlation_id", correlationID, "error", err)
		return "", fmt.Errorf("verify payment session: %w", ErrPaymentRequired)
	}
	if !sess.Paid() {
		s.logger.InfoContext(ctx, "payment session not settled",
			"correlation_id", correlationID,
			"payment_status", sess.PaymentStatus,
			"session_status", sess.Status)
		return "", ErrPaymentRequired
	}
	return sess.CustomerEmail, nil
}
