// Package stripepay implements the payment provider port on Stripe.
package stripepay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/propkit/marketing-kit-api/config"
	"github.com/propkit/marketing-kit-api/internal/core"
	"github.com/propkit/marketing-kit-api/internal/domain/model"
)

// EventCheckoutCompleted is the event type that settles a checkout session.
const EventCheckoutCompleted = "checkout.session.completed"

// Provider talks to the Stripe API. It holds a dedicated client rather than
// the package-level singleton so tests and multi-tenant setups can construct
// isolated instances.
type Provider struct {
	api    *client.API
	cfg    config.StripeConfig
	logger *slog.Logger
}

// New creates a Stripe-backed payment provider.
func New(cfg config.StripeConfig, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &Provider{api: api, cfg: cfg, logger: logger.With("component", "stripe")}
}

// CreateCheckoutSession starts a checkout flow for a paid kind and returns
// the hosted checkout URL.
func (p *Provider) CreateCheckoutSession(ctx context.Context, params core.CheckoutParams) (string, error) {
	priceID, mode, err := p.lineItem(params.Kind)
	if err != nil {
		return "", err
	}

	sessParams := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(mode),
		SuccessURL: stripe.String(p.cfg.SuccessURL),
		CancelURL:  stripe.String(p.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
	}
	sessParams.Context = ctx
	if params.Email != "" {
		sessParams.CustomerEmail = stripe.String(params.Email)
	}

	sess, err := p.api.CheckoutSessions.New(sessParams)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (p *Provider) lineItem(kind model.JobKind) (priceID, mode string, err error) {
	switch kind {
	case model.JobKindOneTime:
		return p.cfg.OneTimePriceID, string(stripe.CheckoutSessionModePayment), nil
	case model.JobKindSubscription:
		return p.cfg.SubscriptionPriceID, string(stripe.CheckoutSessionModeSubscription), nil
	default:
		return "", "", fmt.Errorf("kind %q does not use checkout", kind)
	}
}

// RetrieveSession fetches the current state of a checkout session.
func (p *Provider) RetrieveSession(ctx context.Context, sessionID string) (*core.PaymentSession, error) {
	getParams := &stripe.CheckoutSessionParams{}
	getParams.Context = ctx

	sess, err := p.api.CheckoutSessions.Get(sessionID, getParams)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", sessionID, err)
	}
	return &core.PaymentSession{
		ID:            sess.ID,
		PaymentStatus: string(sess.PaymentStatus),
		Status:        string(sess.Status),
		CustomerEmail: sess.CustomerEmail,
	}, nil
}

// VerifyWebhook checks the Stripe signature over the raw request body and
// decodes the event. The payload must be the original bytes; any prior
// structural parsing breaks signature verification.
func (p *Provider) VerifyWebhook(payload []byte, signatureHeader string) (*core.WebhookEvent, error) {
	if p.cfg.WebhookSecret == "" {
		return nil, errors.New("webhook secret not configured")
	}

	event, err := webhook.ConstructEvent(payload, signatureHeader, p.cfg.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}

	out := &core.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type == EventCheckoutCompleted {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session from event %s: %w", event.ID, err)
		}
		out.SessionID = sess.ID
	}
	return out, nil
}
