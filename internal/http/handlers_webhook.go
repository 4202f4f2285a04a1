package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/propkit/marketing-kit-api/internal/core"
)

// Stripe caps event payloads well below this; anything larger is not a
// legitimate delivery.
const maxWebhookBodyBytes = 1 << 20

// WebhookProcessor applies a verified payment provider event.
type WebhookProcessor interface {
	Process(ctx context.Context, event *core.WebhookEvent) error
}

// WebhookHandlers provides the HTTP handler for payment provider events.
type WebhookHandlers struct {
	Provider  core.PaymentProvider
	Processor WebhookProcessor
}

// Receive verifies the event signature over the raw body and applies it.
// The body must reach verification byte-for-byte as sent, so this handler
// reads it directly instead of going through any decoding helper.
func (h *WebhookHandlers) Receive(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_body", Err: errors.New("could not read request body")})
		return
	}

	event, err := h.Provider.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		// An unverified payload is never acted on.
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_signature", Err: errors.New("webhook signature verification failed")})
		return
	}

	if err := h.Processor.Process(r.Context(), event); err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "event_failed",
			Err:     errors.New("could not apply event"),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
