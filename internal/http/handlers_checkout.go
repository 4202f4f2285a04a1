package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/propkit/marketing-kit-api/internal/core"
	"github.com/propkit/marketing-kit-api/internal/domain/model"
)

// CheckoutHandlers provides the HTTP handler for starting a payment flow.
type CheckoutHandlers struct {
	Provider core.PaymentProvider
}

type checkoutRequest struct {
	Kind  string `json:"kind"`
	Email string `json:"email"`
}

// CreateSession creates a provider checkout session and returns its URL.
func (h *CheckoutHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	var kind model.JobKind
	if err := kind.UnmarshalText([]byte(req.Kind)); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_kind", Err: err})
		return
	}
	if !kind.RequiresPayment() {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_kind",
			Err:     errors.New("demo kits do not require checkout"),
		})
		return
	}

	url, err := h.Provider.CreateCheckoutSession(r.Context(), core.CheckoutParams{
		Kind:  kind,
		Email: strings.TrimSpace(req.Email),
	})
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "checkout_failed",
			Err:     errors.New("could not start checkout"),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}
