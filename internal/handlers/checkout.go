package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/cre-mailflow/api/internal/platform/httpx"
	"github.com/cre-mailflow/api/internal/platform/requestctx"
	"github.com/cre-mailflow/api/internal/services"
)

const maxCheckoutRequestBody = 16 * 1024

// CheckoutHandlers creates hosted checkout sessions.
type CheckoutHandlers struct {
	checkout services.CheckoutService
}

// NewCheckoutHandlers constructs a new CheckoutHandlers instance.
func NewCheckoutHandlers(checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout}
}

type createCheckoutSessionRequest struct {
	PlanID   string          `json:"planId"`
	Quantity json.RawMessage `json:"quantity"`
}

type createCheckoutSessionResponse struct {
	URL string `json:"url"`
}

// CreateSession handles POST /api/create-checkout-session.
func (h *CheckoutHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		httpx.WriteError(ctx, w, httpx.NewError("method_not_allowed", "Method not allowed", http.StatusMethodNotAllowed))
		return
	}
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload createCheckoutSessionRequest
	if err := decodeJSONBody(w, r, maxCheckoutRequestBody, &payload); err != nil && !errors.Is(err, errEmptyBody) {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	requestctx.Annotate(ctx, "plan_id", payload.PlanID)
	result, err := h.checkout.CreateSession(ctx, services.CreateCheckoutSessionCommand{
		PlanID:         payload.PlanID,
		Quantity:       parseQuantity(payload.Quantity),
		Origin:         r.Header.Get("Origin"),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, createCheckoutSessionResponse{URL: result.URL})
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "Unable to create checkout session", http.StatusInternalServerError))
	}
}

// parseQuantity accepts a JSON number or numeric string. A blank string counts as zero and anything
// else unparseable as NaN, both of which fail the minimum.
func parseQuantity(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return math.NaN()
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return math.NaN()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return math.NaN()
	}
	return value
}
