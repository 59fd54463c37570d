package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cre-mailflow/api/internal/platform/httpx"
	"github.com/cre-mailflow/api/internal/platform/requestctx"
	"github.com/cre-mailflow/api/internal/services"
)

// Logos arrive inline as data URIs.
const maxDesignRequestBody = 6 * 1024 * 1024

// DesignHandlers exposes the design generation endpoint.
type DesignHandlers struct {
	designs services.DesignGenerationService
	limiter rateLimiter
	metrics rateLimitMetrics
}

// DesignHandlersOption customises DesignHandlers.
type DesignHandlersOption func(*DesignHandlers)

// WithDesignRateLimit caps generation requests per client per minute. Zero disables the limit.
func WithDesignRateLimit(perMinute int, clock func() time.Time) DesignHandlersOption {
	return func(h *DesignHandlers) {
		h.limiter = newFixedWindowLimiter(perMinute, time.Minute, clock)
	}
}

// WithDesignRateLimitMetrics counts throttled requests.
func WithDesignRateLimitMetrics(m rateLimitMetrics) DesignHandlersOption {
	return func(h *DesignHandlers) {
		h.metrics = m
	}
}

// NewDesignHandlers constructs a new DesignHandlers instance.
func NewDesignHandlers(designs services.DesignGenerationService, opts ...DesignHandlersOption) *DesignHandlers {
	h := &DesignHandlers{designs: designs}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the /designs endpoints.
func (h *DesignHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.With(rateLimit(h.limiter, "designs", h.metrics)).Post("/", h.generateDesigns)
}

type generateDesignsResponse struct {
	Designs []services.MailerDesign `json:"designs"`
}

func (h *DesignHandlers) generateDesigns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.designs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "design service unavailable", http.StatusServiceUnavailable))
		return
	}

	var criteria services.BuyingCriteria
	if err := decodeJSONBody(w, r, maxDesignRequestBody, &criteria); err != nil {
		message := err.Error()
		if errors.Is(err, errEmptyBody) {
			message = "buying criteria are required"
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", message, http.StatusBadRequest))
		return
	}

	criteria = normalizeCriteria(criteria)
	requestctx.Annotate(ctx, "property_type", criteria.PropertyType)
	requestctx.Annotate(ctx, "target_state", criteria.TargetState)
	if !criteria.HasLogo() {
		httpx.WriteError(ctx, w, httpx.NewError("logo_required", "Please upload a logo", http.StatusBadRequest))
		return
	}

	designs, err := h.designs.GenerateDesigns(ctx, criteria)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("design_generation_failed", "Unable to generate designs", http.StatusInternalServerError))
		return
	}

	httpx.WriteJSON(w, http.StatusOK, generateDesignsResponse{Designs: designs})
}
