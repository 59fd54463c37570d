package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cre-mailflow/api/internal/domain"
	"github.com/cre-mailflow/api/internal/platform/httpx"
)

// CatalogHandlers serves the static plan catalog and form option sets.
type CatalogHandlers struct{}

// NewCatalogHandlers constructs a new CatalogHandlers instance.
func NewCatalogHandlers() *CatalogHandlers {
	return &CatalogHandlers{}
}

// Routes registers catalog endpoints directly under the API prefix.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/plans", h.listPlans)
	r.Get("/plans/{planId}/quote", h.quote)
	r.Get("/criteria/options", h.criteriaOptions)
}

type planPayload struct {
	domain.PricingPlan
	Features []string `json:"features"`
}

type listPlansResponse struct {
	Plans           []planPayload `json:"plans"`
	MinimumQuantity int           `json:"minimumQuantity"`
	SupportEmail    string        `json:"supportEmail"`
}

type quoteResponse struct {
	PlanID       domain.MailerType `json:"planId"`
	Quantity     int               `json:"quantity"`
	PricePerUnit float64           `json:"pricePerUnit"`
	Total        string            `json:"total"`
}

type criteriaOptionsResponse struct {
	PropertyTypes []string `json:"propertyTypes"`
	OwnerTypes    []string `json:"ownerTypes"`
	PriceRanges   []string `json:"priceRanges"`
}

func (h *CatalogHandlers) listPlans(w http.ResponseWriter, r *http.Request) {
	plans := domain.PricingPlans()
	resp := listPlansResponse{
		Plans:           make([]planPayload, 0, len(plans)),
		MinimumQuantity: domain.MinimumQuantity,
		SupportEmail:    domain.SupportEmail,
	}
	for _, plan := range plans {
		resp.Plans = append(resp.Plans, planPayload{
			PricingPlan: plan,
			Features:    append([]string(nil), domain.PlanFeatures...),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandlers) quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mailerType, ok := domain.ParseMailerType(chi.URLParam(r, "planId"))
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("plan_not_found", "unknown plan", http.StatusNotFound))
		return
	}
	plan, _ := domain.Plan(mailerType)

	quantity := domain.MinimumQuantity
	if raw := strings.TrimSpace(r.URL.Query().Get("quantity")); raw != "" {
		parsed, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "quantity must be a whole number", http.StatusBadRequest))
			return
		}
		quantity = parsed
	}
	if quantity < domain.MinimumQuantity {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("Minimum quantity is %d", domain.MinimumQuantity), http.StatusBadRequest))
		return
	}

	httpx.WriteJSON(w, http.StatusOK, quoteResponse{
		PlanID:       plan.ID,
		Quantity:     quantity,
		PricePerUnit: plan.PricePerUnit,
		Total:        plan.FormatTotal(quantity),
	})
}

func (h *CatalogHandlers) criteriaOptions(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, criteriaOptionsResponse{
		PropertyTypes: domain.PropertyTypes,
		OwnerTypes:    domain.OwnerTypes,
		PriceRanges:   domain.PriceRanges,
	})
}
