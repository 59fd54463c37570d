package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cre-mailflow/api/internal/platform/httpx"
	"github.com/cre-mailflow/api/internal/platform/requestctx"
	"github.com/cre-mailflow/api/internal/services"
)

const maxCampaignRequestBody = 6 * 1024 * 1024

// CampaignHandlers records campaign drafts before checkout.
type CampaignHandlers struct {
	campaigns services.CampaignService
}

// NewCampaignHandlers constructs a new CampaignHandlers instance.
func NewCampaignHandlers(campaigns services.CampaignService) *CampaignHandlers {
	return &CampaignHandlers{campaigns: campaigns}
}

// Routes registers the /campaigns endpoints.
func (h *CampaignHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/drafts", h.saveDraft)
}

type saveDraftRequest struct {
	Criteria services.BuyingCriteria `json:"criteria"`
	Design   *services.MailerDesign  `json:"design"`
	PlanID   string                  `json:"planId"`
	Quantity int                     `json:"quantity"`
}

type saveDraftResponse struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
}

func (h *CampaignHandlers) saveDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.campaigns == nil {
		httpx.WriteJSON(w, http.StatusOK, saveDraftResponse{Skipped: true})
		return
	}

	var payload saveDraftRequest
	if err := decodeJSONBody(w, r, maxCampaignRequestBody, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	requestctx.Annotate(ctx, "plan_id", payload.PlanID)
	saved, err := h.campaigns.SaveDraft(ctx, services.SaveCampaignDraftCommand{
		Criteria: normalizeCriteria(payload.Criteria),
		Design:   payload.Design,
		PlanID:   payload.PlanID,
		Quantity: payload.Quantity,
	})
	if err != nil {
		requestctx.Annotate(ctx, "draft_result", "failed")
		httpx.WriteError(ctx, w, httpx.NewError("campaign_store_failed", "Could not save campaign", http.StatusBadGateway))
		return
	}
	if saved == nil {
		requestctx.Annotate(ctx, "draft_result", "skipped")
		httpx.WriteJSON(w, http.StatusOK, saveDraftResponse{Skipped: true})
		return
	}

	requestctx.Annotate(ctx, "draft_result", "saved")
	requestctx.Annotate(ctx, "draft_id", saved.ID)
	httpx.WriteJSON(w, http.StatusCreated, saveDraftResponse{
		ID:        saved.ID,
		CreatedAt: saved.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}
