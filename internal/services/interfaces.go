package services

import (
	"context"
	"encoding/json"
	"time"

	domain "github.com/cre-mailflow/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	BuyingCriteria     = domain.BuyingCriteria
	MailerDesign       = domain.MailerDesign
	SavedCampaignDraft = domain.SavedCampaignDraft
	SystemHealthReport = domain.SystemHealthReport
)

// CampaignDraftSavedEvent is the event type published after a draft insert.
const CampaignDraftSavedEvent = "campaign.draft.saved"

// DesignGenerationService turns buying criteria into exactly three printable concepts.
type DesignGenerationService interface {
	GenerateDesigns(ctx context.Context, criteria BuyingCriteria) ([]MailerDesign, error)
}

// CheckoutService creates hosted payment sessions for a plan and quantity.
type CheckoutService interface {
	CreateSession(ctx context.Context, cmd CreateCheckoutSessionCommand) (CheckoutSessionResult, error)
}

// CampaignService records campaign drafts ahead of payment.
type CampaignService interface {
	// SaveDraft returns (nil, nil) when no store is configured.
	SaveDraft(ctx context.Context, cmd SaveCampaignDraftCommand) (*SavedCampaignDraft, error)
}

// SystemService exposes operational metadata.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
	Build() BuildInfo
	Uptime() time.Duration
}

// CampaignEventPublisher fans campaign lifecycle events out to downstream consumers.
type CampaignEventPublisher interface {
	PublishDraftSaved(ctx context.Context, event CampaignDraftEvent) (string, error)
}

// CreateCheckoutSessionCommand carries the raw checkout request.
type CreateCheckoutSessionCommand struct {
	PlanID         string
	Quantity       float64
	Origin         string
	IdempotencyKey string
}

// CheckoutSessionResult is the hosted page the buyer is redirected to.
type CheckoutSessionResult struct {
	SessionID string
	URL       string
	PlanID    domain.MailerType
	Quantity  int
}

// SaveCampaignDraftCommand bundles what the buyer picked before launching.
type SaveCampaignDraftCommand struct {
	Criteria BuyingCriteria
	Design   *MailerDesign
	PlanID   string
	Quantity int
}

// CampaignDraftEvent is the payload published after a draft is stored.
type CampaignDraftEvent struct {
	DraftID      string             `json:"draftId"`
	CreatedAt    time.Time          `json:"createdAt"`
	CompanyName  string             `json:"companyName,omitempty"`
	PropertyType string             `json:"propertyType,omitempty"`
	State        string             `json:"state,omitempty"`
	City         string             `json:"city,omitempty"`
	MailerFormat string             `json:"mailerFormat"`
	Quantity     *int               `json:"quantity,omitempty"`
	DesignStyle  domain.DesignStyle `json:"designStyle,omitempty"`
	Design       json.RawMessage    `json:"design,omitempty"`
}
