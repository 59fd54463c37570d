package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/cre-mailflow/api/internal/domain"
	pfirestore "github.com/cre-mailflow/api/internal/platform/firestore"
	"github.com/cre-mailflow/api/internal/repositories"
)

const campaignCollection = "campaigns"

type campaignDocument struct {
	CompanyName         *string        `firestore:"company_name"`
	Logo                *string        `firestore:"logo"`
	PropertyType        *string        `firestore:"property_type"`
	OwnerType           *string        `firestore:"owner_type"`
	TargetState         *string        `firestore:"target_state"`
	TargetCity          *string        `firestore:"target_city"`
	MinSqFt             *int           `firestore:"min_sq_ft"`
	MinYearsOwned       *int           `firestore:"min_years_owned"`
	PriceRange          *string        `firestore:"price_range"`
	Website             *string        `firestore:"website"`
	Phone               *string        `firestore:"phone"`
	MailerFormat        string         `firestore:"mailer_format"`
	Quantity            int            `firestore:"quantity"`
	SelectedDesignStyle *string        `firestore:"selected_design_style"`
	SelectedDesign      map[string]any `firestore:"selected_design"`
	CreatedAt           time.Time      `firestore:"created_at"`
}

// CampaignDraftRepository stores drafts in the campaigns collection keyed by draft ID.
type CampaignDraftRepository struct {
	base *pfirestore.BaseRepository[campaignDocument]
}

var _ repositories.CampaignDraftRepository = (*CampaignDraftRepository)(nil)

// NewCampaignDraftRepository constructs a Firestore-backed draft repository.
func NewCampaignDraftRepository(provider *pfirestore.Provider) (*CampaignDraftRepository, error) {
	if provider == nil {
		return nil, errors.New("campaign draft repository requires firestore provider")
	}
	return &CampaignDraftRepository{
		base: pfirestore.NewBaseRepository[campaignDocument](provider, campaignCollection, nil),
	}, nil
}

// Insert creates the document; an existing ID is reported as a conflict.
func (r *CampaignDraftRepository) Insert(ctx context.Context, draft domain.CampaignDraft) (domain.SavedCampaignDraft, error) {
	if strings.TrimSpace(draft.ID) == "" {
		return domain.SavedCampaignDraft{}, errors.New("campaign draft id is required")
	}
	doc, err := toDocument(draft)
	if err != nil {
		return domain.SavedCampaignDraft{}, err
	}
	if _, err := r.base.Create(ctx, draft.ID, doc); err != nil {
		return domain.SavedCampaignDraft{}, err
	}
	return domain.SavedCampaignDraft{ID: draft.ID, CreatedAt: doc.CreatedAt}, nil
}

// Ping reads at most one document to prove the client can reach the project.
func (r *CampaignDraftRepository) Ping(ctx context.Context) error {
	return r.base.Ping(ctx)
}

func toDocument(draft domain.CampaignDraft) (campaignDocument, error) {
	doc := campaignDocument{
		CompanyName:   draft.CompanyName,
		Logo:          draft.Logo,
		PropertyType:  draft.PropertyType,
		OwnerType:     draft.OwnerType,
		TargetState:   draft.TargetState,
		TargetCity:    draft.TargetCity,
		MinSqFt:       draft.MinSqFt,
		MinYearsOwned: draft.MinYearsOwned,
		PriceRange:    draft.PriceRange,
		Website:       draft.Website,
		Phone:         draft.Phone,
		MailerFormat:  draft.MailerFormat,
		Quantity:      draft.Quantity,
		CreatedAt:     draft.CreatedAt.UTC(),
	}
	if draft.SelectedDesignStyle != "" {
		style := string(draft.SelectedDesignStyle)
		doc.SelectedDesignStyle = &style
	}
	// Stored as a nested map so the design stays queryable in the console.
	if len(draft.SelectedDesign) > 0 {
		if err := json.Unmarshal(draft.SelectedDesign, &doc.SelectedDesign); err != nil {
			return campaignDocument{}, errors.New("campaign draft: selected design must be a JSON object")
		}
	}
	return doc, nil
}
