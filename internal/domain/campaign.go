package domain

import (
	"encoding/json"
	"time"
)

// CampaignDraft is the snapshot recorded before a buyer is sent to payment.
// Optional text fields are nil when the buyer left them blank.
type CampaignDraft struct {
	ID                  string
	CompanyName         *string
	Logo                *string
	PropertyType        *string
	OwnerType           *string
	TargetState         *string
	TargetCity          *string
	MinSqFt             *int
	MinYearsOwned       *int
	PriceRange          *string
	Website             *string
	Phone               *string
	MailerFormat        string
	Quantity            int
	SelectedDesignStyle DesignStyle
	SelectedDesign      json.RawMessage
	CreatedAt           time.Time
}

// SavedCampaignDraft identifies an inserted draft.
type SavedCampaignDraft struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
