package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cre-mailflow/api/internal/domain"
	"github.com/cre-mailflow/api/internal/repositories"
	ppostgres "github.com/cre-mailflow/api/internal/platform/postgres"
)

type campaignRecord struct {
	ID                  string    `gorm:"column:id;primaryKey"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	CompanyName         *string   `gorm:"column:company_name"`
	Logo                *string   `gorm:"column:logo"`
	PropertyType        *string   `gorm:"column:property_type"`
	OwnerType           *string   `gorm:"column:owner_type"`
	TargetState         *string   `gorm:"column:target_state"`
	TargetCity          *string   `gorm:"column:target_city"`
	MinSqFt             *int      `gorm:"column:min_sq_ft"`
	MinYearsOwned       *int      `gorm:"column:min_years_owned"`
	PriceRange          *string   `gorm:"column:price_range"`
	Website             *string   `gorm:"column:website"`
	Phone               *string   `gorm:"column:phone"`
	MailerFormat        string    `gorm:"column:mailer_format"`
	Quantity            int       `gorm:"column:quantity"`
	SelectedDesignStyle *string   `gorm:"column:selected_design_style"`
	SelectedDesign      *string   `gorm:"column:selected_design;type:jsonb"`
}

func (campaignRecord) TableName() string { return "campaigns" }

// CampaignDraftRepository inserts drafts into the campaigns table.
type CampaignDraftRepository struct {
	db *gorm.DB
}

var _ repositories.CampaignDraftRepository = (*CampaignDraftRepository)(nil)

// NewCampaignDraftRepository wraps an open gorm handle.
func NewCampaignDraftRepository(db *gorm.DB) (*CampaignDraftRepository, error) {
	if db == nil {
		return nil, errors.New("campaign draft repository requires a database handle")
	}
	return &CampaignDraftRepository{db: db}, nil
}

// Insert writes a single row.
func (r *CampaignDraftRepository) Insert(ctx context.Context, draft domain.CampaignDraft) (domain.SavedCampaignDraft, error) {
	record := toRecord(draft)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return domain.SavedCampaignDraft{}, wrapError("campaigns.insert", err)
	}
	return domain.SavedCampaignDraft{ID: record.ID, CreatedAt: record.CreatedAt.UTC()}, nil
}

// Ping checks connectivity.
func (r *CampaignDraftRepository) Ping(ctx context.Context) error {
	return ppostgres.Ping(ctx, r.db)
}

func toRecord(draft domain.CampaignDraft) campaignRecord {
	record := campaignRecord{
		ID:            draft.ID,
		CreatedAt:     draft.CreatedAt,
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
	}
	if draft.SelectedDesignStyle != "" {
		style := string(draft.SelectedDesignStyle)
		record.SelectedDesignStyle = &style
	}
	if len(draft.SelectedDesign) > 0 {
		design := string(draft.SelectedDesign)
		record.SelectedDesign = &design
	}
	return record
}

// Error classifies gorm failures for services.
type Error struct {
	op  string
	err error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.op, e.err) }
func (e *Error) Unwrap() error { return e.err }

func (e *Error) IsNotFound() bool { return errors.Is(e.err, gorm.ErrRecordNotFound) }

func (e *Error) IsConflict() bool {
	return errors.Is(e.err, gorm.ErrDuplicatedKey) || errors.Is(e.err, gorm.ErrForeignKeyViolated)
}

func (e *Error) IsUnavailable() bool {
	return !e.IsNotFound() && !e.IsConflict() && !errors.Is(e.err, gorm.ErrInvalidData)
}

func wrapError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &Error{op: op, err: err}
}
