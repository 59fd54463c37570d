package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cre-mailflow/api/internal/domain"
	"github.com/cre-mailflow/api/internal/repositories"
)

var bucketCampaigns = []byte("campaigns")

// ErrDraftExists is returned when a draft ID is reused.
var ErrDraftExists = errors.New("bolt: campaign draft already exists")

type campaignRecord struct {
	ID                  string          `json:"id"`
	CreatedAt           time.Time       `json:"created_at"`
	CompanyName         *string         `json:"company_name"`
	Logo                *string         `json:"logo"`
	PropertyType        *string         `json:"property_type"`
	OwnerType           *string         `json:"owner_type"`
	TargetState         *string         `json:"target_state"`
	TargetCity          *string         `json:"target_city"`
	MinSqFt             *int            `json:"min_sq_ft"`
	MinYearsOwned       *int            `json:"min_years_owned"`
	PriceRange          *string         `json:"price_range"`
	Website             *string         `json:"website"`
	Phone               *string         `json:"phone"`
	MailerFormat        string          `json:"mailer_format"`
	Quantity            int             `json:"quantity"`
	SelectedDesignStyle string          `json:"selected_design_style,omitempty"`
	SelectedDesign      json.RawMessage `json:"selected_design,omitempty"`
}

// Open opens (creating when needed) the Bolt file at path.
func Open(path string) (*bolt.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create bolt directory: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}
	return db, nil
}

// CampaignDraftRepository keeps drafts in a local Bolt file, keyed by their sortable ID.
type CampaignDraftRepository struct {
	db *bolt.DB
}

var _ repositories.CampaignDraftRepository = (*CampaignDraftRepository)(nil)

// NewCampaignDraftRepository ensures the campaigns bucket exists.
func NewCampaignDraftRepository(db *bolt.DB) (*CampaignDraftRepository, error) {
	if db == nil {
		return nil, errors.New("campaign draft repository requires a bolt database")
	}
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCampaigns)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create campaigns bucket: %w", err)
	}
	return &CampaignDraftRepository{db: db}, nil
}

// Insert stores the draft as JSON.
func (r *CampaignDraftRepository) Insert(ctx context.Context, draft domain.CampaignDraft) (domain.SavedCampaignDraft, error) {
	if err := ctx.Err(); err != nil {
		return domain.SavedCampaignDraft{}, err
	}
	if strings.TrimSpace(draft.ID) == "" {
		return domain.SavedCampaignDraft{}, errors.New("campaign draft id is required")
	}

	record := campaignRecord{
		ID:                  draft.ID,
		CreatedAt:           draft.CreatedAt.UTC(),
		CompanyName:         draft.CompanyName,
		Logo:                draft.Logo,
		PropertyType:        draft.PropertyType,
		OwnerType:           draft.OwnerType,
		TargetState:         draft.TargetState,
		TargetCity:          draft.TargetCity,
		MinSqFt:             draft.MinSqFt,
		MinYearsOwned:       draft.MinYearsOwned,
		PriceRange:          draft.PriceRange,
		Website:             draft.Website,
		Phone:               draft.Phone,
		MailerFormat:        draft.MailerFormat,
		Quantity:            draft.Quantity,
		SelectedDesignStyle: string(draft.SelectedDesignStyle),
		SelectedDesign:      draft.SelectedDesign,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return domain.SavedCampaignDraft{}, fmt.Errorf("failed to marshal campaign draft: %w", err)
	}

	err = r.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketCampaigns)
		key := []byte(record.ID)
		if bucket.Get(key) != nil {
			return ErrDraftExists
		}
		return bucket.Put(key, data)
	})
	if err != nil {
		return domain.SavedCampaignDraft{}, &Error{op: "campaigns.insert", err: err}
	}
	return domain.SavedCampaignDraft{ID: record.ID, CreatedAt: record.CreatedAt}, nil
}

// Count returns the number of stored drafts.
func (r *CampaignDraftRepository) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketCampaigns).Stats().KeyN
		return nil
	})
	return n, err
}

// Ping opens a read transaction, which fails once the database is closed.
func (r *CampaignDraftRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.View(func(*bolt.Tx) error { return nil })
}

// Error classifies Bolt failures.
type Error struct {
	op  string
	err error
}

func (e *Error) Error() string       { return fmt.Sprintf("%s: %v", e.op, e.err) }
func (e *Error) Unwrap() error       { return e.err }
func (e *Error) IsNotFound() bool    { return false }
func (e *Error) IsConflict() bool    { return errors.Is(e.err, ErrDraftExists) }
func (e *Error) IsUnavailable() bool { return errors.Is(e.err, bolt.ErrDatabaseNotOpen) }
