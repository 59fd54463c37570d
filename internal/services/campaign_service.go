package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/cre-mailflow/api/internal/domain"
	"github.com/cre-mailflow/api/internal/platform/textutil"
	"github.com/cre-mailflow/api/internal/repositories"
)

const (
	draftResultSaved   = "saved"
	draftResultSkipped = "skipped"
	draftResultFailed  = "failed"
)

type campaignMetrics interface {
	IncCampaignDraft(result string)
}

// CampaignServiceDeps wires the draft persister. A nil Drafts repository turns SaveDraft into a no-op.
type CampaignServiceDeps struct {
	Drafts    repositories.CampaignDraftRepository
	Publisher CampaignEventPublisher
	Metrics   campaignMetrics
	Clock     func() time.Time
	IDGen     func() string
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type campaignService struct {
	drafts    repositories.CampaignDraftRepository
	publisher CampaignEventPublisher
	metrics   campaignMetrics
	now       func() time.Time
	newID     func() string
	logger    func(ctx context.Context, event string, fields map[string]any)
}

var _ CampaignService = (*campaignService)(nil)

// NewCampaignService constructs the campaign draft service.
func NewCampaignService(deps CampaignServiceDeps) CampaignService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGen
	if idGen == nil {
		idGen = func() string {
			return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &campaignService{
		drafts:    deps.Drafts,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		now: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}
}

func (s *campaignService) SaveDraft(ctx context.Context, cmd SaveCampaignDraftCommand) (*SavedCampaignDraft, error) {
	if s.drafts == nil {
		s.count(draftResultSkipped)
		s.logger(ctx, "campaigns.draft_skipped", map[string]any{"reason": "store not configured"})
		return nil, nil
	}

	draft, err := s.buildDraft(cmd)
	if err != nil {
		s.count(draftResultFailed)
		return nil, err
	}

	saved, err := s.drafts.Insert(ctx, draft)
	if err != nil {
		s.count(draftResultFailed)
		s.logger(ctx, "campaigns.draft_insert_failed", map[string]any{
			"draftId": draft.ID,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("campaign service: insert draft: %w", err)
	}
	if saved.ID == "" {
		saved.ID = draft.ID
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = draft.CreatedAt
	}

	s.count(draftResultSaved)
	s.logger(ctx, "campaigns.draft_saved", map[string]any{
		"draftId":      saved.ID,
		"mailerFormat": draft.MailerFormat,
		"quantity":     draft.Quantity,
	})
	s.publish(ctx, draft, saved)

	return &saved, nil
}

func (s *campaignService) buildDraft(cmd SaveCampaignDraftCommand) (domain.CampaignDraft, error) {
	criteria := cmd.Criteria
	draft := domain.CampaignDraft{
		ID:            s.newID(),
		CompanyName:   textutil.OptionalString(criteria.CompanyName),
		Logo:          optionalRaw(criteria.Logo),
		PropertyType:  textutil.OptionalString(criteria.PropertyType),
		OwnerType:     textutil.OptionalString(criteria.OwnerType),
		TargetState:   textutil.OptionalString(criteria.TargetState),
		TargetCity:    textutil.OptionalString(criteria.TargetCity),
		MinSqFt:       textutil.IntOrNil(criteria.MinSqFt),
		MinYearsOwned: textutil.IntOrNil(criteria.MinYearsOwned),
		PriceRange:    textutil.OptionalString(criteria.PriceRange),
		Website:       textutil.OptionalString(criteria.Website),
		Phone:         textutil.OptionalString(criteria.PhoneNumber),
		MailerFormat:  mailerFormat(cmd.PlanID),
		Quantity:      cmd.Quantity,
		CreatedAt:     s.now(),
	}

	if cmd.Design != nil {
		payload, err := json.Marshal(cmd.Design)
		if err != nil {
			return domain.CampaignDraft{}, fmt.Errorf("campaign service: encode design: %w", err)
		}
		draft.SelectedDesign = payload
		draft.SelectedDesignStyle = cmd.Design.Style
	}
	return draft, nil
}

func (s *campaignService) publish(ctx context.Context, draft domain.CampaignDraft, saved SavedCampaignDraft) {
	if s.publisher == nil {
		return
	}
	quantity := draft.Quantity
	event := CampaignDraftEvent{
		DraftID:      saved.ID,
		CreatedAt:    saved.CreatedAt,
		CompanyName:  deref(draft.CompanyName),
		PropertyType: deref(draft.PropertyType),
		State:        deref(draft.TargetState),
		City:         deref(draft.TargetCity),
		MailerFormat: draft.MailerFormat,
		Quantity:     &quantity,
		DesignStyle:  draft.SelectedDesignStyle,
		Design:       draft.SelectedDesign,
	}
	messageID, err := s.publisher.PublishDraftSaved(ctx, event)
	if err != nil {
		s.logger(ctx, "campaigns.draft_publish_failed", map[string]any{
			"draftId": saved.ID,
			"error":   err.Error(),
		})
		return
	}
	s.logger(ctx, "campaigns.draft_published", map[string]any{
		"draftId":   saved.ID,
		"messageId": messageID,
	})
}

func (s *campaignService) count(result string) {
	if s.metrics != nil {
		s.metrics.IncCampaignDraft(result)
	}
}

// mailerFormat records the catalog name when the plan is known, otherwise the raw identifier.
func mailerFormat(planID string) string {
	if mailerType, ok := domain.ParseMailerType(planID); ok {
		if plan, ok := domain.Plan(mailerType); ok {
			return plan.Name
		}
	}
	return strings.TrimSpace(planID)
}

// optionalRaw keeps data URIs byte-for-byte.
func optionalRaw(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
