package services

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/cre-mailflow/api/internal/platform/metrics"
	"github.com/cre-mailflow/api/internal/platform/requestctx"
)

const defaultDesignModel = "gemini-1.5-flash"

// Fallback reasons recorded alongside the outcome.
const (
	fallbackReasonNotConfigured = "not_configured"
	fallbackReasonUpstream      = "upstream_error"
	fallbackReasonMalformed     = "malformed_response"
	fallbackReasonShape         = "invalid_shape"
)

// DesignGenerator performs a single JSON-mode completion.
type DesignGenerator interface {
	GenerateJSON(ctx context.Context, model, prompt string) (string, error)
}

type designMetrics interface {
	ObserveDesignGeneration(outcome, reason string, seconds float64)
}

// DesignGenerationServiceDeps wires the design pipeline. A nil Generator disables generation.
type DesignGenerationServiceDeps struct {
	Generator DesignGenerator
	Model     string
	Metrics   designMetrics
	Clock     func() time.Time
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type designGenerationService struct {
	generator DesignGenerator
	model     string
	metrics   designMetrics
	policy    *bluemonday.Policy
	now       func() time.Time
	logger    func(ctx context.Context, event string, fields map[string]any)
}

var _ DesignGenerationService = (*designGenerationService)(nil)

// NewDesignGenerationService constructs the design pipeline.
func NewDesignGenerationService(deps DesignGenerationServiceDeps) DesignGenerationService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	model := strings.TrimSpace(deps.Model)
	if model == "" {
		model = defaultDesignModel
	}

	return &designGenerationService{
		generator: deps.Generator,
		model:     model,
		metrics:   deps.Metrics,
		policy:    bluemonday.StrictPolicy(),
		now:       clock,
		logger:    logger,
	}
}

// GenerateDesigns never surfaces a generation failure; any problem yields the fallback set.
func (s *designGenerationService) GenerateDesigns(ctx context.Context, criteria BuyingCriteria) ([]MailerDesign, error) {
	start := s.now()

	if s.generator == nil {
		return s.fallback(ctx, criteria, start, fallbackReasonNotConfigured, nil), nil
	}

	text, err := s.generator.GenerateJSON(ctx, s.model, BuildDesignPrompt(criteria))
	if err != nil {
		return s.fallback(ctx, criteria, start, fallbackReasonUpstream, err), nil
	}

	designs, err := ParseDesigns(text)
	if err != nil {
		reason := fallbackReasonMalformed
		if errors.Is(err, ErrDesignCount) {
			reason = fallbackReasonShape
		}
		return s.fallback(ctx, criteria, start, reason, err), nil
	}

	for i := range designs {
		designs[i] = s.sanitize(designs[i])
	}
	if err := ValidateDesigns(designs); err != nil {
		return s.fallback(ctx, criteria, start, fallbackReasonShape, err), nil
	}

	s.observe(ctx, metrics.OutcomeGenerated, "", start)
	s.logger(ctx, "designs.generated", map[string]any{
		"model":        s.model,
		"propertyType": criteria.PropertyType,
	})
	return designs, nil
}

func (s *designGenerationService) fallback(ctx context.Context, criteria BuyingCriteria, start time.Time, reason string, cause error) []MailerDesign {
	s.observe(ctx, metrics.OutcomeFallback, reason, start)
	fields := map[string]any{
		"reason":       reason,
		"propertyType": criteria.PropertyType,
	}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	s.logger(ctx, "designs.fallback", fields)
	return FallbackDesigns(criteria)
}

func (s *designGenerationService) observe(ctx context.Context, outcome, reason string, start time.Time) {
	requestctx.Annotate(ctx, "design_outcome", outcome)
	if reason != "" {
		requestctx.Annotate(ctx, "fallback_reason", reason)
	}
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDesignGeneration(outcome, reason, s.now().Sub(start).Seconds())
}

// plainTextEntities restores only the entities the policy emits for harmless punctuation. Escaped
// angle brackets stay escaped so decoded output can never form a tag.
var plainTextEntities = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`)

// sanitize strips markup from every generated text field. Entities are decoded before the policy
// runs so entity-encoded tags are stripped too.
func (s *designGenerationService) sanitize(design MailerDesign) MailerDesign {
	clean := func(value string) string {
		return strings.TrimSpace(plainTextEntities.Replace(s.policy.Sanitize(html.UnescapeString(value))))
	}
	design.ID = clean(design.ID)
	design.Name = clean(design.Name)
	design.Front.Headline = clean(design.Front.Headline)
	design.Front.SubHeadline = clean(design.Front.SubHeadline)
	design.Front.BodyCopy = clean(design.Front.BodyCopy)
	design.Front.CTA = clean(design.Front.CTA)
	design.Back.Headline = clean(design.Back.Headline)
	design.Back.SocialProof = clean(design.Back.SocialProof)
	design.Back.Testimonial = clean(design.Back.Testimonial)
	design.Back.Guarantee = clean(design.Back.Guarantee)
	design.Back.SecondaryCTA = clean(design.Back.SecondaryCTA)
	if design.Back.Benefits != nil {
		benefits := make([]string, len(design.Back.Benefits))
		for i, benefit := range design.Back.Benefits {
			benefits[i] = clean(benefit)
		}
		design.Back.Benefits = benefits
	}
	return design
}
