package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	domain "github.com/cre-mailflow/api/internal/domain"
	"github.com/cre-mailflow/api/internal/payments"
)

const (
	defaultCheckoutFallbackBaseURL = "http://localhost:5173"

	checkoutResultCreated  = "created"
	checkoutResultRejected = "rejected"
	checkoutResultFailed   = "failed"
)

var (
	// ErrCheckoutInvalidInput indicates the caller supplied invalid input parameters.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrCheckoutUnavailable indicates checkout dependencies are currently unavailable.
	ErrCheckoutUnavailable = errors.New("checkout: unavailable")
	// ErrCheckoutPaymentFailed indicates the PSP session could not be created.
	ErrCheckoutPaymentFailed = errors.New("checkout: payment failed")
)

// CheckoutInputError carries the message shown to the buyer for a rejected request.
type CheckoutInputError struct {
	Message string
}

func (e *CheckoutInputError) Error() string { return e.Message }

func (e *CheckoutInputError) Unwrap() error { return ErrCheckoutInvalidInput }

func invalidCheckout(format string, args ...any) error {
	return &CheckoutInputError{Message: fmt.Sprintf(format, args...)}
}

type checkoutMetrics interface {
	IncCheckoutSession(plan, result string)
}

// CheckoutServiceDeps wires the dependencies required by the checkout service.
// Prices maps upper-case plan identifiers to processor price IDs.
type CheckoutServiceDeps struct {
	Payments        payments.Provider
	Prices          map[string]string
	BaseURL         string
	FallbackBaseURL string
	Metrics         checkoutMetrics
	Clock           func() time.Time
	Logger          func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	payments        payments.Provider
	prices          map[string]string
	baseURL         string
	fallbackBaseURL string
	metrics         checkoutMetrics
	now             func() time.Time
	logger          func(ctx context.Context, event string, fields map[string]any)
}

var _ CheckoutService = (*checkoutService)(nil)

// NewCheckoutService constructs a CheckoutService. A nil payment provider is allowed: requests then
// validate normally and fail with ErrCheckoutUnavailable.
func NewCheckoutService(deps CheckoutServiceDeps) CheckoutService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	prices := make(map[string]string, len(deps.Prices))
	for plan, price := range deps.Prices {
		plan = strings.ToUpper(strings.TrimSpace(plan))
		price = strings.TrimSpace(price)
		if plan != "" && price != "" {
			prices[plan] = price
		}
	}

	fallback := strings.TrimRight(strings.TrimSpace(deps.FallbackBaseURL), "/")
	if fallback == "" {
		fallback = defaultCheckoutFallbackBaseURL
	}

	return &checkoutService{
		payments:        deps.Payments,
		prices:          prices,
		baseURL:         strings.TrimRight(strings.TrimSpace(deps.BaseURL), "/"),
		fallbackBaseURL: fallback,
		metrics:         deps.Metrics,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}
}

func (s *checkoutService) CreateSession(ctx context.Context, cmd CreateCheckoutSessionCommand) (CheckoutSessionResult, error) {
	planID := strings.ToUpper(strings.TrimSpace(cmd.PlanID))
	if planID == "" {
		s.count("", checkoutResultRejected)
		return CheckoutSessionResult{}, invalidCheckout("Missing planId")
	}

	quantity, ok := normalizeQuantity(cmd.Quantity)
	if !ok || quantity < domain.MinimumQuantity {
		s.count(planID, checkoutResultRejected)
		return CheckoutSessionResult{}, invalidCheckout("Minimum quantity is %d", domain.MinimumQuantity)
	}

	priceID, ok := s.prices[planID]
	if !ok {
		s.count(planID, checkoutResultRejected)
		return CheckoutSessionResult{}, invalidCheckout("Price ID missing for plan: %s", planID)
	}

	if s.payments == nil {
		s.count(planID, checkoutResultFailed)
		return CheckoutSessionResult{}, fmt.Errorf("%w: payment processor not configured", ErrCheckoutUnavailable)
	}

	baseURL := s.resolveBaseURL(cmd.Origin)
	req := payments.CheckoutSessionRequest{
		PriceID:        priceID,
		Quantity:       int64(quantity),
		SuccessURL:     baseURL + "/?success=true&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:      baseURL + "/?canceled=true",
		IdempotencyKey: strings.TrimSpace(cmd.IdempotencyKey),
		Metadata: map[string]string{
			"planId":   planID,
			"quantity": strconv.Itoa(quantity),
		},
	}

	session, err := s.payments.CreateCheckoutSession(ctx, req)
	if err != nil {
		s.count(planID, checkoutResultFailed)
		s.logger(ctx, "checkout.session_failed", map[string]any{
			"planId":   planID,
			"quantity": quantity,
			"error":    err.Error(),
		})
		return CheckoutSessionResult{}, fmt.Errorf("%w: %w", ErrCheckoutPaymentFailed, err)
	}
	if strings.TrimSpace(session.RedirectURL) == "" {
		s.count(planID, checkoutResultFailed)
		s.logger(ctx, "checkout.session_missing_url", map[string]any{
			"planId":    planID,
			"sessionId": session.ID,
		})
		return CheckoutSessionResult{}, fmt.Errorf("%w: session %s has no redirect url", ErrCheckoutPaymentFailed, session.ID)
	}

	s.count(planID, checkoutResultCreated)
	s.logger(ctx, "checkout.session_created", map[string]any{
		"planId":    planID,
		"quantity":  quantity,
		"sessionId": session.ID,
		"at":        s.now(),
	})

	return CheckoutSessionResult{
		SessionID: session.ID,
		URL:       session.RedirectURL,
		PlanID:    domain.MailerType(planID),
		Quantity:  quantity,
	}, nil
}

// resolveBaseURL prefers the configured deployment URL, then an http(s) Origin, then the fallback.
func (s *checkoutService) resolveBaseURL(origin string) string {
	if s.baseURL != "" {
		return s.baseURL
	}
	origin = strings.TrimSpace(origin)
	if strings.HasPrefix(origin, "http") {
		return strings.TrimRight(origin, "/")
	}
	return s.fallbackBaseURL
}

func (s *checkoutService) count(plan, result string) {
	if s.metrics == nil {
		return
	}
	label := "unknown"
	if mailerType, ok := domain.ParseMailerType(plan); ok {
		label = string(mailerType)
	}
	s.metrics.IncCheckoutSession(label, result)
}

// normalizeQuantity truncates toward zero and rejects non-finite values.
func normalizeQuantity(value float64) (int, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	truncated := math.Trunc(value)
	if truncated > math.MaxInt32 || truncated < math.MinInt32 {
		return 0, false
	}
	return int(truncated), true
}
