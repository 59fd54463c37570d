package payments

import (
	"context"
	"errors"
	"time"
)

// ErrProcessor wraps failures reported by the payment processor.
var ErrProcessor = errors.New("payments: processor error")

// CheckoutSessionRequest describes a hosted checkout for a single catalog price.
type CheckoutSessionRequest struct {
	PriceID        string
	Quantity       int64
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
	Metadata       map[string]string
}

// CheckoutSession is the hosted page the buyer is redirected to.
type CheckoutSession struct {
	ID          string
	Provider    string
	RedirectURL string
	ExpiresAt   time.Time
}

// Provider creates hosted checkout sessions.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error)
}
