package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cre-mailflow/api/internal/payments"
	"github.com/cre-mailflow/api/internal/services"
)

type stubCheckoutService struct {
	createFn func(ctx context.Context, cmd services.CreateCheckoutSessionCommand) (services.CheckoutSessionResult, error)
	commands []services.CreateCheckoutSessionCommand
}

func (s *stubCheckoutService) CreateSession(ctx context.Context, cmd services.CreateCheckoutSessionCommand) (services.CheckoutSessionResult, error) {
	s.commands = append(s.commands, cmd)
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.CheckoutSessionResult{URL: "https://checkout.stripe.com/c/pay/cs_test"}, nil
}

type stubProvider struct {
	requests []payments.CheckoutSessionRequest
}

func (p *stubProvider) CreateCheckoutSession(_ context.Context, req payments.CheckoutSessionRequest) (payments.CheckoutSession, error) {
	p.requests = append(p.requests, req)
	return payments.CheckoutSession{ID: "cs_1", RedirectURL: "https://checkout.stripe.com/c/pay/cs_1"}, nil
}

func decodeErrorBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestCheckoutHandlerRejectsNonPost(t *testing.T) {
	h := NewCheckoutHandlers(&stubCheckoutService{})
	rr := httptest.NewRecorder()
	h.CreateSession(rr, httptest.NewRequest(http.MethodGet, checkoutPath, nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if body := decodeErrorBody(t, rr); body["error"] != "Method not allowed" {
		t.Fatalf("unexpected body %v", body)
	}
	if rr.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("expected Allow header")
	}
}

func TestCheckoutHandlerPassesRequest(t *testing.T) {
	svc := &stubCheckoutService{}
	h := NewCheckoutHandlers(svc)

	req := httptest.NewRequest(http.MethodPost, checkoutPath, strings.NewReader(`{"planId":"postcard_std","quantity":"250"}`))
	req.Header.Set("Origin", "https://cremailflow.com")
	req.Header.Set("Idempotency-Key", "abc")
	rr := httptest.NewRecorder()
	h.CreateSession(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["url"] != "https://checkout.stripe.com/c/pay/cs_test" {
		t.Fatalf("unexpected url %v", body)
	}
	cmd := svc.commands[0]
	if cmd.PlanID != "postcard_std" || cmd.Quantity != 250 || cmd.Origin != "https://cremailflow.com" || cmd.IdempotencyKey != "abc" {
		t.Fatalf("unexpected command %+v", cmd)
	}
}

func TestCheckoutHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"invalid", &services.CheckoutInputError{Message: "Minimum quantity is 100"}, http.StatusBadRequest, "Minimum quantity is 100"},
		{"unavailable", fmt.Errorf("%w: not configured", services.ErrCheckoutUnavailable), http.StatusServiceUnavailable, "checkout service unavailable"},
		{"processor", fmt.Errorf("%w: card_declined", services.ErrCheckoutPaymentFailed), http.StatusInternalServerError, "Unable to create checkout session"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Unable to create checkout session"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubCheckoutService{createFn: func(context.Context, services.CreateCheckoutSessionCommand) (services.CheckoutSessionResult, error) {
				return services.CheckoutSessionResult{}, tc.err
			}}
			rr := httptest.NewRecorder()
			NewCheckoutHandlers(svc).CreateSession(rr, httptest.NewRequest(http.MethodPost, checkoutPath, strings.NewReader(`{"planId":"LETTER","quantity":100}`)))

			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if body := decodeErrorBody(t, rr); body["error"] != tc.message {
				t.Fatalf("expected message %q, got %v", tc.message, body["error"])
			}
		})
	}
}

func TestCheckoutHandlerInvalidJSON(t *testing.T) {
	svc := &stubCheckoutService{}
	rr := httptest.NewRecorder()
	NewCheckoutHandlers(svc).CreateSession(rr, httptest.NewRequest(http.MethodPost, checkoutPath, strings.NewReader(`{"planId":`)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if len(svc.commands) != 0 {
		t.Fatalf("expected service not called")
	}
}

func TestCheckoutHandlerWithService(t *testing.T) {
	provider := &stubProvider{}
	svc := services.NewCheckoutService(services.CheckoutServiceDeps{
		Payments: provider,
		Prices:   map[string]string{"POSTCARD_STD": "price_std"},
	})
	h := NewCheckoutHandlers(svc)

	tests := []struct {
		body    string
		status  int
		message string
	}{
		{`{"planId":"postcard_std","quantity":99}`, http.StatusBadRequest, "Minimum quantity is 100"},
		{`{"planId":"","quantity":100}`, http.StatusBadRequest, "Missing planId"},
		{`{"planId":"LETTER","quantity":100}`, http.StatusBadRequest, "Price ID missing for plan: LETTER"},
		{`{"planId":"postcard_std","quantity":"abc"}`, http.StatusBadRequest, "Minimum quantity is 100"},
		{`{"planId":"postcard_std"}`, http.StatusBadRequest, "Minimum quantity is 100"},
		{`{"planId":"postcard_std","quantity":100}`, http.StatusOK, ""},
	}
	for _, tc := range tests {
		t.Run(tc.body, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.CreateSession(rr, httptest.NewRequest(http.MethodPost, checkoutPath, strings.NewReader(tc.body)))
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
			if tc.message != "" {
				if body := decodeErrorBody(t, rr); body["error"] != tc.message {
					t.Fatalf("expected %q, got %v", tc.message, body["error"])
				}
			}
		})
	}
	if len(provider.requests) != 1 || provider.requests[0].SuccessURL != "http://localhost:5173/?success=true&session_id={CHECKOUT_SESSION_ID}" {
		t.Fatalf("unexpected processor requests %+v", provider.requests)
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		nan  bool
	}{
		{`150`, 150, false},
		{`"150"`, 150, false},
		{`" 99.5 "`, 99.5, false},
		{`""`, 0, false},
		{`"ten"`, 0, true},
		{`null`, 0, true},
		{``, 0, true},
		{`true`, 0, true},
	}
	for _, tc := range tests {
		got := parseQuantity(json.RawMessage(tc.raw))
		if tc.nan {
			if !math.IsNaN(got) {
				t.Errorf("parseQuantity(%s) = %v, want NaN", tc.raw, got)
			}
			continue
		}
		if got != tc.want {
			t.Errorf("parseQuantity(%s) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
