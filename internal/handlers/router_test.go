package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cre-mailflow/api/internal/domain"
	"github.com/cre-mailflow/api/internal/services"
)

func TestNewRouter_DefaultMounts(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	healthHandlers := NewHealthHandlers(
		WithHealthSystemService(&stubSystemService{
			report: services.SystemHealthReport{
				Status:      domain.HealthStatusOK,
				GeneratedAt: now,
				Checks:      map[string]domain.SystemHealthCheck{},
			},
		}),
		WithHealthClock(func() time.Time { return now }),
	)

	router := NewRouter(WithHealthHandlers(healthHandlers))

	t.Run("healthz", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("expected content-type application/json, got %s", ct)
		}
	})

	t.Run("readyz", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
	})

	t.Run("default not implemented group", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/designs", nil))

		if rr.Code != http.StatusNotImplemented {
			t.Fatalf("expected status 501, got %d", rr.Code)
		}
	})

	t.Run("unknown route", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rr.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["code"] != errorNotFoundCode {
			t.Fatalf("unexpected code %v", body["code"])
		}
	})
}

func TestNewRouter_WiresRoutes(t *testing.T) {
	checkout := &stubCheckoutService{}
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# HELP up\n"))
	})

	router := NewRouter(
		WithCheckoutHandler(NewCheckoutHandlers(checkout).CreateSession),
		WithDesignRoutes(NewDesignHandlers(&stubDesignService{}).Routes),
		WithCampaignRoutes(NewCampaignHandlers(&stubCampaignService{}).Routes),
		WithCatalogRoutes(NewCatalogHandlers().Routes),
		WithMetricsHandler("/metrics", metricsHandler),
	)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/api/create-checkout-session", "", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/create-checkout-session", `{"planId":"LETTER","quantity":100}`, http.StatusOK},
		{http.MethodPost, "/api/v1/designs", designRequestBody, http.StatusOK},
		{http.MethodPost, "/api/v1/campaigns/drafts", draftRequestBody, http.StatusOK},
		{http.MethodGet, "/api/v1/plans", "", http.StatusOK},
		{http.MethodGet, "/api/v1/plans/letter/quote?quantity=150", "", http.StatusOK},
		{http.MethodGet, "/api/v1/criteria/options", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
		})
	}
	if len(checkout.commands) != 1 {
		t.Fatalf("expected one checkout call, got %d", len(checkout.commands))
	}
}
