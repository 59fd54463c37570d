package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cre-mailflow/api/internal/services"
)

type stubDesignService struct {
	calls    int
	criteria services.BuyingCriteria
}

func (s *stubDesignService) GenerateDesigns(_ context.Context, criteria services.BuyingCriteria) ([]services.MailerDesign, error) {
	s.calls++
	s.criteria = criteria
	return services.FallbackDesigns(criteria), nil
}

type countingRateMetrics struct {
	routes []string
}

func (m *countingRateMetrics) IncRateLimitExceeded(route string) {
	m.routes = append(m.routes, route)
}

const designRequestBody = `{"propertyType":"Retail","targetState":"TX","targetCity":"Austin","ownerType":"LLC Owner","companyName":"Lone Star","logo":"data:image/png;base64,AAAA"}`

func newDesignRouter(h *DesignHandlers) chi.Router {
	r := chi.NewRouter()
	r.Route("/designs", h.Routes)
	return r
}

func TestDesignHandlersGenerate(t *testing.T) {
	svc := &stubDesignService{}
	router := newDesignRouter(NewDesignHandlers(svc))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/designs/", strings.NewReader(designRequestBody)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Designs []services.MailerDesign `json:"designs"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Designs) != 3 {
		t.Fatalf("expected 3 designs, got %d", len(body.Designs))
	}
	if !strings.Contains(body.Designs[0].Front.BodyCopy, "Austin, TX") {
		t.Fatalf("unexpected body copy %q", body.Designs[0].Front.BodyCopy)
	}
	if svc.criteria.CompanyName != "Lone Star" {
		t.Fatalf("criteria not forwarded: %+v", svc.criteria)
	}
}

func TestDesignHandlersRequireLogo(t *testing.T) {
	svc := &stubDesignService{}
	router := newDesignRouter(NewDesignHandlers(svc))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/designs/", strings.NewReader(`{"propertyType":"Retail"}`)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if body := decodeErrorBody(t, rr); body["error"] != "Please upload a logo" {
		t.Fatalf("unexpected body %v", body)
	}
	if svc.calls != 0 {
		t.Fatalf("expected generation to be skipped")
	}
}

func TestDesignHandlersRejectsEmptyBody(t *testing.T) {
	router := newDesignRouter(NewDesignHandlers(&stubDesignService{}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/designs/", strings.NewReader("")))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestDesignHandlersRateLimit(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	metrics := &countingRateMetrics{}
	svc := &stubDesignService{}
	router := newDesignRouter(NewDesignHandlers(svc,
		WithDesignRateLimit(2, func() time.Time { return now }),
		WithDesignRateLimitMetrics(metrics),
	))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/designs/", strings.NewReader(designRequestBody))
		req.RemoteAddr = "203.0.113.7:5000"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 2; i++ {
		if rr := send(); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}
	rr := send()
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60, got %q", rr.Header().Get("Retry-After"))
	}
	if svc.calls != 2 || len(metrics.routes) != 1 || metrics.routes[0] != "designs" {
		t.Fatalf("unexpected calls %d metrics %v", svc.calls, metrics.routes)
	}
}
