package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newCatalogRouter() chi.Router {
	r := chi.NewRouter()
	NewCatalogHandlers().Routes(r)
	return r
}

func TestCatalogListPlans(t *testing.T) {
	rr := httptest.NewRecorder()
	newCatalogRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/plans", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct {
		Plans []struct {
			ID          string   `json:"id"`
			Name        string   `json:"name"`
			Popular     bool     `json:"popular"`
			PaymentLink string   `json:"paymentLink"`
			Features    []string `json:"features"`
		} `json:"plans"`
		MinimumQuantity int    `json:"minimumQuantity"`
		SupportEmail    string `json:"supportEmail"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Plans) != 3 || body.Plans[0].ID != "LETTER" || !body.Plans[1].Popular {
		t.Fatalf("unexpected plans %+v", body.Plans)
	}
	if len(body.Plans[2].Features) != 4 || body.Plans[2].PaymentLink == "" {
		t.Fatalf("expected features and payment link, got %+v", body.Plans[2])
	}
	if body.MinimumQuantity != 100 || body.SupportEmail != "support@cremailflow.com" {
		t.Fatalf("unexpected metadata %+v", body)
	}
}

func TestCatalogQuote(t *testing.T) {
	tests := []struct {
		path   string
		status int
		total  string
	}{
		{"/plans/postcard_std/quote?quantity=250", http.StatusOK, "247.50"},
		{"/plans/LETTER/quote", http.StatusOK, "79.00"},
		{"/plans/POSTCARD_JUMBO/quote?quantity=1,000", http.StatusOK, "1390.00"},
		{"/plans/LETTER/quote?quantity=99", http.StatusBadRequest, ""},
		{"/plans/LETTER/quote?quantity=lots", http.StatusBadRequest, ""},
		{"/plans/brochure/quote?quantity=100", http.StatusNotFound, ""},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			newCatalogRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
			if tc.total == "" {
				return
			}
			var body map[string]any
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["total"] != tc.total {
				t.Fatalf("expected total %s, got %v", tc.total, body["total"])
			}
		})
	}
}

func TestCatalogCriteriaOptions(t *testing.T) {
	rr := httptest.NewRecorder()
	newCatalogRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/criteria/options", nil))

	var body map[string][]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body["propertyTypes"]) == 0 || len(body["ownerTypes"]) == 0 || len(body["priceRanges"]) == 0 {
		t.Fatalf("expected option sets, got %v", body)
	}
}
