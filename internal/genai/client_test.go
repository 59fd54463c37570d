package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type capturedRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string `json:"responseMimeType"`
	} `json:"generationConfig"`
}

func newTestClient(t *testing.T, apiKey, endpoint string) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), Options{APIKey: apiKey, Endpoint: endpoint})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestGenerateJSONSendsPromptAndJoinsParts(t *testing.T) {
	var gotPath, gotQueryKey, gotHeaderKey string
	var gotBody capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQueryKey = r.URL.Query().Get("key")
		gotHeaderKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[{\"id\":"},{"text":"\"1\"}]"}]}}]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, "test-key", srv.URL+"/")
	text, err := client.GenerateJSON(context.Background(), "gemini-1.5-flash", "Return ONLY valid JSON")
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if text != `[{"id":"1"}]` {
		t.Fatalf("unexpected text %q", text)
	}
	if gotPath != "/v1beta/models/gemini-1.5-flash:generateContent" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotQueryKey != "" {
		t.Fatalf("api key must not travel in the query string, got %q", gotQueryKey)
	}
	if gotHeaderKey != "test-key" {
		t.Fatalf("expected api key header, got %q", gotHeaderKey)
	}
	if gotBody.GenerationConfig.ResponseMimeType != "application/json" {
		t.Fatalf("expected json response mime type, got %+v", gotBody.GenerationConfig)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Role != "user" ||
		len(gotBody.Contents[0].Parts) != 1 || gotBody.Contents[0].Parts[0].Text != "Return ONLY valid JSON" {
		t.Fatalf("unexpected contents %+v", gotBody.Contents)
	}
}

func TestGenerateJSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"no candidates", `{"candidates":[]}`, ErrEmptyResponse},
		{"no content", `{"candidates":[{"finishReason":"SAFETY"}]}`, ErrEmptyResponse},
		{"blank text", `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`, ErrEmptyResponse},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, "k", srv.URL).GenerateJSON(context.Background(), "m", "p")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestGenerateJSONStatusErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, "super-secret", srv.URL).GenerateJSON(context.Background(), "m", "p")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected StatusError 429, got %v", err)
	}
	if statusErr.Message != "quota exceeded" {
		t.Fatalf("unexpected message %q", statusErr.Message)
	}
	if strings.Contains(err.Error(), "super-secret") {
		t.Fatalf("error leaks api key: %v", err)
	}
}

func TestGenerateJSONWithoutKey(t *testing.T) {
	client, err := NewClient(context.Background(), Options{APIKey: "  "})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.GenerateJSON(context.Background(), "m", "p"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGenerateJSONTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := newTestClient(t, "super-secret", srv.URL).GenerateJSON(context.Background(), "m", "p")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if strings.Contains(err.Error(), "super-secret") {
		t.Fatalf("error leaks api key: %v", err)
	}
}
