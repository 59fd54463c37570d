package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "google.golang.org/genai"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultAPIVersion = "v1beta"
	jsonMIMEType      = "application/json"
)

var (
	// ErrNotConfigured is returned when the client has no API key.
	ErrNotConfigured = errors.New("genai: api key not configured")
	// ErrEmptyResponse is returned when the model produced no text parts.
	ErrEmptyResponse = errors.New("genai: empty response")
)

// StatusError reports a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("genai: api returned status %d %s: %s", e.StatusCode, e.Status, e.Message)
}

// Options configures a Client. Endpoint overrides the Gemini API base URL.
type Options struct {
	APIKey     string
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*sdk.Content, config *sdk.GenerateContentConfig) (*sdk.GenerateContentResponse, error)
}

// Client wraps the Gemini API models service.
type Client struct {
	models contentGenerator
}

// NewClient builds a client on the Google Gen AI SDK. An empty key yields a client whose calls fail
// with ErrNotConfigured.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return &Client{}, nil
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	httpOpts := sdk.HTTPOptions{APIVersion: defaultAPIVersion}
	if endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/"); endpoint != "" {
		httpOpts.BaseURL = endpoint + "/"
	}

	client, err := sdk.NewClient(ctx, &sdk.ClientConfig{
		APIKey:      apiKey,
		Backend:     sdk.BackendGeminiAPI,
		HTTPClient:  httpClient,
		HTTPOptions: httpOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("genai: create client: %w", err)
	}
	return &Client{models: client.Models}, nil
}

// GenerateJSON sends a single user prompt asking for a JSON response and returns the concatenated
// text of the first candidate. No retries are attempted.
func (c *Client) GenerateJSON(ctx context.Context, model, prompt string) (string, error) {
	if c == nil || c.models == nil {
		return "", ErrNotConfigured
	}

	contents := []*sdk.Content{{
		Role:  "user",
		Parts: []*sdk.Part{{Text: prompt}},
	}}
	resp, err := c.models.GenerateContent(ctx, model, contents, &sdk.GenerateContentConfig{
		ResponseMIMEType: jsonMIMEType,
	})
	if err != nil {
		return "", translateError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

func translateError(err error) error {
	var apiErr sdk.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{StatusCode: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message}
	}
	var apiErrPtr *sdk.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &StatusError{StatusCode: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message}
	}
	return fmt.Errorf("genai: request failed: %w", err)
}
