package suggest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stacit/stacit/backend/internal/domain"
	"github.com/stacit/stacit/backend/internal/metrics"
)

// maxResponseBytes caps how much of a reply is read.
const maxResponseBytes = 1 << 20

// Client posts prompts to the suggestion endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	metrics  *metrics.Metrics
}

// NewClient constructs a Client for endpoint. A nil httpClient uses a client
// with no timeout of its own; the request context is the only deadline.
// m may be nil.
func NewClient(endpoint string, httpClient *http.Client, m *metrics.Metrics) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{endpoint: endpoint, http: httpClient, metrics: m}
}

// Suggest sends message as the form field "message" and returns the raw
// reply body. Transport failures and non-2xx statuses return
// domain.ErrSuggestionUnavailable.
func (c *Client) Suggest(ctx context.Context, message string) (string, error) {
	start := time.Now()
	body, err := c.post(ctx, message)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	c.metrics.ObserveSuggestion(outcome, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("suggest.Client.Suggest: %w", err)
	}
	return body, nil
}

func (c *Client) post(ctx context.Context, message string) (string, error) {
	form := url.Values{"message": {message}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSuggestionUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSuggestionUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: endpoint returned %s", domain.ErrSuggestionUnavailable, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", domain.ErrSuggestionUnavailable, err)
	}
	return string(data), nil
}
