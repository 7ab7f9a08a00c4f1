// Package sms sends text messages through an HTTP SMS gateway.
package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/stacit/stacit/backend/internal/domain"
)

// Gateway delivers one message to a set of recipients.
type Gateway interface {
	// Available reports whether messages can be sent at all.
	Available() bool

	// Send delivers body to every recipient and returns the status the
	// gateway reported (e.g. "sent" or "queued").
	// Returns domain.ErrSendFailed on any transport or gateway failure.
	Send(ctx context.Context, recipients []string, body string) (string, error)
}

// New returns an HTTP gateway for endpoint, or a disabled gateway when
// endpoint is empty. token, when set, is sent as a bearer token.
func New(endpoint, token string, httpClient *http.Client) Gateway {
	if endpoint == "" {
		return disabled{}
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &httpGateway{endpoint: endpoint, token: token, http: httpClient}
}

type disabled struct{}

func (disabled) Available() bool { return false }

func (disabled) Send(context.Context, []string, string) (string, error) {
	return "", domain.ErrSMSUnavailable
}

type httpGateway struct {
	endpoint string
	token    string
	http     *http.Client
}

type sendResponse struct {
	Status string `json:"status"`
}

func (g *httpGateway) Available() bool { return true }

func (g *httpGateway) Send(ctx context.Context, recipients []string, body string) (string, error) {
	form := url.Values{
		"to":   {strings.Join(recipients, ",")},
		"body": {body},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("sms.Send: %w: %v", domain.ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms.Send: %w: %v", domain.ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("sms.Send: %w: gateway returned %s", domain.ErrSendFailed, resp.Status)
	}

	var out sendResponse
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("sms.Send: %w: read body: %v", domain.ErrSendFailed, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return "", fmt.Errorf("sms.Send: %w: decode body: %v", domain.ErrSendFailed, err)
		}
	}
	if out.Status == "" {
		out.Status = "sent"
	}
	return out.Status, nil
}
