package attribution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/perfilmente/funnel-api/internal/domain"
)

const (
	defaultBaseURL = "https://graph.attribution.example/v18.0"
	defaultTimeout = 10 * time.Second
	retryBackoff   = 500 * time.Millisecond
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client delivers events to the attribution API. A client constructed
// without credentials is permanently disabled: Send reports
// configuration_missing instead of failing per-request in confusing
// ways.
type Client struct {
	accountID   string
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

// NewClient creates a new attribution client. Empty credentials yield
// a disabled client, detected once here rather than on every call.
func NewClient(accountID, accessToken string, opts ...ClientOption) *Client {
	c := &Client{
		accountID:   accountID,
		accessToken: accessToken,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether the client holds the credentials it needs.
func (c *Client) Enabled() bool {
	return c.accountID != "" && c.accessToken != ""
}

// apiError is the upstream's error envelope.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Send delivers one event and waits for the acknowledgement. Transport
// errors and 5xx responses are retried once with backoff; an upstream
// rejection surfaces as upstream_delivery_failed with the detail
// attached, never as a panic or a silent drop.
func (c *Client) Send(ctx context.Context, ev *Event) error {
	if !c.Enabled() {
		return domain.ErrConfigurationMissing("attribution delivery disabled: missing account id or access token")
	}

	body, err := json.Marshal(payload{Data: []Event{*ev}})
	if err != nil {
		return domain.ErrServer(fmt.Sprintf("failed to marshal event payload: %v", err))
	}

	endpoint := fmt.Sprintf("%s/%s/events?%s", c.baseURL, c.accountID,
		url.Values{"access_token": {c.accessToken}}.Encode())

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.ErrUpstreamDelivery(ctx.Err().Error())
			case <-time.After(retryBackoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return domain.ErrServer(fmt.Sprintf("failed to create request: %v", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = domain.ErrUpstreamDelivery(fmt.Sprintf("delivery request failed: %v", err))
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = domain.ErrUpstreamDelivery(fmt.Sprintf("failed to read delivery response: %v", err))
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = domain.ErrUpstreamDelivery(fmt.Sprintf("attribution API error (status %d)", resp.StatusCode))
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var ae apiError
			if json.Unmarshal(respBody, &ae) == nil && ae.Error.Message != "" {
				return domain.ErrUpstreamDelivery(fmt.Sprintf("attribution API rejected event: %s", ae.Error.Message))
			}
			return domain.ErrUpstreamDelivery(fmt.Sprintf("attribution API rejected event (status %d): %s", resp.StatusCode, string(respBody)))
		}

		return nil
	}
	return lastErr
}

// Deliver builds and sends a raw event in one step, returning the
// result in the form handlers report to callers. Build failures are
// returned as errors so they map to a 4xx; delivery failures are data.
func (c *Client) Deliver(ctx context.Context, raw domain.TrackedEvent) (domain.DeliveryResult, error) {
	ev, err := BuildEvent(raw)
	if err != nil {
		return domain.DeliveryResult{}, err
	}

	if err := c.Send(ctx, ev); err != nil {
		return domain.DeliveryResult{Delivered: false, Error: err.Error()}, nil
	}
	return domain.DeliveryResult{Delivered: true}, nil
}
