// Package geo resolves coarse location for an IP address via an
// external lookup service. Failures here are always recoverable: the
// caller treats them as "no location available".
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/perfilmente/funnel-api/internal/domain"
)

const (
	defaultBaseURL = "https://api.ipgeo.example/v1"
	defaultTimeout = 5 * time.Second
	retryBackoff   = 250 * time.Millisecond
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

// Client is an HTTP client for the IP-geolocation lookup service.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new geolocation client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// lookupResponse is the provider's wire format. Missing fields decode
// to empty strings and later normalize to "omit".
type lookupResponse struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Postal  string `json:"postal"`
	Country string `json:"country"`
}

// Lookup resolves the coarse location of ip. Malformed, loopback and
// otherwise non-routable addresses are rejected locally without a
// network call. All failure paths return a typed upstream-lookup error
// and never panic.
func (c *Client) Lookup(ctx context.Context, ip string) (domain.GeoFields, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return domain.GeoFields{}, domain.ErrUpstreamLookup(fmt.Sprintf("unparsable ip %q", ip))
	}
	if parsed.IsLoopback() || parsed.IsUnspecified() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() {
		return domain.GeoFields{}, domain.ErrUpstreamLookup(fmt.Sprintf("non-routable ip %q", ip))
	}

	endpoint := fmt.Sprintf("%s/%s", c.baseURL, parsed.String())
	if c.apiKey != "" {
		endpoint += "?" + url.Values{"key": {c.apiKey}}.Encode()
	}

	body, err := c.getWithRetry(ctx, endpoint)
	if err != nil {
		return domain.GeoFields{}, err
	}

	var result lookupResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.GeoFields{}, domain.ErrUpstreamLookup(fmt.Sprintf("malformed lookup response: %v", err))
	}
	if result.Success != nil && !*result.Success {
		return domain.GeoFields{}, domain.ErrUpstreamLookup(fmt.Sprintf("lookup rejected: %s", result.Message))
	}

	return domain.GeoFields{
		City:        result.City,
		Region:      result.Region,
		PostalCode:  result.Postal,
		CountryName: result.Country,
	}, nil
}

// getWithRetry performs a GET with one retry after a short backoff on
// transport errors and 5xx responses. 4xx responses are final.
func (c *Client) getWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, domain.ErrUpstreamLookup(ctx.Err().Error())
			case <-time.After(retryBackoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, domain.ErrUpstreamLookup(fmt.Sprintf("failed to create request: %v", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = domain.ErrUpstreamLookup(fmt.Sprintf("lookup request failed: %v", err))
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = domain.ErrUpstreamLookup(fmt.Sprintf("failed to read lookup response: %v", err))
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = domain.ErrUpstreamLookup(fmt.Sprintf("lookup service error (status %d)", resp.StatusCode))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, domain.ErrUpstreamLookup(fmt.Sprintf("lookup failed (status %d): %s", resp.StatusCode, string(body)))
		}

		return body, nil
	}
	return nil, lastErr
}
