package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/traktrelay/traktrelay/internal/config"
)

// Endpoint families that receive injected OAuth client credentials. The
// calling client never possesses these fields; they are merged server-side.
const (
	deviceCodePath  = "/oauth/device/code"
	deviceTokenPath = "/oauth/device/token"
	tokenPath       = "/oauth/token"
)

// Upstream header names.
const (
	traktAPIKeyHeader     = "trakt-api-key"
	traktAPIVersionHeader = "trakt-api-version"
)

// UpstreamClient builds and executes outbound Trakt calls.
type UpstreamClient struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	APIVersion   string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

// NewUpstreamClient returns a client with defaults applied from configuration.
func NewUpstreamClient(cfg config.UpstreamConfig) *UpstreamClient {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "https://api.trakt.tv"
	}

	apiVersion := strings.TrimSpace(cfg.APIVersion)
	if apiVersion == "" {
		apiVersion = "2"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &UpstreamClient{
		BaseURL:      baseURL,
		ClientID:     strings.TrimSpace(cfg.ClientID),
		ClientSecret: strings.TrimSpace(cfg.ClientSecret),
		APIVersion:   apiVersion,
		Timeout:      timeout,
	}
}

// HasCredentials reports whether both OAuth client credentials are configured.
func (c *UpstreamClient) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Build composes the outbound HTTP request for a validated descriptor.
func (c *UpstreamClient) Build(ctx context.Context, d *Descriptor) (*http.Request, error) {
	target := strings.TrimRight(c.BaseURL, "/") + d.UpstreamPath
	if len(d.Query) > 0 {
		target += "?" + d.Query.Encode()
	}

	var reader *bytes.Reader
	body := c.outboundBody(d)
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode upstream body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, d.Method, target, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, d.Method, target, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(traktAPIKeyHeader, c.ClientID)
	req.Header.Set(traktAPIVersionHeader, c.APIVersion)

	// The end user's own token, distinct from the gateway's shared secret.
	if d.UserToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.UserToken)
	}

	return req, nil
}

// Do executes the outbound call with the configured timeout.
func (c *UpstreamClient) Do(ctx context.Context, d *Descriptor) (*http.Response, error) {
	req, err := c.Build(ctx, d)
	if err != nil {
		return nil, err
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: c.Timeout}
	}

	return client.Do(req)
}

// outboundBody applies the per-path-family credential injection rules.
// Device-code initiation gets client_id only; token exchange gets both
// credentials; every other path forwards the body unmodified and omits an
// empty one entirely rather than sending {}.
func (c *UpstreamClient) outboundBody(d *Descriptor) map[string]any {
	if d.Body == nil {
		return nil
	}

	switch d.UpstreamPath {
	case deviceCodePath:
		merged := cloneBody(d.Body)
		merged["client_id"] = c.ClientID
		return merged
	case deviceTokenPath, tokenPath:
		merged := cloneBody(d.Body)
		merged["client_id"] = c.ClientID
		merged["client_secret"] = c.ClientSecret
		return merged
	default:
		if len(d.Body) == 0 {
			return nil
		}
		return d.Body
	}
}

func cloneBody(body map[string]any) map[string]any {
	merged := make(map[string]any, len(body)+2)
	for key, value := range body {
		merged[key] = value
	}
	return merged
}
