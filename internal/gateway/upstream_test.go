package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/traktrelay/traktrelay/internal/config"
)

func testUpstreamClient() *UpstreamClient {
	return NewUpstreamClient(config.UpstreamConfig{
		BaseURL:      "https://api.trakt.tv",
		ClientID:     "cid",
		ClientSecret: "csecret",
	})
}

func requestBody(t *testing.T, c *UpstreamClient, d *Descriptor) map[string]any {
	t.Helper()

	req, err := c.Build(context.Background(), d)
	require.NoError(t, err)
	if req.Body == nil {
		return nil
	}

	raw, err := io.ReadAll(req.Body)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return parsed
}

func TestNewUpstreamClientDefaults(t *testing.T) {
	c := NewUpstreamClient(config.UpstreamConfig{})
	require.Equal(t, "https://api.trakt.tv", c.BaseURL)
	require.Equal(t, "2", c.APIVersion)
	require.Equal(t, 30*time.Second, c.Timeout)
	require.False(t, c.HasCredentials())

	require.True(t, testUpstreamClient().HasCredentials())
}

func TestBuildTargetURLAndHeaders(t *testing.T) {
	c := testUpstreamClient()

	query := url.Values{}
	query.Set("page", "2")

	d := &Descriptor{
		UpstreamPath: "/shows/trending",
		Method:       "GET",
		Query:        query,
		UserToken:    "user-token",
	}

	req, err := c.Build(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, "https://api.trakt.tv/shows/trending?page=2", req.URL.String())
	require.Equal(t, "application/json", req.Header.Get("Content-Type"))
	require.Equal(t, "cid", req.Header.Get("trakt-api-key"))
	require.Equal(t, "2", req.Header.Get("trakt-api-version"))
	require.Equal(t, "Bearer user-token", req.Header.Get("Authorization"))
}

func TestBuildOmitsAuthorizationWithoutUserToken(t *testing.T) {
	c := testUpstreamClient()

	req, err := c.Build(context.Background(), &Descriptor{
		UpstreamPath: "/shows/trending",
		Method:       "GET",
		Query:        url.Values{},
	})
	require.NoError(t, err)
	require.Empty(t, req.Header.Get("Authorization"))
}

func TestDeviceCodeGetsClientIDOnly(t *testing.T) {
	c := testUpstreamClient()

	body := requestBody(t, c, &Descriptor{
		UpstreamPath: deviceCodePath,
		Method:       "POST",
		Query:        url.Values{},
		Body:         map[string]any{},
	})

	require.Equal(t, "cid", body["client_id"])
	require.NotContains(t, body, "client_secret")
}

func TestDeviceTokenGetsBothCredentials(t *testing.T) {
	c := testUpstreamClient()

	body := requestBody(t, c, &Descriptor{
		UpstreamPath: deviceTokenPath,
		Method:       "POST",
		Query:        url.Values{},
		Body:         map[string]any{"code": "abc123"},
	})

	require.Equal(t, "abc123", body["code"])
	require.Equal(t, "cid", body["client_id"])
	require.Equal(t, "csecret", body["client_secret"])
}

func TestTokenExchangeGetsBothCredentials(t *testing.T) {
	c := testUpstreamClient()

	body := requestBody(t, c, &Descriptor{
		UpstreamPath: tokenPath,
		Method:       "POST",
		Query:        url.Values{},
		Body:         map[string]any{"refresh_token": "r1", "grant_type": "refresh_token"},
	})

	require.Equal(t, "r1", body["refresh_token"])
	require.Equal(t, "cid", body["client_id"])
	require.Equal(t, "csecret", body["client_secret"])
}

func TestInjectionDoesNotMutateDescriptor(t *testing.T) {
	c := testUpstreamClient()

	original := map[string]any{"code": "abc123"}
	_ = requestBody(t, c, &Descriptor{
		UpstreamPath: deviceTokenPath,
		Method:       "POST",
		Query:        url.Values{},
		Body:         original,
	})

	require.NotContains(t, original, "client_id")
	require.NotContains(t, original, "client_secret")
}

func TestEmptyBodyOmittedForOtherPaths(t *testing.T) {
	c := testUpstreamClient()

	req, err := c.Build(context.Background(), &Descriptor{
		UpstreamPath: "/sync/history",
		Method:       "POST",
		Query:        url.Values{},
		Body:         map[string]any{},
	})
	require.NoError(t, err)
	require.Nil(t, req.Body)
}

func TestNonCredentialBodyForwardedUnmodified(t *testing.T) {
	c := testUpstreamClient()

	body := requestBody(t, c, &Descriptor{
		UpstreamPath: "/sync/history",
		Method:       "POST",
		Query:        url.Values{},
		Body:         map[string]any{"movies": []any{map[string]any{"title": "Dune"}}},
	})

	require.Contains(t, body, "movies")
	require.NotContains(t, body, "client_id")
	require.NotContains(t, body, "client_secret")
}
