package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traktrelay/traktrelay/internal/config"
	"github.com/traktrelay/traktrelay/internal/gateway"
	"github.com/traktrelay/traktrelay/internal/observability"
	"github.com/traktrelay/traktrelay/internal/server"
	"github.com/traktrelay/traktrelay/internal/server/handlers"
)

const integrationCallerKey = "integration-secret"

// newGatewayStack composes the full HTTP stack (middleware chain, routes, and
// the proxy pipeline) against a fake upstream, the way `serve` assembles it.
func newGatewayStack(t *testing.T, upstreamURL string) *httptest.Server {
	t.Helper()

	observability.InitCLILogger("test", false)
	observability.InitGatewayLogger("test", "info")
	handlers.InitHealthManager("test")

	allowlist, err := gateway.DefaultAllowlist()
	require.NoError(t, err)

	limiter := gateway.NewRateLimiter(100, time.Minute)

	gw := &gateway.Handler{
		Limiter: limiter,
		Allow:   allowlist,
		Auth:    gateway.Authenticator{CallerKey: integrationCallerKey},
		Upstream: gateway.NewUpstreamClient(config.UpstreamConfig{
			BaseURL:      upstreamURL,
			ClientID:     "cid",
			ClientSecret: "csecret",
		}),
	}

	srv := server.New(config.ServerConfig{Host: "127.0.0.1"}, gw)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestGatewayEndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"title":"The Wire"}]`))
	}))
	defer upstream.Close()

	ts := newGatewayStack(t, upstream.URL)

	req, err := http.NewRequest("GET", ts.URL+"/proxy?path=/shows/trending", nil)
	require.NoError(t, err)
	req.Header.Set("apikey", integrationCallerKey)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck // test cleanup

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Limit"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"title":"The Wire"}]`, string(body))
}

func TestGatewayRejectsThroughFullStack(t *testing.T) {
	ts := newGatewayStack(t, "http://127.0.0.1:0")

	resp, err := ts.Client().Get(ts.URL + "/proxy?path=/shows/trending")
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck // test cleanup

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var payload struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "UNAUTHORIZED", payload.Error.Code)
	assert.NotEmpty(t, payload.Error.RequestID)
}

func TestHealthAndVersionEndpoints(t *testing.T) {
	ts := newGatewayStack(t, "http://127.0.0.1:0")

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = ts.Client().Get(ts.URL + "/version")
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck // test cleanup
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var version struct {
		App struct {
			Name string `json:"name"`
		} `json:"app"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&version))
	assert.Equal(t, "traktrelay", version.App.Name)
}

func TestUnknownRouteReturnsNotFoundEnvelope(t *testing.T) {
	ts := newGatewayStack(t, "http://127.0.0.1:0")

	resp, err := ts.Client().Get(ts.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck // test cleanup

	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "NOT_FOUND", payload.Error.Code)
}
