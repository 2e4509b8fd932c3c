package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeJSONPassthrough(t *testing.T) {
	body := []byte(`{"ids":{"trakt":1},"title":"Breaking Bad"}`)

	env := Normalize(200, "application/json; charset=utf-8", body)
	require.Equal(t, EnvelopeObject, env.Kind)
	require.Equal(t, 200, env.StatusCode)

	rendered, err := json.Marshal(env)
	require.NoError(t, err)
	require.JSONEq(t, string(body), string(rendered))
}

func TestNormalizeDeclaredJSONButInvalid(t *testing.T) {
	env := Normalize(502, "application/json", []byte("not json"))
	require.Equal(t, EnvelopeRaw, env.Kind)
	require.Equal(t, 502, env.StatusCode)

	rendered, err := json.Marshal(env)
	require.NoError(t, err)
	require.JSONEq(t, `{"raw":"not json"}`, string(rendered))
}

func TestNormalizePlainText(t *testing.T) {
	env := Normalize(200, "text/plain", []byte("pong"))
	require.Equal(t, EnvelopeRaw, env.Kind)

	rendered, err := json.Marshal(env)
	require.NoError(t, err)
	require.JSONEq(t, `{"raw":"pong"}`, string(rendered))
}

func TestNormalizeEmptyBody(t *testing.T) {
	env := Normalize(204, "application/json", nil)
	require.Equal(t, EnvelopeEmpty, env.Kind)

	rendered, err := json.Marshal(env)
	require.NoError(t, err)
	require.JSONEq(t, `{"status":204}`, string(rendered))
}
