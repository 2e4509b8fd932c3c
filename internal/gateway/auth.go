package gateway

import (
	"net/http"
	"strings"
)

// Header names recognized on inbound requests.
const (
	apiKeyHeader    = "apikey"
	userTokenHeader = "x-user-token"
)

// Authenticator validates the caller against the gateway's shared secret.
// This is not per-user identity: the end user's own Trakt token travels in a
// separate header and is forwarded upstream unvalidated.
type Authenticator struct {
	CallerKey string
}

// Authenticate accepts the caller when either the apikey header or a bearer
// authorization token exactly equals the configured shared secret. A missing
// key configuration rejects everything.
func (a Authenticator) Authenticate(headers http.Header) bool {
	if a.CallerKey == "" {
		return false
	}

	if headers.Get(apiKeyHeader) == a.CallerKey {
		return true
	}

	authz := headers.Get("Authorization")
	token := strings.TrimPrefix(authz, "Bearer ")
	if token != authz && token == a.CallerKey {
		return true
	}

	return false
}
