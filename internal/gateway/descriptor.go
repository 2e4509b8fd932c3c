package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Control query parameters describing the proxy target; everything else is
// forwarded verbatim to the upstream.
const (
	pathParam   = "path"
	methodParam = "method"
)

// Descriptor describes one proxied call. Built per inbound request and
// discarded once the upstream round trip completes.
type Descriptor struct {
	UpstreamPath string
	Method       string
	Query        url.Values
	UserToken    string

	// Body is non-nil only for POST and DELETE. An unreadable or unparseable
	// inbound body degrades to an empty object, never an error.
	Body map[string]any
}

// ParseDescriptor extracts the proxy target from the inbound request. The only
// failure mode is a missing path parameter.
func ParseDescriptor(r *http.Request) (*Descriptor, error) {
	query := r.URL.Query()

	upstreamPath := query.Get(pathParam)
	if upstreamPath == "" {
		return nil, fmt.Errorf("missing required query parameter: %s", pathParam)
	}

	method := strings.ToUpper(strings.TrimSpace(query.Get(methodParam)))
	if method == "" {
		method = http.MethodGet
	}

	query.Del(pathParam)
	query.Del(methodParam)

	d := &Descriptor{
		UpstreamPath: upstreamPath,
		Method:       method,
		Query:        query,
		UserToken:    strings.TrimSpace(r.Header.Get(userTokenHeader)),
	}

	if method == http.MethodPost || method == http.MethodDelete {
		d.Body = readJSONBody(r.Body)
	}

	return d, nil
}

// readJSONBody parses the inbound body as a JSON object, treating absence,
// read failures, and malformed JSON alike as an empty object.
func readJSONBody(body io.ReadCloser) map[string]any {
	parsed := map[string]any{}
	if body == nil {
		return parsed
	}

	raw, err := io.ReadAll(body)
	if err != nil || len(raw) == 0 {
		return parsed
	}

	if err := json.Unmarshal(raw, &parsed); err != nil {
		return map[string]any{}
	}
	return parsed
}
