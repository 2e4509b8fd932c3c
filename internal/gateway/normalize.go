package gateway

import (
	"encoding/json"
	"strings"
)

// EnvelopeKind tags the three possible shapes of a normalized upstream reply.
type EnvelopeKind int

const (
	// EnvelopeObject carries upstream JSON through unmodified.
	EnvelopeObject EnvelopeKind = iota
	// EnvelopeRaw wraps non-JSON or unparseable text as {"raw": <text>}.
	EnvelopeRaw
	// EnvelopeEmpty stands in for a bodyless reply as {"status": <code>}.
	EnvelopeEmpty
)

// Envelope is the canonical JSON reply produced for every upstream response.
// The upstream status code is preserved and returned to the caller unchanged.
type Envelope struct {
	Kind       EnvelopeKind
	StatusCode int

	// JSON is valid only when Kind is EnvelopeObject.
	JSON json.RawMessage
	// Raw is valid only when Kind is EnvelopeRaw.
	Raw string
}

// Normalize converts a raw upstream reply into the canonical envelope. An
// upstream that declares JSON but ships a body that does not parse is wrapped,
// never discarded and never surfaced as a hard failure.
func Normalize(statusCode int, contentType string, body []byte) Envelope {
	if len(body) == 0 {
		return Envelope{Kind: EnvelopeEmpty, StatusCode: statusCode}
	}

	if strings.Contains(contentType, "application/json") && json.Valid(body) {
		return Envelope{Kind: EnvelopeObject, StatusCode: statusCode, JSON: json.RawMessage(body)}
	}

	return Envelope{Kind: EnvelopeRaw, StatusCode: statusCode, Raw: string(body)}
}

// MarshalJSON renders the envelope body. The switch is exhaustive over the
// three kinds.
func (e Envelope) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EnvelopeObject:
		return e.JSON, nil
	case EnvelopeRaw:
		return json.Marshal(map[string]string{"raw": e.Raw})
	default:
		return json.Marshal(map[string]int{"status": e.StatusCode})
	}
}
