package gateway

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	apperrors "github.com/traktrelay/traktrelay/internal/errors"
	"github.com/traktrelay/traktrelay/internal/metrics"
)

// AuditEntry records one gateway rejection for the decision-audit log.
type AuditEntry struct {
	At        time.Time
	ClientKey string
	Method    string
	Path      string
	Decision  string
	Status    int
}

// AuditSink persists rejection entries. Implemented by internal/store; a nil
// sink disables auditing.
type AuditSink interface {
	RecordRejection(ctx context.Context, entry AuditEntry) error
}

// Handler orchestrates the proxy pipeline for the single gateway route.
type Handler struct {
	Limiter  *RateLimiter
	Allow    *Allowlist
	Auth     Authenticator
	Upstream *UpstreamClient
	Audit    AuditSink
	Logger   *logging.Logger
}

// ServeHTTP runs the fixed pipeline: CORS preflight short-circuit, rate
// limiter, authenticator, allowlist, upstream call, normalization.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeCORSHeaders(w)

	// Preflight consumes no rate-limit budget and needs no authentication.
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	}

	clientKey := clientKey(r)

	dec := h.Limiter.Check(clientKey)
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.Limiter.Limit()))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
	if !dec.Allowed {
		retryAfter := int(dec.ResetIn.Round(time.Second).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		h.reject(w, r, clientKey, "rate_limited", http.StatusTooManyRequests,
			apperrors.NewRateLimitedError("Rate limit exceeded", retryAfter))
		return
	}

	if !h.Auth.Authenticate(r.Header) {
		h.reject(w, r, clientKey, "unauthorized", http.StatusUnauthorized,
			apperrors.NewUnauthorizedError("Missing or invalid API credentials"))
		return
	}

	d, err := ParseDescriptor(r)
	if err != nil {
		// A missing target path surfaces as a plain 500 carrying the parse
		// error's message, not a 400.
		h.reject(w, r, clientKey, "invalid_request", http.StatusInternalServerError,
			apperrors.NewInternalError(err.Error()))
		return
	}

	if !h.Allow.Allowed(d.UpstreamPath) {
		h.reject(w, r, clientKey, "path_forbidden", http.StatusForbidden,
			apperrors.NewForbiddenError(fmt.Sprintf("Upstream path not allowed: %s", d.UpstreamPath)))
		return
	}

	if !h.Upstream.HasCredentials() {
		h.reject(w, r, clientKey, "config_missing", http.StatusInternalServerError,
			apperrors.NewConfigMissingError("Upstream client credentials are not configured"))
		return
	}

	start := time.Now()
	resp, err := h.Upstream.Do(r.Context(), d)
	if err != nil {
		h.reject(w, r, clientKey, "upstream_unreachable", http.StatusBadGateway,
			apperrors.WrapUpstreamUnreachable(r.Context(), err, "Upstream request failed"))
		return
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.reject(w, r, clientKey, "upstream_unreachable", http.StatusBadGateway,
			apperrors.WrapUpstreamUnreachable(r.Context(), err, "Reading upstream response failed"))
		return
	}

	metrics.RecordDecision("allowed")
	metrics.RecordUpstream(resp.StatusCode, time.Since(start))

	envelope := Normalize(resp.StatusCode, resp.Header.Get("Content-Type"), body)
	writeEnvelope(w, envelope)

	if h.Logger != nil {
		h.Logger.Debug("Proxied upstream request",
			zap.String("upstream_path", d.UpstreamPath),
			zap.String("upstream_method", d.Method),
			zap.Int("upstream_status", resp.StatusCode),
			zap.Duration("upstream_duration", time.Since(start)),
		)
	}
}

// reject writes a gateway-level rejection and audits it off the request path.
func (h *Handler) reject(w http.ResponseWriter, r *http.Request, clientKey, decision string, status int, err error) {
	metrics.RecordDecision(decision)

	if h.Audit != nil {
		entry := AuditEntry{
			At:        time.Now().UTC(),
			ClientKey: clientKey,
			Method:    r.Method,
			Path:      r.URL.Query().Get(pathParam),
			Decision:  decision,
			Status:    status,
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if auditErr := h.Audit.RecordRejection(ctx, entry); auditErr != nil && h.Logger != nil {
				h.Logger.Warn("Failed to record audit entry", zap.Error(auditErr))
			}
		}()
	}

	apperrors.RespondWithError(w, r, err)
}

// clientKey derives the rate-limiting key from the caller's apparent network
// address. RealIP middleware has already folded X-Forwarded-For into
// RemoteAddr when present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

func writeCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "authorization, apikey, x-user-token, content-type")
}

func writeEnvelope(w http.ResponseWriter, envelope Envelope) {
	payload, err := envelope.MarshalJSON()
	if err != nil {
		// Unreachable for the raw and empty kinds; object kind carries
		// pre-validated JSON.
		payload = []byte(`{"error":"encoding failure"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(envelope.StatusCode)
	_, _ = w.Write(payload)
}
