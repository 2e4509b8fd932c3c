// Package metrics emits gateway-level counters and histograms through the
// global telemetry system. All helpers are no-ops until telemetry is
// initialized, so CLI commands can share code paths with the server.
package metrics

import (
	"strconv"
	"time"

	"github.com/traktrelay/traktrelay/internal/observability"
)

// Metric names following Prometheus conventions
var (
	DecisionsTotal        = "gateway_decisions_total"
	UpstreamRequestsTotal = "gateway_upstream_requests_total"
	UpstreamDuration      = "gateway_upstream_duration_ms"
	ErrorsTotal           = "gateway_errors_total"
	PanicsTotal           = "gateway_panics_total"
	TrackedClients        = "gateway_ratelimit_tracked_clients"
	SweepCyclesTotal      = "gateway_ratelimit_sweep_cycles_total"
	SweptRecords          = "gateway_ratelimit_swept_records"
)

// RecordDecision records a pipeline decision (allowed, rate_limited,
// unauthorized, path_forbidden, config_missing).
func RecordDecision(decision string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(
		DecisionsTotal,
		1,
		map[string]string{"decision": decision},
	)
}

// RecordUpstream records an upstream round trip and its latency.
func RecordUpstream(statusCode int, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	labels := map[string]string{"status": strconv.Itoa(statusCode)}
	_ = observability.TelemetrySystem.Counter(UpstreamRequestsTotal, 1, labels)
	_ = observability.TelemetrySystem.Histogram(UpstreamDuration, duration, labels)
}

// RecordHTTPError records an error response written by the gateway itself.
func RecordHTTPError(code string, statusCode int) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(
		ErrorsTotal,
		1,
		map[string]string{
			"error_code": code,
			"status":     strconv.Itoa(statusCode),
		},
	)
}

// RecordPanic records a recovered panic.
func RecordPanic() {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(PanicsTotal, 1, nil)
}

// SetTrackedClients sets the current size of the rate-limit record map.
func SetTrackedClients(count int) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Gauge(TrackedClients, float64(count), nil)
}

// RecordSweep records a completed sweep cycle and how many idle rate-limit
// records it evicted.
func RecordSweep(evicted int) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(SweepCyclesTotal, 1, nil)
	_ = observability.TelemetrySystem.Gauge(SweptRecords, float64(evicted), nil)
}
