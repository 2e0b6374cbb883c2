package internaldefs

import (
	"github.com/admitkit/admitkit"
)

// CounterDef binds a pipeline counter to its exported name and help text.
type CounterDef struct {
	ID   admitkit.MetricID
	Name string
	Help string
}

// HistogramDef binds a pipeline histogram to its exported name and help
// text.
type HistogramDef struct {
	ID   admitkit.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: admitkit.MetricRegisterSuccess, Name: "admitkit_register_success_total", Help: "Successful account registrations."},
	{ID: admitkit.MetricRegisterDuplicate, Name: "admitkit_register_duplicate_total", Help: "Registrations rejected as duplicate email."},
	{ID: admitkit.MetricRegisterRateLimited, Name: "admitkit_register_rate_limited_total", Help: "Rate-limited registration attempts."},
	{ID: admitkit.MetricLoginSuccess, Name: "admitkit_login_success_total", Help: "Successful login attempts."},
	{ID: admitkit.MetricLoginFailure, Name: "admitkit_login_failure_total", Help: "Failed login attempts."},
	{ID: admitkit.MetricLoginRateLimited, Name: "admitkit_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: admitkit.MetricProfileRead, Name: "admitkit_profile_read_total", Help: "Successful profile reads."},
	{ID: admitkit.MetricProfileUpdate, Name: "admitkit_profile_update_total", Help: "Successful profile updates."},
	{ID: admitkit.MetricProfileRateLimited, Name: "admitkit_profile_rate_limited_total", Help: "Rate-limited profile requests."},
	{ID: admitkit.MetricRefreshSuccess, Name: "admitkit_refresh_success_total", Help: "Successful credential refreshes."},
	{ID: admitkit.MetricRefreshFailure, Name: "admitkit_refresh_failure_total", Help: "Failed credential refreshes."},
	{ID: admitkit.MetricRefreshRateLimited, Name: "admitkit_refresh_rate_limited_total", Help: "Rate-limited refresh attempts."},
	{ID: admitkit.MetricValidationFailure, Name: "admitkit_validation_failure_total", Help: "Requests rejected by input validation."},
	{ID: admitkit.MetricAuthenticationFailure, Name: "admitkit_authentication_failure_total", Help: "Requests with missing or invalid credentials."},
	{ID: admitkit.MetricAuthorizationDenied, Name: "admitkit_authorization_denied_total", Help: "Authenticated requests denied by role checks."},
	{ID: admitkit.MetricNotFound, Name: "admitkit_not_found_total", Help: "Requests for absent resources."},
	{ID: admitkit.MetricConflict, Name: "admitkit_conflict_total", Help: "Requests rejected by uniqueness conflicts."},
	{ID: admitkit.MetricRateLimitHit, Name: "admitkit_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
	{ID: admitkit.MetricInternalFailure, Name: "admitkit_internal_failure_total", Help: "Requests failed by unexpected internal errors."},
}

// HistogramDefs lists every exported histogram in a stable order.
var HistogramDefs = []HistogramDef{
	{ID: admitkit.MetricPipelineLatency, Name: "admitkit_pipeline_latency_seconds", Help: "End-to-end pipeline latency histogram."},
}

// HistogramBounds are the bucket upper bounds rendered in Prometheus
// exposition.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are the bound labels usable in instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets widens a raw snapshot slice to the fixed bucket array.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
