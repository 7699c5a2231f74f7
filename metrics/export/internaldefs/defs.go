package internaldefs

import (
	backoffice "github.com/omjyotish/backoffice"
)

// CounterDef defines a public type used by backoffice APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   backoffice.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by backoffice APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   backoffice.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the back-office engine.
var CounterDefs = []CounterDef{
	{ID: backoffice.MetricLoginSuccess, Name: "backoffice_login_success_total", Help: "Successful login attempts."},
	{ID: backoffice.MetricLoginFailure, Name: "backoffice_login_failure_total", Help: "Failed login attempts."},
	{ID: backoffice.MetricLoginRateLimited, Name: "backoffice_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: backoffice.MetricLoginDevFallback, Name: "backoffice_login_dev_fallback_total", Help: "Logins satisfied by the development allow-list."},
	{ID: backoffice.MetricResolveCacheHit, Name: "backoffice_resolve_cache_hit_total", Help: "Identity resolutions served from the session cache."},
	{ID: backoffice.MetricResolveBackend, Name: "backoffice_resolve_backend_total", Help: "Identity resolutions rebuilt from the staff directory."},
	{ID: backoffice.MetricResolveDevFallback, Name: "backoffice_resolve_dev_fallback_total", Help: "Identity resolutions satisfied by the development fallback."},
	{ID: backoffice.MetricResolveMiss, Name: "backoffice_resolve_miss_total", Help: "Identity resolutions yielding no identity."},
	{ID: backoffice.MetricSessionCreated, Name: "backoffice_session_created_total", Help: "Created sessions."},
	{ID: backoffice.MetricSessionInvalidated, Name: "backoffice_session_invalidated_total", Help: "Cached sessions dropped after a failed directory re-check."},
	{ID: backoffice.MetricLogout, Name: "backoffice_logout_total", Help: "Logout operations."},
	{ID: backoffice.MetricAuthorizeDenied, Name: "backoffice_authorize_denied_total", Help: "Authorization checks that denied the caller."},
	{ID: backoffice.MetricUploadSuccess, Name: "backoffice_upload_success_total", Help: "Successful media uploads."},
	{ID: backoffice.MetricUploadFailure, Name: "backoffice_upload_failure_total", Help: "Failed media uploads."},
	{ID: backoffice.MetricStaffCreated, Name: "backoffice_staff_created_total", Help: "Successful staff creations."},
	{ID: backoffice.MetricStaffCreateConflict, Name: "backoffice_staff_create_conflict_total", Help: "Staff creations rejected as duplicate."},
	{ID: backoffice.MetricStaffRollback, Name: "backoffice_staff_rollback_total", Help: "Compensating deletes after a failed staff creation."},
	{ID: backoffice.MetricStaffRollbackFailed, Name: "backoffice_staff_rollback_failed_total", Help: "Compensating deletes that themselves failed."},
	{ID: backoffice.MetricContentRead, Name: "backoffice_content_read_total", Help: "Content collection reads."},
	{ID: backoffice.MetricContentWrite, Name: "backoffice_content_write_total", Help: "Content collection writes and deletes."},
}

// HistogramDefs is an exported constant or variable used by the back-office engine.
var HistogramDefs = []HistogramDef{
	{ID: backoffice.MetricResolveLatency, Name: "backoffice_resolve_latency_seconds", Help: "Identity resolution latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the back-office engine.
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

// HistogramBoundSuffix is an exported constant or variable used by the back-office engine.
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

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms expose.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
