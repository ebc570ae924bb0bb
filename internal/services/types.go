package services

import "time"

// HealthState classifies the overall health of a service.
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
)

// CheckState is the outcome of a single health check.
type CheckState string

const (
	CheckPass CheckState = "pass"
	CheckFail CheckState = "fail"
	CheckWarn CheckState = "warn"
)

// Capabilities declares which optional behaviors an adapter supports.
// Consumers use this to decide what UI and actions to offer; the
// orchestrator does not enforce it.
type Capabilities struct {
	RealTimeUpdates    bool `json:"realTimeUpdates"`
	LogStreaming       bool `json:"logStreaming"`
	MetricsHistory     bool `json:"metricsHistory"`
	ResourceManagement bool `json:"resourceManagement"`
	MultiProject       bool `json:"multiProject"`
	Deployments        bool `json:"deployments"`
	Analytics          bool `json:"analytics"`
	FileOperations     bool `json:"fileOperations"`
	Database           bool `json:"database"`
	UserManagement     bool `json:"userManagement"`
}

// Status is the single source of truth for whether an adapter is usable
// right now.
type Status struct {
	Connected     bool      `json:"connected"`
	Authenticated bool      `json:"authenticated"`
	Error         string    `json:"error,omitempty"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// Check is one entry in a health check run.
type Check struct {
	Name     string        `json:"name"`
	Status   CheckState    `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// HealthStatus is a point-in-time health snapshot, overwritten on every
// monitoring tick. It is never a history.
type HealthStatus struct {
	Status       HealthState   `json:"status"`
	Timestamp    time.Time     `json:"timestamp"`
	ResponseTime time.Duration `json:"responseTime"`
	Checks       []Check       `json:"checks"`
}

// DeriveHealthState applies the standard derivation over a check list:
// all pass is healthy, at least one pass is degraded, none is unhealthy.
// Warn counts as not-pass but does not by itself make a service unhealthy.
func DeriveHealthState(checks []Check) HealthState {
	if len(checks) == 0 {
		return HealthUnhealthy
	}
	passes := 0
	for _, c := range checks {
		if c.Status == CheckPass {
			passes++
		}
	}
	switch {
	case passes == len(checks):
		return HealthHealthy
	case passes > 0:
		return HealthDegraded
	default:
		return HealthUnhealthy
	}
}

// Resource is a point-in-time view of one vendor resource (a repo, a
// deployment, a bucket, a database, ...).
type Resource struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Name     string            `json:"name"`
	Status   string            `json:"status,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PerformanceMetrics carries the per-service performance numbers that feed
// cross-service aggregation.
type PerformanceMetrics struct {
	AvgResponseTime float64 `json:"avgResponseTime"` // milliseconds
	Throughput      float64 `json:"throughput"`      // requests per minute
	ErrorRate       float64 `json:"errorRate"`       // percent
}

// ErrorMetrics summarizes recent failures.
type ErrorMetrics struct {
	TotalErrors  int      `json:"totalErrors"`
	RecentErrors []string `json:"recentErrors,omitempty"`
}

// Metrics is a point-in-time usage/performance snapshot for one service.
// Adapters whose backing service has no metrics API return estimated
// numbers and must set Sampled so consumers can label them.
type Metrics struct {
	Timestamp   time.Time          `json:"timestamp"`
	Performance PerformanceMetrics `json:"performance"`
	Errors      ErrorMetrics       `json:"errors"`
	Usage       map[string]float64 `json:"usage,omitempty"`
	Cost        *float64           `json:"cost,omitempty"`
	Sampled     bool               `json:"sampled"`
}

// LogEntry is one line of a service's log tail.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Level     string    `json:"level,omitempty"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
}

// DashboardData is the per-service snapshot assembled from several
// independent best-effort fetches. A failed sub-fetch degrades to its zero
// value rather than failing the whole snapshot.
type DashboardData struct {
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Status    Status            `json:"status"`
	Resources []Resource        `json:"resources"`
	Metrics   *Metrics          `json:"metrics,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// DataOptions tunes a dashboard data fetch.
type DataOptions struct {
	// ResourceType restricts the resource listing to one type.
	ResourceType string `json:"resourceType,omitempty"`
	// SkipMetrics skips the metrics sub-fetch.
	SkipMetrics bool `json:"skipMetrics,omitempty"`
}

// MetricsOptions tunes a metrics fetch.
type MetricsOptions struct {
	// Window is an optional look-back period for services that support it.
	Window time.Duration `json:"window,omitempty"`
}

// LogOptions tunes a log tail.
type LogOptions struct {
	// Lines is the number of backlog lines to include before tailing,
	// where the vendor CLI supports it.
	Lines int `json:"lines,omitempty"`
	// Level filters entries at or above the given level, where supported.
	Level string `json:"level,omitempty"`
}

// Action is a request to execute a service-specific operation.
type Action struct {
	Type   string            `json:"type"`
	Params map[string]string `json:"params,omitempty"`
}

// Action error codes. Dispatch failures are always reported as structured
// results, never as returned errors.
const (
	ActionErrUnknown = "UNKNOWN_ACTION"
	ActionErrFailed  = "ACTION_FAILED"
)

// ActionError describes why an action failed.
type ActionError struct {
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// ActionResult is the structured outcome of ExecuteAction.
type ActionResult struct {
	Success bool         `json:"success"`
	Output  string       `json:"output,omitempty"`
	Error   *ActionError `json:"error,omitempty"`
}
