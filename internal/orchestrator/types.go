package orchestrator

import (
	"errors"
	"time"

	"fluorite-flake/internal/services"
)

// ErrServiceExists is wrapped when AddService is called for a name that is
// already registered. There is no implicit replace.
var ErrServiceExists = errors.New("service already registered")

// ErrServiceNotFound is wrapped by the per-service query operations when
// the name is not registered.
var ErrServiceNotFound = errors.New("service not registered")

// MultiServiceDashboardData is the combined snapshot returned by
// GetMultiServiceDashboardData. It is computed on demand and never stored.
type MultiServiceDashboardData struct {
	Timestamp  time.Time                          `json:"timestamp"`
	Services   map[string]*services.DashboardData `json:"services"`
	Aggregated AggregatedMetrics                  `json:"aggregated"`
	Insights   []Insight                          `json:"insights"`

	// Errors records per-service fetch failures that were skipped during
	// aggregation, keyed by service name.
	Errors map[string]string `json:"errors,omitempty"`
}

// PerformanceSummary is the cross-service performance rollup.
type PerformanceSummary struct {
	// AvgResponseTime and CombinedErrorRate are averaged over all queried
	// services, treating absent metrics as zero.
	AvgResponseTime   float64 `json:"avgResponseTime"`
	TotalThroughput   float64 `json:"totalThroughput"`
	CombinedErrorRate float64 `json:"combinedErrorRate"`
}

// AggregatedMetrics is derived by summation and averaging across all
// successfully queried services.
type AggregatedMetrics struct {
	TotalResources int                  `json:"totalResources"`
	TotalErrors    int                  `json:"totalErrors"`
	OverallHealth  services.HealthState `json:"overallHealth"`
	Performance    PerformanceSummary   `json:"performance"`
	TotalCost      *float64             `json:"totalCost,omitempty"`
}

// InsightType classifies an insight.
type InsightType string

const (
	InsightWarning InsightType = "warning"
	InsightInfo    InsightType = "info"
	InsightError   InsightType = "error"
	InsightSuccess InsightType = "success"
)

// InsightPriority ranks an insight.
type InsightPriority string

const (
	PriorityLow      InsightPriority = "low"
	PriorityMedium   InsightPriority = "medium"
	PriorityHigh     InsightPriority = "high"
	PriorityCritical InsightPriority = "critical"
)

// Insight is an ephemeral, rule-generated observation over the aggregated
// metrics. Insights are generated fresh on each aggregation call and never
// deduplicated or stored across calls.
type Insight struct {
	ID       string          `json:"id"`
	Type     InsightType     `json:"type"`
	Title    string          `json:"title"`
	Message  string          `json:"message"`
	Services []string        `json:"services"`
	Actions  []string        `json:"actions,omitempty"`
	Priority InsightPriority `json:"priority"`
}
