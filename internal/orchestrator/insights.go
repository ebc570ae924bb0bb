package orchestrator

import (
	"fmt"
	"sort"

	"fluorite-flake/internal/services"

	"github.com/google/uuid"
)

// Insight rule thresholds. Comparisons are strict: a combined error rate of
// exactly 5 percent or an average response time of exactly 1000ms does not
// trigger.
const (
	errorRateThreshold    = 5.0    // percent
	responseTimeThreshold = 1000.0 // milliseconds
)

// generateInsights applies the fixed rule list over the aggregated metrics.
// Rule order is the output order; no priority re-sort happens afterwards.
// An empty list is valid output when no rule triggers.
func generateInsights(agg AggregatedMetrics, data map[string]*services.DashboardData) []Insight {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	var insights []Insight

	switch agg.OverallHealth {
	case services.HealthUnhealthy:
		insights = append(insights, Insight{
			ID:       uuid.NewString(),
			Type:     InsightError,
			Title:    "Services unhealthy",
			Message:  "The majority of registered services are failing their health checks.",
			Services: names,
			Actions:  []string{"Run the health check for each affected service", "Verify vendor CLI authentication"},
			Priority: PriorityCritical,
		})
	case services.HealthDegraded:
		insights = append(insights, Insight{
			ID:       uuid.NewString(),
			Type:     InsightWarning,
			Title:    "Services degraded",
			Message:  "Some registered services are failing their health checks.",
			Services: names,
			Actions:  []string{"Review per-service health details"},
			Priority: PriorityHigh,
		})
	}

	if agg.Performance.CombinedErrorRate > errorRateThreshold {
		insights = append(insights, Insight{
			ID:       uuid.NewString(),
			Type:     InsightWarning,
			Title:    "High error rate",
			Message:  fmt.Sprintf("Combined error rate is %.2f%%, above the %.0f%% threshold.", agg.Performance.CombinedErrorRate, errorRateThreshold),
			Services: names,
			Priority: PriorityHigh,
		})
	}

	if agg.Performance.AvgResponseTime > responseTimeThreshold {
		insights = append(insights, Insight{
			ID:       uuid.NewString(),
			Type:     InsightWarning,
			Title:    "Slow responses",
			Message:  fmt.Sprintf("Average response time is %.0fms, above the %.0fms threshold.", agg.Performance.AvgResponseTime, responseTimeThreshold),
			Services: names,
			Priority: PriorityMedium,
		})
	}

	return insights
}
