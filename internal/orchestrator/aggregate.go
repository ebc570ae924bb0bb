package orchestrator

import (
	"fluorite-flake/internal/services"
)

// Health ratio thresholds for the cross-service rollup.
const (
	healthyRatioThreshold  = 0.8
	degradedRatioThreshold = 0.5
)

// aggregateMetrics computes the cross-service rollup. It is a pure function
// of the per-service data map and the current health map.
//
// avgResponseTime and combinedErrorRate are divided by the count of all
// queried services, not the count of services that reported the field, so
// a service with absent metrics contributes zero and skews the average
// toward zero when data is partial. That is the documented contract:
// "average over all queried services, treating absent metrics as zero".
func aggregateMetrics(data map[string]*services.DashboardData, health map[string]services.HealthStatus) AggregatedMetrics {
	agg := AggregatedMetrics{}

	if len(data) == 0 {
		// No services: the health ratio is undefined, so the rollup reports
		// unhealthy by convention.
		agg.OverallHealth = services.HealthUnhealthy
		return agg
	}

	var sumResponseTime, sumErrorRate, sumThroughput float64
	var costSum float64
	var costSeen bool
	healthyCount := 0

	for name, d := range data {
		if d != nil {
			agg.TotalResources += len(d.Resources)
			if d.Metrics != nil {
				agg.TotalErrors += d.Metrics.Errors.TotalErrors
				sumResponseTime += d.Metrics.Performance.AvgResponseTime
				sumErrorRate += d.Metrics.Performance.ErrorRate
				sumThroughput += d.Metrics.Performance.Throughput
				if d.Metrics.Cost != nil {
					costSum += *d.Metrics.Cost
					costSeen = true
				}
			}
		}
		if hs, ok := health[name]; ok && hs.Status == services.HealthHealthy {
			healthyCount++
		}
	}

	total := float64(len(data))
	agg.Performance = PerformanceSummary{
		AvgResponseTime:   sumResponseTime / total,
		TotalThroughput:   sumThroughput,
		CombinedErrorRate: sumErrorRate / total,
	}
	if costSeen {
		agg.TotalCost = &costSum
	}

	ratio := float64(healthyCount) / total
	switch {
	case ratio >= healthyRatioThreshold:
		agg.OverallHealth = services.HealthHealthy
	case ratio >= degradedRatioThreshold:
		agg.OverallHealth = services.HealthDegraded
	default:
		agg.OverallHealth = services.HealthUnhealthy
	}
	return agg
}
