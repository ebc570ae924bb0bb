package orchestrator

import (
	"context"
	"time"

	"fluorite-flake/internal/services"
	"fluorite-flake/pkg/logging"
)

// healthCheckInterval is fixed; only the auto-refresh interval is
// configurable.
const healthCheckInterval = 30 * time.Second

func healthTaskKey(name string) string  { return "health:" + name }
func refreshTaskKey(name string) string { return "refresh:" + name }

// startHealthMonitoring schedules the periodic health check for name. The
// first check runs immediately so a freshly added service has a health
// snapshot before the first interval elapses.
func (o *Orchestrator) startHealthMonitoring(name string) {
	o.scheduler.Every(healthTaskKey(name), healthCheckInterval, true, func(ctx context.Context) {
		adapter, ok := o.registry.get(name)
		if !ok {
			// Raced with removal; the timer is about to be cancelled.
			return
		}
		health := adapter.HealthCheck(ctx)
		o.registry.setHealth(name, health)
		o.publish(EventServiceHealthCheck, name, health)
		if health.Status != services.HealthHealthy {
			logging.Debug("Orchestrator", "Health check for %s: %s", name, health.Status)
		}
	})
}

// startAutoRefresh schedules the periodic dashboard refresh for name. The
// fetched snapshot is published as an event; adapters cache their own data,
// the orchestrator never does.
func (o *Orchestrator) startAutoRefresh(name string) {
	o.scheduler.Every(refreshTaskKey(name), o.cfg.RefreshInterval.Std(), false, func(ctx context.Context) {
		adapter, ok := o.registry.get(name)
		if !ok {
			return
		}
		data, err := adapter.GetDashboardData(ctx, nil)
		if err != nil {
			logging.Warn("Orchestrator", "Auto-refresh for %s failed: %v", name, err)
			o.publish(EventServiceError, name, err.Error())
			return
		}
		o.publish(EventServiceAutoRefresh, name, data)
	})
}
