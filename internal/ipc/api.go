package ipc

import (
	"context"

	"fluorite-flake/internal/config"
	"fluorite-flake/internal/orchestrator"
	"fluorite-flake/internal/services"
)

// DashboardAPI is the orchestrator surface the IPC tools expose. It is an
// interface so handler tests can stub it without a running orchestrator.
type DashboardAPI interface {
	GetRegisteredServices() []string
	GetServicesStatus() map[string]services.Status
	GetServicesHealth() map[string]services.HealthStatus
	GetService(name string) (services.ServiceAdapter, error)

	GetServiceDashboardData(ctx context.Context, name string, opts *services.DataOptions) (*services.DashboardData, error)
	GetServiceMetrics(ctx context.Context, name string, opts *services.MetricsOptions) (*services.Metrics, error)
	GetServiceLogs(ctx context.Context, name string, opts services.LogOptions) (<-chan services.LogEntry, error)
	ExecuteServiceAction(ctx context.Context, name string, action services.Action) (services.ActionResult, error)

	GetMultiServiceDashboardData(ctx context.Context, opts *services.DataOptions) (*orchestrator.MultiServiceDashboardData, error)

	AddService(ctx context.Context, name string, svcCfg config.ServiceConfig, authCfg config.AuthConfig) error
	RemoveService(ctx context.Context, name string) error
}

var _ DashboardAPI = (*orchestrator.Orchestrator)(nil)
