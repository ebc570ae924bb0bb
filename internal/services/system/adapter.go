// Package system adapts the local machine to the service adapter contract.
// It is the one adapter that needs no vendor CLI and no credentials, which
// makes it the default auto-init service.
package system

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"fluorite-flake/internal/config"
	"fluorite-flake/internal/services"
	"fluorite-flake/pkg/logging"
)

// Pressure thresholds, in percent used.
const (
	warnThreshold = 80.0
	failThreshold = 95.0
)

// Adapter reports local CPU, memory and disk pressure through gopsutil.
// Its metrics are measured, not sampled, and it registers no actions.
type Adapter struct {
	*services.BaseAdapter
	rootPath string
}

// New creates a system adapter. path overrides the filesystem root whose
// usage is reported.
func New(cfg config.ServiceConfig) *Adapter {
	return &Adapter{
		BaseAdapter: services.NewBaseAdapter("system", "Local System", "1.0.0", services.Capabilities{
			RealTimeUpdates: true,
			MetricsHistory:  false,
		}),
		rootPath: cfg.Get("path", "/"),
	}
}

// Initialize has nothing to verify; gopsutil reads procfs directly.
func (a *Adapter) Initialize(ctx context.Context) error { return nil }

// Authenticate always succeeds; the local system has no credentials.
func (a *Adapter) Authenticate(ctx context.Context, auth config.AuthConfig) (bool, error) {
	a.SetAuthenticated(true)
	return true, nil
}

// IsAuthenticated always reports true.
func (a *Adapter) IsAuthenticated(ctx context.Context) bool { return true }

// Connect verifies the host stats are readable and publishes the initial
// dashboard snapshot.
func (a *Adapter) Connect(ctx context.Context) error {
	if _, err := host.InfoWithContext(ctx); err != nil {
		a.SetStatusError(err)
		return fmt.Errorf("system: reading host info: %w", err)
	}
	a.SetConnected(true)
	a.EmitConnectSnapshot(ctx, a.GetDashboardData)
	return nil
}

// Disconnect drops the connected flag.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.SetConnected(false)
	return nil
}

// HealthCheck grades CPU, memory and disk pressure against fixed
// thresholds.
func (a *Adapter) HealthCheck(ctx context.Context) services.HealthStatus {
	return a.RunChecks(ctx, []services.NamedCheck{
		{Name: "cpu", Run: func(ctx context.Context) (services.CheckState, string) {
			percents, err := cpu.PercentWithContext(ctx, 0, false)
			if err != nil || len(percents) == 0 {
				return services.CheckFail, "cpu usage unreadable"
			}
			return gradeUsage(percents[0], "cpu")
		}},
		{Name: "memory", Run: func(ctx context.Context) (services.CheckState, string) {
			vm, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil {
				return services.CheckFail, "memory usage unreadable"
			}
			return gradeUsage(vm.UsedPercent, "memory")
		}},
		{Name: "disk", Run: func(ctx context.Context) (services.CheckState, string) {
			usage, err := disk.UsageWithContext(ctx, a.rootPath)
			if err != nil {
				return services.CheckFail, "disk usage unreadable"
			}
			return gradeUsage(usage.UsedPercent, "disk")
		}},
	})
}

func gradeUsage(percent float64, what string) (services.CheckState, string) {
	switch {
	case percent >= failThreshold:
		return services.CheckFail, fmt.Sprintf("%s at %.0f%%", what, percent)
	case percent >= warnThreshold:
		return services.CheckWarn, fmt.Sprintf("%s at %.0f%%", what, percent)
	default:
		return services.CheckPass, ""
	}
}

// GetDashboardData assembles a snapshot of the host.
func (a *Adapter) GetDashboardData(ctx context.Context, opts *services.DataOptions) (*services.DashboardData, error) {
	if opts == nil {
		opts = &services.DataOptions{}
	}
	data := &services.DashboardData{
		Service:   a.GetName(),
		Timestamp: time.Now(),
		Status:    a.GetStatus(),
		Details:   map[string]string{},
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		data.Details["hostname"] = info.Hostname
		data.Details["os"] = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
		data.Details["uptime"] = (time.Duration(info.Uptime) * time.Second).String()
	}

	resources, err := a.ListResources(ctx, opts.ResourceType)
	if err != nil {
		logging.Warn("System", "Partition listing failed: %v", err)
	} else {
		data.Resources = resources
	}

	if !opts.SkipMetrics {
		if metrics, err := a.GetMetrics(ctx, nil); err == nil {
			data.Metrics = metrics
		} else {
			logging.Warn("System", "Metrics read failed: %v", err)
		}
	}
	return data, nil
}

// GetMetrics reads live usage numbers. Unlike the vendor adapters these are
// measured on the spot, so Sampled stays false.
func (a *Adapter) GetMetrics(ctx context.Context, opts *services.MetricsOptions) (*services.Metrics, error) {
	m := &services.Metrics{
		Timestamp: time.Now(),
		Usage:     map[string]float64{},
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		m.Usage["cpuPercent"] = percents[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		m.Usage["memoryPercent"] = vm.UsedPercent
	}
	if usage, err := disk.UsageWithContext(ctx, a.rootPath); err == nil {
		m.Usage["diskPercent"] = usage.UsedPercent
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		m.Usage["load1"] = avg.Load1
	}

	if len(m.Usage) == 0 {
		return nil, fmt.Errorf("system: no usage sources readable")
	}
	return m, nil
}

// GetLogs emits one snapshot line and closes; the host has no log stream
// at this level.
func (a *Adapter) GetLogs(ctx context.Context, opts services.LogOptions) (<-chan services.LogEntry, error) {
	out := make(chan services.LogEntry, 1)
	defer close(out)
	if opts.Level == "error" {
		return out, nil
	}
	if info, err := host.InfoWithContext(ctx); err == nil {
		out <- services.LogEntry{
			Timestamp: time.Now(),
			Service:   a.GetName(),
			Level:     "info",
			Message:   fmt.Sprintf("%s up %s, %d procs", info.Hostname, (time.Duration(info.Uptime) * time.Second).String(), info.Procs),
			Source:    "host",
		}
	}
	return out, nil
}

// ListResources lists mounted partitions. Only the "partition" type exists.
func (a *Adapter) ListResources(ctx context.Context, resourceType string) ([]services.Resource, error) {
	if resourceType != "" && resourceType != "partition" {
		return nil, nil
	}
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("system: listing partitions: %w", err)
	}

	resources := make([]services.Resource, 0, len(partitions))
	for _, p := range partitions {
		resources = append(resources, services.Resource{
			ID:     p.Mountpoint,
			Type:   "partition",
			Name:   p.Mountpoint,
			Status: "mounted",
			Metadata: map[string]string{
				"device": p.Device,
				"fstype": p.Fstype,
			},
		})
	}
	return resources, nil
}

// GetResource fetches a single partition by mountpoint.
func (a *Adapter) GetResource(ctx context.Context, id, resourceType string) (*services.Resource, error) {
	resources, err := a.ListResources(ctx, resourceType)
	if err != nil {
		return nil, err
	}
	for i := range resources {
		if resources[i].ID == id {
			return &resources[i], nil
		}
	}
	return nil, fmt.Errorf("system: partition %q not found", id)
}

// ExecuteAction dispatches through the registered action table. No actions
// are registered, so every type is an unknown action.
func (a *Adapter) ExecuteAction(ctx context.Context, action services.Action) services.ActionResult {
	return a.DispatchAction(ctx, action)
}
