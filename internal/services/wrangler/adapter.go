// Package wrangler adapts the Cloudflare Workers CLI to the service
// adapter contract.
package wrangler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fluorite-flake/internal/config"
	"fluorite-flake/internal/services"
	"fluorite-flake/internal/vendorcli"
	"fluorite-flake/pkg/logging"
)

const toolName = "wrangler"

type kvNamespace struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// tailEvent is one line of `wrangler tail --format json`.
type tailEvent struct {
	Outcome        string `json:"outcome"`
	EventTimestamp int64  `json:"eventTimestamp"` // unix millis
	Logs           []struct {
		Message []json.RawMessage `json:"message"`
		Level   string            `json:"level"`
	} `json:"logs"`
	Exceptions []struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"exceptions"`
}

// Adapter monitors Cloudflare Workers, KV namespaces and R2 buckets.
type Adapter struct {
	*services.BaseAdapter
	runner vendorcli.Runner
	worker string
}

// New creates a wrangler adapter. worker names the script whose logs are
// tailed; without it GetLogs fails.
func New(runner vendorcli.Runner, cfg config.ServiceConfig) *Adapter {
	a := &Adapter{
		BaseAdapter: services.NewBaseAdapter("wrangler", "Cloudflare Workers", "1.0.0", services.Capabilities{
			RealTimeUpdates:    true,
			LogStreaming:       true,
			Deployments:        true,
			ResourceManagement: true,
		}),
		runner: runner,
		worker: cfg.Get("worker", ""),
	}
	a.RegisterAction("deploy", a.actionDeploy)
	a.RegisterAction("rollback", a.actionRollback)
	return a
}

// Initialize verifies the wrangler binary is installed.
func (a *Adapter) Initialize(ctx context.Context) error {
	if _, err := a.runner.LookPath(toolName); err != nil {
		return fmt.Errorf("%s: %w", toolName, services.ErrToolMissing)
	}
	return nil
}

// Authenticate confirms a stored login via whoami.
func (a *Adapter) Authenticate(ctx context.Context, auth config.AuthConfig) (bool, error) {
	if _, err := a.runner.Run(ctx, toolName, "whoami"); err != nil {
		logging.Debug("Wrangler", "whoami failed: %v", err)
		a.SetAuthenticated(false)
		return false, nil
	}
	a.SetAuthenticated(true)
	return true, nil
}

// IsAuthenticated reports the last observed authentication state.
func (a *Adapter) IsAuthenticated(ctx context.Context) bool {
	return a.GetStatus().Authenticated
}

// Connect verifies the account API answers and publishes the initial
// dashboard snapshot. It fails with ErrNotAuthenticated when no usable
// login exists.
func (a *Adapter) Connect(ctx context.Context) error {
	if !a.IsAuthenticated(ctx) {
		if ok, err := a.Authenticate(ctx, nil); err != nil || !ok {
			return fmt.Errorf("wrangler: %w", services.ErrNotAuthenticated)
		}
	}
	if _, err := a.listKVNamespaces(ctx); err != nil {
		a.SetStatusError(err)
		return fmt.Errorf("wrangler: reaching Cloudflare API: %w", err)
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

// HealthCheck runs the standard check list.
func (a *Adapter) HealthCheck(ctx context.Context) services.HealthStatus {
	return a.RunChecks(ctx, []services.NamedCheck{
		{Name: "cli-installed", Run: func(ctx context.Context) (services.CheckState, string) {
			if _, err := a.runner.LookPath(toolName); err != nil {
				return services.CheckFail, "wrangler is not installed"
			}
			return services.CheckPass, ""
		}},
		{Name: "authenticated", Run: func(ctx context.Context) (services.CheckState, string) {
			if _, err := a.runner.Run(ctx, toolName, "whoami"); err != nil {
				return services.CheckFail, "wrangler has no active login"
			}
			return services.CheckPass, ""
		}},
		{Name: "api-reachable", Run: func(ctx context.Context) (services.CheckState, string) {
			if _, err := a.listKVNamespaces(ctx); err != nil {
				return services.CheckFail, "Cloudflare API unreachable"
			}
			return services.CheckPass, ""
		}},
	})
}

// GetDashboardData assembles a snapshot from independent best-effort fetches.
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
	if a.worker != "" {
		data.Details["worker"] = a.worker
	}

	resources, err := a.ListResources(ctx, opts.ResourceType)
	if err != nil {
		logging.Warn("Wrangler", "Resource listing failed: %v", err)
	} else {
		data.Resources = resources
	}

	if !opts.SkipMetrics {
		if metrics, err := a.GetMetrics(ctx, nil); err == nil {
			data.Metrics = metrics
		} else {
			logging.Warn("Wrangler", "Metrics fetch failed: %v", err)
		}
	}
	return data, nil
}

// GetMetrics reports resource counts as usage; wrangler exposes no
// performance API, so the snapshot is marked sampled.
func (a *Adapter) GetMetrics(ctx context.Context, opts *services.MetricsOptions) (*services.Metrics, error) {
	namespaces, err := a.listKVNamespaces(ctx)
	if err != nil {
		return nil, err
	}
	usage := map[string]float64{"kvNamespaces": float64(len(namespaces))}
	if buckets, err := a.listR2Buckets(ctx); err == nil {
		usage["r2Buckets"] = float64(len(buckets))
	}
	return &services.Metrics{
		Timestamp: time.Now(),
		Usage:     usage,
		Sampled:   true,
	}, nil
}

// GetLogs live-tails the configured worker. Each tail line is a JSON event
// that may carry several log messages and exceptions.
func (a *Adapter) GetLogs(ctx context.Context, opts services.LogOptions) (<-chan services.LogEntry, error) {
	if a.worker == "" {
		return nil, fmt.Errorf("wrangler: no worker configured for log tailing")
	}
	lines, err := a.runner.Tail(ctx, toolName, "tail", a.worker, "--format", "json")
	if err != nil {
		return nil, fmt.Errorf("wrangler: tailing %s: %w", a.worker, err)
	}

	out := make(chan services.LogEntry, 64)
	go func() {
		defer close(out)
		for line := range lines {
			for _, entry := range a.parseTailLine(line) {
				if opts.Level == "error" && entry.Level != "error" {
					continue
				}
				select {
				case out <- entry:
					a.EmitLogEntry(entry)
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (a *Adapter) parseTailLine(line string) []services.LogEntry {
	var event tailEvent
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		// Wrangler prints banners before the stream; pass them through.
		return []services.LogEntry{{
			Timestamp: time.Now(),
			Service:   a.GetName(),
			Level:     "info",
			Message:   line,
			Source:    a.worker,
		}}
	}

	ts := time.UnixMilli(event.EventTimestamp)
	var entries []services.LogEntry
	for _, l := range event.Logs {
		parts := make([]string, 0, len(l.Message))
		for _, raw := range l.Message {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				s = string(raw)
			}
			parts = append(parts, s)
		}
		entries = append(entries, services.LogEntry{
			Timestamp: ts,
			Service:   a.GetName(),
			Level:     normalizeLevel(l.Level),
			Message:   strings.Join(parts, " "),
			Source:    a.worker,
		})
	}
	for _, e := range event.Exceptions {
		entries = append(entries, services.LogEntry{
			Timestamp: ts,
			Service:   a.GetName(),
			Level:     "error",
			Message:   fmt.Sprintf("%s: %s", e.Name, e.Message),
			Source:    a.worker,
		})
	}
	return entries
}

func normalizeLevel(level string) string {
	switch level {
	case "error":
		return "error"
	case "warn", "warning":
		return "warn"
	default:
		return "info"
	}
}

// ListResources lists KV namespaces and R2 buckets. An empty resourceType
// returns both.
func (a *Adapter) ListResources(ctx context.Context, resourceType string) ([]services.Resource, error) {
	var resources []services.Resource

	if resourceType == "" || resourceType == "kv-namespace" {
		namespaces, err := a.listKVNamespaces(ctx)
		if err != nil {
			return nil, err
		}
		for _, ns := range namespaces {
			resources = append(resources, services.Resource{
				ID:     ns.ID,
				Type:   "kv-namespace",
				Name:   ns.Title,
				Status: "active",
			})
		}
	}

	if resourceType == "" || resourceType == "r2-bucket" {
		buckets, err := a.listR2Buckets(ctx)
		if err != nil {
			if resourceType == "r2-bucket" {
				return nil, err
			}
			logging.Debug("Wrangler", "R2 bucket listing failed: %v", err)
			return resources, nil
		}
		for _, bucket := range buckets {
			resources = append(resources, services.Resource{
				ID:     bucket,
				Type:   "r2-bucket",
				Name:   bucket,
				Status: "active",
			})
		}
	}
	return resources, nil
}

// GetResource fetches a single resource by ID.
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
	return nil, fmt.Errorf("wrangler: resource %q not found", id)
}

// ExecuteAction dispatches through the registered action table.
func (a *Adapter) ExecuteAction(ctx context.Context, action services.Action) services.ActionResult {
	return a.DispatchAction(ctx, action)
}

func (a *Adapter) listKVNamespaces(ctx context.Context) ([]kvNamespace, error) {
	var namespaces []kvNamespace
	if err := a.runner.RunJSON(ctx, &namespaces, toolName, "kv", "namespace", "list"); err != nil {
		return nil, fmt.Errorf("wrangler: listing KV namespaces: %w", err)
	}
	return namespaces, nil
}

// listR2Buckets parses the "name: <bucket>" lines the R2 listing prints.
func (a *Adapter) listR2Buckets(ctx context.Context) ([]string, error) {
	out, err := a.runner.Run(ctx, toolName, "r2", "bucket", "list")
	if err != nil {
		return nil, fmt.Errorf("wrangler: listing R2 buckets: %w", err)
	}
	var buckets []string
	for _, line := range strings.Split(out, "\n") {
		if name, ok := strings.CutPrefix(strings.TrimSpace(line), "name:"); ok {
			buckets = append(buckets, strings.TrimSpace(name))
		}
	}
	return buckets, nil
}

func (a *Adapter) actionDeploy(ctx context.Context, action services.Action) (string, error) {
	out, err := a.runner.Run(ctx, toolName, "deploy")
	if err != nil {
		return "", err
	}
	return out, nil
}

func (a *Adapter) actionRollback(ctx context.Context, action services.Action) (string, error) {
	args := []string{"rollback"}
	if msg := action.Params["message"]; msg != "" {
		args = append(args, "--message", msg)
	}
	if _, err := a.runner.Run(ctx, toolName, args...); err != nil {
		return "", err
	}
	return "rollback requested", nil
}
