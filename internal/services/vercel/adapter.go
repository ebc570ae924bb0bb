// Package vercel adapts the Vercel CLI to the service adapter contract.
package vercel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fluorite-flake/internal/config"
	"fluorite-flake/internal/services"
	"fluorite-flake/internal/vendorcli"
	"fluorite-flake/pkg/logging"
)

const toolName = "vercel"

type deployment struct {
	UID     string `json:"uid"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	State   string `json:"state"`
	Target  string `json:"target"`
	Created int64  `json:"created"` // unix millis
}

type deploymentList struct {
	Deployments []deployment `json:"deployments"`
}

// Adapter monitors Vercel deployments and streams runtime logs.
type Adapter struct {
	*services.BaseAdapter
	runner  vendorcli.Runner
	project string
	scope   string
}

// New creates a Vercel adapter. project and scope narrow the CLI calls to
// one project and team when set.
func New(runner vendorcli.Runner, cfg config.ServiceConfig) *Adapter {
	a := &Adapter{
		BaseAdapter: services.NewBaseAdapter("vercel", "Vercel", "1.0.0", services.Capabilities{
			RealTimeUpdates: true,
			LogStreaming:    true,
			Deployments:     true,
			MultiProject:    true,
			Analytics:       true,
		}),
		runner:  runner,
		project: cfg.Get("project", ""),
		scope:   cfg.Get("scope", ""),
	}
	a.RegisterAction("deploy", a.actionDeploy)
	a.RegisterAction("promote", a.actionPromote)
	a.RegisterAction("rollback", a.actionRollback)
	return a
}

// Initialize verifies the vercel binary is installed.
func (a *Adapter) Initialize(ctx context.Context) error {
	if _, err := a.runner.LookPath(toolName); err != nil {
		return fmt.Errorf("%s: %w", toolName, services.ErrToolMissing)
	}
	return nil
}

// Authenticate confirms a usable login. `vercel whoami` exits non-zero when
// no credentials are stored, which is a rejection rather than an error.
func (a *Adapter) Authenticate(ctx context.Context, auth config.AuthConfig) (bool, error) {
	if _, err := a.runner.Run(ctx, toolName, a.scoped("whoami")...); err != nil {
		logging.Debug("Vercel", "whoami failed: %v", err)
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

// Connect verifies the deployment API answers and publishes the initial
// dashboard snapshot. It fails with ErrNotAuthenticated when no usable
// login exists.
func (a *Adapter) Connect(ctx context.Context) error {
	if !a.IsAuthenticated(ctx) {
		if ok, err := a.Authenticate(ctx, nil); err != nil || !ok {
			return fmt.Errorf("vercel: %w", services.ErrNotAuthenticated)
		}
	}
	if _, err := a.listDeployments(ctx); err != nil {
		a.SetStatusError(err)
		return fmt.Errorf("vercel: reaching deployment API: %w", err)
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
				return services.CheckFail, "vercel is not installed"
			}
			return services.CheckPass, ""
		}},
		{Name: "authenticated", Run: func(ctx context.Context) (services.CheckState, string) {
			if _, err := a.runner.Run(ctx, toolName, a.scoped("whoami")...); err != nil {
				return services.CheckFail, "vercel has no active login"
			}
			return services.CheckPass, ""
		}},
		{Name: "deployments-reachable", Run: func(ctx context.Context) (services.CheckState, string) {
			deployments, err := a.listDeployments(ctx)
			if err != nil {
				return services.CheckFail, "deployment listing failed"
			}
			for _, d := range deployments {
				if d.State == "ERROR" {
					return services.CheckWarn, "a recent deployment errored"
				}
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
	if a.project != "" {
		data.Details["project"] = a.project
	}

	resources, err := a.ListResources(ctx, opts.ResourceType)
	if err != nil {
		logging.Warn("Vercel", "Resource listing failed: %v", err)
	} else {
		data.Resources = resources
	}

	if !opts.SkipMetrics {
		if metrics, err := a.GetMetrics(ctx, nil); err == nil {
			data.Metrics = metrics
		} else {
			logging.Warn("Vercel", "Metrics fetch failed: %v", err)
		}
	}
	return data, nil
}

// GetMetrics derives estimated metrics from recent deployment states; the
// CLI exposes no performance endpoint, so the numbers are marked sampled.
func (a *Adapter) GetMetrics(ctx context.Context, opts *services.MetricsOptions) (*services.Metrics, error) {
	deployments, err := a.listDeployments(ctx)
	if err != nil {
		return nil, err
	}

	failed := 0
	for _, d := range deployments {
		if d.State == "ERROR" || d.State == "CANCELED" {
			failed++
		}
	}

	m := &services.Metrics{
		Timestamp: time.Now(),
		Errors:    services.ErrorMetrics{TotalErrors: failed},
		Usage:     map[string]float64{"deployments": float64(len(deployments))},
		Sampled:   true,
	}
	if len(deployments) > 0 {
		m.Performance.ErrorRate = float64(failed) / float64(len(deployments)) * 100
	}
	return m, nil
}

// GetLogs streams runtime logs for the latest deployment. This is a live
// tail; the channel closes when the CLI exits or the context is cancelled.
func (a *Adapter) GetLogs(ctx context.Context, opts services.LogOptions) (<-chan services.LogEntry, error) {
	deployments, err := a.listDeployments(ctx)
	if err != nil {
		return nil, err
	}
	if len(deployments) == 0 {
		out := make(chan services.LogEntry)
		close(out)
		return out, nil
	}

	lines, err := a.runner.Tail(ctx, toolName, a.scoped("logs", deployments[0].URL)...)
	if err != nil {
		return nil, fmt.Errorf("vercel: tailing logs: %w", err)
	}

	out := make(chan services.LogEntry, 64)
	go func() {
		defer close(out)
		for line := range lines {
			entry := services.LogEntry{
				Timestamp: time.Now(),
				Service:   a.GetName(),
				Level:     levelOf(line),
				Message:   line,
				Source:    deployments[0].URL,
			}
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
	}()
	return out, nil
}

// ListResources lists deployments. Only the "deployment" type exists.
func (a *Adapter) ListResources(ctx context.Context, resourceType string) ([]services.Resource, error) {
	if resourceType != "" && resourceType != "deployment" {
		return nil, nil
	}
	deployments, err := a.listDeployments(ctx)
	if err != nil {
		return nil, err
	}

	resources := make([]services.Resource, 0, len(deployments))
	for _, d := range deployments {
		resources = append(resources, services.Resource{
			ID:     d.UID,
			Type:   "deployment",
			Name:   d.Name,
			Status: strings.ToLower(d.State),
			Metadata: map[string]string{
				"url":     d.URL,
				"target":  d.Target,
				"created": time.UnixMilli(d.Created).UTC().Format(time.RFC3339),
			},
		})
	}
	return resources, nil
}

// GetResource fetches a single deployment by UID.
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
	return nil, fmt.Errorf("vercel: deployment %q not found", id)
}

// ExecuteAction dispatches through the registered action table.
func (a *Adapter) ExecuteAction(ctx context.Context, action services.Action) services.ActionResult {
	return a.DispatchAction(ctx, action)
}

// scoped appends --scope when a team scope is configured.
func (a *Adapter) scoped(args ...string) []string {
	if a.scope != "" {
		args = append(args, "--scope", a.scope)
	}
	return args
}

func (a *Adapter) listDeployments(ctx context.Context) ([]deployment, error) {
	args := []string{"list", "--json"}
	if a.project != "" {
		args = append(args, a.project)
	}
	var list deploymentList
	if err := a.runner.RunJSON(ctx, &list, toolName, a.scoped(args...)...); err != nil {
		return nil, fmt.Errorf("vercel: listing deployments: %w", err)
	}
	return list.Deployments, nil
}

func levelOf(line string) string {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "error"):
		return "error"
	case strings.Contains(lower, "warn"):
		return "warn"
	default:
		return "info"
	}
}

func (a *Adapter) actionDeploy(ctx context.Context, action services.Action) (string, error) {
	args := []string{"deploy", "--yes"}
	if action.Params["target"] == "production" {
		args = append(args, "--prod")
	}
	out, err := a.runner.Run(ctx, toolName, a.scoped(args...)...)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (a *Adapter) actionPromote(ctx context.Context, action services.Action) (string, error) {
	dep := action.Params["deployment"]
	if dep == "" {
		return "", fmt.Errorf("missing required param %q", "deployment")
	}
	if _, err := a.runner.Run(ctx, toolName, a.scoped("promote", dep, "--yes")...); err != nil {
		return "", err
	}
	return fmt.Sprintf("deployment %s promoted", dep), nil
}

func (a *Adapter) actionRollback(ctx context.Context, action services.Action) (string, error) {
	dep := action.Params["deployment"]
	if dep == "" {
		return "", fmt.Errorf("missing required param %q", "deployment")
	}
	if _, err := a.runner.Run(ctx, toolName, a.scoped("rollback", dep, "--yes")...); err != nil {
		return "", err
	}
	return fmt.Sprintf("rolled back to %s", dep), nil
}
