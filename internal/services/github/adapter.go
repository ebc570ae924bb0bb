// Package github adapts the gh CLI to the service adapter contract.
package github

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

const (
	toolName  = "gh"
	repoLimit = "30"
	runLimit  = "50"
)

type repoInfo struct {
	Name       string    `json:"name"`
	Visibility string    `json:"visibility"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type workflowRun struct {
	DatabaseID   int64     `json:"databaseId"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	Conclusion   string    `json:"conclusion"`
	WorkflowName string    `json:"workflowName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Adapter monitors GitHub repositories and workflow runs through gh.
type Adapter struct {
	*services.BaseAdapter
	runner vendorcli.Runner
	repo   string // optional owner/repo scope
}

// New creates a GitHub adapter. An empty repo scopes queries to the
// authenticated user's repositories.
func New(runner vendorcli.Runner, cfg config.ServiceConfig) *Adapter {
	a := &Adapter{
		BaseAdapter: services.NewBaseAdapter("github", "GitHub", "1.0.0", services.Capabilities{
			LogStreaming:       true,
			ResourceManagement: true,
			Deployments:        true,
			MultiProject:       true,
		}),
		runner: runner,
		repo:   cfg.Get("repo", ""),
	}
	a.RegisterAction("run-workflow", a.actionRunWorkflow)
	a.RegisterAction("rerun-failed", a.actionRerunFailed)
	a.RegisterAction("refresh", a.actionRefresh)
	return a
}

// Initialize verifies the gh binary is installed.
func (a *Adapter) Initialize(ctx context.Context) error {
	if _, err := a.runner.LookPath(toolName); err != nil {
		return fmt.Errorf("%s: %w", toolName, services.ErrToolMissing)
	}
	return nil
}

// Authenticate checks gh's stored credentials. The token in the auth config
// is not forwarded; gh manages its own keyring and the check only confirms
// a usable login exists. A missing login is a rejection, not an error.
func (a *Adapter) Authenticate(ctx context.Context, auth config.AuthConfig) (bool, error) {
	if _, err := a.runner.Run(ctx, toolName, "auth", "status"); err != nil {
		logging.Debug("GitHub", "auth status failed: %v", err)
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

// Connect verifies API reachability with a cheap authenticated call and
// publishes the initial dashboard snapshot. It fails with
// ErrNotAuthenticated when no usable login exists.
func (a *Adapter) Connect(ctx context.Context) error {
	if !a.IsAuthenticated(ctx) {
		if ok, err := a.Authenticate(ctx, nil); err != nil || !ok {
			return fmt.Errorf("github: %w", services.ErrNotAuthenticated)
		}
	}
	if _, err := a.runner.Run(ctx, toolName, "api", "user", "-q", ".login"); err != nil {
		a.SetStatusError(err)
		return fmt.Errorf("github: reaching API: %w", err)
	}
	a.SetConnected(true)
	a.EmitConnectSnapshot(ctx, a.GetDashboardData)
	return nil
}

// Disconnect drops the connected flag. gh holds no session to tear down.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.SetConnected(false)
	return nil
}

// HealthCheck runs the standard check list. It never returns an error;
// failures are folded into the snapshot.
func (a *Adapter) HealthCheck(ctx context.Context) services.HealthStatus {
	return a.RunChecks(ctx, []services.NamedCheck{
		{Name: "cli-installed", Run: func(ctx context.Context) (services.CheckState, string) {
			if _, err := a.runner.LookPath(toolName); err != nil {
				return services.CheckFail, "gh is not installed"
			}
			return services.CheckPass, ""
		}},
		{Name: "authenticated", Run: func(ctx context.Context) (services.CheckState, string) {
			if _, err := a.runner.Run(ctx, toolName, "auth", "status"); err != nil {
				return services.CheckFail, "gh has no active login"
			}
			return services.CheckPass, ""
		}},
		{Name: "api-reachable", Run: func(ctx context.Context) (services.CheckState, string) {
			out, err := a.runner.Run(ctx, toolName, "api", "rate_limit", "-q", ".resources.core.remaining")
			if err != nil {
				return services.CheckFail, "GitHub API unreachable"
			}
			if strings.TrimSpace(out) == "0" {
				return services.CheckWarn, "rate limit exhausted"
			}
			return services.CheckPass, ""
		}},
	})
}

// GetDashboardData assembles a snapshot from independent best-effort
// fetches; a failed sub-fetch degrades to its zero value.
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

	if login, err := a.runner.Run(ctx, toolName, "api", "user", "-q", ".login"); err == nil {
		data.Details["login"] = strings.TrimSpace(login)
	}

	resources, err := a.ListResources(ctx, opts.ResourceType)
	if err != nil {
		logging.Warn("GitHub", "Resource listing failed: %v", err)
	} else {
		data.Resources = resources
	}

	if !opts.SkipMetrics {
		if metrics, err := a.GetMetrics(ctx, nil); err == nil {
			data.Metrics = metrics
		} else {
			logging.Warn("GitHub", "Metrics fetch failed: %v", err)
		}
	}
	return data, nil
}

// GetMetrics derives estimated metrics from recent workflow runs: gh exposes
// no performance API, so the numbers are marked sampled.
func (a *Adapter) GetMetrics(ctx context.Context, opts *services.MetricsOptions) (*services.Metrics, error) {
	runs, err := a.listRuns(ctx)
	if err != nil {
		return nil, err
	}

	failed := 0
	var totalDuration time.Duration
	timed := 0
	for _, r := range runs {
		if r.Conclusion == "failure" || r.Conclusion == "timed_out" {
			failed++
		}
		if r.UpdatedAt.After(r.CreatedAt) {
			totalDuration += r.UpdatedAt.Sub(r.CreatedAt)
			timed++
		}
	}

	m := &services.Metrics{
		Timestamp: time.Now(),
		Errors:    services.ErrorMetrics{TotalErrors: failed},
		Usage:     map[string]float64{"workflowRuns": float64(len(runs))},
		Sampled:   true,
	}
	if len(runs) > 0 {
		m.Performance.ErrorRate = float64(failed) / float64(len(runs)) * 100
	}
	if timed > 0 {
		m.Performance.AvgResponseTime = float64(totalDuration.Milliseconds()) / float64(timed)
	}
	return m, nil
}

// GetLogs replays recent workflow run outcomes as log entries. gh offers no
// live stream here, so the channel closes after the backlog.
func (a *Adapter) GetLogs(ctx context.Context, opts services.LogOptions) (<-chan services.LogEntry, error) {
	runs, err := a.listRuns(ctx)
	if err != nil {
		return nil, err
	}
	if opts.Lines > 0 && len(runs) > opts.Lines {
		runs = runs[:opts.Lines]
	}

	out := make(chan services.LogEntry, len(runs))
	go func() {
		defer close(out)
		for _, r := range runs {
			level := "info"
			if r.Conclusion == "failure" || r.Conclusion == "timed_out" {
				level = "error"
			}
			if opts.Level == "error" && level != "error" {
				continue
			}
			entry := services.LogEntry{
				Timestamp: r.UpdatedAt,
				Service:   a.GetName(),
				Level:     level,
				Message:   fmt.Sprintf("%s: %s %s", r.WorkflowName, r.Status, r.Conclusion),
				Source:    "actions",
			}
			select {
			case out <- entry:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// ListResources lists repositories and recent workflow runs. An empty
// resourceType returns both.
func (a *Adapter) ListResources(ctx context.Context, resourceType string) ([]services.Resource, error) {
	var resources []services.Resource

	if resourceType == "" || resourceType == "repository" {
		var repos []repoInfo
		if err := a.runner.RunJSON(ctx, &repos, toolName, "repo", "list", "--json", "name,visibility,updatedAt", "--limit", repoLimit); err != nil {
			return nil, fmt.Errorf("github: listing repositories: %w", err)
		}
		for _, r := range repos {
			resources = append(resources, services.Resource{
				ID:     r.Name,
				Type:   "repository",
				Name:   r.Name,
				Status: r.Visibility,
				Metadata: map[string]string{
					"updatedAt": r.UpdatedAt.Format(time.RFC3339),
				},
			})
		}
	}

	if resourceType == "" || resourceType == "workflow-run" {
		runs, err := a.listRuns(ctx)
		if err != nil {
			if resourceType == "workflow-run" {
				return nil, err
			}
			logging.Debug("GitHub", "Workflow run listing failed: %v", err)
			return resources, nil
		}
		for _, r := range runs {
			resources = append(resources, services.Resource{
				ID:     fmt.Sprintf("%d", r.DatabaseID),
				Type:   "workflow-run",
				Name:   r.WorkflowName,
				Status: runStatus(r),
				Metadata: map[string]string{
					"createdAt": r.CreatedAt.Format(time.RFC3339),
				},
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
	return nil, fmt.Errorf("github: resource %q not found", id)
}

// ExecuteAction dispatches through the registered action table.
func (a *Adapter) ExecuteAction(ctx context.Context, action services.Action) services.ActionResult {
	return a.DispatchAction(ctx, action)
}

func (a *Adapter) listRuns(ctx context.Context) ([]workflowRun, error) {
	args := []string{"run", "list", "--json", "databaseId,name,status,conclusion,workflowName,createdAt,updatedAt", "--limit", runLimit}
	if a.repo != "" {
		args = append(args, "--repo", a.repo)
	}
	var runs []workflowRun
	if err := a.runner.RunJSON(ctx, &runs, toolName, args...); err != nil {
		return nil, fmt.Errorf("github: listing workflow runs: %w", err)
	}
	return runs, nil
}

func runStatus(r workflowRun) string {
	if r.Conclusion != "" {
		return r.Conclusion
	}
	return r.Status
}

func (a *Adapter) actionRunWorkflow(ctx context.Context, action services.Action) (string, error) {
	workflow := action.Params["workflow"]
	if workflow == "" {
		return "", fmt.Errorf("missing required param %q", "workflow")
	}
	args := []string{"workflow", "run", workflow}
	if a.repo != "" {
		args = append(args, "--repo", a.repo)
	}
	if _, err := a.runner.Run(ctx, toolName, args...); err != nil {
		return "", err
	}
	return fmt.Sprintf("workflow %s dispatched", workflow), nil
}

func (a *Adapter) actionRerunFailed(ctx context.Context, action services.Action) (string, error) {
	runID := action.Params["run"]
	if runID == "" {
		return "", fmt.Errorf("missing required param %q", "run")
	}
	args := []string{"run", "rerun", runID, "--failed"}
	if a.repo != "" {
		args = append(args, "--repo", a.repo)
	}
	if _, err := a.runner.Run(ctx, toolName, args...); err != nil {
		return "", err
	}
	return fmt.Sprintf("rerun of failed jobs in %s requested", runID), nil
}

func (a *Adapter) actionRefresh(ctx context.Context, action services.Action) (string, error) {
	data, err := a.GetDashboardData(ctx, nil)
	if err != nil {
		return "", err
	}
	a.EmitDashboardUpdated(data)
	return fmt.Sprintf("refreshed %d resources", len(data.Resources)), nil
}
