// Package turso adapts the Turso CLI to the service adapter contract.
package turso

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

const toolName = "turso"

type database struct {
	name     string
	group    string
	url      string
	location string
}

// Adapter monitors Turso databases. The CLI emits aligned tables rather
// than JSON, so listings are parsed from columns.
type Adapter struct {
	*services.BaseAdapter
	runner vendorcli.Runner
	group  string
}

// New creates a Turso adapter. group narrows listings to one database
// group when set.
func New(runner vendorcli.Runner, cfg config.ServiceConfig) *Adapter {
	a := &Adapter{
		BaseAdapter: services.NewBaseAdapter("turso", "Turso", "1.0.0", services.Capabilities{
			Database:           true,
			ResourceManagement: true,
			MultiProject:       true,
		}),
		runner: runner,
		group:  cfg.Get("group", ""),
	}
	a.RegisterAction("create-database", a.actionCreateDatabase)
	a.RegisterAction("destroy-database", a.actionDestroyDatabase)
	return a
}

// Initialize verifies the turso binary is installed.
func (a *Adapter) Initialize(ctx context.Context) error {
	if _, err := a.runner.LookPath(toolName); err != nil {
		return fmt.Errorf("%s: %w", toolName, services.ErrToolMissing)
	}
	return nil
}

// Authenticate confirms a stored login via whoami. A missing login is a
// rejection, not an error.
func (a *Adapter) Authenticate(ctx context.Context, auth config.AuthConfig) (bool, error) {
	if _, err := a.runner.Run(ctx, toolName, "auth", "whoami"); err != nil {
		logging.Debug("Turso", "whoami failed: %v", err)
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

// Connect verifies the platform API answers a listing call and publishes
// the initial dashboard snapshot. It fails with ErrNotAuthenticated when
// no usable login exists.
func (a *Adapter) Connect(ctx context.Context) error {
	if !a.IsAuthenticated(ctx) {
		if ok, err := a.Authenticate(ctx, nil); err != nil || !ok {
			return fmt.Errorf("turso: %w", services.ErrNotAuthenticated)
		}
	}
	if _, err := a.listDatabases(ctx); err != nil {
		a.SetStatusError(err)
		return fmt.Errorf("turso: reaching platform API: %w", err)
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
				return services.CheckFail, "turso is not installed"
			}
			return services.CheckPass, ""
		}},
		{Name: "authenticated", Run: func(ctx context.Context) (services.CheckState, string) {
			if _, err := a.runner.Run(ctx, toolName, "auth", "whoami"); err != nil {
				return services.CheckFail, "turso has no active login"
			}
			return services.CheckPass, ""
		}},
		{Name: "databases-reachable", Run: func(ctx context.Context) (services.CheckState, string) {
			if _, err := a.listDatabases(ctx); err != nil {
				return services.CheckFail, "database listing failed"
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
	if a.group != "" {
		data.Details["group"] = a.group
	}

	resources, err := a.ListResources(ctx, opts.ResourceType)
	if err != nil {
		logging.Warn("Turso", "Resource listing failed: %v", err)
	} else {
		data.Resources = resources
	}

	if !opts.SkipMetrics {
		if metrics, err := a.GetMetrics(ctx, nil); err == nil {
			data.Metrics = metrics
		} else {
			logging.Warn("Turso", "Metrics fetch failed: %v", err)
		}
	}
	return data, nil
}

// GetMetrics reports database counts as usage. Turso exposes no
// performance API through the CLI, so the snapshot is marked sampled.
func (a *Adapter) GetMetrics(ctx context.Context, opts *services.MetricsOptions) (*services.Metrics, error) {
	databases, err := a.listDatabases(ctx)
	if err != nil {
		return nil, err
	}
	return &services.Metrics{
		Timestamp: time.Now(),
		Usage:     map[string]float64{"databases": float64(len(databases))},
		Sampled:   true,
	}, nil
}

// GetLogs replays the database inventory as a backlog. The CLI has no log
// tail, so the channel closes immediately after.
func (a *Adapter) GetLogs(ctx context.Context, opts services.LogOptions) (<-chan services.LogEntry, error) {
	databases, err := a.listDatabases(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan services.LogEntry, len(databases))
	go func() {
		defer close(out)
		if opts.Level == "error" {
			return
		}
		for _, db := range databases {
			entry := services.LogEntry{
				Timestamp: time.Now(),
				Service:   a.GetName(),
				Level:     "info",
				Message:   fmt.Sprintf("database %s available at %s", db.name, db.url),
				Source:    db.group,
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

// ListResources lists databases. Only the "database" type exists.
func (a *Adapter) ListResources(ctx context.Context, resourceType string) ([]services.Resource, error) {
	if resourceType != "" && resourceType != "database" {
		return nil, nil
	}
	databases, err := a.listDatabases(ctx)
	if err != nil {
		return nil, err
	}

	resources := make([]services.Resource, 0, len(databases))
	for _, db := range databases {
		resources = append(resources, services.Resource{
			ID:     db.name,
			Type:   "database",
			Name:   db.name,
			Status: "available",
			Metadata: map[string]string{
				"url":      db.url,
				"group":    db.group,
				"location": db.location,
			},
		})
	}
	return resources, nil
}

// GetResource fetches a single database by name.
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
	return nil, fmt.Errorf("turso: database %q not found", id)
}

// ExecuteAction dispatches through the registered action table.
func (a *Adapter) ExecuteAction(ctx context.Context, action services.Action) services.ActionResult {
	return a.DispatchAction(ctx, action)
}

func (a *Adapter) listDatabases(ctx context.Context) ([]database, error) {
	args := []string{"db", "list"}
	if a.group != "" {
		args = append(args, "--group", a.group)
	}
	out, err := a.runner.Run(ctx, toolName, args...)
	if err != nil {
		return nil, fmt.Errorf("turso: listing databases: %w", err)
	}
	return parseDatabaseTable(out), nil
}

// parseDatabaseTable reads the aligned NAME/GROUP/URL table turso prints.
// Unrecognized lines are skipped.
func parseDatabaseTable(out string) []database {
	var databases []database
	for i, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		if i == 0 && strings.EqualFold(fields[0], "name") {
			continue
		}
		db := database{name: fields[0], group: fields[1], url: fields[2]}
		if len(fields) > 3 {
			db.location = fields[3]
		}
		databases = append(databases, db)
	}
	return databases
}

func (a *Adapter) actionCreateDatabase(ctx context.Context, action services.Action) (string, error) {
	name := action.Params["name"]
	if name == "" {
		return "", fmt.Errorf("missing required param %q", "name")
	}
	args := []string{"db", "create", name}
	if a.group != "" {
		args = append(args, "--group", a.group)
	}
	if _, err := a.runner.Run(ctx, toolName, args...); err != nil {
		return "", err
	}
	return fmt.Sprintf("database %s created", name), nil
}

func (a *Adapter) actionDestroyDatabase(ctx context.Context, action services.Action) (string, error) {
	name := action.Params["name"]
	if name == "" {
		return "", fmt.Errorf("missing required param %q", "name")
	}
	if _, err := a.runner.Run(ctx, toolName, "db", "destroy", name, "--yes"); err != nil {
		return "", err
	}
	return fmt.Sprintf("database %s destroyed", name), nil
}
