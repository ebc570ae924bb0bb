// Package app wires config, the adapter factory and the orchestrator
// together for the command layer. It owns the asymmetry between strict
// programmatic initialization and the tolerant CLI startup loop.
package app

import (
	"context"
	"fmt"

	"fluorite-flake/internal/config"
	"fluorite-flake/internal/orchestrator"
	"fluorite-flake/internal/services/factory"
	"fluorite-flake/internal/vendorcli"
	"fluorite-flake/pkg/logging"
)

// App holds the long-lived pieces a command needs.
type App struct {
	Config       config.Config
	Orchestrator *orchestrator.Orchestrator
	Runner       vendorcli.Runner
}

// Options configures app construction. Zero values select production
// defaults; tests inject their own factory and runner.
type Options struct {
	// ConfigPath is the config directory. Empty selects the user default
	// ($HOME/.config/fluorite-flake).
	ConfigPath string

	Factory orchestrator.Factory
	Runner  vendorcli.Runner
}

// New loads configuration and builds the orchestrator. Nothing is connected
// yet; call StartServices for the tolerant startup loop.
func New(opts Options) (*App, error) {
	path := opts.ConfigPath
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	runner := opts.Runner
	if runner == nil {
		runner = vendorcli.NewExecRunner()
	}
	buildAdapter := opts.Factory
	if buildAdapter == nil {
		buildAdapter = factory.Default()
	}

	orch := orchestrator.New(orchestrator.Options{
		Config:  cfg,
		Factory: buildAdapter,
	})

	return &App{Config: cfg, Orchestrator: orch, Runner: runner}, nil
}

// StartServices registers every configured auto-init service, tolerantly:
// a failing service is logged and skipped so one bad credential does not
// take the whole dashboard down. The per-service errors come back for the
// caller to surface. This deliberately differs from the strict, fail-fast
// Orchestrator.Initialize used by programmatic callers.
func (a *App) StartServices(ctx context.Context) []error {
	var failures []error
	for _, name := range a.Config.AutoInitServices {
		err := a.Orchestrator.AddService(ctx, name, a.Config.ServiceSettings(name), a.Config.AuthFor(name))
		if err != nil {
			logging.Warn("App", "Skipping service %s: %v", name, err)
			failures = append(failures, fmt.Errorf("%s: %w", name, err))
		}
	}
	logging.Info("App", "Started %d of %d services",
		len(a.Config.AutoInitServices)-len(failures), len(a.Config.AutoInitServices))
	return failures
}

// Shutdown disconnects every service and tears the event bus down.
func (a *App) Shutdown(ctx context.Context) {
	if err := a.Orchestrator.Shutdown(ctx); err != nil {
		logging.Error("App", err, "Shutdown")
	}
	a.Orchestrator.Close()
}
