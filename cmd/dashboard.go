package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fluorite-flake/internal/app"
	"fluorite-flake/internal/cli"
	"fluorite-flake/internal/tui"
	"fluorite-flake/pkg/logging"
)

// newDashboardCmd creates the dashboard command.
func newDashboardCmd() *cobra.Command {
	var (
		noTUI  bool
		watch  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Monitor the services behind your projects",
		Long: `Starts the configured service adapters and shows their aggregated
health, metrics, insights and logs. By default this opens the interactive
TUI; --no-tui prints the current snapshot and exits, and --watch re-prints
it on the configured refresh interval.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch && !noTUI {
				return fmt.Errorf("--watch requires --no-tui")
			}
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			return runDashboard(cmd.Context(), noTUI, watch, format)
		},
	}

	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "print tables instead of the interactive dashboard")
	cmd.Flags().BoolVar(&watch, "watch", false, "with --no-tui, re-print on the refresh interval")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format with --no-tui: table, json or yaml")
	return cmd
}

func runDashboard(ctx context.Context, noTUI, watch bool, format cli.OutputFormat) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var appLogs <-chan logging.LogEntry
	if !noTUI {
		// Re-route logging through the TUI channel before any service starts
		// so nothing writes to the terminal behind the renderer.
		appLogs = logging.InitForTUI(logLevel())
		defer logging.CloseTUIChannel()
	}

	a, err := app.New(app.Options{ConfigPath: flagConfigPath})
	if err != nil {
		return err
	}
	defer a.Shutdown(context.Background())

	// Tolerant startup: one bad credential must not block the dashboard.
	for _, failure := range a.StartServices(ctx) {
		if noTUI {
			fmt.Fprintf(os.Stderr, "warning: %v\n", failure)
		}
	}

	if !noTUI {
		return tui.Run(ctx, a.Orchestrator, appLogs)
	}

	if err := printSnapshot(ctx, a, format); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	interval := a.Config.RefreshInterval.Std()
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printSnapshot(ctx, a, format); err != nil {
				return err
			}
		}
	}
}

func printSnapshot(ctx context.Context, a *app.App, format cli.OutputFormat) error {
	data, err := a.Orchestrator.GetMultiServiceDashboardData(ctx, nil)
	if err != nil {
		return err
	}

	if format != cli.FormatTable {
		return cli.PrintStructured(os.Stdout, format, data)
	}

	cli.RenderServices(os.Stdout, a.Orchestrator.GetServicesStatus(), a.Orchestrator.GetServicesHealth())
	cli.RenderOverview(os.Stdout, data)
	return nil
}
