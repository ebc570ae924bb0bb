// Package tui renders the live dashboard with bubbletea. It is a read-only
// consumer of the orchestrator: events and the merged log stream flow in,
// every mutation goes through orchestrator methods elsewhere.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"fluorite-flake/internal/orchestrator"
	"fluorite-flake/internal/services"
	"fluorite-flake/pkg/logging"
)

// Orchestrator is what the dashboard needs from the real orchestrator.
type Orchestrator interface {
	DataSource
	Subscribe() (<-chan orchestrator.Event, func())
	GetMultiServiceLogs(ctx context.Context, names []string, opts services.LogOptions) (<-chan services.LogEntry, error)
}

// Run starts the dashboard and blocks until the user quits or the context
// is cancelled. appLogs, when non-nil, is the application log channel from
// logging.InitForTUI; its entries land in the same tail as service logs so
// nothing writes to the terminal behind the renderer.
func Run(ctx context.Context, orch Orchestrator, appLogs <-chan logging.LogEntry) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui: stdout is not a terminal, use --no-tui")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(
		NewModel(orch),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	events, unsubscribe := orch.Subscribe()
	defer unsubscribe()
	go func() {
		for event := range events {
			program.Send(orchestratorEventMsg{event: event})
		}
	}()

	if appLogs != nil {
		go func() {
			for entry := range appLogs {
				program.Send(logMsg{entry: services.LogEntry{
					Timestamp: entry.Timestamp,
					Service:   entry.Subsystem,
					Level:     strings.ToLower(entry.Level.String()),
					Message:   entry.Message,
				}})
			}
		}()
	}

	logs, err := orch.GetMultiServiceLogs(ctx, nil, services.LogOptions{Lines: 50})
	if err != nil {
		logging.Warn("TUI", "Log stream unavailable: %v", err)
	} else {
		go func() {
			for entry := range logs {
				program.Send(logMsg{entry: entry})
			}
			program.Send(logsClosedMsg{})
		}()
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
