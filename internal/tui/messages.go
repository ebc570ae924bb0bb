package tui

import (
	"fluorite-flake/internal/orchestrator"
	"fluorite-flake/internal/services"
)

// snapshotMsg delivers a fresh aggregate snapshot to the model.
type snapshotMsg struct {
	data *orchestrator.MultiServiceDashboardData
}

// snapshotErrMsg reports a failed refresh. The dashboard keeps showing the
// last good snapshot alongside the error.
type snapshotErrMsg struct {
	err error
}

// logMsg appends one entry from the merged log stream.
type logMsg struct {
	entry services.LogEntry
}

// logsClosedMsg signals that the merged log stream ended.
type logsClosedMsg struct{}

// orchestratorEventMsg forwards one orchestrator event. The model decides
// which event types warrant a re-render or refresh.
type orchestratorEventMsg struct {
	event orchestrator.Event
}
