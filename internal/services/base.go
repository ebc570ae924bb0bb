package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fluorite-flake/pkg/logging"
)

// ActionFunc executes one registered action and returns its textual output.
type ActionFunc func(ctx context.Context, action Action) (string, error)

// HealthCheckFunc runs one named health check.
type HealthCheckFunc func(ctx context.Context) (CheckState, string)

// NamedCheck pairs a health check with its name. Checks run in list order.
type NamedCheck struct {
	Name string
	Run  HealthCheckFunc
}

// BaseAdapter provides the shared bookkeeping every concrete adapter embeds:
// identity, status mutation, event emission and the action dispatch table.
type BaseAdapter struct {
	mu           sync.RWMutex
	name         string
	displayName  string
	version      string
	capabilities Capabilities
	status       Status
	callback     EventCallback
	actions      map[string]ActionFunc
}

// NewBaseAdapter creates the embeddable base for a concrete adapter.
func NewBaseAdapter(name, displayName, version string, caps Capabilities) *BaseAdapter {
	return &BaseAdapter{
		name:         name,
		displayName:  displayName,
		version:      version,
		capabilities: caps,
		actions:      make(map[string]ActionFunc),
	}
}

// GetName returns the unique service name.
func (b *BaseAdapter) GetName() string { return b.name }

// GetDisplayName returns the human-readable service name.
func (b *BaseAdapter) GetDisplayName() string { return b.displayName }

// GetVersion returns the adapter version.
func (b *BaseAdapter) GetVersion() string { return b.version }

// GetCapabilities returns the adapter's declared capabilities.
func (b *BaseAdapter) GetCapabilities() Capabilities { return b.capabilities }

// GetStatus returns a snapshot of the current status.
func (b *BaseAdapter) GetStatus() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// SetEventCallback registers the event sink.
func (b *BaseAdapter) SetEventCallback(cb EventCallback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callback = cb
}

// Emit sends an event to the registered callback, if any.
func (b *BaseAdapter) Emit(eventType EventType, payload interface{}) {
	b.mu.RLock()
	cb := b.callback
	b.mu.RUnlock()
	if cb == nil {
		return
	}
	cb(Event{
		Type:      eventType,
		Service:   b.name,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// SetConnected updates Status.Connected and emits connection:changed when
// the value flips.
func (b *BaseAdapter) SetConnected(connected bool) {
	b.mu.Lock()
	changed := b.status.Connected != connected
	b.status.Connected = connected
	if connected {
		b.status.Error = ""
	}
	b.status.LastUpdated = time.Now()
	b.mu.Unlock()

	if changed {
		b.Emit(EventConnectionChanged, connected)
	}
}

// SetAuthenticated updates Status.Authenticated and emits auth:changed when
// the value flips.
func (b *BaseAdapter) SetAuthenticated(authenticated bool) {
	b.mu.Lock()
	changed := b.status.Authenticated != authenticated
	b.status.Authenticated = authenticated
	b.status.LastUpdated = time.Now()
	b.mu.Unlock()

	if changed {
		b.Emit(EventAuthChanged, authenticated)
	}
}

// SetStatusError records an error on the status and emits an error event.
// A nil error clears the field without emitting.
func (b *BaseAdapter) SetStatusError(err error) {
	b.mu.Lock()
	if err != nil {
		b.status.Error = err.Error()
	} else {
		b.status.Error = ""
	}
	b.status.LastUpdated = time.Now()
	b.mu.Unlock()

	if err != nil {
		b.Emit(EventError, err.Error())
	}
}

// EmitLogEntry forwards one log line to the event sink.
func (b *BaseAdapter) EmitLogEntry(entry LogEntry) {
	b.Emit(EventLogEntry, entry)
}

// EmitDashboardUpdated forwards a fresh dashboard snapshot.
func (b *BaseAdapter) EmitDashboardUpdated(data *DashboardData) {
	b.Emit(EventDashboardUpdated, data)
}

// EmitConnectSnapshot fetches a fresh dashboard snapshot and emits
// dashboard:updated. Connect implementations call it after marking the
// adapter connected so subscribers receive initial data without waiting
// for the first refresh tick. A failed fetch is logged and dropped; the
// connection itself already succeeded.
func (b *BaseAdapter) EmitConnectSnapshot(ctx context.Context, fetch func(context.Context, *DataOptions) (*DashboardData, error)) {
	data, err := fetch(ctx, nil)
	if err != nil {
		logging.Debug(b.displayName, "Connect snapshot fetch failed: %v", err)
		return
	}
	b.EmitDashboardUpdated(data)
}

// EmitMetricsUpdated forwards a fresh metrics snapshot.
func (b *BaseAdapter) EmitMetricsUpdated(m *Metrics) {
	b.Emit(EventMetricsUpdated, m)
}

// EmitResourceChanged signals that a resource changed.
func (b *BaseAdapter) EmitResourceChanged(r Resource) {
	b.Emit(EventResourceChanged, r)
}

// EmitHealthChanged forwards a fresh health snapshot.
func (b *BaseAdapter) EmitHealthChanged(hs HealthStatus) {
	b.Emit(EventHealthChanged, hs)
}

// RegisterAction adds an entry to the action dispatch table.
func (b *BaseAdapter) RegisterAction(actionType string, fn ActionFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.actions[actionType] = fn
}

// ActionTypes returns the registered action types, sorted.
func (b *BaseAdapter) ActionTypes() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	types := make([]string, 0, len(b.actions))
	for t := range b.actions {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DispatchAction looks up action.Type in the dispatch table and executes it.
// Unknown types and execution failures become structured failures; this
// method never panics the caller with an error return.
func (b *BaseAdapter) DispatchAction(ctx context.Context, action Action) ActionResult {
	b.mu.RLock()
	fn, ok := b.actions[action.Type]
	b.mu.RUnlock()

	if !ok {
		return ActionResult{
			Success: false,
			Error: &ActionError{
				Code:    ActionErrUnknown,
				Details: fmt.Sprintf("action type %q is not supported by %s", action.Type, b.name),
			},
		}
	}

	output, err := fn(ctx, action)
	if err != nil {
		logging.Debug(b.displayName, "Action %s failed: %v", action.Type, err)
		return ActionResult{
			Success: false,
			Error: &ActionError{
				Code:    ActionErrFailed,
				Details: err.Error(),
			},
		}
	}
	return ActionResult{Success: true, Output: output}
}

// RunChecks executes the given checks in order and assembles a HealthStatus
// with per-check durations. It never fails; a check that cannot run reports
// itself as a fail entry.
func (b *BaseAdapter) RunChecks(ctx context.Context, checks []NamedCheck) HealthStatus {
	started := time.Now()
	results := make([]Check, 0, len(checks))
	for _, c := range checks {
		checkStart := time.Now()
		state, message := c.Run(ctx)
		results = append(results, Check{
			Name:     c.Name,
			Status:   state,
			Message:  message,
			Duration: time.Since(checkStart),
		})
	}
	return HealthStatus{
		Status:       DeriveHealthState(results),
		Timestamp:    time.Now(),
		ResponseTime: time.Since(started),
		Checks:       results,
	}
}
