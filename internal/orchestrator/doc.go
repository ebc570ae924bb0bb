// Package orchestrator coordinates the registered service adapters: it owns
// the service registry, runs per-service health monitoring and auto-refresh
// scheduling, aggregates multi-service dashboard data into rollup metrics
// and rule-based insights, and fans adapter events out to subscribers (the
// TUI and the IPC layer).
//
// The orchestrator is the only component that mutates the registry; callers
// receive snapshots, never live references. Per-service failures in health
// checks, refresh ticks or aggregate queries are converted to service:error
// events or skipped entries and never take down sibling services.
package orchestrator
