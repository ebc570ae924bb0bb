package services

import (
	"context"
	"time"

	"fluorite-flake/internal/config"
)

// EventType identifies an adapter event.
type EventType string

const (
	EventConnectionChanged EventType = "connection:changed"
	EventAuthChanged       EventType = "auth:changed"
	EventDashboardUpdated  EventType = "dashboard:updated"
	EventLogEntry          EventType = "log:entry"
	EventMetricsUpdated    EventType = "metrics:updated"
	EventResourceChanged   EventType = "resource:changed"
	EventHealthChanged     EventType = "health:changed"
	EventError             EventType = "error"
)

// Event is emitted by an adapter towards its single subscriber, the
// orchestrator. Adapters hold no reference back to the orchestrator.
type Event struct {
	Type      EventType
	Service   string
	Timestamp time.Time
	Payload   interface{}
}

// EventCallback receives adapter events.
type EventCallback func(Event)

// ServiceAdapter is the uniform lifecycle and data-access surface every
// backing service implements.
//
// Lifecycle transitions:
//
//	created -> Initialize -> initialized
//	initialized -> Authenticate -> authenticated (or auth failure recorded in Status)
//	authenticated -> Connect -> connected (Connect fails when auth is required but absent)
//	connected -> Disconnect -> initialized
//
// Any error path records itself in Status.Error.
type ServiceAdapter interface {
	// Identity.
	GetName() string
	GetDisplayName() string
	GetVersion() string
	GetCapabilities() Capabilities

	// GetStatus returns a snapshot of the current status.
	GetStatus() Status

	// Initialize performs idempotent setup, such as verifying that a
	// required CLI binary exists. It fails fast with a remediation message
	// when a required external tool is missing.
	Initialize(ctx context.Context) error

	// Authenticate returns whether authentication succeeded. A plain "not
	// authenticated" outcome is (false, nil) with Status.Error set; an error
	// return is reserved for transport-level failure.
	Authenticate(ctx context.Context, auth config.AuthConfig) (bool, error)

	// IsAuthenticated re-checks the current auth state without mutating
	// Status.
	IsAuthenticated(ctx context.Context) bool

	// Connect fails when IsAuthenticated is false and the service requires
	// auth. On success it marks the adapter connected and emits one
	// dashboard:updated event carrying a fresh snapshot.
	Connect(ctx context.Context) error

	// Disconnect marks the adapter disconnected and releases its resources.
	// It is best-effort and must not fail for "already disconnected".
	Disconnect(ctx context.Context) error

	// HealthCheck runs the adapter's ordered check list (CLI present,
	// authenticated, service reachable) and never fails; check errors become
	// fail entries.
	HealthCheck(ctx context.Context) HealthStatus

	// GetDashboardData assembles a snapshot from independent best-effort
	// sub-fetches. Individual sub-fetch failures degrade to zero values.
	GetDashboardData(ctx context.Context, opts *DataOptions) (*DashboardData, error)

	// GetMetrics returns a point-in-time metrics snapshot. Estimated numbers
	// carry Sampled=true.
	GetMetrics(ctx context.Context, opts *MetricsOptions) (*Metrics, error)

	// GetLogs starts a live log tail. The returned channel closes when the
	// context is cancelled or the underlying source terminates; termination
	// is never a silent hang. Calling GetLogs again starts a new tail.
	GetLogs(ctx context.Context, opts LogOptions) (<-chan LogEntry, error)

	// ListResources returns a point-in-time resource listing, optionally
	// filtered by type. No caching.
	ListResources(ctx context.Context, resourceType string) ([]Resource, error)

	// GetResource looks up one resource by id and type.
	GetResource(ctx context.Context, id, resourceType string) (*Resource, error)

	// ExecuteAction dispatches an action by type. Unknown types yield a
	// structured UNKNOWN_ACTION failure; execution failures are wrapped as
	// ACTION_FAILED. It never returns an error.
	ExecuteAction(ctx context.Context, action Action) ActionResult

	// SetEventCallback registers the event sink. Only one callback is
	// active at a time.
	SetEventCallback(cb EventCallback)
}
