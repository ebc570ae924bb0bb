package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"fluorite-flake/internal/config"
	"fluorite-flake/internal/services"
	"fluorite-flake/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// Factory constructs a ServiceAdapter by name. The orchestrator owns every
// instance it creates; the factory keeps no registry of its own.
type Factory func(name string, cfg config.ServiceConfig) (services.ServiceAdapter, error)

// Options configures a new Orchestrator.
type Options struct {
	Config  config.Config
	Factory Factory

	// Scheduler and Clock default to the production implementations when
	// nil. Tests inject ManualScheduler and FakeClock.
	Scheduler Scheduler
	Clock     Clock
}

// Orchestrator is the central coordinator: it owns the service registry,
// manages adapter lifecycle, runs the health and auto-refresh loops,
// answers aggregate queries and relays adapter events to subscribers.
type Orchestrator struct {
	cfg       config.Config
	factory   Factory
	registry  *serviceRegistry
	scheduler Scheduler
	clock     Clock
	bus       *eventBus

	mu          sync.Mutex
	initialized bool
}

// New creates an orchestrator. The factory is required.
func New(opts Options) *Orchestrator {
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = NewTickerScheduler()
	}
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	return &Orchestrator{
		cfg:       opts.Config,
		factory:   opts.Factory,
		registry:  newServiceRegistry(),
		scheduler: scheduler,
		clock:     clock,
		bus:       newEventBus(),
	}
}

// Subscribe registers an event subscriber. The returned cancel function
// unsubscribes and closes the channel.
func (o *Orchestrator) Subscribe() (<-chan Event, func()) {
	return o.bus.subscribe()
}

func (o *Orchestrator) publish(eventType EventType, service string, payload interface{}) {
	o.bus.publish(Event{
		Type:      eventType,
		Service:   service,
		Timestamp: o.clock.Now(),
		Payload:   payload,
	})
}

// Initialize registers every service in the configured auto-init list,
// sequentially and fail-fast: the first failing AddService aborts
// initialization and propagates its error. Callers that want tolerant
// partial startup run their own per-service add loop instead. Repeated
// calls after a successful initialization are no-ops.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.initialized {
		return nil
	}

	for _, name := range o.cfg.AutoInitServices {
		if err := o.AddService(ctx, name, o.cfg.ServiceSettings(name), o.cfg.AuthFor(name)); err != nil {
			err = fmt.Errorf("initializing service %q: %w", name, err)
			o.publish(EventError, "", err.Error())
			return err
		}
	}

	o.initialized = true
	o.publish(EventInitialized, "", o.registry.names())
	logging.Info("Orchestrator", "Initialized with %d auto-init services", len(o.cfg.AutoInitServices))
	return nil
}

// AddService builds, authenticates and connects a new adapter, then
// registers it and starts its monitoring timers. The add is atomic: any
// failing step leaves the registry untouched and no timers running.
// Re-adding a registered name is an error; there is no implicit replace.
func (o *Orchestrator) AddService(ctx context.Context, name string, svcCfg config.ServiceConfig, authCfg config.AuthConfig) error {
	if err := o.registry.reserve(name); err != nil {
		return err
	}

	adapter, err := o.buildAdapter(ctx, name, svcCfg, authCfg)
	if err != nil {
		o.registry.release(name)
		return err
	}

	o.registry.commit(name, adapter, svcCfg)
	o.startHealthMonitoring(name)
	if o.cfg.Display.AutoRefresh {
		o.startAutoRefresh(name)
	}

	o.publish(EventServiceAdded, name, adapter.GetStatus())
	logging.Info("Orchestrator", "Added service: %s", name)
	return nil
}

// buildAdapter runs the create, subscribe, initialize, authenticate and
// connect steps. Authentication only runs when auth material was supplied
// on the call or in the global config.
func (o *Orchestrator) buildAdapter(ctx context.Context, name string, svcCfg config.ServiceConfig, authCfg config.AuthConfig) (services.ServiceAdapter, error) {
	adapter, err := o.factory(name, svcCfg)
	if err != nil {
		return nil, fmt.Errorf("creating adapter for %q: %w", name, err)
	}

	adapter.SetEventCallback(o.relayEvents(name))

	if err := adapter.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initializing adapter %q: %w", name, err)
	}

	if authCfg == nil {
		authCfg = o.cfg.AuthFor(name)
	}
	if authCfg != nil {
		ok, err := adapter.Authenticate(ctx, authCfg)
		if err != nil {
			return nil, fmt.Errorf("authenticating %q: %w", name, err)
		}
		if !ok {
			status := adapter.GetStatus()
			return nil, fmt.Errorf("authenticating %q: %s", name, status.Error)
		}
	}

	if err := adapter.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connecting %q: %w", name, err)
	}
	return adapter, nil
}

// relayEvents maps adapter events onto orchestrator events tagged with the
// service name.
func (o *Orchestrator) relayEvents(name string) services.EventCallback {
	mapping := map[services.EventType]EventType{
		services.EventConnectionChanged: EventServiceConnection,
		services.EventAuthChanged:       EventServiceAuth,
		services.EventDashboardUpdated:  EventServiceDashboardUpdate,
		services.EventLogEntry:          EventServiceLogEntry,
		services.EventMetricsUpdated:    EventServiceMetricsUpdate,
		services.EventResourceChanged:   EventServiceResourceChange,
		services.EventHealthChanged:     EventServiceHealthChange,
		services.EventError:             EventServiceError,
	}
	return func(event services.Event) {
		mapped, ok := mapping[event.Type]
		if !ok {
			logging.Debug("Orchestrator", "Dropping unmapped adapter event %q from %s", event.Type, name)
			return
		}
		o.publish(mapped, name, event.Payload)
	}
}

// RemoveService stops the service's timers, disconnects the adapter and
// deletes its registry entries. Removing an unregistered name is a no-op,
// not an error. A disconnect failure is surfaced as a service:error event
// and a wrapped returned error, but cleanup still completes so no timers
// are orphaned.
func (o *Orchestrator) RemoveService(ctx context.Context, name string) error {
	adapter, ok := o.registry.get(name)
	if !ok {
		return nil
	}

	o.scheduler.Cancel(healthTaskKey(name))
	o.scheduler.Cancel(refreshTaskKey(name))

	disconnectErr := adapter.Disconnect(ctx)

	o.registry.remove(name)
	o.publish(EventServiceRemoved, name, nil)
	logging.Info("Orchestrator", "Removed service: %s", name)

	if disconnectErr != nil {
		o.publish(EventServiceError, name, disconnectErr.Error())
		return fmt.Errorf("disconnecting %q during removal: %w", name, disconnectErr)
	}
	return nil
}

// GetService returns the adapter registered under name.
func (o *Orchestrator) GetService(name string) (services.ServiceAdapter, error) {
	adapter, ok := o.registry.get(name)
	if !ok {
		return nil, fmt.Errorf("service %q: %w", name, ErrServiceNotFound)
	}
	return adapter, nil
}

// HasService reports whether name is registered.
func (o *Orchestrator) HasService(name string) bool {
	return o.registry.has(name)
}

// GetRegisteredServices returns the registered service names, sorted.
func (o *Orchestrator) GetRegisteredServices() []string {
	return o.registry.names()
}

// GetServicesStatus returns a status snapshot per registered service.
func (o *Orchestrator) GetServicesStatus() map[string]services.Status {
	return o.registry.statuses()
}

// GetServicesHealth returns the last pushed health snapshot per service.
func (o *Orchestrator) GetServicesHealth() map[string]services.HealthStatus {
	return o.registry.healthSnapshot()
}

// GetServiceDashboardData is a passthrough to the named adapter.
func (o *Orchestrator) GetServiceDashboardData(ctx context.Context, name string, opts *services.DataOptions) (*services.DashboardData, error) {
	adapter, err := o.GetService(name)
	if err != nil {
		return nil, err
	}
	return adapter.GetDashboardData(ctx, opts)
}

// GetServiceMetrics is a passthrough to the named adapter.
func (o *Orchestrator) GetServiceMetrics(ctx context.Context, name string, opts *services.MetricsOptions) (*services.Metrics, error) {
	adapter, err := o.GetService(name)
	if err != nil {
		return nil, err
	}
	return adapter.GetMetrics(ctx, opts)
}

// ExecuteServiceAction dispatches an action on the named adapter. The error
// return covers only an unknown service name; action failures come back as
// structured results.
func (o *Orchestrator) ExecuteServiceAction(ctx context.Context, name string, action services.Action) (services.ActionResult, error) {
	adapter, err := o.GetService(name)
	if err != nil {
		return services.ActionResult{}, err
	}
	return adapter.ExecuteAction(ctx, action), nil
}

// GetServiceLogs starts a live log tail on the named adapter. It fails
// before yielding anything when the name is not registered.
func (o *Orchestrator) GetServiceLogs(ctx context.Context, name string, opts services.LogOptions) (<-chan services.LogEntry, error) {
	adapter, err := o.GetService(name)
	if err != nil {
		return nil, err
	}
	return adapter.GetLogs(ctx, opts)
}

// GetMultiServiceLogs merges the live log tails of the given services
// (default: all registered) into one stream ordered by timestamp within a
// bounded lateness window. The merged channel closes when every source
// closes or the context is cancelled.
func (o *Orchestrator) GetMultiServiceLogs(ctx context.Context, names []string, opts services.LogOptions) (<-chan services.LogEntry, error) {
	if len(names) == 0 {
		names = o.registry.names()
	}

	sources := make(map[string]<-chan services.LogEntry, len(names))
	for _, name := range names {
		stream, err := o.GetServiceLogs(ctx, name, opts)
		if err != nil {
			return nil, err
		}
		sources[name] = stream
	}
	return MergeLogs(ctx, sources, defaultLatenessWindow), nil
}

// GetMultiServiceDashboardData fans out to every registered adapter,
// skipping per-service failures, and combines the survivors into one
// snapshot with aggregated metrics and fresh insights.
func (o *Orchestrator) GetMultiServiceDashboardData(ctx context.Context, opts *services.DataOptions) (*MultiServiceDashboardData, error) {
	adapters := o.registry.snapshot()

	var mu sync.Mutex
	results := make(map[string]*services.DashboardData, len(adapters))
	failures := make(map[string]string)

	g, gctx := errgroup.WithContext(ctx)
	for name, adapter := range adapters {
		g.Go(func() error {
			data, err := adapter.GetDashboardData(gctx, opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Partial failure: exclude this service, keep the rest.
				failures[name] = err.Error()
				logging.Warn("Orchestrator", "Skipping %s in aggregate: %v", name, err)
				return nil
			}
			results[name] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := aggregateMetrics(results, o.registry.healthSnapshot())
	return &MultiServiceDashboardData{
		Timestamp:  o.clock.Now(),
		Services:   results,
		Aggregated: agg,
		Insights:   generateInsights(agg, results),
		Errors:     failures,
	}, nil
}

// Shutdown cancels every timer, disconnects every adapter best-effort,
// clears the registry and emits the shutdown event. Safe to call multiple
// times.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.teardown(ctx)
	o.publish(EventShutdown, "", nil)
	return nil
}

// Stop behaves like Shutdown but emits the stopped event. It exists as the
// counterpart the TUI and IPC layers call on interactive exit.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.teardown(ctx)
	o.publish(EventStopped, "", nil)
	return nil
}

func (o *Orchestrator) teardown(ctx context.Context) {
	o.scheduler.CancelAll()

	for name, adapter := range o.registry.clear() {
		if err := adapter.Disconnect(ctx); err != nil {
			logging.Error("Orchestrator", err, "Disconnect failed for %s during shutdown", name)
			o.publish(EventServiceError, name, err.Error())
		}
	}

	o.mu.Lock()
	o.initialized = false
	o.mu.Unlock()
}

// Close tears down the event bus. Call after Shutdown when the process is
// exiting.
func (o *Orchestrator) Close() {
	o.bus.close()
}
