package orchestrator

import (
	"fmt"
	"sort"
	"sync"

	"fluorite-flake/internal/config"
	"fluorite-flake/internal/services"
)

// serviceRegistry owns the three maps that track registered adapters, the
// configs used to build them, and their last known health snapshots. The
// key sets of configs and health are always subsets of services. Only the
// orchestrator mutates the registry; accessors hand out copies.
//
// The pending set reserves a name while an AddService is in flight so a
// concurrent add or remove of the same name observes consistent state.
type serviceRegistry struct {
	mu       sync.RWMutex
	services map[string]services.ServiceAdapter
	configs  map[string]config.ServiceConfig
	health   map[string]services.HealthStatus
	pending  map[string]struct{}
}

func newServiceRegistry() *serviceRegistry {
	return &serviceRegistry{
		services: make(map[string]services.ServiceAdapter),
		configs:  make(map[string]config.ServiceConfig),
		health:   make(map[string]services.HealthStatus),
		pending:  make(map[string]struct{}),
	}
}

// reserve claims a name for an in-flight add. It fails when the name is
// registered or another add for it is already in flight.
func (r *serviceRegistry) reserve(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.services[name]; exists {
		return fmt.Errorf("service %q is already registered: %w", name, ErrServiceExists)
	}
	if _, inFlight := r.pending[name]; inFlight {
		return fmt.Errorf("service %q is already being added: %w", name, ErrServiceExists)
	}
	r.pending[name] = struct{}{}
	return nil
}

// release abandons a reservation after a failed add.
func (r *serviceRegistry) release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, name)
}

// commit converts a reservation into a registered adapter.
func (r *serviceRegistry) commit(name string, adapter services.ServiceAdapter, cfg config.ServiceConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, name)
	r.services[name] = adapter
	r.configs[name] = cfg
}

// remove deletes all three entries for a name and returns the adapter that
// was registered, if any.
func (r *serviceRegistry) remove(name string) (services.ServiceAdapter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	adapter, ok := r.services[name]
	delete(r.services, name)
	delete(r.configs, name)
	delete(r.health, name)
	return adapter, ok
}

// get returns the adapter registered under name.
func (r *serviceRegistry) get(name string) (services.ServiceAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.services[name]
	return adapter, ok
}

// has reports whether name is registered.
func (r *serviceRegistry) has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.services[name]
	return ok
}

// names returns the registered service names, sorted.
func (r *serviceRegistry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// snapshot returns a copy of the adapter map for lock-free fan-out.
func (r *serviceRegistry) snapshot() map[string]services.ServiceAdapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]services.ServiceAdapter, len(r.services))
	for name, adapter := range r.services {
		out[name] = adapter
	}
	return out
}

// setHealth overwrites the health snapshot for a registered name. Snapshots
// arriving after the service was removed are discarded.
func (r *serviceRegistry) setHealth(name string, hs services.HealthStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[name]; !ok {
		return
	}
	r.health[name] = hs
}

// healthSnapshot returns a copy of the health map.
func (r *serviceRegistry) healthSnapshot() map[string]services.HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]services.HealthStatus, len(r.health))
	for name, hs := range r.health {
		out[name] = hs
	}
	return out
}

// statuses returns the per-service status snapshots.
func (r *serviceRegistry) statuses() map[string]services.Status {
	r.mu.RLock()
	adapters := make(map[string]services.ServiceAdapter, len(r.services))
	for name, adapter := range r.services {
		adapters[name] = adapter
	}
	r.mu.RUnlock()

	// GetStatus may take the adapter's own lock; call outside ours.
	out := make(map[string]services.Status, len(adapters))
	for name, adapter := range adapters {
		out[name] = adapter.GetStatus()
	}
	return out
}

// clear empties all three maps and returns the adapters that were
// registered, keyed by name.
func (r *serviceRegistry) clear() map[string]services.ServiceAdapter {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.services
	r.services = make(map[string]services.ServiceAdapter)
	r.configs = make(map[string]config.ServiceConfig)
	r.health = make(map[string]services.HealthStatus)
	return out
}

// size returns the number of registered services.
func (r *serviceRegistry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services)
}
