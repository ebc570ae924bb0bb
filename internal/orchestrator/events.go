package orchestrator

import (
	"sync"
	"time"

	"fluorite-flake/pkg/logging"
)

// EventType identifies an orchestrator event.
type EventType string

const (
	EventInitialized            EventType = "initialized"
	EventServiceAdded           EventType = "serviceAdded"
	EventServiceRemoved         EventType = "serviceRemoved"
	EventServiceConnection      EventType = "service:connection"
	EventServiceAuth            EventType = "service:auth"
	EventServiceDashboardUpdate EventType = "service:dashboardUpdate"
	EventServiceLogEntry        EventType = "service:logEntry"
	EventServiceMetricsUpdate   EventType = "service:metricsUpdate"
	EventServiceResourceChange  EventType = "service:resourceChange"
	EventServiceHealthChange    EventType = "service:healthChange"
	EventServiceError           EventType = "service:error"
	EventServiceHealthCheck     EventType = "service:healthCheck"
	EventServiceAutoRefresh     EventType = "service:autoRefresh"
	EventShutdown               EventType = "shutdown"
	EventStopped                EventType = "stopped"
	EventError                  EventType = "error"
)

// Event is delivered to orchestrator subscribers. Service is empty for
// global events (initialized, shutdown, stopped, error).
type Event struct {
	Type      EventType
	Service   string
	Timestamp time.Time
	Payload   interface{}
}

const subscriberBufferSize = 256

// eventBus is the orchestrator-owned pub/sub fan-out. Subscribers receive
// on buffered channels; a full subscriber drops the event rather than
// blocking the orchestrator.
type eventBus struct {
	mu          sync.Mutex
	subscribers map[int]chan Event
	nextID      int
}

func newEventBus() *eventBus {
	return &eventBus{subscribers: make(map[int]chan Event)}
}

// subscribe registers a new subscriber and returns its channel plus a
// cancel function that closes the channel.
func (b *eventBus) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBufferSize)
	b.subscribers[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// publish delivers the event to every subscriber without blocking.
func (b *eventBus) publish(event Event) {
	b.mu.Lock()
	subs := make([]chan Event, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			logging.Debug("Orchestrator", "Subscriber full, dropping %s event for %q", event.Type, event.Service)
		}
	}
}

// close closes every subscriber channel.
func (b *eventBus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}
