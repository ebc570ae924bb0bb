package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusFanOut(t *testing.T) {
	bus := newEventBus()
	first, cancelFirst := bus.subscribe()
	second, cancelSecond := bus.subscribe()
	defer cancelFirst()
	defer cancelSecond()

	bus.publish(Event{Type: EventServiceAdded, Service: "github"})

	for _, ch := range []<-chan Event{first, second} {
		select {
		case event := <-ch:
			assert.Equal(t, EventServiceAdded, event.Type)
		default:
			t.Fatal("subscriber missed event")
		}
	}
}

func TestEventBusFullSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := newEventBus()
	slow, cancel := bus.subscribe()
	defer cancel()

	// Overfill the buffer; publish must never block.
	for i := 0; i < subscriberBufferSize+10; i++ {
		bus.publish(Event{Type: EventServiceLogEntry})
	}
	assert.Len(t, slow, subscriberBufferSize)
}

func TestEventBusCancelIsIdempotent(t *testing.T) {
	bus := newEventBus()
	ch, cancel := bus.subscribe()
	cancel()
	cancel()

	_, open := <-ch
	require.False(t, open)

	// Publishing after cancel reaches nobody and does not panic.
	bus.publish(Event{Type: EventShutdown})
}
