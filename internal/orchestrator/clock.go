package orchestrator

import (
	"sync"
	"time"
)

// Clock provides the time source for timestamps so tests can pin time
// without waiting for it to pass.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FakeClock implements Clock with a controllable time value.
type FakeClock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewFakeClock creates a fake clock initialized to the given time. A zero
// time initializes to the current time.
func NewFakeClock(t time.Time) *FakeClock {
	if t.IsZero() {
		t = time.Now()
	}
	return &FakeClock{current: t}
}

// Now returns the current time according to this clock.
func (f *FakeClock) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Advance moves the clock forward by the given duration.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}

// Set sets the clock to a specific time.
func (f *FakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
}
