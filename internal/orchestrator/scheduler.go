package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"
)

// TaskFunc is one periodic task tick.
type TaskFunc func(ctx context.Context)

// Scheduler owns the periodic task handles for health monitoring and
// auto-refresh. Tasks are keyed ("health:<name>", "refresh:<name>") so
// RemoveService and Shutdown can find and cancel them uniformly.
type Scheduler interface {
	// Every registers a periodic task under key, replacing any existing
	// task with the same key. When immediate is true the task runs once
	// synchronously before the interval starts.
	Every(key string, interval time.Duration, immediate bool, fn TaskFunc)

	// Cancel stops the task registered under key, if any.
	Cancel(key string)

	// CancelAll stops every task.
	CancelAll()

	// Keys returns the currently registered task keys, sorted.
	Keys() []string
}

// tickerScheduler runs each task on its own time.Ticker goroutine.
type tickerScheduler struct {
	mu    sync.Mutex
	tasks map[string]context.CancelFunc
	wg    sync.WaitGroup
}

// NewTickerScheduler returns the production Scheduler.
func NewTickerScheduler() Scheduler {
	return &tickerScheduler{tasks: make(map[string]context.CancelFunc)}
}

func (s *tickerScheduler) Every(key string, interval time.Duration, immediate bool, fn TaskFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if prev, ok := s.tasks[key]; ok {
		prev()
	}
	s.tasks[key] = cancel
	s.mu.Unlock()

	if immediate {
		fn(ctx)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}

func (s *tickerScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.tasks[key]; ok {
		cancel()
		delete(s.tasks, key)
	}
}

func (s *tickerScheduler) CancelAll() {
	s.mu.Lock()
	for key, cancel := range s.tasks {
		cancel()
		delete(s.tasks, key)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *tickerScheduler) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.tasks))
	for key := range s.tasks {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ManualScheduler is a Scheduler whose tasks only run when Fire is called.
// Tests use it in place of wall-clock tickers.
type ManualScheduler struct {
	mu    sync.Mutex
	tasks map[string]TaskFunc
}

// NewManualScheduler returns an empty manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{tasks: make(map[string]TaskFunc)}
}

// Every registers the task. The interval is recorded nowhere; ticks happen
// only via Fire. Immediate tasks run once synchronously, matching the
// production scheduler.
func (s *ManualScheduler) Every(key string, interval time.Duration, immediate bool, fn TaskFunc) {
	s.mu.Lock()
	s.tasks[key] = fn
	s.mu.Unlock()
	if immediate {
		fn(context.Background())
	}
}

// Cancel removes the task registered under key.
func (s *ManualScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, key)
}

// CancelAll removes every task.
func (s *ManualScheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make(map[string]TaskFunc)
}

// Keys returns the registered task keys, sorted.
func (s *ManualScheduler) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.tasks))
	for key := range s.tasks {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Fire runs the task registered under key once, synchronously. It reports
// whether a task was registered.
func (s *ManualScheduler) Fire(key string) bool {
	s.mu.Lock()
	fn, ok := s.tasks[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	fn(context.Background())
	return true
}
