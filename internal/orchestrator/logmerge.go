package orchestrator

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"fluorite-flake/internal/services"
)

// defaultLatenessWindow bounds how long the merger waits for a slow source
// before releasing entries that are already ordered.
const defaultLatenessWindow = 2 * time.Second

// taggedEntry pairs a log entry with the key of the source it came from.
// The tag, not entry.Service, drives the per-source bookkeeping so the
// merge stays correct for streams whose entries carry arbitrary names.
type taggedEntry struct {
	source string
	entry  services.LogEntry
}

// entryHeap is a min-heap of tagged log entries ordered by timestamp.
type entryHeap []taggedEntry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].entry.Timestamp.Before(h[j].entry.Timestamp) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(taggedEntry)) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

// MergeLogs merges live log streams into one channel ordered by timestamp.
// The merge is streaming: an entry is released as soon as either every
// still-open source has at least one buffered entry, or the entry has
// waited longer than the lateness window. Memory stays bounded by the
// window and the source rates, never by total stream length.
//
// The merged channel closes once every source has closed and the buffer is
// drained, or the context is cancelled.
func MergeLogs(ctx context.Context, sources map[string]<-chan services.LogEntry, window time.Duration) <-chan services.LogEntry {
	if window <= 0 {
		window = defaultLatenessWindow
	}

	out := make(chan services.LogEntry)
	intake := make(chan taggedEntry)
	closed := make(chan string)

	var wg sync.WaitGroup
	for name, source := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range source {
				select {
				case intake <- taggedEntry{source: name, entry: entry}:
				case <-ctx.Done():
					return
				}
			}
			select {
			case closed <- name:
			case <-ctx.Done():
			}
		}()
	}
	go func() {
		wg.Wait()
		close(intake)
		close(closed)
	}()

	go func() {
		defer close(out)

		buffer := &entryHeap{}
		heap.Init(buffer)
		pending := make(map[string]int, len(sources)) // buffered entries per open source
		for name := range sources {
			pending[name] = 0
		}
		// Track the arrival time of the oldest buffered entry so the
		// ticker can enforce the lateness window without per-entry
		// bookkeeping.
		var oldestArrival time.Time

		ticker := time.NewTicker(window / 4)
		defer ticker.Stop()

		emit := func(entry services.LogEntry) bool {
			select {
			case out <- entry:
				return true
			case <-ctx.Done():
				return false
			}
		}

		// releaseReady pops while every still-open source has a buffered
		// candidate, so the popped minimum cannot be preceded by anything
		// still in flight from a well-ordered source.
		releaseReady := func() bool {
			for buffer.Len() > 0 {
				ready := true
				for _, count := range pending {
					if count == 0 {
						ready = false
						break
					}
				}
				if !ready {
					return true
				}
				tagged := heap.Pop(buffer).(taggedEntry)
				if n, ok := pending[tagged.source]; ok {
					pending[tagged.source] = n - 1
				}
				if !emit(tagged.entry) {
					return false
				}
			}
			oldestArrival = time.Time{}
			return true
		}

		drain := func() {
			for buffer.Len() > 0 {
				if !emit(heap.Pop(buffer).(taggedEntry).entry) {
					return
				}
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case tagged, ok := <-intake:
				if !ok {
					drain()
					return
				}
				if buffer.Len() == 0 {
					oldestArrival = time.Now()
				}
				heap.Push(buffer, tagged)
				if _, known := pending[tagged.source]; known {
					pending[tagged.source]++
				}
				if !releaseReady() {
					return
				}

			case name, ok := <-closed:
				if !ok {
					continue
				}
				// A closed source no longer gates release.
				delete(pending, name)
				if !releaseReady() {
					return
				}

			case <-ticker.C:
				if buffer.Len() == 0 {
					continue
				}
				if time.Since(oldestArrival) < window {
					continue
				}
				// Lateness window expired: stop waiting for slow sources
				// and release what is buffered, in order.
				for buffer.Len() > 0 {
					tagged := heap.Pop(buffer).(taggedEntry)
					if n, ok := pending[tagged.source]; ok && n > 0 {
						pending[tagged.source] = n - 1
					}
					if !emit(tagged.entry) {
						return
					}
				}
				oldestArrival = time.Time{}
			}
		}
	}()

	return out
}
