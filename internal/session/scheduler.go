package session

import (
	"sync"
	"time"

	"chart-registry/internal/observability"
)

// RehydrateEntry pairs a persisted session with the lifetime its expiry
// marker still has left. A negative TTL means the marker already lapsed.
type RehydrateEntry struct {
	SessionID string
	TTL       time.Duration
}

// Scheduler owns one cancellable deferred task per live session. The task map
// is private: other components only ever schedule or cancel, they never
// iterate it. A task leaves the map the moment it fires or is cancelled, so
// the duplicate transition is always a no-op.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewScheduler creates an empty scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[string]*time.Timer)}
}

// Schedule registers a deferred task that invokes onFire after delay elapses.
// Scheduling an ID that already has a pending task replaces it.
func (s *Scheduler) Schedule(sessionID string, delay time.Duration, onFire func(sessionID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if t, ok := s.timers[sessionID]; ok {
		t.Stop()
	}

	s.timers[sessionID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, live := s.timers[sessionID]
		delete(s.timers, sessionID)
		observability.ScheduledExpirations.Set(float64(len(s.timers)))
		s.mu.Unlock()

		// A cancel that won the race already removed the entry; the fire
		// must then do nothing.
		if live {
			onFire(sessionID)
		}
	})
	observability.ScheduledExpirations.Set(float64(len(s.timers)))
}

// Cancel stops the pending task for a session. Cancelling an already-fired or
// already-cancelled task is a no-op.
func (s *Scheduler) Cancel(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[sessionID]; ok {
		t.Stop()
		delete(s.timers, sessionID)
		observability.ScheduledExpirations.Set(float64(len(s.timers)))
	}
}

// Rehydrate rebuilds expiration tasks from persisted state after a restart.
// Entries whose marker already lapsed are handed to onStale for immediate
// removal; the rest get a deferred task for their remaining lifetime.
func (s *Scheduler) Rehydrate(entries []RehydrateEntry, onFire, onStale func(sessionID string)) {
	for _, e := range entries {
		if e.TTL < 0 {
			onStale(e.SessionID)
			continue
		}
		s.Schedule(e.SessionID, e.TTL, onFire)
	}
}

// Len reports the number of pending tasks
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close cancels every outstanding task. Used at shutdown so no timer fires
// against a store connection that is about to close.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.closed = true
	observability.ScheduledExpirations.Set(0)
}
