package session

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_Schedule_Fires(t *testing.T) {
	sched := NewScheduler()
	defer sched.Close()

	fired := make(chan string, 1)
	sched.Schedule("session-1", 10*time.Millisecond, func(id string) {
		fired <- id
	})

	select {
	case id := <-fired:
		if id != "session-1" {
			t.Errorf("Expected fire for 'session-1', got %s", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected task to fire")
	}

	if sched.Len() != 0 {
		t.Errorf("Expected empty task map after fire, got %d entries", sched.Len())
	}
}

func TestScheduler_Cancel_PreventsFire(t *testing.T) {
	sched := NewScheduler()
	defer sched.Close()

	var fires atomic.Int32
	sched.Schedule("session-1", 20*time.Millisecond, func(string) {
		fires.Add(1)
	})
	sched.Cancel("session-1")

	time.Sleep(100 * time.Millisecond)

	if fires.Load() != 0 {
		t.Error("Expected cancelled task not to fire")
	}

	if sched.Len() != 0 {
		t.Errorf("Expected empty task map after cancel, got %d entries", sched.Len())
	}
}

func TestScheduler_Cancel_Idempotent(t *testing.T) {
	sched := NewScheduler()
	defer sched.Close()

	// Cancelling an unknown session is a no-op
	sched.Cancel("never-scheduled")

	fired := make(chan struct{}, 1)
	sched.Schedule("session-1", 5*time.Millisecond, func(string) {
		fired <- struct{}{}
	})

	<-fired

	// Cancelling after the task already fired is also a no-op
	sched.Cancel("session-1")
	sched.Cancel("session-1")
}

func TestScheduler_Schedule_ReplacesPendingTask(t *testing.T) {
	sched := NewScheduler()
	defer sched.Close()

	var firstFires atomic.Int32
	fired := make(chan struct{}, 1)

	sched.Schedule("session-1", 10*time.Millisecond, func(string) {
		firstFires.Add(1)
	})
	sched.Schedule("session-1", 30*time.Millisecond, func(string) {
		fired <- struct{}{}
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected replacement task to fire")
	}

	if firstFires.Load() != 0 {
		t.Error("Expected replaced task not to fire")
	}
}

func TestScheduler_Rehydrate(t *testing.T) {
	sched := NewScheduler()
	defer sched.Close()

	var stale []string
	entries := []RehydrateEntry{
		{SessionID: "lapsed-1", TTL: -time.Second},
		{SessionID: "lapsed-2", TTL: -time.Second},
		{SessionID: "live-1", TTL: time.Hour},
	}

	sched.Rehydrate(entries,
		func(string) { t.Error("live entry must not fire immediately") },
		func(id string) { stale = append(stale, id) })

	if len(stale) != 2 {
		t.Fatalf("Expected 2 stale entries, got %d", len(stale))
	}

	if sched.Len() != 1 {
		t.Errorf("Expected 1 scheduled task, got %d", sched.Len())
	}
}

func TestScheduler_Close_CancelsEverything(t *testing.T) {
	sched := NewScheduler()

	var fires atomic.Int32
	sched.Schedule("session-1", 20*time.Millisecond, func(string) { fires.Add(1) })
	sched.Schedule("session-2", 20*time.Millisecond, func(string) { fires.Add(1) })

	sched.Close()

	// Scheduling after close must not register anything
	sched.Schedule("session-3", time.Millisecond, func(string) { fires.Add(1) })

	time.Sleep(100 * time.Millisecond)

	if fires.Load() != 0 {
		t.Errorf("Expected no fires after close, got %d", fires.Load())
	}

	if sched.Len() != 0 {
		t.Errorf("Expected empty task map after close, got %d entries", sched.Len())
	}
}

func TestScheduler_ConcurrentScheduleAndCancel(t *testing.T) {
	sched := NewScheduler()
	defer sched.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			sched.Schedule("session-1", time.Millisecond, func(string) {})
		}
		close(done)
	}()

	for i := 0; i < 100; i++ {
		sched.Cancel("session-1")
	}
	<-done
}
