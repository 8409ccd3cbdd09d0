package event

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerFires(t *testing.T) {
	d := NewDispatcher()

	fired := make(chan struct{})
	timer := d.CreateTimer(func() { close(fired) })
	timer.EnableTimer(5 * time.Millisecond)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTimerRearmFromCallback(t *testing.T) {
	d := NewDispatcher()

	var fires atomic.Int32
	done := make(chan struct{})

	var timer Timer
	timer = d.CreateTimer(func() {
		if fires.Add(1) < 3 {
			timer.EnableTimer(time.Millisecond)
			return
		}
		close(done)
	})
	timer.EnableTimer(time.Millisecond)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not re-arm")
	}
}

func TestTimerDisable(t *testing.T) {
	d := NewDispatcher()

	var fires atomic.Int32
	timer := d.CreateTimer(func() { fires.Add(1) })
	timer.EnableTimer(20 * time.Millisecond)
	timer.DisableTimer()

	time.Sleep(60 * time.Millisecond)
	if got := fires.Load(); got != 0 {
		t.Fatalf("timer fired %d times after disable", got)
	}
}

func TestTimerReset(t *testing.T) {
	d := NewDispatcher()

	fired := make(chan struct{}, 1)
	timer := d.CreateTimer(func() { fired <- struct{}{} })

	timer.EnableTimer(time.Hour)
	timer.EnableTimer(5 * time.Millisecond)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("re-enabled timer did not fire with the new deadline")
	}
}

func TestDisableBeforeEnable(t *testing.T) {
	d := NewDispatcher()

	timer := d.CreateTimer(func() {})
	timer.DisableTimer() // must not panic on a never-armed timer
}
