package event

import (
	"sync"
	"time"
)

// Timer is a one-shot timer. Each EnableTimer call schedules the callback to
// fire once after the given duration; enabling an already armed timer resets
// the deadline.
type Timer interface {
	// EnableTimer arms the timer to fire after d.
	EnableTimer(d time.Duration)

	// DisableTimer stops a pending fire. A callback already running is not
	// interrupted.
	DisableTimer()
}

// Dispatcher creates timers. It is the seam through which tests substitute
// manually driven timers for real ones.
type Dispatcher interface {
	CreateTimer(cb func()) Timer
}

// NewDispatcher returns a Dispatcher backed by real time.Timer instances.
// Callbacks run on timer goroutines.
func NewDispatcher() Dispatcher {
	return &dispatcher{}
}

type dispatcher struct{}

func (d *dispatcher) CreateTimer(cb func()) Timer {
	return &realTimer{cb: cb}
}

type realTimer struct {
	mu sync.Mutex
	cb func()
	t  *time.Timer
}

func (rt *realTimer) EnableTimer(d time.Duration) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.t == nil {
		rt.t = time.AfterFunc(d, rt.cb)
		return
	}
	rt.t.Stop()
	rt.t.Reset(d)
}

func (rt *realTimer) DisableTimer() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.t != nil {
		rt.t.Stop()
	}
}
