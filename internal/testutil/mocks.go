package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/vnykmshr/logflow/pkg/event"
)

// SysCall is one recorded call on a MockOsSysCalls, in invocation order.
// Fd is the descriptor involved: the returned one for "open", the argument
// for "write" and "close".
type SysCall struct {
	Op string // "open", "write", "close"
	Fd int
}

// WriteCall is one recorded write with its payload.
type WriteCall struct {
	Fd   int
	Data []byte
}

// MockOsSysCalls implements the filesystem syscall surface with scripted
// open results and a full ordered call log. All methods are safe for
// concurrent use.
type MockOsSysCalls struct {
	mu sync.Mutex

	openFds   []int
	openErrs  []error
	writeErr  error
	shortBy   int
	calls     []SysCall
	writes    []WriteCall
	numOpens  int
	numWrites int
	numCloses int
}

// NewMockOsSysCalls creates a MockOsSysCalls. With no scripted results,
// Open returns descriptor 5 forever.
func NewMockOsSysCalls() *MockOsSysCalls {
	return &MockOsSysCalls{}
}

// ScriptOpen appends a result for the next unscripted Open call. Results
// are consumed in order; once exhausted, the last scripted result repeats.
func (m *MockOsSysCalls) ScriptOpen(fd int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openFds = append(m.openFds, fd)
	m.openErrs = append(m.openErrs, err)
}

// SetWriteError makes every subsequent Write fail with err.
func (m *MockOsSysCalls) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// SetShortWriteBy makes Write report n bytes fewer than requested,
// simulating a short write that the caller must retry. A payload of n
// bytes or fewer is written in full.
func (m *MockOsSysCalls) SetShortWriteBy(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shortBy = n
}

// Open implements the syscall surface.
func (m *MockOsSysCalls) Open(path string, flags int, mode uint32) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fd, err := 5, error(nil)
	if len(m.openFds) > 0 {
		i := m.numOpens
		if i >= len(m.openFds) {
			i = len(m.openFds) - 1
		}
		fd, err = m.openFds[i], m.openErrs[i]
	}
	m.numOpens++
	m.calls = append(m.calls, SysCall{Op: "open", Fd: fd})
	return fd, err
}

// Write implements the syscall surface.
func (m *MockOsSysCalls) Write(fd int, p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.numWrites++
	m.calls = append(m.calls, SysCall{Op: "write", Fd: fd})

	if m.writeErr != nil {
		return -1, m.writeErr
	}

	n := len(p)
	if m.shortBy > 0 && m.shortBy < n {
		n -= m.shortBy
	}
	data := make([]byte, n)
	copy(data, p[:n])
	m.writes = append(m.writes, WriteCall{Fd: fd, Data: data})
	return n, nil
}

// Close implements the syscall surface.
func (m *MockOsSysCalls) Close(fd int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.numCloses++
	m.calls = append(m.calls, SysCall{Op: "close", Fd: fd})
	return nil
}

// Calls returns a copy of the ordered call log.
func (m *MockOsSysCalls) Calls() []SysCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SysCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Writes returns a copy of all successful writes in order.
func (m *MockOsSysCalls) Writes() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]WriteCall, len(m.writes))
	copy(out, m.writes)
	return out
}

// Written concatenates the payloads written to fd, in order.
func (m *MockOsSysCalls) Written(fd int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []byte
	for _, w := range m.writes {
		if w.Fd == fd {
			out = append(out, w.Data...)
		}
	}
	return out
}

// NumOpens returns how many times Open has been called.
func (m *MockOsSysCalls) NumOpens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.numOpens
}

// NumWrites returns how many times Write has been called.
func (m *MockOsSysCalls) NumWrites() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.numWrites
}

// NumCloses returns how many times Close has been called.
func (m *MockOsSysCalls) NumCloses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.numCloses
}

// WaitWrites blocks until at least n Write calls have happened or the test
// deadline budget runs out.
func (m *MockOsSysCalls) WaitWrites(t *testing.T, n int) {
	t.Helper()
	m.waitFor(t, func() bool { return m.numWrites >= n }, "writes")
}

// WaitOpens blocks until at least n Open calls have happened.
func (m *MockOsSysCalls) WaitOpens(t *testing.T, n int) {
	t.Helper()
	m.waitFor(t, func() bool { return m.numOpens >= n }, "opens")
}

func (m *MockOsSysCalls) waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(TestTimeout)
	for {
		m.mu.Lock()
		ok := cond()
		m.mu.Unlock()
		if ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// MockTimer records EnableTimer calls and fires only when the test says so.
type MockTimer struct {
	mu        sync.Mutex
	cb        func()
	durations []time.Duration
	enabled   bool
}

// EnableTimer records the duration and arms the timer.
func (m *MockTimer) EnableTimer(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations = append(m.durations, d)
	m.enabled = true
}

// DisableTimer disarms the timer.
func (m *MockTimer) DisableTimer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

// Fire invokes the callback if the timer is armed, disarming it first the
// way a one-shot timer does.
func (m *MockTimer) Fire() {
	m.mu.Lock()
	armed := m.enabled
	m.enabled = false
	cb := m.cb
	m.mu.Unlock()
	if armed && cb != nil {
		cb()
	}
}

// EnableCount returns how many times EnableTimer has been called.
func (m *MockTimer) EnableCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.durations)
}

// Durations returns a copy of every duration passed to EnableTimer.
func (m *MockTimer) Durations() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.durations))
	copy(out, m.durations)
	return out
}

// WaitEnabled blocks until EnableTimer has been called at least n times.
func (m *MockTimer) WaitEnabled(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(TestTimeout)
	for {
		m.mu.Lock()
		ok := len(m.durations) >= n
		m.mu.Unlock()
		if ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for timer enables")
		}
		time.Sleep(time.Millisecond)
	}
}

// MockDispatcher hands out MockTimers and remembers them for the test.
type MockDispatcher struct {
	mu     sync.Mutex
	timers []*MockTimer
}

// NewMockDispatcher creates a MockDispatcher.
func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

// CreateTimer returns a new MockTimer bound to cb.
func (m *MockDispatcher) CreateTimer(cb func()) event.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	timer := &MockTimer{cb: cb}
	m.timers = append(m.timers, timer)
	return timer
}

// Timer returns the i'th created timer.
func (m *MockDispatcher) Timer(i int) *MockTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timers[i]
}
