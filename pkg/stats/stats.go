package stats

import (
	"sync"
	"sync/atomic"
)

// Counter is a monotonically increasing counter.
type Counter interface {
	// Inc increments the counter by one.
	Inc()

	// Add increments the counter by the given delta.
	Add(delta uint64)
}

// Scope hands out named counters. Calling Counter twice with the same name
// returns the same underlying counter.
type Scope interface {
	Counter(name string) Counter
}

// IsolatedStore is an in-memory Scope whose counter values can be read back.
// It is intended for tests and embedded diagnostics.
type IsolatedStore struct {
	mu       sync.Mutex
	counters map[string]*isolatedCounter
}

// NewIsolatedStore creates an empty isolated store.
func NewIsolatedStore() *IsolatedStore {
	return &IsolatedStore{counters: make(map[string]*isolatedCounter)}
}

// Counter implements Scope.
func (s *IsolatedStore) Counter(name string) Counter {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[name]
	if !ok {
		c = &isolatedCounter{}
		s.counters[name] = c
	}
	return c
}

// Value returns the current value of the named counter, or zero if the
// counter has never been touched.
func (s *IsolatedStore) Value(name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.counters[name]; ok {
		return c.value.Load()
	}
	return 0
}

// Names returns the names of all counters created so far.
func (s *IsolatedStore) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.counters))
	for name := range s.counters {
		names = append(names, name)
	}
	return names
}

type isolatedCounter struct {
	value atomic.Uint64
}

func (c *isolatedCounter) Inc()             { c.value.Add(1) }
func (c *isolatedCounter) Add(delta uint64) { c.value.Add(delta) }

// NewNopScope returns a Scope whose counters discard all increments.
// It is the default when a component is constructed without a scope.
func NewNopScope() Scope {
	return nopScope{}
}

type nopScope struct{}

func (nopScope) Counter(string) Counter { return nopCounter{} }

type nopCounter struct{}

func (nopCounter) Inc()        {}
func (nopCounter) Add(uint64)  {}
