package stats

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusScope exposes logflow counters through a Prometheus registerer.
// Counters are published as a single counter vector with a "name" label so
// that scoped counter names stay stable across releases.
type PrometheusScope struct {
	vec *prometheus.CounterVec

	mu       sync.Mutex
	counters map[string]Counter
}

// NewPrometheusScope creates a scope registered with reg under the given
// namespace. If reg is nil, prometheus.DefaultRegisterer is used. If
// namespace is empty, "logflow" is used.
func NewPrometheusScope(reg prometheus.Registerer, namespace string) *PrometheusScope {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "logflow"
	}

	factory := promauto.With(reg)

	return &PrometheusScope{
		vec: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Total number of events observed per scoped counter name",
			},
			[]string{"name"},
		),
		counters: make(map[string]Counter),
	}
}

// Counter implements Scope.
func (s *PrometheusScope) Counter(name string) Counter {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[name]
	if !ok {
		c = promCounter{s.vec.WithLabelValues(name)}
		s.counters[name] = c
	}
	return c
}

type promCounter struct {
	c prometheus.Counter
}

func (p promCounter) Inc()             { p.c.Inc() }
func (p promCounter) Add(delta uint64) { p.c.Add(float64(delta)) }
