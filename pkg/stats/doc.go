/*
Package stats provides counter scopes for logflow components.

A Scope hands out named counters. Components increment counters for the events
they observe (bytes buffered, bytes written, failed syscalls) and never read
them back; how the values are exported is the scope's concern.

Three implementations are provided:

	scope := stats.NewPrometheusScope(prometheus.DefaultRegisterer, "logflow")
	scope := stats.NewIsolatedStore() // in-memory, readable, for tests
	scope := stats.NewNopScope()      // discards everything

Example:

	scope := stats.NewIsolatedStore()
	c := scope.Counter("filesystem.write_completed")
	c.Add(128)
	fmt.Println(scope.Value("filesystem.write_completed")) // 128
*/
package stats
