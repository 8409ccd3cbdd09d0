/*
Package logflow provides asynchronous append-only file writing for access-log
and diagnostic-log pipelines.

Filesystem (pkg/filesystem):
  - AsyncFile: non-blocking buffered log file with a dedicated flusher
  - OsSysCalls: injectable open/write/close surface
  - Path helpers: FileExists, DirectoryExists, FileReadToEnd

Eventing (pkg/event):
  - Dispatcher and one-shot Timer driving periodic flushes

Stats (pkg/stats):
  - Counter scopes: Prometheus-backed, isolated in-memory, or no-op

Rotation (pkg/rotation):
  - Scheduler: cron-driven log rotation via reopen
  - Broadcast: fleet-wide rotation signalling over Redis pub/sub

Example usage:

	import "github.com/vnykmshr/logflow/pkg/filesystem"

	file, err := filesystem.New("/var/log/proxy/access.log")
	if err != nil {
		return err
	}
	defer file.Close()

	file.WriteString("GET /healthz 200 0.4ms\n") // never blocks on disk I/O
*/
package logflow
