/*
Package filesystem provides the asynchronous append-only file writer used as
the I/O backend of access-log and diagnostic-log pipelines.

AsyncFile accepts short byte-string writes from any number of producer
goroutines without ever blocking on disk I/O. A single dedicated flusher
goroutine consolidates buffered bytes and performs all syscalls against the
file descriptor it exclusively owns. Flushes are triggered by a periodic
timer, by the buffer exceeding 64 KiB, by an explicit Flush, or by Reopen.

Reopen implements the standard log-rotation handshake: the flusher closes the
current descriptor and opens the configured path again, without losing bytes
buffered in the meantime.

Basic usage:

	file, err := filesystem.New("/var/log/proxy/access.log")
	if err != nil {
		return err
	}
	defer file.Close()

	file.WriteString("entry\n") // hot path, never blocks on I/O

	// on SIGHUP from logrotate:
	file.Reopen()

The OS surface, timer, and stats sink are injectable through Config, which is
how the package is tested without touching a real filesystem.
*/
package filesystem
