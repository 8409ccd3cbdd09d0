package filesystem

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	cerrors "github.com/vnykmshr/logflow/pkg/common/errors"
	"github.com/vnykmshr/logflow/pkg/event"
	"github.com/vnykmshr/logflow/pkg/stats"
)

// MinFlushSize is the buffered byte count beyond which a flush is triggered
// immediately instead of waiting for the periodic timer.
const MinFlushSize = 64 * 1024

const openFlags = os.O_APPEND | os.O_CREATE | os.O_WRONLY

// AsyncFile is an append-only log file with non-blocking writes.
//
// Write and WriteString are safe from any goroutine and never perform I/O on
// the caller's goroutine; a dedicated flusher goroutine owns the descriptor
// and performs all syscalls. Bytes of a single Write call appear contiguous
// and in order in the file; writes from different goroutines interleave only
// at call boundaries.
type AsyncFile interface {
	// Write appends data to the file's buffer. It never blocks on I/O and
	// only fails after Close. Syscall failures during the eventual flush are
	// absorbed and surfaced through stats counters.
	Write(data []byte) error

	// WriteString appends s to the file's buffer.
	WriteString(s string) error

	// Flush blocks until a flush cycle that began no earlier than the call
	// has completed, guaranteeing the bytes buffered before the call have
	// been handed to the OS (or discarded after a counted failure).
	Flush(ctx context.Context) error

	// Reopen asks the flusher to close the current descriptor and open the
	// configured path again. It does not block; writes issued in the interim
	// are buffered. If the open fails the file enters a no-descriptor state
	// in which buffered bytes are discarded and counted until a later
	// Reopen succeeds.
	Reopen() error

	// Close drains the buffer once, stops the flusher, and closes the
	// descriptor. The file accepts no writes afterwards.
	Close() error
}

// Config holds construction options for an AsyncFile.
type Config struct {
	// FlushInterval is the period of the flush timer.
	// Default: 1 second.
	FlushInterval time.Duration

	// Mode is the file creation mode used by open.
	// Default: 0644.
	Mode uint32

	// Dispatcher creates the flush timer. Defaults to the real dispatcher.
	Dispatcher event.Dispatcher

	// OsSysCalls is the syscall surface. Defaults to the kernel-backed one.
	OsSysCalls OsSysCalls

	// Stats receives the file's counters. Defaults to a no-op scope.
	Stats stats.Scope
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		FlushInterval: time.Second,
		Mode:          0644,
	}
}

// New creates an AsyncFile for path with default configuration. The initial
// open is performed synchronously and its failure is returned here, as is
// ErrEmptyPath for an empty path. The write path reports no I/O errors; it
// only returns ErrClosed once the file has been closed.
func New(path string) (AsyncFile, error) {
	return NewWithConfig(path, DefaultConfig())
}

// NewWithConfig creates an AsyncFile for path with the given configuration.
func NewWithConfig(path string, config Config) (AsyncFile, error) {
	if path == "" {
		return nil, cerrors.ErrEmptyPath
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultConfig().FlushInterval
	}
	if config.Mode == 0 {
		config.Mode = DefaultConfig().Mode
	}
	if config.Dispatcher == nil {
		config.Dispatcher = event.NewDispatcher()
	}
	if config.OsSysCalls == nil {
		config.OsSysCalls = NewOsSysCalls()
	}
	if config.Stats == nil {
		config.Stats = stats.NewNopScope()
	}

	f := &asyncFile{
		path:     path,
		os:       config.OsSysCalls,
		interval: config.FlushInterval,
		mode:     config.Mode,
		stats:    newFileStats(config.Stats),
		fd:       -1,
	}
	f.workCV = sync.NewCond(&f.coordMu)
	f.doneCV = sync.NewCond(&f.coordMu)

	fd, err := f.os.Open(path, openFlags, f.mode)
	if err != nil {
		return nil, fmt.Errorf("unable to open %q: %w", path, err)
	}
	if fd < 0 {
		return nil, fmt.Errorf("unable to open %q: %w", path, cerrors.ErrNoDescriptor)
	}
	f.fd = fd

	f.timer = config.Dispatcher.CreateTimer(f.onTimer)

	return f, nil
}

type asyncFile struct {
	path     string
	os       OsSysCalls
	interval time.Duration
	mode     uint32
	stats    fileStats
	timer    event.Timer

	closed atomic.Bool

	// front buffer, guarded by frontMu. Never held across a syscall.
	frontMu sync.Mutex
	front   []byte
	started bool

	// coordination state, guarded by coordMu.
	coordMu         sync.Mutex
	workCV          *sync.Cond
	doneCV          *sync.Cond
	flushRequested  bool
	reopenPending   bool
	shuttingDown    bool
	cyclesStarted   uint64
	cyclesCompleted uint64
	flusherDone     bool

	// flusher-owned. No lock: only the flusher goroutine touches these
	// after it has started.
	back []byte
	fd   int

	wg sync.WaitGroup
}

type fileStats struct {
	writeBuffered  stats.Counter
	writeCompleted stats.Counter
	writeFailed    stats.Counter
	reopenFailed   stats.Counter
	flushedByTimer stats.Counter
}

func newFileStats(scope stats.Scope) fileStats {
	return fileStats{
		writeBuffered:  scope.Counter("filesystem.write_buffered"),
		writeCompleted: scope.Counter("filesystem.write_completed"),
		writeFailed:    scope.Counter("filesystem.write_failed"),
		reopenFailed:   scope.Counter("filesystem.reopen_failed"),
		flushedByTimer: scope.Counter("filesystem.flushed_by_timer"),
	}
}

// Write implements AsyncFile.Write.
func (f *asyncFile) Write(data []byte) error {
	if f.closed.Load() {
		return cerrors.ErrClosed
	}
	if len(data) == 0 {
		return nil
	}

	f.frontMu.Lock()
	start := !f.started
	if start {
		f.started = true
		// Registered under frontMu so a concurrent Close that observes
		// started cannot reach wg.Wait before this Add.
		f.wg.Add(1)
	}
	f.front = append(f.front, data...)
	buffered := len(f.front)
	f.frontMu.Unlock()

	f.stats.writeBuffered.Add(uint64(len(data)))

	if start {
		// The flusher starts on the first write and its first cycle drains
		// the bytes that started it.
		go f.flushLoop()
		f.requestFlush()
		f.timer.EnableTimer(f.interval)
		return nil
	}

	if buffered > MinFlushSize {
		f.requestFlush()
	}
	return nil
}

// WriteString implements AsyncFile.WriteString.
func (f *asyncFile) WriteString(s string) error {
	return f.Write([]byte(s))
}

// Flush implements AsyncFile.Flush.
func (f *asyncFile) Flush(ctx context.Context) error {
	if f.closed.Load() {
		return cerrors.ErrClosed
	}

	f.frontMu.Lock()
	started := f.started
	f.frontMu.Unlock()
	if !started {
		// Nothing has ever been written, so there is nothing to drain and
		// no flusher to wait on.
		return nil
	}

	f.coordMu.Lock()
	target := f.cyclesStarted + 1
	f.flushRequested = true
	f.coordMu.Unlock()
	f.workCV.Signal()

	done := make(chan struct{})
	go func() {
		f.coordMu.Lock()
		for f.cyclesCompleted < target && !f.flusherDone {
			f.doneCV.Wait()
		}
		f.coordMu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reopen implements AsyncFile.Reopen.
func (f *asyncFile) Reopen() error {
	if f.closed.Load() {
		return cerrors.ErrClosed
	}

	f.coordMu.Lock()
	f.reopenPending = true
	f.coordMu.Unlock()
	f.workCV.Signal()
	return nil
}

// Close implements AsyncFile.Close.
func (f *asyncFile) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}

	f.timer.DisableTimer()

	f.frontMu.Lock()
	started := f.started
	f.frontMu.Unlock()

	if started {
		f.coordMu.Lock()
		f.shuttingDown = true
		f.coordMu.Unlock()
		f.workCV.Signal()
		f.wg.Wait()
	}

	if f.fd >= 0 {
		err := f.os.Close(f.fd)
		f.fd = -1
		return err
	}
	return nil
}

func (f *asyncFile) requestFlush() {
	f.coordMu.Lock()
	f.flushRequested = true
	f.coordMu.Unlock()
	f.workCV.Signal()
}

// onTimer runs on the dispatcher's timer goroutine. It signals the flusher
// and re-arms itself for the next interval.
func (f *asyncFile) onTimer() {
	if f.closed.Load() {
		return
	}
	f.stats.flushedByTimer.Inc()
	f.requestFlush()
	f.timer.EnableTimer(f.interval)
}

// flushLoop is the flusher goroutine: the only place descriptors are opened,
// written, and closed once the file is in use.
func (f *asyncFile) flushLoop() {
	defer f.wg.Done()

	for {
		f.coordMu.Lock()
		for !f.flushRequested && !f.reopenPending && !f.shuttingDown && len(f.back) == 0 {
			f.workCV.Wait()
		}
		reopen := f.reopenPending
		exit := f.shuttingDown
		f.reopenPending = false
		f.flushRequested = false
		f.cyclesStarted++
		f.coordMu.Unlock()

		if reopen {
			f.doReopen()
		}
		f.swapAndDrain()

		f.coordMu.Lock()
		f.cyclesCompleted++
		if exit {
			f.flusherDone = true
		}
		f.coordMu.Unlock()
		f.doneCV.Broadcast()

		if exit {
			return
		}
	}
}

// doReopen closes the current descriptor and opens the path again. It runs
// before the cycle's swap, so bytes buffered before Reopen land in the newly
// opened file.
func (f *asyncFile) doReopen() {
	if f.fd >= 0 {
		_ = f.os.Close(f.fd)
		f.fd = -1
	}

	fd, err := f.os.Open(f.path, openFlags, f.mode)
	if err != nil || fd < 0 {
		f.stats.reopenFailed.Inc()
		return
	}
	f.fd = fd
}

// swapAndDrain exchanges the buffers and writes the back buffer through the
// descriptor with a single syscall per attempt, retrying short writes within
// the cycle. Only the flusher calls this, and only with an empty back buffer.
func (f *asyncFile) swapAndDrain() {
	f.frontMu.Lock()
	if len(f.front) == 0 {
		f.frontMu.Unlock()
		return
	}
	f.front, f.back = f.back[:0], f.front
	f.frontMu.Unlock()

	if f.fd < 0 {
		f.stats.writeFailed.Add(uint64(len(f.back)))
		f.back = f.back[:0]
		return
	}

	remaining := f.back
	for len(remaining) > 0 {
		n, err := f.os.Write(f.fd, remaining)
		if err != nil || n <= 0 {
			f.stats.writeFailed.Add(uint64(len(remaining)))
			break
		}
		f.stats.writeCompleted.Add(uint64(n))
		remaining = remaining[n:]
	}
	f.back = f.back[:0]
}
