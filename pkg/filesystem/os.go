package filesystem

import (
	"golang.org/x/sys/unix"
)

// OsSysCalls is the syscall surface AsyncFile performs its I/O through.
// Implementations report failure either with a non-nil error or with a
// negative descriptor/byte count; the caller treats both the same way and
// does no errno-specific handling.
type OsSysCalls interface {
	// Open opens path and returns a file descriptor.
	Open(path string, flags int, mode uint32) (int, error)

	// Write writes p to fd and returns the number of bytes written.
	Write(fd int, p []byte) (int, error)

	// Close closes fd.
	Close(fd int) error
}

// NewOsSysCalls returns the real kernel-backed syscall surface.
func NewOsSysCalls() OsSysCalls {
	return osSysCalls{}
}

type osSysCalls struct{}

func (osSysCalls) Open(path string, flags int, mode uint32) (int, error) {
	return unix.Open(path, flags, mode)
}

func (osSysCalls) Write(fd int, p []byte) (int, error) {
	return unix.Write(fd, p)
}

func (osSysCalls) Close(fd int) error {
	return unix.Close(fd)
}
