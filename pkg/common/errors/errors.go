package errors

import "errors"

// Common error types used across the logflow library

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrEmptyPath indicates that a file path was required but empty
	ErrEmptyPath = errors.New("path is empty")

	// ErrNoDescriptor indicates that no file descriptor is currently open
	ErrNoDescriptor = errors.New("no open file descriptor")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrAlreadyStarted indicates that a component was started twice
	ErrAlreadyStarted = errors.New("already started")
)

// IsRecoverable returns true if the error indicates a condition that might
// be resolved by a later reopen rather than a permanent failure
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrNoDescriptor)
}
