package store

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across backends.
var (
	// ErrUnsupported is wrapped by every mutation operation a read-mostly
	// backend does not implement. Always fatal to the calling operation,
	// never retried.
	ErrUnsupported = errors.New("operation not supported")

	// ErrEmptyPath is returned when a path resolves to no entry name.
	ErrEmptyPath = errors.New("empty object path")

	// ErrNotFlat is returned when a path names a nested directory; the
	// store is defined to be a single flat data root.
	ErrNotFlat = errors.New("nested paths are not supported")

	// ErrSchemeRegistered is returned when registering a scheme twice.
	ErrSchemeRegistered = errors.New("scheme already registered")

	// ErrSchemeUnknown is returned when resolving a path whose scheme has
	// no registered store.
	ErrSchemeUnknown = errors.New("no store registered for scheme")
)

// UnsupportedError reports which operation was invoked on a store that does
// not implement it.
type UnsupportedError struct {
	Store string
	Op    string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Store, e.Op, ErrUnsupported)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// StartTooLargeError reports a requested range beginning at or past the end
// of the object.
type StartTooLargeError struct {
	Requested int64
	Length    int64
}

func (e *StartTooLargeError) Error() string {
	return fmt.Sprintf("wanted range starting at %d, but object was only %d bytes long",
		e.Requested, e.Length)
}

// InvalidRangeError reports a bounded range whose end precedes its start or
// whose start is negative.
type InvalidRangeError struct {
	Start int64
	End   int64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: [%d, %d)", e.Start, e.End)
}
