// Package opfs abstracts the browser's origin-private file system behind
// handle interfaces, with a js/wasm binding for real browsers and an
// in-memory implementation for every other platform.
//
// Handles are single-goroutine-affine: once a FileSystem has been handed to
// a bridge loop, every handle method must be invoked from producer closures
// running on that loop. Only derived plain data (bytes, names, timestamps)
// may cross back to other goroutines.
package opfs

import (
	"errors"
	"time"
)

// HandleKind discriminates directory entries.
type HandleKind string

// Handle kinds reported by Handle.Kind.
const (
	KindFile      HandleKind = "file"
	KindDirectory HandleKind = "directory"
)

var (
	// ErrNotFound is returned when a named entry does not exist and
	// creation was not requested.
	ErrNotFound = errors.New("entry not found")

	// ErrTypeMismatch is returned when a name resolves to an entry of the
	// wrong kind, e.g. requesting a file handle for a directory.
	ErrTypeMismatch = errors.New("entry kind mismatch")

	// ErrStreamClosed is returned when writing to a writable stream that
	// has already been closed or aborted.
	ErrStreamClosed = errors.New("writable stream closed")
)

// FileSystem is the entry point to a sandboxed per-origin file hierarchy.
type FileSystem interface {
	// Root returns the sandbox's persistent storage root directory.
	Root() (DirectoryHandle, error)
}

// Handle is the common surface of directory entries.
type Handle interface {
	Kind() HandleKind
	Name() string
}

// DirectoryHandle names and resolves entries within one directory.
type DirectoryHandle interface {
	Handle

	// GetDirectoryHandle resolves a child directory, creating it when
	// create is set and the name is unused.
	GetDirectoryHandle(name string, create bool) (DirectoryHandle, error)

	// GetFileHandle resolves a child file, creating it when create is set
	// and the name is unused.
	GetFileHandle(name string, create bool) (FileHandle, error)

	// Entries calls fn once per directory entry, in no defined order.
	// Enumeration stops at the first error returned by fn.
	Entries(fn func(Handle) error) error
}

// FileHandle resolves the file it names into readable or writable form.
type FileHandle interface {
	Handle

	// GetFile snapshots the file's current content and attributes.
	GetFile() (File, error)

	// CreateWritable opens a write stream. Written data is not visible
	// through GetFile until the stream is closed; Abort discards it.
	CreateWritable() (WritableStream, error)
}

// File is an immutable snapshot of one file.
type File interface {
	Name() string
	Size() int64
	LastModified() time.Time

	// Bytes materializes the full content.
	Bytes() ([]byte, error)
}

// WritableStream accumulates writes and commits them atomically on Close.
type WritableStream interface {
	Write(p []byte) error

	// Close commits everything written so far. After Close the stream is
	// unusable.
	Close() error

	// Abort discards everything written so far.
	Abort() error
}
