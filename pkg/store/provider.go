package store

import (
	"context"
	"io"
	"iter"
)

// GetOptions carries per-request options for Get.
type GetOptions struct {
	// Range selects a byte window. Nil reads the whole object.
	Range GetRange
}

// GetResult couples an object's metadata with its content.
type GetResult struct {
	// Meta describes the object the body was read from.
	Meta ObjectMeta

	// Range is the resolved byte window Body covers.
	Range Span

	// Body is a single-chunk reader over exactly Range. It is finite and
	// not restartable; a fresh Get is required to re-read.
	Body io.ReadCloser
}

// Store is the storage-backend contract consumed by the query engine.
// Read-mostly backends wrap ErrUnsupported from every mutation operation.
type Store interface {
	// Head resolves the object and reads size and modification time
	// without materializing content.
	Head(ctx context.Context, location Path) (ObjectMeta, error)

	// Get resolves the object, reads its content, and returns the
	// requested byte window.
	Get(ctx context.Context, location Path, opts GetOptions) (*GetResult, error)

	// List enumerates every object in the data root as a finite,
	// non-restartable sequence. The store is not hierarchical, so any
	// prefix is ignored; enumeration order is not defined.
	List(ctx context.Context, prefix Path) iter.Seq2[ObjectMeta, error]

	Put(ctx context.Context, location Path, data []byte) error
	PutMultipart(ctx context.Context, location Path) error
	Delete(ctx context.Context, location Path) error
	Copy(ctx context.Context, from, to Path) error
	CopyIfNotExists(ctx context.Context, from, to Path) error
	ListWithDelimiter(ctx context.Context, prefix Path) ([]ObjectMeta, error)
}
