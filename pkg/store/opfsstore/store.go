// Package opfsstore implements the store.Store contract over the browser's
// origin-private file system. Every handle operation is confined to a
// bridge loop; only derived plain data crosses back to callers.
package opfsstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/txn2/opfs-adapter/pkg/bridge"
	"github.com/txn2/opfs-adapter/pkg/opfs"
	"github.com/txn2/opfs-adapter/pkg/store"
)

const (
	// Scheme is the URL scheme stores of this kind are registered under.
	Scheme = "opfs"

	// DataDir is the fixed directory under the sandbox root that holds
	// every object. The store is flat: no directories below it.
	DataDir = "data"

	storeName = "OpfsFileSystem"
)

// Store adapts the origin-private file system to the storage-backend
// contract. It is read-mostly: ingestion writes go through CreateObject,
// never through Put.
type Store struct {
	loop *bridge.Loop
	fs   opfs.FileSystem
	log  *slog.Logger

	// The memoized data-root handle is the only long-lived mutable
	// resource; it is written at most once, on first resolution.
	rootOnce sync.Once
	root     opfs.DirectoryHandle
	rootErr  error
}

// New creates a store over fs whose handle operations run on loop.
func New(loop *bridge.Loop, fs opfs.FileSystem, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{loop: loop, fs: fs, log: log}
}

// String identifies the store in wrapped errors.
func (s *Store) String() string { return storeName + "()" }

// dataRoot lazily resolves the sandbox root and the fixed data directory
// (creating it if absent), memoizing the handle for the process lifetime:
// resolution costs two bridged round-trips. Idempotent.
func (s *Store) dataRoot() (opfs.DirectoryHandle, error) {
	s.rootOnce.Do(func() {
		s.root, s.rootErr = bridge.Await[opfs.DirectoryHandle](s.loop, "resolve data root",
			func() (any, error) {
				root, err := s.fs.Root()
				if err != nil {
					return nil, fmt.Errorf("sandbox root: %w", err)
				}
				return root.GetDirectoryHandle(DataDir, true)
			})
		if s.rootErr == nil {
			s.log.Debug("opfsstore: data root resolved", "dir", DataDir)
		}
	})
	return s.root, s.rootErr
}

// entryName maps a logical path to the single handle name it must resolve
// to inside the flat data root.
func entryName(location store.Path) (string, error) {
	p := string(location)
	if i := strings.Index(p, "://"); i >= 0 {
		p = p[i+3:]
	}
	p = strings.Trim(p, "/")
	p = strings.TrimPrefix(p, DataDir+"/")
	if p == "" {
		return "", store.ErrEmptyPath
	}
	if strings.Contains(p, "/") {
		return "", fmt.Errorf("%q: %w", location, store.ErrNotFlat)
	}
	return p, nil
}

// fileData is the plain-data projection of a resolved file; bytes stays nil
// for metadata-only reads so content is never materialized for Head.
type fileData struct {
	name         string
	lastModified time.Time
	size         int64
	bytes        []byte
}

func (fd fileData) meta(location store.Path) store.ObjectMeta {
	etag := fd.name
	return store.ObjectMeta{
		Location:     location,
		LastModified: fd.lastModified,
		Size:         fd.size,
		ETag:         &etag,
	}
}

func (s *Store) fileData(location store.Path, headOnly bool) (fileData, error) {
	name, err := entryName(location)
	if err != nil {
		return fileData{}, err
	}
	root, err := s.dataRoot()
	if err != nil {
		return fileData{}, err
	}
	return bridge.Await[fileData](s.loop, "read "+name, func() (any, error) {
		fh, err := root.GetFileHandle(name, false)
		if err != nil {
			return nil, err
		}
		f, err := fh.GetFile()
		if err != nil {
			return nil, err
		}
		fd := fileData{
			name:         f.Name(),
			lastModified: f.LastModified(),
			size:         f.Size(),
		}
		if !headOnly {
			if fd.bytes, err = f.Bytes(); err != nil {
				return nil, err
			}
		}
		return fd, nil
	})
}

// Head resolves the object and reads size and modification time without
// materializing content.
func (s *Store) Head(_ context.Context, location store.Path) (store.ObjectMeta, error) {
	fd, err := s.fileData(location, true)
	if err != nil {
		return store.ObjectMeta{}, err
	}
	return fd.meta(location), nil
}

// Get resolves the object, reads its full content, and returns the byte
// window the requested range resolves to. The body is a single chunk and is
// not restartable.
func (s *Store) Get(_ context.Context, location store.Path, opts store.GetOptions) (*store.GetResult, error) {
	fd, err := s.fileData(location, false)
	if err != nil {
		return nil, err
	}
	span, err := store.ResolveRange(opts.Range, int64(len(fd.bytes)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", storeName, err)
	}
	return &store.GetResult{
		Meta:  fd.meta(location),
		Range: span,
		Body:  io.NopCloser(bytes.NewReader(fd.bytes[span.Start:span.End])),
	}, nil
}

// List enumerates every entry in the data root, projecting each plain file
// into object metadata. Sub-directories are skipped silently; the prefix is
// ignored because the store is not hierarchical.
func (s *Store) List(_ context.Context, _ store.Path) iter.Seq2[store.ObjectMeta, error] {
	return func(yield func(store.ObjectMeta, error) bool) {
		root, err := s.dataRoot()
		if err != nil {
			yield(store.ObjectMeta{}, err)
			return
		}
		items := bridge.Enumerate[store.ObjectMeta](s.loop, "list data root",
			func(emit func(store.ObjectMeta)) error {
				return root.Entries(func(h opfs.Handle) error {
					fh, ok := h.(opfs.FileHandle)
					if !ok {
						return nil
					}
					f, err := fh.GetFile()
					if err != nil {
						return err
					}
					emit(store.ObjectMeta{
						Location:     store.Path(Scheme + "://" + DataDir + "/" + f.Name()),
						LastModified: f.LastModified(),
						Size:         f.Size(),
					})
					return nil
				})
			})
		for item := range items {
			if item.Err != nil {
				yield(store.ObjectMeta{}, item.Err)
				break
			}
			if !yield(item.Value, nil) {
				break
			}
		}
		// The producer holds the loop until its emissions are consumed.
		go func() {
			for range items {
			}
		}()
	}
}

// CreateObject persists data as a new object in the data root, creating the
// destination if absent. The write is all-or-nothing: nothing becomes
// visible until the writable stream is closed.
func (s *Store) CreateObject(_ context.Context, name string, data []byte) error {
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%q: %w", name, store.ErrNotFlat)
	}
	root, err := s.dataRoot()
	if err != nil {
		return err
	}
	_, err = bridge.Await[struct{}](s.loop, "write "+name, func() (any, error) {
		fh, err := root.GetFileHandle(name, true)
		if err != nil {
			return nil, err
		}
		w, err := fh.CreateWritable()
		if err != nil {
			return nil, err
		}
		if err := w.Write(data); err != nil {
			_ = w.Abort()
			return nil, err
		}
		return struct{}{}, w.Close()
	})
	if err == nil {
		s.log.Debug("opfsstore: object written", "name", name, "size", len(data))
	}
	return err
}

// Put is unsupported; ingestion writes go through CreateObject.
func (s *Store) Put(_ context.Context, _ store.Path, _ []byte) error {
	return &store.UnsupportedError{Store: storeName, Op: "put"}
}

// PutMultipart is unsupported.
func (s *Store) PutMultipart(_ context.Context, _ store.Path) error {
	return &store.UnsupportedError{Store: storeName, Op: "put_multipart"}
}

// Delete is unsupported.
func (s *Store) Delete(_ context.Context, _ store.Path) error {
	return &store.UnsupportedError{Store: storeName, Op: "delete"}
}

// Copy is unsupported.
func (s *Store) Copy(_ context.Context, _, _ store.Path) error {
	return &store.UnsupportedError{Store: storeName, Op: "copy"}
}

// CopyIfNotExists is unsupported.
func (s *Store) CopyIfNotExists(_ context.Context, _, _ store.Path) error {
	return &store.UnsupportedError{Store: storeName, Op: "copy_if_not_exists"}
}

// ListWithDelimiter is unsupported; the store has no hierarchy to delimit.
func (s *Store) ListWithDelimiter(_ context.Context, _ store.Path) ([]store.ObjectMeta, error) {
	return nil, &store.UnsupportedError{Store: storeName, Op: "list_with_delimiter"}
}

// Verify interface compliance.
var _ store.Store = (*Store)(nil)
