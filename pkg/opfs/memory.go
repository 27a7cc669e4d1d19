package opfs

import (
	"fmt"
	"sync"
	"time"
)

// MemoryFS implements FileSystem in process memory. It backs tests and
// non-browser builds, and reproduces the commit-on-close semantics of the
// browser's writable streams.
type MemoryFS struct {
	mu   sync.RWMutex
	root *memDir
	now  func() time.Time
}

// NewMemoryFS creates an empty in-memory file system.
func NewMemoryFS() *MemoryFS {
	fs := &MemoryFS{now: time.Now}
	fs.root = newMemDir(fs, "")
	return fs
}

// Root returns the root directory handle.
func (fs *MemoryFS) Root() (DirectoryHandle, error) {
	return fs.root, nil
}

type memFile struct {
	data     []byte
	modified time.Time
}

type memDir struct {
	fs    *MemoryFS
	name  string
	dirs  map[string]*memDir
	files map[string]*memFile
}

func newMemDir(fs *MemoryFS, name string) *memDir {
	return &memDir{
		fs:    fs,
		name:  name,
		dirs:  make(map[string]*memDir),
		files: make(map[string]*memFile),
	}
}

// Kind reports KindDirectory.
func (d *memDir) Kind() HandleKind { return KindDirectory }

// Name returns the directory's own name.
func (d *memDir) Name() string { return d.name }

// GetDirectoryHandle resolves or creates a child directory.
func (d *memDir) GetDirectoryHandle(name string, create bool) (DirectoryHandle, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	if _, ok := d.files[name]; ok {
		return nil, fmt.Errorf("%q: %w", name, ErrTypeMismatch)
	}
	if child, ok := d.dirs[name]; ok {
		return child, nil
	}
	if !create {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	child := newMemDir(d.fs, name)
	d.dirs[name] = child
	return child, nil
}

// GetFileHandle resolves or creates a child file.
func (d *memDir) GetFileHandle(name string, create bool) (FileHandle, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	if _, ok := d.dirs[name]; ok {
		return nil, fmt.Errorf("%q: %w", name, ErrTypeMismatch)
	}
	if _, ok := d.files[name]; !ok {
		if !create {
			return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
		}
		d.files[name] = &memFile{modified: d.fs.now()}
	}
	return &memFileHandle{dir: d, name: name}, nil
}

// Entries enumerates child handles in map order.
func (d *memDir) Entries(fn func(Handle) error) error {
	d.fs.mu.RLock()
	handles := make([]Handle, 0, len(d.dirs)+len(d.files))
	for name := range d.files {
		handles = append(handles, &memFileHandle{dir: d, name: name})
	}
	for _, child := range d.dirs {
		handles = append(handles, child)
	}
	d.fs.mu.RUnlock()

	for _, h := range handles {
		if err := fn(h); err != nil {
			return err
		}
	}
	return nil
}

type memFileHandle struct {
	dir  *memDir
	name string
}

// Kind reports KindFile.
func (h *memFileHandle) Kind() HandleKind { return KindFile }

// Name returns the file's name within its directory.
func (h *memFileHandle) Name() string { return h.name }

// GetFile snapshots the file's committed content.
func (h *memFileHandle) GetFile() (File, error) {
	h.dir.fs.mu.RLock()
	defer h.dir.fs.mu.RUnlock()

	f, ok := h.dir.files[h.name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", h.name, ErrNotFound)
	}
	snapshot := make([]byte, len(f.data))
	copy(snapshot, f.data)
	return &memFileView{name: h.name, data: snapshot, modified: f.modified}, nil
}

// CreateWritable opens a buffered stream committed on Close.
func (h *memFileHandle) CreateWritable() (WritableStream, error) {
	h.dir.fs.mu.RLock()
	_, ok := h.dir.files[h.name]
	h.dir.fs.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", h.name, ErrNotFound)
	}
	return &memWritable{handle: h}, nil
}

type memFileView struct {
	name     string
	data     []byte
	modified time.Time
}

func (f *memFileView) Name() string            { return f.name }
func (f *memFileView) Size() int64             { return int64(len(f.data)) }
func (f *memFileView) LastModified() time.Time { return f.modified }
func (f *memFileView) Bytes() ([]byte, error)  { return f.data, nil }

type memWritable struct {
	handle *memFileHandle
	buf    []byte
	closed bool
}

// Write appends to the pending buffer.
func (w *memWritable) Write(p []byte) error {
	if w.closed {
		return ErrStreamClosed
	}
	w.buf = append(w.buf, p...)
	return nil
}

// Close commits the buffer as the file's new content.
func (w *memWritable) Close() error {
	if w.closed {
		return ErrStreamClosed
	}
	w.closed = true

	fs := w.handle.dir.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, ok := w.handle.dir.files[w.handle.name]
	if !ok {
		return fmt.Errorf("%q: %w", w.handle.name, ErrNotFound)
	}
	f.data = w.buf
	f.modified = fs.now()
	return nil
}

// Abort discards the buffer, leaving the committed content unchanged.
func (w *memWritable) Abort() error {
	if w.closed {
		return ErrStreamClosed
	}
	w.closed = true
	w.buf = nil
	return nil
}

// Verify interface compliance.
var (
	_ FileSystem      = (*MemoryFS)(nil)
	_ DirectoryHandle = (*memDir)(nil)
	_ FileHandle      = (*memFileHandle)(nil)
	_ File            = (*memFileView)(nil)
	_ WritableStream  = (*memWritable)(nil)
)
