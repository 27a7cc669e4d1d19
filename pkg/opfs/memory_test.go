package opfs

import (
	"errors"
	"testing"
	"time"
)

func writeTestFile(t *testing.T, dir DirectoryHandle, name string, data []byte) {
	t.Helper()
	fh, err := dir.GetFileHandle(name, true)
	if err != nil {
		t.Fatalf("GetFileHandle(%q) error = %v", name, err)
	}
	w, err := fh.CreateWritable()
	if err != nil {
		t.Fatalf("CreateWritable() error = %v", err)
	}
	if err := w.Write(data); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestMemoryFSWriteAndRead(t *testing.T) {
	fs := NewMemoryFS()
	root, err := fs.Root()
	if err != nil {
		t.Fatalf("Root() error = %v", err)
	}

	before := time.Now()
	writeTestFile(t, root, "trips.csv", []byte("a,b\n1,2\n"))

	fh, err := root.GetFileHandle("trips.csv", false)
	if err != nil {
		t.Fatalf("GetFileHandle() error = %v", err)
	}
	f, err := fh.GetFile()
	if err != nil {
		t.Fatalf("GetFile() error = %v", err)
	}
	if f.Name() != "trips.csv" {
		t.Errorf("Name() = %q, want %q", f.Name(), "trips.csv")
	}
	if f.Size() != 8 {
		t.Errorf("Size() = %d, want 8", f.Size())
	}
	if f.LastModified().Before(before) {
		t.Errorf("LastModified() = %v, earlier than write start %v", f.LastModified(), before)
	}
	data, err := f.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("Bytes() = %q", data)
	}
}

func TestMemoryFSMissingFile(t *testing.T) {
	fs := NewMemoryFS()
	root, _ := fs.Root()

	if _, err := root.GetFileHandle("absent", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetFileHandle() error = %v, want ErrNotFound", err)
	}
	if _, err := root.GetDirectoryHandle("absent", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDirectoryHandle() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryFSKindMismatch(t *testing.T) {
	fs := NewMemoryFS()
	root, _ := fs.Root()

	if _, err := root.GetDirectoryHandle("sub", true); err != nil {
		t.Fatalf("GetDirectoryHandle() error = %v", err)
	}
	if _, err := root.GetFileHandle("sub", true); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("GetFileHandle() on a directory error = %v, want ErrTypeMismatch", err)
	}

	writeTestFile(t, root, "f", nil)
	if _, err := root.GetDirectoryHandle("f", true); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("GetDirectoryHandle() on a file error = %v, want ErrTypeMismatch", err)
	}
}

func TestMemoryFSWritableCommitsOnClose(t *testing.T) {
	fs := NewMemoryFS()
	root, _ := fs.Root()
	writeTestFile(t, root, "obj", []byte("old"))

	fh, _ := root.GetFileHandle("obj", false)
	w, err := fh.CreateWritable()
	if err != nil {
		t.Fatalf("CreateWritable() error = %v", err)
	}
	if err := w.Write([]byte("new content")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// Nothing is visible before Close.
	f, _ := fh.GetFile()
	if data, _ := f.Bytes(); string(data) != "old" {
		t.Errorf("content before Close = %q, want %q", data, "old")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	f, _ = fh.GetFile()
	if data, _ := f.Bytes(); string(data) != "new content" {
		t.Errorf("content after Close = %q, want %q", data, "new content")
	}

	if err := w.Write([]byte("x")); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("Write() after Close error = %v, want ErrStreamClosed", err)
	}
}

func TestMemoryFSWritableAbortDiscards(t *testing.T) {
	fs := NewMemoryFS()
	root, _ := fs.Root()
	writeTestFile(t, root, "obj", []byte("keep"))

	fh, _ := root.GetFileHandle("obj", false)
	w, _ := fh.CreateWritable()
	if err := w.Write([]byte("discard")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Abort(); err != nil {
		t.Fatalf("Abort() error = %v", err)
	}

	f, _ := fh.GetFile()
	if data, _ := f.Bytes(); string(data) != "keep" {
		t.Errorf("content after Abort = %q, want %q", data, "keep")
	}
}

func TestMemoryFSEntries(t *testing.T) {
	fs := NewMemoryFS()
	root, _ := fs.Root()
	writeTestFile(t, root, "a.csv", []byte("x"))
	writeTestFile(t, root, "b.columnar", []byte("yy"))
	if _, err := root.GetDirectoryHandle("sub", true); err != nil {
		t.Fatalf("GetDirectoryHandle() error = %v", err)
	}

	kinds := make(map[string]HandleKind)
	err := root.Entries(func(h Handle) error {
		kinds[h.Name()] = h.Kind()
		return nil
	})
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(kinds) != 3 {
		t.Fatalf("Entries() yielded %d entries, want 3", len(kinds))
	}
	if kinds["a.csv"] != KindFile || kinds["b.columnar"] != KindFile {
		t.Errorf("file kinds = %v", kinds)
	}
	if kinds["sub"] != KindDirectory {
		t.Errorf("directory kind = %v", kinds["sub"])
	}
}

func TestMemoryFSFileSnapshotIsolation(t *testing.T) {
	fs := NewMemoryFS()
	root, _ := fs.Root()
	writeTestFile(t, root, "obj", []byte("v1"))

	fh, _ := root.GetFileHandle("obj", false)
	snap, _ := fh.GetFile()

	writeTestFile(t, root, "obj", []byte("v2 is longer"))

	if data, _ := snap.Bytes(); string(data) != "v1" {
		t.Errorf("snapshot content = %q, want %q", data, "v1")
	}
}
