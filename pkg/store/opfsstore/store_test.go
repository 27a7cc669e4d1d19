package opfsstore

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/txn2/opfs-adapter/pkg/bridge"
	"github.com/txn2/opfs-adapter/pkg/opfs"
	"github.com/txn2/opfs-adapter/pkg/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	loop := bridge.NewLoop(nil)
	t.Cleanup(func() { _ = loop.Close() })
	return New(loop, opfs.NewMemoryFS(), nil)
}

func TestHead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	before := time.Now()
	if err := s.CreateObject(ctx, "trips.csv", []byte("a,b\n1,2\n")); err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}

	meta, err := s.Head(ctx, "opfs:///trips.csv")
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if meta.Location != "opfs:///trips.csv" {
		t.Errorf("Location = %q", meta.Location)
	}
	if meta.Size != 8 {
		t.Errorf("Size = %d, want 8", meta.Size)
	}
	if meta.LastModified.Before(before) {
		t.Errorf("LastModified = %v, earlier than write start", meta.LastModified)
	}
	if meta.ETag == nil || *meta.ETag != "trips.csv" {
		t.Errorf("ETag = %v, want the file name", meta.ETag)
	}
}

func TestHeadMissingObject(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Head(context.Background(), "opfs:///absent.csv")
	if err == nil {
		t.Fatal("Head() of a missing object succeeded")
	}
	var bridgeErr *bridge.Error
	if !errors.As(err, &bridgeErr) {
		t.Errorf("Head() error = %T, want *bridge.Error", err)
	}
	if !errors.Is(err, opfs.ErrNotFound) {
		t.Errorf("Head() error = %v, want wrapped ErrNotFound", err)
	}
}

func TestGetFullObject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	content := []byte("0123456789")

	if err := s.CreateObject(ctx, "obj", content); err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}

	res, err := s.Get(ctx, "opfs:///obj", store.GetOptions{})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer res.Body.Close()

	if res.Range != (store.Span{Start: 0, End: 10}) {
		t.Errorf("Range = %+v", res.Range)
	}
	got, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("body = %q, want %q", got, content)
	}

	// The body is not restartable: it is drained.
	if again, _ := io.ReadAll(res.Body); len(again) != 0 {
		t.Errorf("second read returned %d bytes, want 0", len(again))
	}
}

func TestGetRanges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateObject(ctx, "obj", []byte("0123456789")); err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}

	tests := []struct {
		name string
		r    store.GetRange
		want string
		span store.Span
	}{
		{name: "bounded", r: store.Bounded{Start: 2, End: 5}, want: "234", span: store.Span{Start: 2, End: 5}},
		{name: "bounded clamped", r: store.Bounded{Start: 8, End: 99}, want: "89", span: store.Span{Start: 8, End: 10}},
		{name: "offset", r: store.Offset{Start: 7}, want: "789", span: store.Span{Start: 7, End: 10}},
		{name: "suffix", r: store.Suffix{Length: 4}, want: "6789", span: store.Span{Start: 6, End: 10}},
		{name: "suffix saturated", r: store.Suffix{Length: 99}, want: "0123456789", span: store.Span{Start: 0, End: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Get(ctx, "opfs:///obj", store.GetOptions{Range: tt.r})
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			defer res.Body.Close()
			if res.Range != tt.span {
				t.Errorf("Range = %+v, want %+v", res.Range, tt.span)
			}
			got, _ := io.ReadAll(res.Body)
			if string(got) != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
			if int64(len(got)) != tt.span.Len() {
				t.Errorf("body length %d != resolved span length %d", len(got), tt.span.Len())
			}
		})
	}
}

func TestGetStartTooLarge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateObject(ctx, "obj", []byte("0123456789")); err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}

	_, err := s.Get(ctx, "opfs:///obj", store.GetOptions{Range: store.Offset{Start: 10}})
	var tooLarge *store.StartTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("Get() error = %v, want StartTooLargeError", err)
	}
	if tooLarge.Requested != 10 || tooLarge.Length != 10 {
		t.Errorf("StartTooLargeError = %+v", tooLarge)
	}
}

func TestGetBackwardsRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateObject(ctx, "obj", []byte("0123456789")); err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}

	_, err := s.Get(ctx, "opfs:///obj", store.GetOptions{Range: store.Bounded{Start: 5, End: 3}})
	var invalid *store.InvalidRangeError
	if !errors.As(err, &invalid) {
		t.Fatalf("Get() error = %v, want InvalidRangeError", err)
	}
}

func TestRootResolutionIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateObject(ctx, "obj", []byte("x")); err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}
	// Both calls go through the memoized root; the second must not fail or
	// re-create the data directory.
	if _, err := s.Head(ctx, "opfs:///obj"); err != nil {
		t.Fatalf("first Head() error = %v", err)
	}
	if _, err := s.Head(ctx, "opfs:///obj"); err != nil {
		t.Fatalf("second Head() error = %v", err)
	}
}

func TestListAfterWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateObject(ctx, "a.columnar", []byte("aaaa")); err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}
	if err := s.CreateObject(ctx, "b.columnar", []byte("bb")); err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}

	sizes := make(map[store.Path]int64)
	for meta, err := range s.List(ctx, "") {
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		sizes[meta.Location] = meta.Size
		if meta.ETag != nil {
			t.Errorf("listed entry %q has an ETag", meta.Location)
		}
	}
	if len(sizes) != 2 {
		t.Fatalf("List() yielded %d entries, want 2", len(sizes))
	}
	if sizes["opfs://data/a.columnar"] != 4 {
		t.Errorf("a.columnar size = %d, want 4", sizes["opfs://data/a.columnar"])
	}
	if sizes["opfs://data/b.columnar"] != 2 {
		t.Errorf("b.columnar size = %d, want 2", sizes["opfs://data/b.columnar"])
	}
}

func TestListSkipsDirectories(t *testing.T) {
	loop := bridge.NewLoop(nil)
	t.Cleanup(func() { _ = loop.Close() })
	fs := opfs.NewMemoryFS()
	s := New(loop, fs, nil)
	ctx := context.Background()

	if err := s.CreateObject(ctx, "obj", []byte("x")); err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}
	// Plant a sub-directory inside the data root; the lister must skip it.
	_, err := bridge.Await[opfs.DirectoryHandle](loop, "plant dir", func() (any, error) {
		root, err := fs.Root()
		if err != nil {
			return nil, err
		}
		data, err := root.GetDirectoryHandle(DataDir, false)
		if err != nil {
			return nil, err
		}
		return data.GetDirectoryHandle("nested", true)
	})
	if err != nil {
		t.Fatalf("planting directory: %v", err)
	}

	count := 0
	for meta, err := range s.List(ctx, "") {
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if meta.Location != "opfs://data/obj" {
			t.Errorf("unexpected entry %q", meta.Location)
		}
		count++
	}
	if count != 1 {
		t.Errorf("List() yielded %d entries, want 1", count)
	}
}

func TestListEarlyStop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if err := s.CreateObject(ctx, name, []byte("x")); err != nil {
			t.Fatalf("CreateObject() error = %v", err)
		}
	}

	seen := 0
	for _, err := range s.List(ctx, "") {
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		seen++
		break
	}
	if seen != 1 {
		t.Fatalf("saw %d entries before stopping, want 1", seen)
	}
	// The loop must stay usable after an abandoned enumeration.
	if _, err := s.Head(ctx, "opfs:///a"); err != nil {
		t.Errorf("Head() after abandoned List error = %v", err)
	}
}

func TestPathValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Head(ctx, "opfs:///"); !errors.Is(err, store.ErrEmptyPath) {
		t.Errorf("Head of empty path error = %v, want ErrEmptyPath", err)
	}
	if _, err := s.Head(ctx, "opfs:///deep/nested/obj"); !errors.Is(err, store.ErrNotFlat) {
		t.Errorf("Head of nested path error = %v, want ErrNotFlat", err)
	}
	// Listing-shaped locations resolve back to the same entry.
	if err := s.CreateObject(ctx, "obj", []byte("x")); err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}
	if _, err := s.Head(ctx, "opfs://data/obj"); err != nil {
		t.Errorf("Head of listing-shaped path error = %v", err)
	}
}

func TestMutationsAreUnsupported(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		op  string
		err error
	}{
		{op: "put", err: s.Put(ctx, "opfs:///x", nil)},
		{op: "put_multipart", err: s.PutMultipart(ctx, "opfs:///x")},
		{op: "delete", err: s.Delete(ctx, "opfs:///x")},
		{op: "copy", err: s.Copy(ctx, "opfs:///x", "opfs:///y")},
		{op: "copy_if_not_exists", err: s.CopyIfNotExists(ctx, "opfs:///x", "opfs:///y")},
	}
	if _, err := s.ListWithDelimiter(ctx, ""); err != nil {
		tests = append(tests, struct {
			op  string
			err error
		}{op: "list_with_delimiter", err: err})
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			if !errors.Is(tt.err, store.ErrUnsupported) {
				t.Fatalf("error = %v, want ErrUnsupported", tt.err)
			}
			var unsupported *store.UnsupportedError
			if !errors.As(tt.err, &unsupported) {
				t.Fatalf("error = %T, want *UnsupportedError", tt.err)
			}
			if unsupported.Op != tt.op {
				t.Errorf("Op = %q, want %q", unsupported.Op, tt.op)
			}
		})
	}
}
