//go:build js && wasm

package opfs

import (
	"fmt"
	"syscall/js"
	"time"
)

// NewFS returns the browser's origin-private file system, reached through
// navigator.storage. All returned handles must be used from the goroutine
// that owns the JavaScript event loop (the bridge loop).
func NewFS() FileSystem {
	return &jsFS{storage: js.Global().Get("navigator").Get("storage")}
}

type jsFS struct {
	storage js.Value
}

// Root awaits navigator.storage.getDirectory().
func (fs *jsFS) Root() (DirectoryHandle, error) {
	v, err := await(fs.storage.Call("getDirectory"))
	if err != nil {
		return nil, err
	}
	return &jsDir{v: v}, nil
}

// await resolves a JavaScript Promise into its settled value. The calling
// goroutine parks until the browser delivers the completion microtask.
func await(promise js.Value) (js.Value, error) {
	done := make(chan struct{})
	var (
		result js.Value
		err    error
	)
	onResolve := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) > 0 {
			result = args[0]
		}
		close(done)
		return nil
	})
	defer onResolve.Release()
	onReject := js.FuncOf(func(_ js.Value, args []js.Value) any {
		reason := js.Undefined()
		if len(args) > 0 {
			reason = args[0]
		}
		err = mapDOMException(reason)
		close(done)
		return nil
	})
	defer onReject.Release()

	promise.Call("then", onResolve, onReject)
	<-done
	return result, err
}

// mapDOMException translates well-known DOMException names into package
// sentinels so callers can use errors.Is across platforms.
func mapDOMException(reason js.Value) error {
	if reason.Type() == js.TypeObject {
		switch reason.Get("name").String() {
		case "NotFoundError":
			return fmt.Errorf("%s: %w", reason.Get("message").String(), ErrNotFound)
		case "TypeMismatchError":
			return fmt.Errorf("%s: %w", reason.Get("message").String(), ErrTypeMismatch)
		}
	}
	return js.Error{Value: reason}
}

func handleOptions(create bool) js.Value {
	opts := js.Global().Get("Object").New()
	opts.Set("create", create)
	return opts
}

type jsDir struct {
	v js.Value
}

func (d *jsDir) Kind() HandleKind { return KindDirectory }
func (d *jsDir) Name() string     { return d.v.Get("name").String() }

func (d *jsDir) GetDirectoryHandle(name string, create bool) (DirectoryHandle, error) {
	v, err := await(d.v.Call("getDirectoryHandle", name, handleOptions(create)))
	if err != nil {
		return nil, err
	}
	return &jsDir{v: v}, nil
}

func (d *jsDir) GetFileHandle(name string, create bool) (FileHandle, error) {
	v, err := await(d.v.Call("getFileHandle", name, handleOptions(create)))
	if err != nil {
		return nil, err
	}
	return &jsFile{v: v}, nil
}

// Entries drains the directory's async values() iterator.
func (d *jsDir) Entries(fn func(Handle) error) error {
	it := d.v.Call("values")
	for {
		step, err := await(it.Call("next"))
		if err != nil {
			return err
		}
		if step.Get("done").Bool() {
			return nil
		}
		entry := step.Get("value")
		var h Handle
		switch HandleKind(entry.Get("kind").String()) {
		case KindFile:
			h = &jsFile{v: entry}
		default:
			h = &jsDir{v: entry}
		}
		if err := fn(h); err != nil {
			return err
		}
	}
}

type jsFile struct {
	v js.Value
}

func (f *jsFile) Kind() HandleKind { return KindFile }
func (f *jsFile) Name() string     { return f.v.Get("name").String() }

func (f *jsFile) GetFile() (File, error) {
	v, err := await(f.v.Call("getFile"))
	if err != nil {
		return nil, err
	}
	return &jsBlob{v: v}, nil
}

func (f *jsFile) CreateWritable() (WritableStream, error) {
	v, err := await(f.v.Call("createWritable"))
	if err != nil {
		return nil, err
	}
	return &jsWritable{v: v}, nil
}

type jsBlob struct {
	v js.Value
}

func (b *jsBlob) Name() string { return b.v.Get("name").String() }
func (b *jsBlob) Size() int64  { return int64(b.v.Get("size").Float()) }

// LastModified converts the file's epoch-milliseconds stamp.
func (b *jsBlob) LastModified() time.Time {
	return time.UnixMilli(int64(b.v.Get("lastModified").Float())).UTC()
}

// Bytes awaits arrayBuffer() and copies the payload into Go memory.
func (b *jsBlob) Bytes() ([]byte, error) {
	buf, err := await(b.v.Call("arrayBuffer"))
	if err != nil {
		return nil, err
	}
	view := js.Global().Get("Uint8Array").New(buf)
	data := make([]byte, view.Get("length").Int())
	js.CopyBytesToGo(data, view)
	return data, nil
}

type jsWritable struct {
	v      js.Value
	closed bool
}

func (w *jsWritable) Write(p []byte) error {
	if w.closed {
		return ErrStreamClosed
	}
	buf := js.Global().Get("Uint8Array").New(len(p))
	js.CopyBytesToJS(buf, p)
	_, err := await(w.v.Call("write", buf))
	return err
}

func (w *jsWritable) Close() error {
	if w.closed {
		return ErrStreamClosed
	}
	w.closed = true
	_, err := await(w.v.Call("close"))
	return err
}

func (w *jsWritable) Abort() error {
	if w.closed {
		return ErrStreamClosed
	}
	w.closed = true
	_, err := await(w.v.Call("abort"))
	return err
}

// Verify interface compliance.
var (
	_ FileSystem      = (*jsFS)(nil)
	_ DirectoryHandle = (*jsDir)(nil)
	_ FileHandle      = (*jsFile)(nil)
	_ File            = (*jsBlob)(nil)
	_ WritableStream  = (*jsWritable)(nil)
)
