package columnar

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// Version is the fixed container format version. Readers reject anything
// else.
const Version = 1

// maxFrameSize bounds a single header or batch frame.
const maxFrameSize = 1 << 30

var magic = [4]byte{'O', 'P', 'C', '1'}

var (
	// ErrBadMagic is returned when the input does not start a container.
	ErrBadMagic = errors.New("not a columnar container")

	// ErrBadVersion is returned for container versions this reader does
	// not speak.
	ErrBadVersion = errors.New("unsupported container version")

	// ErrSchemaMismatch is returned when a written batch does not match
	// the container's schema shape.
	ErrSchemaMismatch = errors.New("batch does not match container schema")

	// ErrWriterClosed is returned when writing to a closed writer.
	ErrWriterClosed = errors.New("container writer closed")
)

type header struct {
	Version int    `cbor:"version"`
	Schema  Schema `cbor:"schema"`
}

// Writer streams batches into a container. Nothing the writer produces is a
// complete container until Close writes the terminator frame.
type Writer struct {
	w      io.Writer
	enc    *zstd.Encoder
	schema Schema
	closed bool
}

// NewWriter writes the magic and schema header and returns a batch writer.
func NewWriter(w io.Writer, schema Schema) (*Writer, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("columnar: zstd encoder: %w", err)
	}
	if _, err := w.Write(magic[:]); err != nil {
		return nil, fmt.Errorf("columnar: writing magic: %w", err)
	}
	raw, err := cbor.Marshal(header{Version: Version, Schema: schema})
	if err != nil {
		return nil, fmt.Errorf("columnar: encoding header: %w", err)
	}
	if err := writeFrame(w, raw); err != nil {
		return nil, fmt.Errorf("columnar: writing header: %w", err)
	}
	return &Writer{w: w, enc: enc, schema: schema}, nil
}

// Write appends one batch frame.
func (w *Writer) Write(b *Batch) error {
	if w.closed {
		return ErrWriterClosed
	}
	if len(b.Columns) != len(w.schema.Fields) {
		return fmt.Errorf("%w: %d columns for %d fields",
			ErrSchemaMismatch, len(b.Columns), len(w.schema.Fields))
	}
	for i := range b.Columns {
		if len(b.Columns[i].Valid) != b.Rows {
			return fmt.Errorf("%w: column %d has %d rows, batch declares %d",
				ErrSchemaMismatch, i, len(b.Columns[i].Valid), b.Rows)
		}
	}
	raw, err := cbor.Marshal(b)
	if err != nil {
		return fmt.Errorf("columnar: encoding batch: %w", err)
	}
	if err := writeFrame(w.w, w.enc.EncodeAll(raw, nil)); err != nil {
		return fmt.Errorf("columnar: writing batch: %w", err)
	}
	return nil
}

// Close writes the terminator frame. Only after Close does the output form
// a complete container.
func (w *Writer) Close() error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true
	var term [1]byte // uvarint 0
	if _, err := w.w.Write(term[:]); err != nil {
		return fmt.Errorf("columnar: writing terminator: %w", err)
	}
	return w.enc.Close()
}

func writeFrame(w io.Writer, payload []byte) error {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(payload)))
	if _, err := w.Write(lenBuf[:n]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// Reader decodes a container written by Writer.
type Reader struct {
	r      *bufio.Reader
	dec    *zstd.Decoder
	schema Schema
}

// NewReader validates the magic and version and decodes the schema header.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	var m [4]byte
	if _, err := io.ReadFull(br, m[:]); err != nil {
		return nil, fmt.Errorf("columnar: reading magic: %w", err)
	}
	if m != magic {
		return nil, ErrBadMagic
	}
	raw, err := readFrame(br)
	if err != nil {
		return nil, fmt.Errorf("columnar: reading header: %w", err)
	}
	var h header
	if err := cbor.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("columnar: decoding header: %w", err)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, h.Version)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("columnar: zstd decoder: %w", err)
	}
	return &Reader{r: br, dec: dec, schema: h.Schema}, nil
}

// Schema returns the container's fixed schema.
func (r *Reader) Schema() Schema { return r.schema }

// Next decodes the next batch, or io.EOF at the terminator frame.
func (r *Reader) Next() (*Batch, error) {
	frame, err := readFrame(r.r)
	if err != nil {
		return nil, fmt.Errorf("columnar: reading batch frame: %w", err)
	}
	if len(frame) == 0 {
		return nil, io.EOF
	}
	raw, err := r.dec.DecodeAll(frame, nil)
	if err != nil {
		return nil, fmt.Errorf("columnar: decompressing batch: %w", err)
	}
	var b Batch
	if err := cbor.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("columnar: decoding batch: %w", err)
	}
	return &b, nil
}

// Close releases the decompressor.
func (r *Reader) Close() error {
	r.dec.Close()
	return nil
}

func readFrame(r *bufio.Reader) ([]byte, error) {
	size, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if size > maxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", size)
	}
	if size == 0 {
		return nil, nil
	}
	frame := make([]byte, size)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}
	return frame, nil
}
