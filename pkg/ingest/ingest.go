package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/txn2/opfs-adapter/pkg/columnar"
)

// ObjectSuffix is appended to the content key to name ingested objects.
const ObjectSuffix = ".columnar"

// ObjectWriter persists a finished container into the data root. The opfs
// store satisfies it.
type ObjectWriter interface {
	CreateObject(ctx context.Context, name string, data []byte) error
}

// ContentKey derives a stable object key from raw content. Callers usually
// supply their own digest; this is the fallback.
func ContentKey(raw []byte) string {
	return strconv.FormatUint(xxhash.Sum64(raw), 16)
}

// ObjectName returns the data-root entry name an ingestion with the given
// content key persists to.
func ObjectName(contentKey string) string {
	return contentKey + ObjectSuffix
}

// Pipeline converts delimited text into the typed columnar container.
type Pipeline struct {
	store ObjectWriter
	log   *slog.Logger
}

// NewPipeline creates a pipeline writing through store.
func NewPipeline(store ObjectWriter, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{store: store, log: log}
}

// Ingest infers a schema from the first rows of raw, re-encodes the whole
// input into typed column batches, and persists "<contentKey>.columnar"
// into the data root. The first row is always treated as the header. Any
// row-level decode failure aborts the ingestion with nothing persisted.
func (p *Pipeline) Ingest(ctx context.Context, raw []byte, contentKey string, cfg Config) (columnar.Schema, error) {
	pc, err := cfg.parser()
	if err != nil {
		return columnar.Schema{}, err
	}

	header, sample, err := sampleRows(raw, pc)
	if err != nil {
		return columnar.Schema{}, err
	}
	schema := inferSchema(header, sample, pc)
	p.log.Debug("ingest: schema inferred", "columns", len(schema.Fields), "sample_rows", len(sample))

	batches, err := decodeAll(raw, schema, pc)
	if err != nil {
		return columnar.Schema{}, err
	}

	var buf bytes.Buffer
	w, err := columnar.NewWriter(&buf, schema)
	if err != nil {
		return columnar.Schema{}, err
	}
	rows := 0
	for _, b := range batches {
		if err := w.Write(b); err != nil {
			return columnar.Schema{}, err
		}
		rows += b.Rows
	}
	if err := w.Close(); err != nil {
		return columnar.Schema{}, err
	}

	name := ObjectName(contentKey)
	if err := p.store.CreateObject(ctx, name, buf.Bytes()); err != nil {
		return columnar.Schema{}, fmt.Errorf("ingest: persisting %q: %w", name, err)
	}
	p.log.Debug("ingest: object persisted", "name", name, "rows", rows, "size", buf.Len())
	return schema, nil
}

// sampleRows reads the header and up to inferenceRows data rows.
func sampleRows(raw []byte, pc parserConfig) ([]string, [][]string, error) {
	sc := newScanner(raw, pc)
	header, err := sc.next()
	if err != nil {
		if err == io.EOF {
			return nil, nil, ErrEmptyInput
		}
		return nil, nil, err
	}

	var sample [][]string
	for len(sample) < inferenceRows {
		row, err := sc.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &DecodeError{Line: sc.line, Err: err}
		}
		sample = append(sample, row)
	}
	return header, sample, nil
}
