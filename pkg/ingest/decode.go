package ingest

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/txn2/opfs-adapter/pkg/columnar"
)

// batchRows is the number of rows per columnar batch.
const batchRows = 1024

// ErrEmptyInput is returned when the input holds no header row.
var ErrEmptyInput = errors.New("ingest: input has no header row")

// DecodeError reports a row that cannot be parsed under the inferred
// schema. It aborts the whole ingestion; nothing is persisted.
type DecodeError struct {
	Line   int
	Column string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ingest: line %d, column %q: %v", e.Line, e.Column, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// decodeAll re-scans the full input under the inferred schema, producing
// typed column batches. Any row-level failure aborts with a DecodeError.
func decodeAll(data []byte, schema columnar.Schema, cfg parserConfig) ([]*columnar.Batch, error) {
	sc := newScanner(data, cfg)
	if _, err := sc.next(); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyInput
		}
		return nil, err
	}

	var batches []*columnar.Batch
	batch := columnar.NewBatch(schema)
	for {
		row, err := sc.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DecodeError{Line: sc.line, Err: err}
		}
		if err := appendRow(batch, schema, row, cfg, sc.line); err != nil {
			return nil, err
		}
		batch.Rows++
		if batch.Rows == batchRows {
			batches = append(batches, batch)
			batch = columnar.NewBatch(schema)
		}
	}
	if batch.Rows > 0 {
		batches = append(batches, batch)
	}
	return batches, nil
}

func appendRow(batch *columnar.Batch, schema columnar.Schema, row []string, cfg parserConfig, line int) error {
	if len(row) > len(schema.Fields) {
		return &DecodeError{Line: line, Err: fmt.Errorf("%d fields, header has %d", len(row), len(schema.Fields))}
	}
	if len(row) < len(schema.Fields) && !cfg.truncated {
		return &DecodeError{Line: line, Err: fmt.Errorf("%d fields, header has %d", len(row), len(schema.Fields))}
	}
	for i, field := range schema.Fields {
		col := &batch.Columns[i]
		if i >= len(row) || cfg.isNull(row[i]) {
			col.AppendNull(field.Type)
			continue
		}
		if err := appendCell(col, field.Type, row[i]); err != nil {
			return &DecodeError{Line: line, Column: field.Name, Err: err}
		}
	}
	return nil
}

func appendCell(col *columnar.Column, t columnar.Type, cell string) error {
	switch t {
	case columnar.TypeInt64:
		v, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing %q as int64", cell)
		}
		col.AppendInt(v)
	case columnar.TypeFloat64:
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return fmt.Errorf("parsing %q as float64", cell)
		}
		col.AppendFloat(v)
	case columnar.TypeBool:
		switch strings.ToLower(cell) {
		case "true":
			col.AppendBool(true)
		case "false":
			col.AppendBool(false)
		default:
			return fmt.Errorf("parsing %q as bool", cell)
		}
	case columnar.TypeTimestamp:
		v, err := time.Parse(time.RFC3339, cell)
		if err != nil {
			return fmt.Errorf("parsing %q as timestamp", cell)
		}
		col.AppendTime(v)
	default:
		col.AppendString(cell)
	}
	return nil
}
