package query

import (
	"bytes"
	"fmt"

	"github.com/txn2/opfs-adapter/pkg/columnar"
)

// Result is a collected query result: the output schema plus its row
// batches.
type Result struct {
	Schema  columnar.Schema
	Batches []*columnar.Batch
}

// Rows returns the total row count across batches.
func (r *Result) Rows() int {
	n := 0
	for _, b := range r.Batches {
		n += b.Rows
	}
	return n
}

// EncodeResult serializes a result into the columnar streaming container,
// the same encoding ingestion persists, so the two paths round-trip across
// the system boundary.
func EncodeResult(res *Result) ([]byte, error) {
	var buf bytes.Buffer
	w, err := columnar.NewWriter(&buf, res.Schema)
	if err != nil {
		return nil, fmt.Errorf("query: encoding result: %w", err)
	}
	for _, b := range res.Batches {
		if err := w.Write(b); err != nil {
			return nil, fmt.Errorf("query: encoding result batch: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("query: closing result container: %w", err)
	}
	return buf.Bytes(), nil
}
