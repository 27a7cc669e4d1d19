package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/txn2/opfs-adapter/pkg/columnar"
)

// inferenceRows is the fixed sample bound for schema inference. Bounding
// the sample keeps inference O(1) in file size; the first rows standing in
// for the whole file is an accepted trade-off.
const inferenceRows = 100

// inferSchema derives a column schema from the header row and a bounded
// sample of data rows. Null cells carry no type information; conflicting
// cell types widen per the lattice in widen.
func inferSchema(header []string, sample [][]string, cfg parserConfig) columnar.Schema {
	types := make([]columnar.Type, len(header))
	for _, row := range sample {
		for i := range header {
			if i >= len(row) {
				continue
			}
			if cfg.isNull(row[i]) {
				continue
			}
			types[i] = widen(types[i], cellType(row[i]))
		}
	}

	fields := make([]columnar.Field, len(header))
	for i, name := range header {
		t := types[i]
		if t == 0 {
			// Column was all null in the sample.
			t = columnar.TypeString
		}
		fields[i] = columnar.Field{Name: name, Type: t}
	}
	return columnar.Schema{Fields: fields}
}

// cellType returns the narrowest logical type that parses the cell.
func cellType(cell string) columnar.Type {
	if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return columnar.TypeInt64
	}
	if _, err := strconv.ParseFloat(cell, 64); err == nil {
		return columnar.TypeFloat64
	}
	switch strings.ToLower(cell) {
	case "true", "false":
		return columnar.TypeBool
	}
	if _, err := time.Parse(time.RFC3339, cell); err == nil {
		return columnar.TypeTimestamp
	}
	return columnar.TypeString
}

// widen merges an observed cell type into a column's running type. Zero
// means nothing observed yet. Int64 widens to Float64; any other conflict
// widens to String.
func widen(current, observed columnar.Type) columnar.Type {
	switch {
	case current == 0:
		return observed
	case current == observed:
		return current
	case current == columnar.TypeInt64 && observed == columnar.TypeFloat64,
		current == columnar.TypeFloat64 && observed == columnar.TypeInt64:
		return columnar.TypeFloat64
	default:
		return columnar.TypeString
	}
}
