// Package columnar implements the typed, schema-tagged container used for
// ingested data and for query-result payloads. A container is a framed
// stream: a fixed magic and version, a CBOR-encoded schema header, then
// zero or more zstd-compressed CBOR batch frames.
package columnar

import (
	"fmt"
	"time"
)

// Type is a column's logical type.
type Type uint8

// Logical types, ordered by inference widening.
const (
	TypeInt64 Type = iota + 1
	TypeFloat64
	TypeBool
	TypeTimestamp
	TypeString
)

// String names the type for logs and schema descriptions.
func (t Type) String() string {
	switch t {
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	case TypeString:
		return "string"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Field is one named, typed column.
type Field struct {
	Name string `cbor:"name" json:"name"`
	Type Type   `cbor:"type" json:"type"`
}

// Schema is an ordered sequence of fields, inferred once and then fixed for
// the lifetime of the derived object.
type Schema struct {
	Fields []Field `cbor:"fields" json:"fields"`
}

// Column holds one field's values for a batch: a validity mask plus exactly
// one populated typed vector, selected by the field's type. Invalid (null)
// positions hold the type's zero value in the vector.
type Column struct {
	Valid   []bool    `cbor:"valid"`
	Ints    []int64   `cbor:"ints,omitempty"`
	Floats  []float64 `cbor:"floats,omitempty"`
	Bools   []bool    `cbor:"bools,omitempty"`
	Times   []int64   `cbor:"times,omitempty"` // epoch microseconds, UTC
	Strings []string  `cbor:"strings,omitempty"`
}

// Batch is a horizontal slice of rows across every schema field.
type Batch struct {
	Rows    int      `cbor:"rows"`
	Columns []Column `cbor:"columns"`
}

// NewBatch allocates an empty batch shaped for the schema.
func NewBatch(schema Schema) *Batch {
	return &Batch{Columns: make([]Column, len(schema.Fields))}
}

// AppendNull records a null cell for a column of type t.
func (c *Column) AppendNull(t Type) {
	c.Valid = append(c.Valid, false)
	switch t {
	case TypeInt64:
		c.Ints = append(c.Ints, 0)
	case TypeFloat64:
		c.Floats = append(c.Floats, 0)
	case TypeBool:
		c.Bools = append(c.Bools, false)
	case TypeTimestamp:
		c.Times = append(c.Times, 0)
	default:
		c.Strings = append(c.Strings, "")
	}
}

// AppendInt records an int64 cell.
func (c *Column) AppendInt(v int64) {
	c.Valid = append(c.Valid, true)
	c.Ints = append(c.Ints, v)
}

// AppendFloat records a float64 cell.
func (c *Column) AppendFloat(v float64) {
	c.Valid = append(c.Valid, true)
	c.Floats = append(c.Floats, v)
}

// AppendBool records a bool cell.
func (c *Column) AppendBool(v bool) {
	c.Valid = append(c.Valid, true)
	c.Bools = append(c.Bools, v)
}

// AppendTime records a timestamp cell at microsecond precision.
func (c *Column) AppendTime(v time.Time) {
	c.Valid = append(c.Valid, true)
	c.Times = append(c.Times, v.UnixMicro())
}

// AppendString records a string cell.
func (c *Column) AppendString(v string) {
	c.Valid = append(c.Valid, true)
	c.Strings = append(c.Strings, v)
}
