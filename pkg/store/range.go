package store

import "fmt"

// GetRange selects a byte window of an object. A range is resolved against
// the object's actual length before any read occurs; resolution is the only
// place an out-of-bounds request is validated, and the policy below is the
// contract partial reads rely on.
type GetRange interface {
	isRange()
}

// Bounded requests bytes [Start, End). An End past the object is clamped;
// a Start at or past the object fails with StartTooLargeError; an End that
// precedes Start fails with InvalidRangeError.
type Bounded struct {
	Start int64
	End   int64
}

// Offset requests bytes [Start, length). A Start at or past the object
// fails with StartTooLargeError.
type Offset struct {
	Start int64
}

// Suffix requests the final Length bytes. Never errors: a Length of at
// least the object's size resolves to the whole object.
type Suffix struct {
	Length int64
}

func (Bounded) isRange() {}
func (Offset) isRange()  {}
func (Suffix) isRange()  {}

// Span is a resolved byte window, always within [0, length].
type Span struct {
	Start int64
	End   int64
}

// Len returns the window's size in bytes.
func (s Span) Len() int64 { return s.End - s.Start }

// ResolveRange applies the range policy to an object of the given length.
// A nil range resolves to the whole object.
func ResolveRange(r GetRange, length int64) (Span, error) {
	switch r := r.(type) {
	case nil:
		return Span{Start: 0, End: length}, nil
	case Bounded:
		if r.Start < 0 || r.End < r.Start {
			return Span{}, &InvalidRangeError{Start: r.Start, End: r.End}
		}
		if r.Start >= length {
			return Span{}, &StartTooLargeError{Requested: r.Start, Length: length}
		}
		if r.End > length {
			return Span{Start: r.Start, End: length}, nil
		}
		return Span{Start: r.Start, End: r.End}, nil
	case Offset:
		if r.Start < 0 {
			return Span{}, &InvalidRangeError{Start: r.Start, End: r.Start}
		}
		if r.Start >= length {
			return Span{}, &StartTooLargeError{Requested: r.Start, Length: length}
		}
		return Span{Start: r.Start, End: length}, nil
	case Suffix:
		n := r.Length
		if n < 0 {
			n = 0
		}
		start := length - n
		if start < 0 {
			start = 0
		}
		return Span{Start: start, End: length}, nil
	default:
		return Span{}, fmt.Errorf("unknown range type %T", r)
	}
}
