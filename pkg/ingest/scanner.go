package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// scanner splits delimited text into records, honoring the configured
// delimiter, quote, escape and comment characters. The standard library's
// encoding/csv fixes the quote character, so this is hand-rolled.
type scanner struct {
	r    *bufio.Reader
	cfg  parserConfig
	line int
}

func newScanner(data []byte, cfg parserConfig) *scanner {
	return &scanner{r: bufio.NewReader(bytes.NewReader(data)), cfg: cfg}
}

// next returns the fields of the next record, skipping blank and comment
// lines. It returns io.EOF once the input is exhausted. Quoted fields may
// span lines.
func (s *scanner) next() ([]string, error) {
	if err := s.skipIgnorable(); err != nil {
		return nil, err
	}

	var (
		fields   []string
		field    []byte
		inQuotes bool
	)
	for {
		b, err := s.r.ReadByte()
		if err == io.EOF {
			if inQuotes {
				return nil, fmt.Errorf("line %d: unterminated quoted field", s.line+1)
			}
			s.line++
			return append(fields, string(field)), nil
		}
		if err != nil {
			return nil, err
		}

		if inQuotes {
			switch {
			case s.cfg.escape != 0 && b == s.cfg.escape:
				nb, err := s.r.ReadByte()
				if err != nil {
					return nil, fmt.Errorf("line %d: dangling escape", s.line+1)
				}
				field = append(field, nb)
			case b == s.cfg.quote:
				nb, err := s.r.ReadByte()
				if err == nil && nb == s.cfg.quote && s.cfg.escape == 0 {
					// Doubled quote inside a quoted field.
					field = append(field, b)
					continue
				}
				if err == nil {
					_ = s.r.UnreadByte()
				}
				inQuotes = false
			default:
				if b == '\n' {
					s.line++
				}
				field = append(field, b)
			}
			continue
		}

		switch {
		case b == s.cfg.delimiter:
			fields = append(fields, string(field))
			field = field[:0]
		case b == '\n':
			field = bytes.TrimSuffix(field, []byte{'\r'})
			s.line++
			return append(fields, string(field)), nil
		case s.cfg.quote != 0 && b == s.cfg.quote && len(field) == 0:
			inQuotes = true
		default:
			field = append(field, b)
		}
	}
}

// skipIgnorable consumes blank lines and, when a comment character is
// configured, comment lines.
func (s *scanner) skipIgnorable() error {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		switch {
		case b == '\n':
			s.line++
		case b == '\r':
			// swallowed with the newline that follows
		case s.cfg.comment != 0 && b == s.cfg.comment:
			if err := s.skipLine(); err != nil {
				return err
			}
		default:
			return s.r.UnreadByte()
		}
	}
}

func (s *scanner) skipLine() error {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		if b == '\n' {
			s.line++
			return nil
		}
	}
}
