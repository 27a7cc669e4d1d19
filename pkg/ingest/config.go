// Package ingest converts raw delimited-text bytes into the typed columnar
// container and persists the result into the sandboxed data root.
package ingest

import (
	"fmt"
	"regexp"
)

// maxNullRegexLen bounds the null-matching pattern; longer patterns disable
// null matching rather than failing.
const maxNullRegexLen = 32

// Config is the JSON-shaped parse configuration supplied by callers. Every
// single-character field falls back to a sane default when the supplied
// value is not exactly one character; an absent field disables that feature
// rather than erroring.
type Config struct {
	// Delimiter separates fields. Defaults to comma.
	Delimiter string `json:"delimiter" yaml:"delimiter"`

	// Quote encloses fields that contain the delimiter or newlines.
	// Defaults to a double quote.
	Quote string `json:"quote" yaml:"quote"`

	// Comment marks lines to skip. Disabled when absent.
	Comment string `json:"comment" yaml:"comment"`

	// Escape, inside a quoted field, makes the next character literal.
	// Disabled when absent; doubled quotes then escape a quote.
	Escape string `json:"escape" yaml:"escape"`

	// NullRegex matches cell values to treat as null. Compiled only when
	// non-empty and at most 32 characters.
	NullRegex string `json:"null_regex" yaml:"null_regex"`

	// Truncated allows rows with fewer fields than the header; missing
	// cells decode as null.
	Truncated bool `json:"truncated" yaml:"truncated"`
}

// parserConfig is the resolved form of Config. A zero byte disables the
// corresponding feature.
type parserConfig struct {
	delimiter byte
	quote     byte
	comment   byte
	escape    byte
	nullRE    *regexp.Regexp
	truncated bool
}

func (c Config) parser() (parserConfig, error) {
	p := parserConfig{delimiter: ',', quote: '"', truncated: c.Truncated}
	if len(c.Delimiter) == 1 {
		p.delimiter = c.Delimiter[0]
	}
	if len(c.Quote) == 1 {
		p.quote = c.Quote[0]
	}
	if len(c.Comment) == 1 {
		p.comment = c.Comment[0]
	}
	if len(c.Escape) == 1 {
		p.escape = c.Escape[0]
	}
	if n := len(c.NullRegex); n > 0 && n <= maxNullRegexLen {
		re, err := regexp.Compile(c.NullRegex)
		if err != nil {
			return parserConfig{}, fmt.Errorf("ingest: compiling null regex: %w", err)
		}
		p.nullRE = re
	}
	return p, nil
}

// isNull reports whether a raw cell decodes to null: empty cells always do,
// and any cell matching the configured null pattern.
func (p parserConfig) isNull(cell string) bool {
	if cell == "" {
		return true
	}
	return p.nullRE != nil && p.nullRE.MatchString(cell)
}
