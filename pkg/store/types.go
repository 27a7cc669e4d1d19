// Package store defines the storage-backend contract consumed by the query
// engine: object metadata, byte-range semantics, the Store interface, and a
// scheme registry for resolving logical paths to backends.
package store

import (
	"strings"
	"time"
)

// Path is a slash-separated logical object location, namespaced under a URL
// scheme, e.g. "opfs:///trips.columnar". A valid path resolves to exactly
// one handle name inside a backend's flat data root.
type Path string

// Scheme returns the path's URL scheme, or "" when none is present.
func (p Path) Scheme() string {
	s := string(p)
	i := strings.Index(s, "://")
	if i < 0 {
		return ""
	}
	return s[:i]
}

// Base returns the final path element with the scheme prefix and any
// directory prefix removed.
func (p Path) Base() string {
	s := string(p)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.Trim(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// ObjectMeta describes one stored object. It is constructed per request and
// discarded once the caller consumes it; there is no caching layer.
type ObjectMeta struct {
	// Location is the logical path the object was resolved from.
	Location Path `json:"location"`

	// LastModified is the underlying file's modification time.
	LastModified time.Time `json:"last_modified"`

	// Size is the object's length in bytes.
	Size int64 `json:"size"`

	// ETag is a weak identity marker derived from the underlying file's
	// reported name, not a content hash. Nil when the backend did not
	// derive one (directory listings).
	ETag *string `json:"e_tag,omitempty"`

	// Version is unused by flat sandbox backends.
	Version *string `json:"version,omitempty"`
}
