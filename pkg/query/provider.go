// Package query defines the contract with the external SQL engine. The
// planner and executor live outside this module; the adapter hands the
// engine a registered storage backend and table names, and receives row
// batches and a schema back.
package query

import (
	"context"

	"github.com/txn2/opfs-adapter/pkg/store"
)

// Engine is the external query engine. Implementations are collaborators,
// not part of this module.
type Engine interface {
	// RegisterStore makes a storage backend resolvable under a URL scheme
	// so the engine can read "scheme:///name" references.
	RegisterStore(scheme string, s store.Store) error

	// RegisterTable binds a table name to an object location. Registering
	// an existing name is an error.
	RegisterTable(ctx context.Context, table string, location store.Path) error

	// TableExists reports whether a table name is registered.
	TableExists(ctx context.Context, table string) (bool, error)

	// Execute runs a SQL statement and collects the result.
	Execute(ctx context.Context, sql string) (*Result, error)

	// Close releases engine resources.
	Close() error
}
