package query

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/txn2/opfs-adapter/pkg/store"
)

// ErrTableRegistered is returned when registering a table name twice.
var ErrTableRegistered = errors.New("table already registered")

// NoopEngine is an engine stand-in for tests and for wiring the adapter
// without a real planner: it tracks registrations and returns empty
// results.
type NoopEngine struct {
	mu     sync.RWMutex
	stores map[string]store.Store
	tables map[string]store.Path
}

// NewNoopEngine creates an empty no-op engine.
func NewNoopEngine() *NoopEngine {
	return &NoopEngine{
		stores: make(map[string]store.Store),
		tables: make(map[string]store.Path),
	}
}

// RegisterStore records the scheme binding.
func (e *NoopEngine) RegisterStore(scheme string, s store.Store) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stores[scheme] = s
	return nil
}

// RegisterTable records the table binding.
func (e *NoopEngine) RegisterTable(_ context.Context, table string, location store.Path) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.tables[table]; ok {
		return fmt.Errorf("%q: %w", table, ErrTableRegistered)
	}
	e.tables[table] = location
	return nil
}

// TableExists reports whether the table was registered.
func (e *NoopEngine) TableExists(_ context.Context, table string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	_, ok := e.tables[table]
	return ok, nil
}

// Execute returns an empty result.
func (e *NoopEngine) Execute(_ context.Context, _ string) (*Result, error) {
	return &Result{}, nil
}

// Close is a no-op.
func (e *NoopEngine) Close() error {
	return nil
}

// Verify interface compliance.
var _ Engine = (*NoopEngine)(nil)
