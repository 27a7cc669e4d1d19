// Package platform composes the adapter: one explicitly constructed object
// owns the bridge loop, the sandboxed file system, the registered storage
// backend, the ingestion pipeline and the query engine. There is no ambient
// global state; callers construct a Platform once at startup and pass it
// around.
package platform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/txn2/opfs-adapter/pkg/bridge"
	"github.com/txn2/opfs-adapter/pkg/columnar"
	"github.com/txn2/opfs-adapter/pkg/ingest"
	"github.com/txn2/opfs-adapter/pkg/opfs"
	"github.com/txn2/opfs-adapter/pkg/query"
	"github.com/txn2/opfs-adapter/pkg/store"
	"github.com/txn2/opfs-adapter/pkg/store/opfsstore"
)

// Options configures a Platform. Zero values select platform defaults.
type Options struct {
	// FileSystem backs the data root. Defaults to the platform file
	// system: OPFS in a browser, in-memory elsewhere.
	FileSystem opfs.FileSystem

	// Engine is the external query engine. Defaults to a no-op engine.
	Engine query.Engine

	// Logger receives debug/error logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// Platform is the composition root, constructed once per process.
type Platform struct {
	loop     *bridge.Loop
	fs       opfs.FileSystem
	store    *opfsstore.Store
	registry *store.Registry
	pipeline *ingest.Pipeline
	engine   query.Engine
	log      *slog.Logger
}

// New wires the adapter together and registers the storage backend with the
// engine under the opfs scheme.
func New(opts Options) (*Platform, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	fs := opts.FileSystem
	if fs == nil {
		fs = opfs.Default()
	}
	engine := opts.Engine
	if engine == nil {
		engine = query.NewNoopEngine()
	}

	loop := bridge.NewLoop(log)
	st := opfsstore.New(loop, fs, log)

	registry := store.NewRegistry()
	if err := registry.Register(opfsstore.Scheme, st); err != nil {
		loop.Close()
		return nil, fmt.Errorf("platform: %w", err)
	}
	if err := engine.RegisterStore(opfsstore.Scheme, st); err != nil {
		loop.Close()
		return nil, fmt.Errorf("platform: registering store with engine: %w", err)
	}

	return &Platform{
		loop:     loop,
		fs:       fs,
		store:    st,
		registry: registry,
		pipeline: ingest.NewPipeline(st, log),
		engine:   engine,
		log:      log,
	}, nil
}

// Store returns the registered storage backend.
func (p *Platform) Store() *opfsstore.Store { return p.store }

// Registry returns the scheme registry.
func (p *Platform) Registry() *store.Registry { return p.registry }

// HasTable reports whether the engine knows a table name.
func (p *Platform) HasTable(ctx context.Context, table string) (bool, error) {
	return p.engine.TableExists(ctx, table)
}

// LoadCSV registers a data-root file with the engine as a queryable table.
// Registering a name the engine already knows is a no-op.
func (p *Platform) LoadCSV(ctx context.Context, fileName, table string) error {
	exists, err := p.engine.TableExists(ctx, table)
	if err != nil {
		return fmt.Errorf("platform: checking table %q: %w", table, err)
	}
	if exists {
		return nil
	}
	location := store.Path(opfsstore.Scheme + ":///" + fileName)
	if err := p.engine.RegisterTable(ctx, table, location); err != nil {
		return fmt.Errorf("platform: registering table %q: %w", table, err)
	}
	p.log.Debug("platform: table registered", "table", table, "location", string(location))
	return nil
}

// IngestCSV converts raw delimited text into the typed columnar container
// and persists it under "<contentKey>.columnar". An empty content key
// derives one from the content.
func (p *Platform) IngestCSV(ctx context.Context, raw []byte, contentKey string, cfg ingest.Config) (columnar.Schema, error) {
	if contentKey == "" {
		contentKey = ingest.ContentKey(raw)
	}
	jobID := uuid.NewString()
	p.log.Debug("platform: ingest started", "job_id", jobID, "content_key", contentKey, "size", len(raw))
	schema, err := p.pipeline.Ingest(ctx, raw, contentKey, cfg)
	if err != nil {
		p.log.Error("platform: ingest failed", "job_id", jobID, "error", err)
		return columnar.Schema{}, err
	}
	p.log.Debug("platform: ingest finished", "job_id", jobID, "columns", len(schema.Fields))
	return schema, nil
}

// RunSQL executes a statement through the engine and serializes the result
// into the columnar streaming container.
func (p *Platform) RunSQL(ctx context.Context, sql string) ([]byte, error) {
	res, err := p.engine.Execute(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("platform: executing query: %w", err)
	}
	return query.EncodeResult(res)
}

// Close stops the bridge loop and releases the engine.
func (p *Platform) Close() error {
	err := p.engine.Close()
	if cerr := p.loop.Close(); err == nil {
		err = cerr
	}
	return err
}
