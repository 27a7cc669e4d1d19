// Package main provides a local smoke entry point for the adapter: it
// ingests a delimited-text file into an in-memory data root and lists the
// resulting objects. In a browser the adapter is driven through the host
// binding layer instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/txn2/opfs-adapter/internal/version"
	"github.com/txn2/opfs-adapter/pkg/ingest"
	"github.com/txn2/opfs-adapter/pkg/opfs"
	"github.com/txn2/opfs-adapter/pkg/platform"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	csvPath     string
	contentKey  string
	logLevel    string
	showVersion bool
}

func parseFlags() options {
	opts := options{}
	flag.StringVar(&opts.configPath, "config", "", "Path to a YAML parse configuration file")
	flag.StringVar(&opts.csvPath, "csv", "", "Path to a delimited-text file to ingest")
	flag.StringVar(&opts.contentKey, "key", "", "Content key for the ingested object (derived when empty)")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flag.Parse()
	return opts
}

func loadConfig(path string) (ingest.Config, error) {
	cfg := ingest.Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func setupLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func run() error {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("opfs-adapter version %s\n", version.Version)
		return nil
	}
	if opts.csvPath == "" {
		return fmt.Errorf("a -csv file is required")
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	log := setupLogger(opts.logLevel)
	p, err := platform.New(platform.Options{
		FileSystem: opfs.NewMemoryFS(),
		Logger:     log,
	})
	if err != nil {
		return err
	}
	defer p.Close()

	raw, err := os.ReadFile(opts.csvPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	ctx := context.Background()
	schema, err := p.IngestCSV(ctx, raw, opts.contentKey, cfg)
	if err != nil {
		return err
	}
	for _, f := range schema.Fields {
		fmt.Printf("column %s: %s\n", f.Name, f.Type)
	}

	for meta, err := range p.Store().List(ctx, "") {
		if err != nil {
			return err
		}
		fmt.Printf("object %s: %d bytes\n", meta.Location, meta.Size)
	}
	return nil
}
