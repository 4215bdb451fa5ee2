// Package common wires the dependencies shared by the CLI subcommands:
// configuration, logging, storage, and the assembled refresh pipeline.
package common

import (
	"fmt"

	"github.com/jonesrussell/goinsight/internal/config"
	"github.com/jonesrussell/goinsight/internal/discovery"
	"github.com/jonesrussell/goinsight/internal/fetch"
	"github.com/jonesrussell/goinsight/internal/logger"
	"github.com/jonesrussell/goinsight/internal/scheduler"
	"github.com/jonesrussell/goinsight/internal/sources"
	"github.com/jonesrussell/goinsight/internal/store"
	"github.com/jonesrussell/goinsight/internal/topics"
)

// Flag values bound by the root command.
var (
	// ConfigFile is the --config flag value.
	ConfigFile string
	// Debug is the --debug flag value.
	Debug bool
)

// Deps bundles the base dependencies every subcommand needs.
type Deps struct {
	Config *config.Config
	Logger logger.Interface
}

// NewCommandDeps loads configuration and builds the logger.
func NewCommandDeps() (*Deps, error) {
	cfg, err := config.Load(ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if Debug {
		cfg.Logger.Level = "debug"
	}
	if cfg.App.Environment == "development" {
		cfg.Logger.Development = true
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &Deps{Config: cfg, Logger: log}, nil
}

// OpenStore opens the embedded document store at the configured path.
func (d *Deps) OpenStore() (*store.Store, error) {
	st, err := store.Open(d.Config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// LoadRegistry loads the source catalog from the configured file.
func (d *Deps) LoadRegistry() (*sources.Registry, error) {
	registry, err := sources.Load(d.Config.App.SourcesFile, d.Logger)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	return registry, nil
}

// Pipeline is the fully assembled refresh pipeline.
type Pipeline struct {
	Registry  *sources.Registry
	Store     *store.Store
	Scheduler *scheduler.Scheduler
}

// Close releases pipeline resources.
func (p *Pipeline) Close() error {
	return p.Store.Close()
}

// BuildPipeline assembles the store, registry, fetcher, discoverer, topic
// pipeline, and scheduler from configuration.
func (d *Deps) BuildPipeline() (*Pipeline, error) {
	registry, err := d.LoadRegistry()
	if err != nil {
		return nil, err
	}

	st, err := d.OpenStore()
	if err != nil {
		return nil, err
	}

	fetcher := fetch.New(nil, d.Config.Fetch, d.Logger)
	discoverer := discovery.New(fetcher, d.Config.Discovery, d.Logger)
	pipeline := topics.New(st, d.Config.Topics, d.Logger)
	sched := scheduler.New(registry, discoverer, pipeline, st, d.Config.Scheduler, d.Logger)

	return &Pipeline{
		Registry:  registry,
		Store:     st,
		Scheduler: sched,
	}, nil
}
