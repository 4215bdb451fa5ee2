// Package sources provides the source registry: the catalog of monitored
// websites, loaded from a YAML file and queried by the scheduler and route
// discovery. It is a pure metadata store with no network or graph logic.
package sources

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/goinsight/internal/domain"
)

var (
	// ErrNoSources indicates the catalog file declared no sources.
	ErrNoSources = errors.New("no sources found in configuration")
	// ErrNoSeeds indicates a source with an empty seed URL list.
	ErrNoSeeds = errors.New("source has no seed urls")
	// ErrNoTopics indicates a source with an empty topic tag set.
	ErrNoTopics = errors.New("source has no topic tags")
	// ErrDuplicateSlug indicates two sources sharing a slug.
	ErrDuplicateSlug = errors.New("duplicate source slug")
)

// fileConfig is the raw YAML shape of the catalog file.
type fileConfig struct {
	Sources []map[string]any `yaml:"sources"`
}

// sourceConfig is one source entry as declared in the catalog.
type sourceConfig struct {
	Slug          string             `mapstructure:"slug"`
	Name          string             `mapstructure:"name"`
	SeedURLs      []string           `mapstructure:"seed_urls"`
	TopicTags     map[string]float64 `mapstructure:"topic_tags"`
	MaxNodes      int                `mapstructure:"max_nodes"`
	MaxDepth      int                `mapstructure:"max_depth"`
	HostRateLimit string             `mapstructure:"host_rate_limit"`
}

// LoadFile reads and validates the source catalog. Malformed sources are
// fatal: a catalog that cannot be trusted should stop the process at
// startup rather than produce a partial registry.
func LoadFile(path string) ([]*domain.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog bytes.
func Parse(data []byte) ([]*domain.Source, error) {
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, ErrNoSources
	}

	seen := make(map[string]bool, len(file.Sources))
	out := make([]*domain.Source, 0, len(file.Sources))

	for i, raw := range file.Sources {
		var cfg sourceConfig
		if err := mapstructure.Decode(raw, &cfg); err != nil {
			return nil, fmt.Errorf("decode source %d: %w", i, err)
		}

		source, err := cfg.toDomain()
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", cfg.Slug, err)
		}
		if seen[source.Slug] {
			return nil, fmt.Errorf("source %q: %w", source.Slug, ErrDuplicateSlug)
		}
		seen[source.Slug] = true
		out = append(out, source)
	}

	return out, nil
}

// toDomain validates the entry and converts it to the domain model.
func (c *sourceConfig) toDomain() (*domain.Source, error) {
	if c.Slug == "" {
		return nil, errors.New("missing slug")
	}
	if len(c.SeedURLs) == 0 {
		return nil, ErrNoSeeds
	}
	if len(c.TopicTags) == 0 {
		return nil, ErrNoTopics
	}
	for _, seed := range c.SeedURLs {
		parsed, err := url.Parse(seed)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("invalid seed url %q", seed)
		}
	}

	var rateLimit time.Duration
	if c.HostRateLimit != "" {
		parsed, err := time.ParseDuration(c.HostRateLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid host_rate_limit %q: %w", c.HostRateLimit, err)
		}
		rateLimit = parsed
	}

	name := c.Name
	if name == "" {
		name = c.Slug
	}

	return &domain.Source{
		Slug:          c.Slug,
		Name:          name,
		SeedURLs:      append([]string(nil), c.SeedURLs...),
		TopicTags:     c.TopicTags,
		MaxNodes:      c.MaxNodes,
		MaxDepth:      c.MaxDepth,
		HostRateLimit: rateLimit,
	}, nil
}
