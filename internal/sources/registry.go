package sources

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/goinsight/internal/domain"
	"github.com/jonesrussell/goinsight/internal/logger"
)

// ErrNotFound is returned when a slug is not in the registry.
var ErrNotFound = errors.New("source not found")

// Registry is the in-memory source catalog. List order is catalog order,
// which the scheduler relies on for reproducible cycles.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	bySlug map[string]*domain.Source
	log    logger.Interface
}

// NewRegistry creates an empty registry.
func NewRegistry(log logger.Interface) *Registry {
	return &Registry{
		bySlug: make(map[string]*domain.Source),
		log:    log.WithComponent("sources"),
	}
}

// Load creates a registry from a catalog file.
func Load(path string, log logger.Interface) (*Registry, error) {
	list, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	r := NewRegistry(log)
	r.replace(list)
	r.log.Info("sources loaded", "path", path, "count", len(list))
	return r, nil
}

// replace swaps the catalog wholesale, preserving refresh metadata for
// slugs that survive the reload.
func (r *Registry) replace(list []*domain.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.bySlug
	r.order = r.order[:0]
	r.bySlug = make(map[string]*domain.Source, len(list))
	for _, s := range list {
		if prev, ok := old[s.Slug]; ok {
			s.LastRefreshedAt = prev.LastRefreshedAt
		}
		r.order = append(r.order, s.Slug)
		r.bySlug[s.Slug] = s
	}
}

// List returns all sources in catalog order. The slice is a copy.
func (r *Registry) List() []*domain.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Source, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.bySlug[slug])
	}
	return out
}

// Get returns the source for a slug.
func (r *Registry) Get(slug string) (*domain.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.bySlug[slug]
	if !ok {
		return nil, fmt.Errorf("%q: %w", slug, ErrNotFound)
	}
	return s, nil
}

// Upsert adds or replaces a source, enforcing the validation invariants.
func (r *Registry) Upsert(s *domain.Source) error {
	if s.Slug == "" {
		return errors.New("upsert source: missing slug")
	}
	if len(s.SeedURLs) == 0 {
		return fmt.Errorf("upsert source %q: %w", s.Slug, ErrNoSeeds)
	}
	if len(s.TopicTags) == 0 {
		return fmt.Errorf("upsert source %q: %w", s.Slug, ErrNoTopics)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySlug[s.Slug]; !exists {
		r.order = append(r.order, s.Slug)
	}
	r.bySlug[s.Slug] = s
	return nil
}

// TouchRefreshed updates the source's refresh timestamp. Only the scheduler
// and topic pipeline call this.
func (r *Registry) TouchRefreshed(slug string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.bySlug[slug]
	if !ok {
		return fmt.Errorf("%q: %w", slug, ErrNotFound)
	}
	ts := t.UTC()
	s.LastRefreshedAt = &ts
	return nil
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
