// Package domain provides the data model shared across the pipeline.
package domain

import "time"

// Source represents one monitored website. It is owned by the source
// registry and immutable except for refresh metadata, which only the
// scheduler and topic pipeline update.
type Source struct {
	// Slug uniquely identifies the source within the registry.
	Slug string `json:"slug"`
	// Name is the human-readable display name.
	Name string `json:"name"`
	// SeedURLs are the crawl entry points. At least one is required.
	SeedURLs []string `json:"seed_urls"`
	// TopicTags maps topic tags to relevance weights. At least one is required.
	TopicTags map[string]float64 `json:"topic_tags"`
	// MaxNodes bounds the number of nodes visited per discovery run.
	MaxNodes int `json:"max_nodes"`
	// MaxDepth bounds the traversal depth from any seed.
	MaxDepth int `json:"max_depth"`
	// HostRateLimit is the minimum interval between requests to this
	// source's hosts. The fetcher enforces the limit globally per host,
	// so two sources sharing a host share the stricter interval.
	HostRateLimit time.Duration `json:"host_rate_limit"`
	// LastRefreshedAt records when the source last completed a cycle.
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
}

// Tags returns the source's topic tags as a plain list.
func (s *Source) Tags() []string {
	tags := make([]string, 0, len(s.TopicTags))
	for tag := range s.TopicTags {
		tags = append(tags, tag)
	}
	return tags
}
