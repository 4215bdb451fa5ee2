package domain

import "time"

// Document is a discovered insight document, deduplicated across sources by
// content fingerprint. Documents are never deleted automatically: a source
// disappearing does not retroactively remove its history.
type Document struct {
	// Fingerprint is the content-derived identity (hash of normalized
	// title + host) used for cross-source deduplication.
	Fingerprint string `json:"fingerprint"`
	// URL is the normalized URL the document was first observed at.
	URL string `json:"url"`
	// Title is the best-effort document title.
	Title string `json:"title"`
	// SourceSlugs lists every source that contributed this document.
	// Syndicated copies add to this set instead of creating new documents.
	SourceSlugs []string `json:"source_slugs"`
	// Topics lists the matched topic ids. The set only grows within an
	// ingest cycle, never shrinks.
	Topics []string `json:"topics"`
	// ContentHash is the hash of the page body at last observation.
	ContentHash string `json:"content_hash,omitempty"`
	// FirstSeenAt and LastSeenAt bound the observation window.
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// HasSource reports whether slug already contributed this document.
func (d *Document) HasSource(slug string) bool {
	for _, s := range d.SourceSlugs {
		if s == slug {
			return true
		}
	}
	return false
}

// HasTopic reports whether the document is already matched to topicID.
func (d *Document) HasTopic(topicID string) bool {
	for _, t := range d.Topics {
		if t == topicID {
			return true
		}
	}
	return false
}

// TopicAggregate holds one topic's documents, most recently refreshed first.
// Order is refresh-time order, not publication-date order.
type TopicAggregate struct {
	TopicID      string   `json:"topic_id"`
	Fingerprints []string `json:"fingerprints"`
}

// Contains reports whether the aggregate already lists the fingerprint.
func (a *TopicAggregate) Contains(fingerprint string) bool {
	for _, fp := range a.Fingerprints {
		if fp == fingerprint {
			return true
		}
	}
	return false
}

// Prepend inserts a fingerprint at the front if not already present.
func (a *TopicAggregate) Prepend(fingerprint string) {
	if a.Contains(fingerprint) {
		return
	}
	a.Fingerprints = append([]string{fingerprint}, a.Fingerprints...)
}
