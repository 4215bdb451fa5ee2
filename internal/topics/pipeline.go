package topics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/goinsight/internal/discovery"
	"github.com/jonesrussell/goinsight/internal/domain"
	"github.com/jonesrussell/goinsight/internal/logger"
)

// Store is the persistence contract the pipeline writes through. A nil
// document (with nil error) means the fingerprint is unknown.
type Store interface {
	Document(fingerprint string) (*domain.Document, error)
	SaveDocument(doc *domain.Document) error
	TopicAggregate(topicID string) (*domain.TopicAggregate, error)
	SaveTopicAggregate(agg *domain.TopicAggregate) error
}

// IngestResult counts one ingest call's outcomes.
type IngestResult struct {
	// Added counts newly created documents.
	Added int
	// Updated counts documents whose content hash or topic set changed.
	Updated int
	// Duplicates counts re-observations that changed nothing material:
	// identical content, or a syndicated copy from another source.
	Duplicates int
}

// Pipeline owns the topic aggregates. Ingest is atomic per document: the
// mutex serializes read-fingerprint/update-or-insert so two concurrent
// ingests can never create duplicate documents for one fingerprint.
type Pipeline struct {
	mu       sync.Mutex
	store    Store
	taxonomy []Topic
	log      logger.Interface
}

// New creates a pipeline over the given store and taxonomy. An empty
// taxonomy falls back to the defaults.
func New(store Store, taxonomy []Topic, log logger.Interface) *Pipeline {
	if len(taxonomy) == 0 {
		taxonomy = DefaultTaxonomy()
	}
	return &Pipeline{
		store:    store,
		taxonomy: taxonomy,
		log:      log.WithComponent("topics"),
	}
}

// Taxonomy returns the active topic set.
func (p *Pipeline) Taxonomy() []Topic {
	return p.taxonomy
}

// Ingest maps one source's candidate nodes onto documents and topic
// aggregates. Re-ingesting an identical candidate set yields zero Added and
// zero Updated. Documents are never deleted here, whatever happens to the
// source.
func (p *Pipeline) Ingest(ctx context.Context, source *domain.Source, candidates []discovery.Candidate) (*IngestResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := &IngestResult{}
	now := time.Now().UTC()

	for i := range candidates {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if err := p.ingestOne(source, &candidates[i], now, result); err != nil {
			return result, err
		}
	}

	p.log.Info("ingest complete",
		"source", source.Slug,
		"candidates", len(candidates),
		"added", result.Added,
		"updated", result.Updated,
		"duplicates", result.Duplicates,
	)
	return result, nil
}

// ingestOne applies the update-or-insert transaction for one candidate.
func (p *Pipeline) ingestOne(source *domain.Source, cand *discovery.Candidate, now time.Time, result *IngestResult) error {
	fingerprint := Fingerprint(cand.Title, cand.Host)
	matched := p.matchTopics(source, cand)

	doc, err := p.store.Document(fingerprint)
	if err != nil {
		return fmt.Errorf("load document %s: %w", fingerprint, err)
	}

	if doc == nil {
		doc = &domain.Document{
			Fingerprint: fingerprint,
			URL:         cand.URL,
			Title:       cand.Title,
			SourceSlugs: []string{source.Slug},
			Topics:      matched,
			ContentHash: cand.ContentHash,
			FirstSeenAt: now,
			LastSeenAt:  now,
		}
		if saveErr := p.persist(doc, matched); saveErr != nil {
			return saveErr
		}
		result.Added++
		return nil
	}

	updated := false
	syndicated := false

	if !doc.HasSource(source.Slug) {
		doc.SourceSlugs = append(doc.SourceSlugs, source.Slug)
		syndicated = true
	}

	var newTopics []string
	for _, topicID := range matched {
		if !doc.HasTopic(topicID) {
			doc.Topics = append(doc.Topics, topicID)
			newTopics = append(newTopics, topicID)
			updated = true
		}
	}

	if cand.ContentHash != "" && cand.ContentHash != doc.ContentHash {
		doc.ContentHash = cand.ContentHash
		updated = true
	}

	if !updated && !syndicated {
		result.Duplicates++
		return nil
	}

	doc.LastSeenAt = now
	if saveErr := p.persist(doc, newTopics); saveErr != nil {
		return saveErr
	}
	if updated {
		result.Updated++
	} else {
		result.Duplicates++
	}
	return nil
}

// persist saves the document and registers it in the given topics'
// aggregates, most recent first.
func (p *Pipeline) persist(doc *domain.Document, topicIDs []string) error {
	if err := p.store.SaveDocument(doc); err != nil {
		return fmt.Errorf("save document %s: %w", doc.Fingerprint, err)
	}

	for _, topicID := range topicIDs {
		agg, err := p.store.TopicAggregate(topicID)
		if err != nil {
			return fmt.Errorf("load topic %s: %w", topicID, err)
		}
		if agg == nil {
			agg = &domain.TopicAggregate{TopicID: topicID}
		}
		agg.Prepend(doc.Fingerprint)
		if saveErr := p.store.SaveTopicAggregate(agg); saveErr != nil {
			return fmt.Errorf("save topic %s: %w", topicID, saveErr)
		}
	}
	return nil
}

// matchTopics resolves the candidate's topic set: source tag intersection
// plus advisory keyword hits on the page's text signals. Keyword hits can
// add topics beyond the source's configured tags.
func (p *Pipeline) matchTopics(source *domain.Source, cand *discovery.Candidate) []string {
	var matched []string
	for i := range p.taxonomy {
		topic := &p.taxonomy[i]
		if topic.tagMatch(source.TopicTags) || topic.keywordMatch(cand.TextSample) {
			matched = append(matched, topic.ID)
		}
	}
	return matched
}
