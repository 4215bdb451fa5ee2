package topics_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goinsight/internal/discovery"
	"github.com/jonesrussell/goinsight/internal/domain"
	"github.com/jonesrussell/goinsight/internal/logger"
	"github.com/jonesrussell/goinsight/internal/topics"
)

// memStore is an in-memory topics.Store for pipeline tests.
type memStore struct {
	documents  map[string]*domain.Document
	aggregates map[string]*domain.TopicAggregate
}

func newMemStore() *memStore {
	return &memStore{
		documents:  make(map[string]*domain.Document),
		aggregates: make(map[string]*domain.TopicAggregate),
	}
}

func (m *memStore) Document(fingerprint string) (*domain.Document, error) {
	doc, ok := m.documents[fingerprint]
	if !ok {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (m *memStore) SaveDocument(doc *domain.Document) error {
	copied := *doc
	m.documents[doc.Fingerprint] = &copied
	return nil
}

func (m *memStore) TopicAggregate(topicID string) (*domain.TopicAggregate, error) {
	agg, ok := m.aggregates[topicID]
	if !ok {
		return nil, nil
	}
	copied := *agg
	return &copied, nil
}

func (m *memStore) SaveTopicAggregate(agg *domain.TopicAggregate) error {
	copied := *agg
	m.aggregates[agg.TopicID] = &copied
	return nil
}

func cloudSource(slug string) *domain.Source {
	return &domain.Source{
		Slug:      slug,
		Name:      slug,
		SeedURLs:  []string{"https://" + slug + ".example.com/insights"},
		TopicTags: map[string]float64{"cloud": 1},
	}
}

func candidate(slug, host, title, hash string) discovery.Candidate {
	return discovery.Candidate{
		SourceSlug:  slug,
		URL:         "https://" + host + "/insights/doc",
		Host:        host,
		Title:       title,
		ContentHash: hash,
		Score:       0.8,
		TextSample:  "",
	}
}

func TestIngest_AddsNewDocumentWithTagTopics(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	p := topics.New(store, nil, logger.NewNoop())

	result, err := p.Ingest(context.Background(), cloudSource("acme"),
		[]discovery.Candidate{candidate("acme", "acme.example.com", "Cloud Cost Report", "h1")})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Added)
	assert.Zero(t, result.Updated)
	assert.Zero(t, result.Duplicates)

	fp := topics.Fingerprint("Cloud Cost Report", "acme.example.com")
	doc, err := store.Document(fp)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, []string{"acme"}, doc.SourceSlugs)
	assert.Contains(t, doc.Topics, "cloud", "source tag intersection assigns topics")

	agg, err := store.TopicAggregate("cloud")
	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.Equal(t, []string{fp}, agg.Fingerprints)
}

func TestIngest_ReingestingIdenticalCandidatesIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	p := topics.New(store, nil, logger.NewNoop())
	src := cloudSource("acme")
	cands := []discovery.Candidate{candidate("acme", "acme.example.com", "Cloud Cost Report", "h1")}

	_, err := p.Ingest(context.Background(), src, cands)
	require.NoError(t, err)

	second, err := p.Ingest(context.Background(), src, cands)
	require.NoError(t, err)
	assert.Zero(t, second.Added)
	assert.Zero(t, second.Updated)
	assert.Equal(t, 1, second.Duplicates)

	agg, err := store.TopicAggregate("cloud")
	require.NoError(t, err)
	assert.Len(t, agg.Fingerprints, 1, "aggregates never hold duplicate fingerprints")
}

func TestIngest_CrossSourceDuplicateMergesSources(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	p := topics.New(store, nil, logger.NewNoop())

	// The same syndicated page on one host, observed by two sources.
	_, err := p.Ingest(context.Background(), cloudSource("acme"),
		[]discovery.Candidate{candidate("acme", "hub.example.com", "Shared Industry Report", "h1")})
	require.NoError(t, err)

	result, err := p.Ingest(context.Background(), cloudSource("globex"),
		[]discovery.Candidate{candidate("globex", "hub.example.com", "Shared Industry Report", "h1")})
	require.NoError(t, err)

	assert.Zero(t, result.Added, "the second observation creates no new document")
	assert.Equal(t, 1, result.Duplicates)

	fp := topics.Fingerprint("Shared Industry Report", "hub.example.com")
	doc, err := store.Document(fp)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.ElementsMatch(t, []string{"acme", "globex"}, doc.SourceSlugs)
}

func TestIngest_DifferentHostsKeepSeparateDocuments(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	p := topics.New(store, nil, logger.NewNoop())

	_, err := p.Ingest(context.Background(), cloudSource("acme"),
		[]discovery.Candidate{candidate("acme", "acme.example.com", "Annual Report", "h1")})
	require.NoError(t, err)

	result, err := p.Ingest(context.Background(), cloudSource("globex"),
		[]discovery.Candidate{candidate("globex", "globex.example.org", "Annual Report", "h2")})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Added, "same title on another host is another document")
}

func TestIngest_ContentChangeCountsAsUpdate(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	p := topics.New(store, nil, logger.NewNoop())
	src := cloudSource("acme")

	_, err := p.Ingest(context.Background(), src,
		[]discovery.Candidate{candidate("acme", "acme.example.com", "Cloud Cost Report", "h1")})
	require.NoError(t, err)

	result, err := p.Ingest(context.Background(), src,
		[]discovery.Candidate{candidate("acme", "acme.example.com", "Cloud Cost Report", "h2")})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	assert.Zero(t, result.Added)

	fp := topics.Fingerprint("Cloud Cost Report", "acme.example.com")
	doc, err := store.Document(fp)
	require.NoError(t, err)
	assert.Equal(t, "h2", doc.ContentHash)
}

func TestIngest_KeywordMatchAddsTopicsBeyondSourceTags(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	p := topics.New(store, nil, logger.NewNoop())

	cand := candidate("acme", "acme.example.com", "Threat Landscape Briefing", "h1")
	cand.TextSample = "ransomware incidents and zero trust adoption keep rising"

	_, err := p.Ingest(context.Background(), cloudSource("acme"),
		[]discovery.Candidate{cand})
	require.NoError(t, err)

	fp := topics.Fingerprint("Threat Landscape Briefing", "acme.example.com")
	doc, err := store.Document(fp)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Contains(t, doc.Topics, "cybersecurity",
		"keyword hits place documents in topics beyond the source's tags")
	assert.Contains(t, doc.Topics, "cloud")
}

func TestIngest_AggregateOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	p := topics.New(store, nil, logger.NewNoop())
	src := cloudSource("acme")

	_, err := p.Ingest(context.Background(), src, []discovery.Candidate{
		candidate("acme", "acme.example.com", "Older Report", "h1"),
	})
	require.NoError(t, err)
	_, err = p.Ingest(context.Background(), src, []discovery.Candidate{
		candidate("acme", "acme.example.com", "Newer Report", "h2"),
	})
	require.NoError(t, err)

	agg, err := store.TopicAggregate("cloud")
	require.NoError(t, err)
	require.Len(t, agg.Fingerprints, 2)
	assert.Equal(t, topics.Fingerprint("Newer Report", "acme.example.com"),
		agg.Fingerprints[0], "the most recent document leads the aggregate")
}
