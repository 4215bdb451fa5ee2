package sources_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goinsight/internal/sources"
)

const validCatalog = `
sources:
  - slug: acme
    name: Acme Consulting
    seed_urls:
      - https://acme.example.com/insights
      - https://acme.example.com/reports
    topic_tags:
      technology: 1.0
      cloud: 0.8
    max_nodes: 200
    max_depth: 3
    host_rate_limit: 5s
  - slug: globex
    seed_urls:
      - https://globex.example.org/research
    topic_tags:
      esg: 1.0
`

func TestParse_ValidCatalog(t *testing.T) {
	t.Parallel()

	list, err := sources.Parse([]byte(validCatalog))
	require.NoError(t, err)
	require.Len(t, list, 2)

	acme := list[0]
	assert.Equal(t, "acme", acme.Slug)
	assert.Equal(t, "Acme Consulting", acme.Name)
	assert.Len(t, acme.SeedURLs, 2)
	assert.Equal(t, 200, acme.MaxNodes)
	assert.Equal(t, 5*time.Second, acme.HostRateLimit)

	globex := list[1]
	assert.Equal(t, "globex", globex.Name, "name defaults to the slug")
	assert.Zero(t, globex.HostRateLimit)
}

func TestParse_EmptyCatalogFails(t *testing.T) {
	t.Parallel()

	_, err := sources.Parse([]byte("sources: []"))
	assert.ErrorIs(t, err, sources.ErrNoSources)
}

func TestParse_SourceWithoutSeedsFails(t *testing.T) {
	t.Parallel()

	catalog := `
sources:
  - slug: acme
    topic_tags:
      technology: 1.0
`
	_, err := sources.Parse([]byte(catalog))
	assert.ErrorIs(t, err, sources.ErrNoSeeds)
}

func TestParse_SourceWithoutTopicsFails(t *testing.T) {
	t.Parallel()

	catalog := `
sources:
  - slug: acme
    seed_urls:
      - https://acme.example.com/insights
`
	_, err := sources.Parse([]byte(catalog))
	assert.ErrorIs(t, err, sources.ErrNoTopics)
}

func TestParse_DuplicateSlugFails(t *testing.T) {
	t.Parallel()

	catalog := `
sources:
  - slug: acme
    seed_urls: [https://a.example.com/x]
    topic_tags: {technology: 1.0}
  - slug: acme
    seed_urls: [https://b.example.com/y]
    topic_tags: {cloud: 1.0}
`
	_, err := sources.Parse([]byte(catalog))
	assert.ErrorIs(t, err, sources.ErrDuplicateSlug)
}

func TestParse_InvalidSeedURLFails(t *testing.T) {
	t.Parallel()

	catalog := `
sources:
  - slug: acme
    seed_urls: [not-a-url]
    topic_tags: {technology: 1.0}
`
	_, err := sources.Parse([]byte(catalog))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid seed url")
}

func TestParse_InvalidRateLimitFails(t *testing.T) {
	t.Parallel()

	catalog := `
sources:
  - slug: acme
    seed_urls: [https://a.example.com/x]
    topic_tags: {technology: 1.0}
    host_rate_limit: soon
`
	_, err := sources.Parse([]byte(catalog))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host_rate_limit")
}
