package discovery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goinsight/internal/discovery"
	"github.com/jonesrussell/goinsight/testutils"
)

func defaultScoreConfig() discovery.ScoreConfig {
	return discovery.ScoreConfig{}.WithDefaults()
}

func listingFixture() string {
	return testutils.InsightListingPage("Insights | Acme", []testutils.CardItem{
		{Href: "/insights/cyber-risk-outlook", Title: "Cyber Risk Outlook for the Enterprise", Date: "March 2026"},
		{Href: "/insights/cloud-cost-report", Title: "Cloud Cost Optimization Report", Date: "February 2026"},
		{Href: "/insights/data-platform-study", Title: "Modern Data Platform Study", Date: "January 2026"},
		{Href: "/insights/ai-adoption-survey", Title: "Enterprise AI Adoption Survey", Date: "December 2025"},
		{Href: "/insights/supply-chain-analysis", Title: "Supply Chain Resilience Analysis", Date: "November 2025"},
	})
}

func TestScore_DatedCardListingClearsThreshold(t *testing.T) {
	t.Parallel()

	cfg := defaultScoreConfig()
	extractor := discovery.NewDefaultExtractor(cfg.DocumentExtensions)

	sig, err := extractor.Extract("https://example.com/insights", []byte(listingFixture()))
	require.NoError(t, err)

	require.GreaterOrEqual(t, sig.CardCount, 5)
	require.GreaterOrEqual(t, sig.DateTokenCount, 3)

	score := discovery.Score("https://example.com/insights", sig, cfg)
	assert.GreaterOrEqual(t, score, cfg.Threshold,
		"a dated card listing under an insight path is a candidate")
}

func TestScore_LinkSoupStaysBelowThreshold(t *testing.T) {
	t.Parallel()

	cfg := defaultScoreConfig()
	extractor := discovery.NewDefaultExtractor(cfg.DocumentExtensions)

	hrefs := make([]string, 12)
	for i := range hrefs {
		hrefs[i] = "/section"
	}
	page := testutils.LinkSoupPage("Sitemap", hrefs)

	sig, err := extractor.Extract("https://example.com/sitemap", []byte(page))
	require.NoError(t, err)

	score := discovery.Score("https://example.com/sitemap", sig, cfg)
	assert.Less(t, score, cfg.Threshold,
		"undated short-text navigation links are not candidates")
}

func TestScore_DocumentURLScoresWithoutSignals(t *testing.T) {
	t.Parallel()

	cfg := defaultScoreConfig()

	score := discovery.Score(
		"https://example.com/whitepapers/annual-report.pdf", nil, cfg)
	assert.GreaterOrEqual(t, score, cfg.Threshold,
		"a document under a report-like path needs no fetched signals")

	score = discovery.Score("https://example.com/downloads/form.pdf", nil, cfg)
	assert.Less(t, score, cfg.Threshold,
		"a document outside report-like paths stays below threshold alone")
}

func TestScore_PathTokenMatchesWholeSegmentsOnly(t *testing.T) {
	t.Parallel()

	cfg := defaultScoreConfig()

	withToken := discovery.Score("https://example.com/research/latest", nil, cfg)
	withoutToken := discovery.Score("https://example.com/researchers/jane", nil, cfg)
	assert.Greater(t, withToken, withoutToken,
		"token matching is per segment, not substring")

	htmlSegment := discovery.Score("https://example.com/insights.html", nil, cfg)
	assert.Greater(t, htmlSegment, 0.0, "an .html suffix does not hide the token")
}

func TestExtract_ResolvesRelativeLinksAndCountsDocuments(t *testing.T) {
	t.Parallel()

	cfg := defaultScoreConfig()
	extractor := discovery.NewDefaultExtractor(cfg.DocumentExtensions)

	page := `<html><head><title>Downloads</title></head><body>
		<a href="/files/summary.PDF">Quarterly summary document</a>
		<a href="relative/page">A relative page somewhere</a>
		<a href="#top">top</a>
		<a href="mailto:team@example.com">mail</a>
	</body></html>`

	sig, err := extractor.Extract("https://example.com/library/", []byte(page))
	require.NoError(t, err)

	assert.Equal(t, "Downloads", sig.Title)
	assert.Equal(t, 2, sig.LinkCount, "fragment and mailto links are skipped")
	assert.Equal(t, 1, sig.DocumentLinkCount, "extension match is case-insensitive")
	require.Len(t, sig.Links, 2)
	assert.Equal(t, "https://example.com/files/summary.PDF", sig.Links[0].URL)
	assert.Equal(t, "https://example.com/library/relative/page", sig.Links[1].URL)
}
