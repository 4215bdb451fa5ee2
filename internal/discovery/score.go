package discovery

import (
	"net/url"
	"strings"
)

// Scoring weights. The individual signals are heuristic; the weights are
// chosen so that a listing of repeated dated card links under a report-like
// path clears the default threshold while an unstructured paragraph of
// links stays well below it.
const (
	pathTokenWeight     = 0.35
	cardPatternWeight   = 0.3
	dateTokenWeight     = 0.2
	linkStructureWeight = 0.15
	documentURLWeight   = 0.25

	cardSaturation = 5
	dateSaturation = 3

	minMeaningfulLinkText = 15.0
	maxMeaningfulLinkText = 120.0
)

// defaultPathTokens are path segments suggesting insight/report sections.
// Configurable; these defaults mirror the common publisher conventions.
var defaultPathTokens = []string{
	"insight", "insights", "publication", "publications",
	"report", "reports", "research", "whitepaper", "whitepapers",
	"white-paper", "white-papers", "studies", "analysis",
	"thought-leadership", "perspective", "perspectives",
	"article", "articles",
}

// defaultDocumentExtensions identify downloadable document URLs.
var defaultDocumentExtensions = []string{".pdf", ".doc", ".docx", ".ppt", ".pptx"}

// defaultScoreThreshold is the acceptance threshold for candidate nodes.
const defaultScoreThreshold = 0.55

// ScoreConfig tunes classification. Threshold and token lists are
// configuration, not constants baked into the algorithm.
type ScoreConfig struct {
	// Threshold is the minimum score for a node to become a candidate.
	Threshold float64 `mapstructure:"score_threshold"`
	// PathTokens are report-like URL path segments.
	PathTokens []string `mapstructure:"path_tokens"`
	// DocumentExtensions mark downloadable document URLs.
	DocumentExtensions []string `mapstructure:"document_extensions"`
}

// WithDefaults fills zero-value fields.
func (c ScoreConfig) WithDefaults() ScoreConfig {
	if c.Threshold <= 0 {
		c.Threshold = defaultScoreThreshold
	}
	if len(c.PathTokens) == 0 {
		c.PathTokens = defaultPathTokens
	}
	if len(c.DocumentExtensions) == 0 {
		c.DocumentExtensions = defaultDocumentExtensions
	}
	return c
}

// Score combines the structural signals of a page into a [0,1] likelihood
// that it is an insight document or a listing of them.
func Score(pageURL string, sig *Signals, cfg ScoreConfig) float64 {
	score := 0.0

	if pathHasToken(pageURL, cfg.PathTokens) {
		score += pathTokenWeight
	}
	if isDocumentURL(pageURL, cfg.DocumentExtensions) {
		score += documentURLWeight
	}
	if sig != nil {
		score += cardPatternWeight * saturate(sig.CardCount, cardSaturation)
		score += dateTokenWeight * saturate(sig.DateTokenCount, dateSaturation)
		if sig.LinkCount > 0 &&
			sig.AvgLinkTextLen >= minMeaningfulLinkText &&
			sig.AvgLinkTextLen <= maxMeaningfulLinkText {
			score += linkStructureWeight
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}

// pathHasToken reports whether any path segment matches a configured token.
func pathHasToken(rawURL string, tokens []string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, seg := range strings.Split(strings.ToLower(parsed.Path), "/") {
		if seg == "" {
			continue
		}
		// Segments like "insights.html" still count.
		seg = strings.TrimSuffix(seg, ".html")
		for _, token := range tokens {
			if seg == token {
				return true
			}
		}
	}
	return false
}

// isDocumentURL reports whether the URL path ends in a document extension.
func isDocumentURL(rawURL string, extensions []string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	lowerPath := strings.ToLower(parsed.Path)
	for _, ext := range extensions {
		if strings.HasSuffix(lowerPath, ext) {
			return true
		}
	}
	return false
}

func saturate(count, limit int) float64 {
	if count <= 0 {
		return 0
	}
	if count >= limit {
		return 1
	}
	return float64(count) / float64(limit)
}
