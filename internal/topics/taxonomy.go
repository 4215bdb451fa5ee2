// Package topics aggregates candidate nodes from all site graphs into
// per-topic document lists, deduplicating across sources by content
// fingerprint.
package topics

import "strings"

// Topic is one entry of the topic taxonomy.
type Topic struct {
	// ID is the stable topic identifier.
	ID string `mapstructure:"id"`
	// Tags are matched against source topic tags.
	Tags []string `mapstructure:"tags"`
	// Keywords are matched against page text signals. Keyword matches are
	// advisory: they can place a document in topics its source was not
	// configured for.
	Keywords []string `mapstructure:"keywords"`
}

// DefaultTaxonomy is the built-in topic set, overridable in configuration.
func DefaultTaxonomy() []Topic {
	return []Topic{
		{
			ID:       "ai",
			Tags:     []string{"ai", "technology"},
			Keywords: []string{"artificial intelligence", "machine learning", "deep learning", "generative ai", "genai", "llm", "neural"},
		},
		{
			ID:       "cloud",
			Tags:     []string{"cloud", "technology"},
			Keywords: []string{"cloud", "saas", "paas", "iaas", "multicloud"},
		},
		{
			ID:       "cybersecurity",
			Tags:     []string{"cybersecurity", "security"},
			Keywords: []string{"cyber", "security", "threat", "breach", "ransomware", "zero trust"},
		},
		{
			ID:       "data",
			Tags:     []string{"data", "analytics"},
			Keywords: []string{"data analytics", "big data", "data science", "business intelligence"},
		},
		{
			ID:       "digital-transformation",
			Tags:     []string{"digital", "strategy"},
			Keywords: []string{"digital transformation", "digitalization", "digital strategy"},
		},
		{
			ID:       "automation",
			Tags:     []string{"automation"},
			Keywords: []string{"automation", "rpa", "robotic process", "hyperautomation"},
		},
		{
			ID:       "esg",
			Tags:     []string{"esg", "sustainability"},
			Keywords: []string{"esg", "sustainability", "climate", "carbon", "net zero"},
		},
		{
			ID:       "blockchain",
			Tags:     []string{"blockchain", "web3"},
			Keywords: []string{"blockchain", "crypto", "web3", "defi", "distributed ledger"},
		},
		{
			ID:       "quantum",
			Tags:     []string{"quantum"},
			Keywords: []string{"quantum", "qubit"},
		},
		{
			ID:       "connectivity",
			Tags:     []string{"telecom", "iot"},
			Keywords: []string{"5g", "6g", "wireless", "telecom", "internet of things", "edge computing"},
		},
	}
}

// tagMatch reports whether any source tag intersects the topic's tag set.
func (t *Topic) tagMatch(sourceTags map[string]float64) bool {
	for _, tag := range t.Tags {
		if _, ok := sourceTags[strings.ToLower(tag)]; ok {
			return true
		}
	}
	return false
}

// keywordMatch reports whether any topic keyword appears in the text.
// Text is expected lowercased.
func (t *Topic) keywordMatch(text string) bool {
	if text == "" {
		return false
	}
	for _, kw := range t.Keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
