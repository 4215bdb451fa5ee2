// Package discovery expands a source's site graph breadth-first and scores
// pages as candidate insight documents using structural signals, with no
// per-site selector configuration.
package discovery

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Caps applied during signal extraction.
const (
	maxLinkTextLen   = 120
	maxTextSampleLen = 4000
	minCardGroupSize = 3
)

// dateTokenPattern matches date-like tokens: bare years, numeric dates, and
// month names.
var dateTokenPattern = regexp.MustCompile(
	`(?i)\b(20\d{2}|\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}|` +
		`jan(uary)?|feb(ruary)?|mar(ch)?|apr(il)?|may|jun(e)?|` +
		`jul(y)?|aug(ust)?|sep(tember)?|oct(ober)?|nov(ember)?|dec(ember)?)\b`)

// skipHrefPrefixes are link targets that never navigate to a page.
var skipHrefPrefixes = []string{"#", "javascript:", "mailto:", "tel:"}

// Link is one outbound hyperlink with its anchor text.
type Link struct {
	URL  string
	Text string
}

// Signals are the structural features extracted from one page. They feed
// classification scoring and, downstream, topic keyword matching.
type Signals struct {
	// Title is the page <title>, trimmed.
	Title string
	// Links are the resolved outbound links in document order.
	Links []Link
	// CardCount is the size of the largest group of repeated sibling
	// elements with similar link structure (a listing "card" pattern).
	CardCount int
	// LinkCount is the number of navigable links on the page.
	LinkCount int
	// AvgLinkTextLen is the mean anchor text length over non-empty anchors.
	AvgLinkTextLen float64
	// DateTokenCount counts links with a date-like token in or next to them.
	DateTokenCount int
	// DocumentLinkCount counts links to downloadable documents.
	DocumentLinkCount int
	// TextSample is lowercased page text, capped, for keyword matching.
	TextSample string
}

// SignalExtractor turns a fetched page into classification signals. Sources
// with unusual markup can plug a custom extractor; the goquery default
// covers everything else.
type SignalExtractor interface {
	Extract(pageURL string, body []byte) (*Signals, error)
}

// DefaultExtractor is the generic structural extractor.
type DefaultExtractor struct {
	documentExtensions []string
}

// NewDefaultExtractor creates the default extractor. documentExtensions
// identify downloadable document links (".pdf", ".docx", ...).
func NewDefaultExtractor(documentExtensions []string) *DefaultExtractor {
	return &DefaultExtractor{documentExtensions: documentExtensions}
}

// Extract parses the page and computes structural signals.
func (e *DefaultExtractor) Extract(pageURL string, body []byte) (*Signals, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	sig := &Signals{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	e.collectLinks(doc, base, sig)
	sig.CardCount = largestCardGroup(doc)
	sig.TextSample = sampleText(doc)

	return sig, nil
}

// collectLinks resolves anchors and accumulates link-level signals.
func (e *DefaultExtractor) collectLinks(doc *goquery.Document, base *url.URL, sig *Signals) {
	totalTextLen := 0
	nonEmpty := 0

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || hasSkipPrefix(href) {
			return
		}

		ref, parseErr := url.Parse(href)
		if parseErr != nil {
			return
		}
		resolved := base.ResolveReference(ref).String()

		text := strings.Join(strings.Fields(a.Text()), " ")
		if len(text) > maxLinkTextLen {
			text = text[:maxLinkTextLen]
		}

		sig.Links = append(sig.Links, Link{URL: resolved, Text: text})
		sig.LinkCount++
		if text != "" {
			totalTextLen += len(text)
			nonEmpty++
		}

		if e.isDocumentLink(resolved) {
			sig.DocumentLinkCount++
		}
		if hasDateToken(a) {
			sig.DateTokenCount++
		}
	})

	if nonEmpty > 0 {
		sig.AvgLinkTextLen = float64(totalTextLen) / float64(nonEmpty)
	}
}

// isDocumentLink reports whether the URL path ends in a document extension.
func (e *DefaultExtractor) isDocumentLink(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	lowerPath := strings.ToLower(parsed.Path)
	for _, ext := range e.documentExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			return true
		}
	}
	return false
}

// hasDateToken checks the anchor text and its immediate parent for a
// date-like token.
func hasDateToken(a *goquery.Selection) bool {
	if dateTokenPattern.MatchString(a.Text()) {
		return true
	}
	parent := a.Parent()
	if parent.Length() == 0 {
		return false
	}
	return dateTokenPattern.MatchString(parent.Text())
}

// largestCardGroup finds the biggest set of sibling elements sharing tag and
// class where each sibling contains a link. Listing pages repeat such
// "cards" for every document; prose pages do not.
func largestCardGroup(doc *goquery.Document) int {
	largest := 0

	doc.Find("ul, ol, div, section, main, article").Each(func(_ int, container *goquery.Selection) {
		groups := make(map[string]int)
		container.Children().Each(func(_ int, child *goquery.Selection) {
			if child.Find("a[href]").Length() == 0 {
				return
			}
			key := goquery.NodeName(child) + "|" + child.AttrOr("class", "")
			groups[key]++
		})
		for _, count := range groups {
			if count >= minCardGroupSize && count > largest {
				largest = count
			}
		}
	})

	return largest
}

// sampleText returns lowercased, whitespace-collapsed page text capped at
// maxTextSampleLen bytes.
func sampleText(doc *goquery.Document) string {
	text := strings.ToLower(strings.Join(strings.Fields(doc.Text()), " "))
	if len(text) > maxTextSampleLen {
		text = text[:maxTextSampleLen]
	}
	return text
}

func hasSkipPrefix(href string) bool {
	lower := strings.ToLower(href)
	for _, prefix := range skipHrefPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
