package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jonesrussell/goinsight/internal/domain"
	"github.com/jonesrussell/goinsight/internal/fetch"
	"github.com/jonesrussell/goinsight/internal/logger"
	"github.com/jonesrussell/goinsight/internal/sitegraph"
)

// Defaults for traversal bounds.
const (
	defaultMaxNodes     = 100
	defaultMaxDepth     = 3
	defaultMaxPageLinks = 50
	defaultGraphTTL     = time.Hour
)

// nonContentSegments are path segments that indicate pages never worth
// expanding: account, utility, and navigation chrome.
var nonContentSegments = map[string]bool{
	"login":    true,
	"signin":   true,
	"signup":   true,
	"register": true,
	"search":   true,
	"contact":  true,
	"privacy":  true,
	"terms":    true,
	"cookies":  true,
	"account":  true,
	"cart":     true,
	"checkout": true,
	"admin":    true,
	"wp-admin": true,
	"feed":     true,
	"rss":      true,
}

// assetExtensions are resources that are never insight pages.
var assetExtensions = []string{
	".css", ".js", ".png", ".jpg", ".jpeg", ".gif", ".svg",
	".ico", ".woff", ".woff2", ".zip", ".mp3", ".mp4", ".xml", ".json",
}

// Fetcher is the fetch capability route discovery depends on.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts fetch.Options) (*fetch.Result, error)
}

// Config tunes discovery behavior shared across sources.
type Config struct {
	Score ScoreConfig `mapstructure:",squash"`
	// GraphTTL bounds how long a cached fetch result satisfies a cycle
	// before the node is refetched.
	GraphTTL time.Duration `mapstructure:"graph_ttl"`
	// MaxPageLinks caps outbound links extracted per page.
	MaxPageLinks int `mapstructure:"max_page_links"`
}

// WithDefaults fills zero-value fields.
func (c Config) WithDefaults() Config {
	c.Score = c.Score.WithDefaults()
	if c.GraphTTL <= 0 {
		c.GraphTTL = defaultGraphTTL
	}
	if c.MaxPageLinks <= 0 {
		c.MaxPageLinks = defaultMaxPageLinks
	}
	return c
}

// Candidate is a node that cleared the acceptance threshold, carrying the
// signals the topic pipeline needs.
type Candidate struct {
	SourceSlug  string
	URL         string
	Host        string
	Title       string
	ContentHash string
	Score       float64
	// TextSample feeds advisory topic keyword matching.
	TextSample string
}

// Result summarizes one discovery run over a source.
type Result struct {
	NodesVisited int
	Candidates   []Candidate
	// Failed is set when every seed URL was unreachable after retries; the
	// source is then excluded from this cycle's ingest.
	Failed       bool
	ErrorSummary string
}

// Discoverer expands site graphs and classifies nodes. One Run mutates one
// graph; the scheduler guarantees a single run per source slug at a time.
type Discoverer struct {
	fetcher    Fetcher
	extractor  SignalExtractor
	overrides  map[string]SignalExtractor
	cfg        Config
	log        logger.Interface
}

// New creates a discoverer with the default signal extractor.
func New(fetcher Fetcher, cfg Config, log logger.Interface) *Discoverer {
	cfg = cfg.WithDefaults()
	return &Discoverer{
		fetcher:   fetcher,
		extractor: NewDefaultExtractor(cfg.Score.DocumentExtensions),
		overrides: make(map[string]SignalExtractor),
		cfg:       cfg,
		log:       log.WithComponent("discovery"),
	}
}

// SetExtractor registers a per-source signal extractor override.
func (d *Discoverer) SetExtractor(sourceSlug string, extractor SignalExtractor) {
	d.overrides[sourceSlug] = extractor
}

// extractorFor returns the source's extractor, defaulting to the generic one.
func (d *Discoverer) extractorFor(slug string) SignalExtractor {
	if ex, ok := d.overrides[slug]; ok {
		return ex
	}
	return d.extractor
}

// Run expands the source's graph breadth-first from its seeds, bounded by
// the source's node and depth budgets. Traversal is FIFO by discovery order
// and deterministic given a fixed graph snapshot and budget. Fetch failures
// mark nodes failed without aborting sibling branches.
func (d *Discoverer) Run(ctx context.Context, source *domain.Source, graph *sitegraph.Graph) *Result {
	log := d.log.WithSource(source.Slug)
	result := &Result{}

	maxNodes := source.MaxNodes
	if maxNodes <= 0 {
		maxNodes = defaultMaxNodes
	}
	maxDepth := source.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	run := &runState{
		source:     source,
		graph:      graph,
		log:        log,
		result:     result,
		maxNodes:   maxNodes,
		maxDepth:   maxDepth,
		visited:    make(map[string]bool),
		seeds:      make(map[string]bool),
		seedsAlive: make(map[string]bool),
	}

	if err := run.enqueueSeeds(); err != nil {
		result.Failed = true
		result.ErrorSummary = err.Error()
		return result
	}
	run.enqueuePendingFrontier()

	for len(run.queue) > 0 && result.NodesVisited < maxNodes {
		if ctx.Err() != nil {
			log.Warn("discovery cancelled, persisting partial graph",
				"visited", result.NodesVisited)
			break
		}
		d.visit(ctx, run, run.pop())
	}

	run.finish()
	log.Info("discovery complete",
		"visited", result.NodesVisited,
		"graph_nodes", graph.Len(),
		"candidates", len(result.Candidates),
		"failed", result.Failed,
	)
	return result
}

// runState carries one traversal's bookkeeping.
type runState struct {
	source   *domain.Source
	graph    *sitegraph.Graph
	log      logger.Interface
	result   *Result
	maxNodes int
	maxDepth int

	queue       []string
	visited     map[string]bool
	seeds       map[string]bool
	seedsAlive  map[string]bool
	lastSeedErr string
}

// markSeedAlive records a reachable seed, once per seed URL.
func (r *runState) markSeedAlive(u string) {
	if r.seeds[u] {
		r.seedsAlive[u] = true
	}
}

func (r *runState) pop() string {
	u := r.queue[0]
	r.queue = r.queue[1:]
	return u
}

func (r *runState) push(u string) {
	r.queue = append(r.queue, u)
}

// enqueueSeeds upserts and queues the source's seed URLs at depth zero.
func (r *runState) enqueueSeeds() error {
	if len(r.source.SeedURLs) == 0 {
		return errors.New("source has no seed urls")
	}
	for _, seed := range r.source.SeedURLs {
		node, err := r.graph.Seed(seed)
		if err != nil {
			r.log.Warn("invalid seed url", "url", seed, "error", err)
			continue
		}
		r.seeds[node.URL] = true
		r.push(node.URL)
	}
	if len(r.seeds) == 0 {
		return errors.New("no valid seed urls")
	}
	return nil
}

// enqueuePendingFrontier resumes expansion from nodes a previous cycle
// discovered but never visited, in their original discovery order.
func (r *runState) enqueuePendingFrontier() {
	for _, node := range r.graph.Nodes() {
		if node.Status == domain.NodeStatusPending && !r.seeds[node.URL] {
			r.push(node.URL)
		}
	}
}

// finish computes the all-seeds-unreachable outcome.
func (r *runState) finish() {
	if len(r.seedsAlive) == 0 {
		r.result.Failed = true
		summary := "all seed urls unreachable"
		if r.lastSeedErr != "" {
			summary = fmt.Sprintf("%s: %s", summary, r.lastSeedErr)
		}
		r.result.ErrorSummary = summary
		r.result.Candidates = nil
	}
}

// visit processes one frontier URL: fetch (or reuse cache), classify, and
// expand its links.
func (d *Discoverer) visit(ctx context.Context, run *runState, rawURL string) {
	if run.visited[rawURL] {
		return
	}
	run.visited[rawURL] = true

	node, ok := run.graph.Node(rawURL)
	if !ok || node.Depth > run.maxDepth {
		return
	}

	// Fresh cached fetch: reuse the stored classification and the recorded
	// edges instead of refetching.
	if node.Fetched() && !run.graph.IsStale(node.URL, d.cfg.GraphTTL) {
		d.reuseCached(run, node)
		return
	}

	result, err := d.fetcher.Fetch(ctx, node.URL, fetch.Options{
		ETag:         node.ETag,
		LastModified: node.LastModified,
		HostInterval: run.source.HostRateLimit,
	})
	run.result.NodesVisited++

	if err != nil {
		d.recordFailure(run, node.URL, err)
		return
	}

	run.markSeedAlive(node.URL)

	unchanged := result.NotModified ||
		(node.ContentHash != "" && result.ContentHash == node.ContentHash)
	if unchanged {
		markErr := run.graph.MarkFetched(node.URL, result.StatusCode, node.ContentHash,
			result.Header.Get("ETag"), result.Header.Get("Last-Modified"))
		if markErr != nil {
			run.log.Warn("mark fetched failed", "url", node.URL, "error", markErr)
		}
		d.reuseCached(run, node)
		return
	}

	markErr := run.graph.MarkFetched(node.URL, result.StatusCode, result.ContentHash,
		result.Header.Get("ETag"), result.Header.Get("Last-Modified"))
	if markErr != nil {
		run.log.Warn("mark fetched failed", "url", node.URL, "error", markErr)
		return
	}
	if result.Truncated {
		run.log.Warn("response truncated at byte ceiling", "url", node.URL)
	}

	d.classifyAndExpand(run, node.URL, result)
}

// reuseCached emits the cached candidate (if any) and expands the node's
// recorded neighbors without a refetch.
func (d *Discoverer) reuseCached(run *runState, node *domain.GraphNode) {
	if node.Candidate {
		run.result.Candidates = append(run.result.Candidates, Candidate{
			SourceSlug:  run.source.Slug,
			URL:         node.URL,
			Host:        mustHost(node.URL),
			Title:       node.Title,
			ContentHash: node.ContentHash,
			Score:       node.Score,
			TextSample:  strings.ToLower(node.Title),
		})
	}
	run.markSeedAlive(node.URL)
	for _, next := range run.graph.Neighbors(node.URL) {
		if nextNode, ok := run.graph.Node(next); ok &&
			nextNode.Status == domain.NodeStatusPending && !run.visited[next] {
			run.push(next)
		}
	}
}

// recordFailure marks the node failed with the typed error kind.
func (d *Discoverer) recordFailure(run *runState, nodeURL string, err error) {
	kind := domain.ErrorKindTransient
	status := 0
	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		kind = fetchErr.Kind
		status = fetchErr.StatusCode
	}
	if markErr := run.graph.MarkFailed(nodeURL, status, kind); markErr != nil {
		run.log.Warn("mark failed failed", "url", nodeURL, "error", markErr)
	}
	if run.seeds[nodeURL] {
		run.lastSeedErr = err.Error()
	}
	run.log.Debug("fetch failed", "url", nodeURL, "kind", kind, "error", err)
}

// classifyAndExpand scores the fetched page and walks its outbound links.
func (d *Discoverer) classifyAndExpand(run *runState, pageURL string, result *fetch.Result) {
	signals, err := d.extractorFor(run.source.Slug).Extract(pageURL, result.Body)
	if err != nil {
		run.log.Warn("signal extraction failed", "url", pageURL, "error", err)
		return
	}

	score := Score(pageURL, signals, d.cfg.Score)
	candidate := score >= d.cfg.Score.Threshold
	if setErr := run.graph.SetClassification(pageURL, score, candidate, signals.Title); setErr != nil {
		run.log.Warn("set classification failed", "url", pageURL, "error", setErr)
	}

	if candidate {
		run.result.Candidates = append(run.result.Candidates, Candidate{
			SourceSlug:  run.source.Slug,
			URL:         pageURL,
			Host:        mustHost(pageURL),
			Title:       signals.Title,
			ContentHash: result.ContentHash,
			Score:       score,
			TextSample:  signals.TextSample,
		})
	}

	d.expandLinks(run, pageURL, signals)
}

// expandLinks records each outbound link as an edge. Same-site content
// links join the frontier; cross-domain and non-content links are recorded
// but never expanded. Downloadable documents become candidates directly,
// without a fetch.
func (d *Discoverer) expandLinks(run *runState, pageURL string, signals *Signals) {
	count := 0
	for _, link := range signals.Links {
		if count >= d.cfg.MaxPageLinks {
			return
		}

		if !sitegraph.SameSite(link.URL, pageURL) {
			if err := run.graph.RecordEdge(pageURL, link.URL); err == nil {
				count++
			}
			continue
		}

		if isDocumentURL(link.URL, d.cfg.Score.DocumentExtensions) {
			d.recordDocumentLink(run, pageURL, link)
			count++
			continue
		}

		if isNonContentURL(link.URL) {
			if err := run.graph.RecordEdge(pageURL, link.URL); err == nil {
				count++
			}
			continue
		}

		node, err := run.graph.UpsertNode(link.URL, pageURL)
		if err != nil {
			continue
		}
		count++
		if node.Status == domain.NodeStatusPending &&
			node.Depth <= run.maxDepth && !run.visited[node.URL] {
			run.push(node.URL)
		}
	}
}

// recordDocumentLink classifies a downloadable document from its link alone.
// The document itself is never fetched; the listing's anchor text is the
// best available title.
func (d *Discoverer) recordDocumentLink(run *runState, pageURL string, link Link) {
	node, err := run.graph.UpsertNode(link.URL, pageURL)
	if err != nil {
		return
	}
	if markErr := run.graph.MarkSkipped(node.URL); markErr != nil {
		return
	}

	score := Score(node.URL, nil, d.cfg.Score)
	candidate := score >= d.cfg.Score.Threshold
	title := link.Text
	if title == "" {
		title = node.URL
	}
	if setErr := run.graph.SetClassification(node.URL, score, candidate, title); setErr != nil {
		return
	}
	if !candidate {
		return
	}

	run.result.Candidates = append(run.result.Candidates, Candidate{
		SourceSlug: run.source.Slug,
		URL:        node.URL,
		Host:       mustHost(node.URL),
		Title:      title,
		Score:      score,
		TextSample: strings.ToLower(title),
	})
}

// isNonContentURL filters account/utility pages and static assets.
func isNonContentURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	lowerPath := strings.ToLower(parsed.Path)
	for _, ext := range assetExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			return true
		}
	}
	for _, seg := range strings.Split(lowerPath, "/") {
		if nonContentSegments[seg] {
			return true
		}
	}
	return false
}

func mustHost(rawURL string) string {
	host, err := sitegraph.Host(rawURL)
	if err != nil {
		return ""
	}
	return host
}
