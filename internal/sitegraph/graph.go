package sitegraph

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/goinsight/internal/domain"
)

// ErrNodeNotFound is returned when an operation targets an unknown URL.
var ErrNodeNotFound = errors.New("sitegraph: node not found")

// Graph is one source's crawl graph. It is mutated only by that source's
// single discovery run per cycle; the scheduler guarantees mutual exclusion
// per slug, so the graph itself carries no lock.
type Graph struct {
	slug    string
	nodes   map[string]*domain.GraphNode
	order   []string
	edges   map[string][]string
	edgeSet map[string]map[string]struct{}
}

// New creates an empty graph for the given source slug.
func New(slug string) *Graph {
	return &Graph{
		slug:    slug,
		nodes:   make(map[string]*domain.GraphNode),
		edges:   make(map[string][]string),
		edgeSet: make(map[string]map[string]struct{}),
	}
}

// Slug returns the owning source's slug.
func (g *Graph) Slug() string { return g.slug }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Seed inserts a seed URL at depth zero.
func (g *Graph) Seed(rawURL string) (*domain.GraphNode, error) {
	return g.UpsertNode(rawURL, "")
}

// UpsertNode inserts the URL if absent, or updates its parent-edge set if it
// already exists. Insertion is idempotent: re-upserting never duplicates a
// node. A shorter path through parentURL lowers the node's depth and the
// lowering propagates to its successors; depth never increases.
func (g *Graph) UpsertNode(rawURL, parentURL string) (*domain.GraphNode, error) {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return nil, fmt.Errorf("upsert node: %w", err)
	}

	depth := 0
	if parentURL != "" {
		parentNorm, parentErr := Normalize(parentURL)
		if parentErr != nil {
			return nil, fmt.Errorf("upsert node parent: %w", parentErr)
		}
		parent, ok := g.nodes[parentNorm]
		if !ok {
			return nil, fmt.Errorf("upsert node parent %q: %w", parentNorm, ErrNodeNotFound)
		}
		depth = parent.Depth + 1
		g.addEdge(parentNorm, normalized)
	}

	node, exists := g.nodes[normalized]
	if !exists {
		node = &domain.GraphNode{
			URL:          normalized,
			Status:       domain.NodeStatusPending,
			Depth:        depth,
			DiscoveredAt: time.Now().UTC(),
		}
		g.nodes[normalized] = node
		g.order = append(g.order, normalized)
		return node, nil
	}

	if depth < node.Depth {
		node.Depth = depth
		g.propagateDepth(normalized)
	}
	return node, nil
}

// propagateDepth lowers successor depths after a node's depth decreased.
func (g *Graph) propagateDepth(from string) {
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		parent := g.nodes[current]
		for _, next := range g.edges[current] {
			child, ok := g.nodes[next]
			if !ok {
				continue
			}
			if parent.Depth+1 < child.Depth {
				child.Depth = parent.Depth + 1
				queue = append(queue, next)
			}
		}
	}
}

// RecordEdge records a hyperlink between two known or new endpoint URLs
// without changing depth bookkeeping for the target. Used for cross-domain
// links that are recorded but never expanded.
func (g *Graph) RecordEdge(fromURL, toURL string) error {
	fromNorm, err := Normalize(fromURL)
	if err != nil {
		return fmt.Errorf("record edge: %w", err)
	}
	toNorm, err := Normalize(toURL)
	if err != nil {
		return fmt.Errorf("record edge: %w", err)
	}
	if _, ok := g.nodes[fromNorm]; !ok {
		return fmt.Errorf("record edge from %q: %w", fromNorm, ErrNodeNotFound)
	}

	// Every edge endpoint exists as a node, possibly still pending.
	if _, ok := g.nodes[toNorm]; !ok {
		node := &domain.GraphNode{
			URL:          toNorm,
			Status:       domain.NodeStatusSkipped,
			Depth:        g.nodes[fromNorm].Depth + 1,
			DiscoveredAt: time.Now().UTC(),
		}
		g.nodes[toNorm] = node
		g.order = append(g.order, toNorm)
	}
	g.addEdge(fromNorm, toNorm)
	return nil
}

// addEdge appends a deduplicated directed edge preserving discovery order.
func (g *Graph) addEdge(from, to string) {
	set, ok := g.edgeSet[from]
	if !ok {
		set = make(map[string]struct{})
		g.edgeSet[from] = set
	}
	if _, dup := set[to]; dup {
		return
	}
	set[to] = struct{}{}
	g.edges[from] = append(g.edges[from], to)
}

// Node returns the node for a normalized or raw URL.
func (g *Graph) Node(rawURL string) (*domain.GraphNode, bool) {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return nil, false
	}
	node, ok := g.nodes[normalized]
	return node, ok
}

// Nodes returns all nodes in discovery order. The slice is a copy and safe
// to re-enumerate after partial failure.
func (g *Graph) Nodes() []*domain.GraphNode {
	out := make([]*domain.GraphNode, 0, len(g.order))
	for _, u := range g.order {
		out = append(out, g.nodes[u])
	}
	return out
}

// Neighbors returns the outbound link targets of a URL in discovery order.
// The returned slice is a copy, safe to re-enumerate.
func (g *Graph) Neighbors(rawURL string) []string {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return nil
	}
	targets := g.edges[normalized]
	out := make([]string, len(targets))
	copy(out, targets)
	return out
}

// MarkFetched records a successful fetch on the node.
func (g *Graph) MarkFetched(rawURL string, httpStatus int, contentHash, etag, lastModified string) error {
	node, err := g.lookup(rawURL)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	node.Status = domain.NodeStatusFetched
	node.HTTPStatus = httpStatus
	node.ContentHash = contentHash
	node.ErrorKind = ""
	if etag != "" {
		node.ETag = etag
	}
	if lastModified != "" {
		node.LastModified = lastModified
	}
	node.LastFetchedAt = &now
	return nil
}

// MarkFailed records a fetch failure and its error kind.
func (g *Graph) MarkFailed(rawURL string, httpStatus int, kind string) error {
	node, err := g.lookup(rawURL)
	if err != nil {
		return err
	}
	node.Status = domain.NodeStatusFailed
	node.HTTPStatus = httpStatus
	node.ErrorKind = kind
	return nil
}

// MarkSkipped marks a node intentionally not fetched this cycle.
func (g *Graph) MarkSkipped(rawURL string) error {
	node, err := g.lookup(rawURL)
	if err != nil {
		return err
	}
	if node.Status == domain.NodeStatusPending {
		node.Status = domain.NodeStatusSkipped
	}
	return nil
}

// RequeueFailed resets failed nodes to pending so a later cycle retries
// them. This is the only backwards status transition.
func (g *Graph) RequeueFailed() int {
	count := 0
	for _, u := range g.order {
		node := g.nodes[u]
		if node.Status == domain.NodeStatusFailed {
			node.Status = domain.NodeStatusPending
			node.ErrorKind = ""
			count++
		}
	}
	return count
}

// SetClassification stores the classification outcome on the node.
func (g *Graph) SetClassification(rawURL string, score float64, candidate bool, title string) error {
	node, err := g.lookup(rawURL)
	if err != nil {
		return err
	}
	node.Score = score
	node.Candidate = candidate
	if title != "" {
		node.Title = title
	}
	return nil
}

// IsStale reports whether the node's content is older than ttl or the node
// was never fetched.
func (g *Graph) IsStale(rawURL string, ttl time.Duration) bool {
	node, ok := g.Node(rawURL)
	if !ok {
		return true
	}
	if node.LastFetchedAt == nil || node.ContentHash == "" {
		return true
	}
	return time.Since(*node.LastFetchedAt) > ttl
}

func (g *Graph) lookup(rawURL string) (*domain.GraphNode, error) {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	node, ok := g.nodes[normalized]
	if !ok {
		return nil, fmt.Errorf("%q: %w", normalized, ErrNodeNotFound)
	}
	return node, nil
}
