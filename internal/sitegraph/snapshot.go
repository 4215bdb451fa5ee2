package sitegraph

import "github.com/jonesrussell/goinsight/internal/domain"

// Snapshot is the persisted form of a graph: nodes in discovery order plus
// the edge lists. Re-loadable so crawls resume incrementally across cycles.
type Snapshot struct {
	SourceSlug string              `json:"source_slug"`
	Nodes      []*domain.GraphNode `json:"nodes"`
	Edges      map[string][]string `json:"edges"`
}

// Snapshot exports the graph state for persistence.
func (g *Graph) Snapshot() *Snapshot {
	snap := &Snapshot{
		SourceSlug: g.slug,
		Nodes:      make([]*domain.GraphNode, 0, len(g.order)),
		Edges:      make(map[string][]string, len(g.edges)),
	}
	for _, u := range g.order {
		node := *g.nodes[u]
		snap.Nodes = append(snap.Nodes, &node)
	}
	for from, targets := range g.edges {
		out := make([]string, len(targets))
		copy(out, targets)
		snap.Edges[from] = out
	}
	return snap
}

// FromSnapshot rebuilds a graph from a persisted snapshot. Edge endpoints
// missing from the node list are dropped to preserve the graph invariant.
func FromSnapshot(snap *Snapshot) *Graph {
	g := New(snap.SourceSlug)
	for _, node := range snap.Nodes {
		copied := *node
		g.nodes[copied.URL] = &copied
		g.order = append(g.order, copied.URL)
	}
	for from, targets := range snap.Edges {
		if _, ok := g.nodes[from]; !ok {
			continue
		}
		for _, to := range targets {
			if _, ok := g.nodes[to]; !ok {
				continue
			}
			g.addEdge(from, to)
		}
	}
	return g
}
