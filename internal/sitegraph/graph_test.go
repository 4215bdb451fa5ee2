package sitegraph_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goinsight/internal/domain"
	"github.com/jonesrussell/goinsight/internal/sitegraph"
)

func TestUpsertNode_IsIdempotent(t *testing.T) {
	t.Parallel()

	g := sitegraph.New("acme")
	_, err := g.Seed("https://example.com/")
	require.NoError(t, err)

	first, err := g.UpsertNode("https://example.com/insights", "https://example.com/")
	require.NoError(t, err)
	second, err := g.UpsertNode("https://Example.com/insights/", "https://example.com/")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 2, g.Len())
}

func TestUpsertNode_RequiresKnownParent(t *testing.T) {
	t.Parallel()

	g := sitegraph.New("acme")
	_, err := g.UpsertNode("https://example.com/a", "https://example.com/unknown")
	assert.ErrorIs(t, err, sitegraph.ErrNodeNotFound)
}

func TestUpsertNode_ShorterPathLowersDepthAndPropagates(t *testing.T) {
	t.Parallel()

	g := sitegraph.New("acme")
	_, err := g.Seed("https://example.com/")
	require.NoError(t, err)

	// seed -> a -> b, then a direct seed -> b link.
	_, err = g.UpsertNode("https://example.com/a", "https://example.com/")
	require.NoError(t, err)
	b, err := g.UpsertNode("https://example.com/b", "https://example.com/a")
	require.NoError(t, err)
	c, err := g.UpsertNode("https://example.com/c", "https://example.com/b")
	require.NoError(t, err)
	require.Equal(t, 2, b.Depth)
	require.Equal(t, 3, c.Depth)

	_, err = g.UpsertNode("https://example.com/b", "https://example.com/")
	require.NoError(t, err)

	assert.Equal(t, 1, b.Depth)
	assert.Equal(t, 2, c.Depth, "depth lowering propagates to successors")
}

func TestRecordEdge_CreatesEndpointNode(t *testing.T) {
	t.Parallel()

	g := sitegraph.New("acme")
	_, err := g.Seed("https://example.com/")
	require.NoError(t, err)

	require.NoError(t, g.RecordEdge("https://example.com/", "https://partner.org/report"))

	node, ok := g.Node("https://partner.org/report")
	require.True(t, ok, "edge endpoints always exist as nodes")
	assert.Equal(t, domain.NodeStatusSkipped, node.Status)
	assert.Equal(t, []string{"https://partner.org/report"}, g.Neighbors("https://example.com/"))
}

func TestRecordEdge_DeduplicatesEdges(t *testing.T) {
	t.Parallel()

	g := sitegraph.New("acme")
	_, err := g.Seed("https://example.com/")
	require.NoError(t, err)

	require.NoError(t, g.RecordEdge("https://example.com/", "https://example.com/a"))
	require.NoError(t, g.RecordEdge("https://example.com/", "https://example.com/a"))

	assert.Len(t, g.Neighbors("https://example.com/"), 1)
}

func TestNodes_PreservesDiscoveryOrder(t *testing.T) {
	t.Parallel()

	g := sitegraph.New("acme")
	_, err := g.Seed("https://example.com/")
	require.NoError(t, err)
	_, err = g.UpsertNode("https://example.com/b", "https://example.com/")
	require.NoError(t, err)
	_, err = g.UpsertNode("https://example.com/a", "https://example.com/")
	require.NoError(t, err)

	var urls []string
	for _, node := range g.Nodes() {
		urls = append(urls, node.URL)
	}
	assert.Equal(t, []string{
		"https://example.com/",
		"https://example.com/b",
		"https://example.com/a",
	}, urls)
}

func TestMarkFetched_ClearsErrorKind(t *testing.T) {
	t.Parallel()

	g := sitegraph.New("acme")
	_, err := g.Seed("https://example.com/")
	require.NoError(t, err)

	require.NoError(t, g.MarkFailed("https://example.com/", 503, domain.ErrorKindTransient))
	require.NoError(t, g.MarkFetched("https://example.com/", 200, "hash", `"etag"`, ""))

	node, _ := g.Node("https://example.com/")
	assert.Equal(t, domain.NodeStatusFetched, node.Status)
	assert.Empty(t, node.ErrorKind)
	assert.Equal(t, `"etag"`, node.ETag)
	require.NotNil(t, node.LastFetchedAt)
}

func TestRequeueFailed_OnlyResetsFailedNodes(t *testing.T) {
	t.Parallel()

	g := sitegraph.New("acme")
	_, err := g.Seed("https://example.com/")
	require.NoError(t, err)
	_, err = g.UpsertNode("https://example.com/a", "https://example.com/")
	require.NoError(t, err)
	_, err = g.UpsertNode("https://example.com/b", "https://example.com/")
	require.NoError(t, err)

	require.NoError(t, g.MarkFetched("https://example.com/", 200, "hash", "", ""))
	require.NoError(t, g.MarkFailed("https://example.com/a", 500, domain.ErrorKindTransient))

	assert.Equal(t, 1, g.RequeueFailed())

	root, _ := g.Node("https://example.com/")
	failed, _ := g.Node("https://example.com/a")
	pending, _ := g.Node("https://example.com/b")
	assert.Equal(t, domain.NodeStatusFetched, root.Status)
	assert.Equal(t, domain.NodeStatusPending, failed.Status)
	assert.Equal(t, domain.NodeStatusPending, pending.Status)
}

func TestIsStale_NeverFetchedIsStale(t *testing.T) {
	t.Parallel()

	g := sitegraph.New("acme")
	_, err := g.Seed("https://example.com/")
	require.NoError(t, err)

	assert.True(t, g.IsStale("https://example.com/", time.Hour))

	require.NoError(t, g.MarkFetched("https://example.com/", 200, "hash", "", ""))
	assert.False(t, g.IsStale("https://example.com/", time.Hour))
	assert.True(t, g.IsStale("https://example.com/", 0))
}

func TestSnapshot_RoundTripsThroughJSON(t *testing.T) {
	t.Parallel()

	g := sitegraph.New("acme")
	_, err := g.Seed("https://example.com/")
	require.NoError(t, err)
	_, err = g.UpsertNode("https://example.com/insights", "https://example.com/")
	require.NoError(t, err)
	require.NoError(t, g.MarkFetched("https://example.com/", 200, "roothash", "", ""))
	require.NoError(t, g.SetClassification("https://example.com/insights", 0.7, true, "Insights"))

	data, err := json.Marshal(g.Snapshot())
	require.NoError(t, err)

	var snap sitegraph.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	restored := sitegraph.FromSnapshot(&snap)

	require.Equal(t, g.Len(), restored.Len())
	node, ok := restored.Node("https://example.com/insights")
	require.True(t, ok)
	assert.True(t, node.Candidate)
	assert.InDelta(t, 0.7, node.Score, 0.0001)
	assert.Equal(t, "Insights", node.Title)
	assert.Equal(t,
		g.Neighbors("https://example.com/"),
		restored.Neighbors("https://example.com/"))
}

func TestFromSnapshot_DropsEdgesWithMissingEndpoints(t *testing.T) {
	t.Parallel()

	snap := &sitegraph.Snapshot{
		SourceSlug: "acme",
		Nodes: []*domain.GraphNode{
			{URL: "https://example.com/", Status: domain.NodeStatusFetched},
		},
		Edges: map[string][]string{
			"https://example.com/": {"https://example.com/gone"},
		},
	}

	g := sitegraph.FromSnapshot(snap)
	assert.Empty(t, g.Neighbors("https://example.com/"))
}
