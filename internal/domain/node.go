package domain

import "time"

// GraphNode status constants. Transitions move forward only, except
// failed -> pending when a scheduled retry re-queues the node.
const (
	NodeStatusPending = "pending"
	NodeStatusFetched = "fetched"
	NodeStatusFailed  = "failed"
	NodeStatusSkipped = "skipped"
)

// Fetch error kinds recorded on failed nodes.
const (
	ErrorKindTransient = "transient"
	ErrorKindPermanent = "permanent"
)

// GraphNode is one URL within a source's crawl graph. Its identity is the
// normalized URL; no two nodes in a graph share one.
type GraphNode struct {
	// URL is the normalized URL that identifies the node.
	URL string `json:"url"`
	// Status is one of the NodeStatus constants.
	Status string `json:"status"`
	// HTTPStatus is the last observed HTTP status code, zero if never fetched.
	HTTPStatus int `json:"http_status,omitempty"`
	// ContentHash is the SHA-256 of the last fetched body.
	ContentHash string `json:"content_hash,omitempty"`
	// Depth is the minimum discovery depth across all paths from any seed.
	Depth int `json:"depth"`
	// Score is the classification score in [0,1]: the likelihood that the
	// page is an insight document or a listing of them.
	Score float64 `json:"score"`
	// Candidate marks nodes whose score cleared the acceptance threshold.
	Candidate bool `json:"candidate"`
	// Title is the page title when one was extracted.
	Title string `json:"title,omitempty"`
	// ErrorKind records the failure class for failed nodes.
	ErrorKind string `json:"error_kind,omitempty"`
	// ETag and LastModified cache HTTP validators for conditional refetch.
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	// LastFetchedAt is when the node was last fetched successfully.
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
	// DiscoveredAt is when the node was first linked-to or seeded.
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Fetched reports whether the node has been fetched at least once.
func (n *GraphNode) Fetched() bool {
	return n.Status == NodeStatusFetched
}
