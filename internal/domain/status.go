package domain

import "time"

// SourceStatus is the per-source outcome of one scheduler cycle, produced
// for observability collaborators (logging, CLI summary, HTTP API).
type SourceStatus struct {
	Slug           string    `json:"slug"`
	CycleID        string    `json:"cycle_id"`
	LastRun        time.Time `json:"last_run"`
	NodesVisited   int       `json:"nodes_visited"`
	DocumentsFound int       `json:"documents_found"`
	Failed         bool      `json:"failed"`
	ErrorSummary   string    `json:"error_summary,omitempty"`
}
