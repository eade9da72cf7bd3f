// Package boundary is the one surface a dashboard/control process is
// allowed to call: every read and write the operator-facing side needs
// goes through a Boundary method, which in turn is the only caller of
// Store's mutating methods from outside the crawl loop. The Graph is
// read-only from here — nothing in this package ever mutates it.
package boundary

import "time"

// Result is the uniform {success, message, details} tuple every boundary
// operation returns, so a calling CLI or RPC layer never has to special-case
// per-operation return shapes.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func ok(message string, details any) Result {
	return Result{Success: true, Message: message, Details: details}
}

func fail(message string) Result {
	return Result{Success: false, Message: message}
}

// StatsSnapshot is the combined read returned by Boundary.Stats: the
// durable store aggregate, the in-process crawl counters, and the current
// lifecycle state/queue depth.
type StatsSnapshot struct {
	TotalPages    int                `json:"total_pages"`
	PagesByStatus map[int]int        `json:"pages_by_status"`
	AverageRisk   float64            `json:"average_risk"`
	DomainsSeen   int                `json:"domains_seen"`
	TotalErrors   int                `json:"total_errors"`
	TotalAlerts   int                `json:"total_alerts"`
	RunDurationMs int64              `json:"run_duration_ms"`
	QueueDepth    int                `json:"queue_depth"`
	State         string             `json:"state"`
	RunID         string             `json:"run_id"`
	ExportsByKind map[string]float64 `json:"exports_by_kind"`
}

// QueuedURL is one boundary-visible queue entry.
type QueuedURL struct {
	URL   string `json:"url"`
	Depth int    `json:"depth"`
}

// DomainSummary pairs a domain's policy with whether it is blacklisted,
// for the boundary's domain-list read.
type DomainSummary struct {
	Domain        string `json:"domain"`
	Status        string `json:"status"`
	TrustLevel    int    `json:"trust_level"`
	MaxDepth      int    `json:"max_depth"`
	DelayMs       int    `json:"delay_ms"`
	PriorityBoost int    `json:"priority_boost"`
	Blacklisted   bool   `json:"blacklisted"`
}

// EntitySummary is one graph node flattened for the boundary's entity-list
// read — source sets reduced to counts, since the dashboard wants
// cardinality, not the raw membership.
type EntitySummary struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Value           string    `json:"value"`
	OccurrenceCount int       `json:"occurrence_count"`
	DomainCount     int       `json:"domain_count"`
	URLCount        int       `json:"url_count"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
}

// CorrelationSummary pairs two entities' raw values with their graph
// correlation score/band, for the boundary's correlation read.
type CorrelationSummary struct {
	EntityA          string  `json:"entity_a"`
	EntityB          string  `json:"entity_b"`
	Score            float64 `json:"score"`
	Confidence       float64 `json:"confidence"`
	Band             string  `json:"band"`
	RelationshipType string  `json:"relationship_type"`
}
