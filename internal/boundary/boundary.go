package boundary

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/onionwatch/onionwatch/internal/alert"
	"github.com/onionwatch/onionwatch/internal/analyzer"
	"github.com/onionwatch/onionwatch/internal/engine"
	"github.com/onionwatch/onionwatch/internal/graph"
	"github.com/onionwatch/onionwatch/internal/logging"
	"github.com/onionwatch/onionwatch/internal/store"
	"github.com/onionwatch/onionwatch/pkg/fileutil"
	"github.com/onionwatch/onionwatch/pkg/hashutil"
)

// Boundary is the sole surface between a running crawl and anything
// outside it (CLI, dashboard, scheduled maintenance job). Every write
// routes through Store; Graph is read-only from here, per the
// dashboard-never-mutates-the-graph-directly rule.
type Boundary struct {
	store   *store.Store
	graph   *graph.Graph
	alerts  *alert.Manager
	engine  *engine.CrawlEngine
	sink    logging.Sink
	metrics *metrics
}

// New assembles a Boundary over already-running dependencies. engine may
// be nil for an offline boundary (export/purge/vacuum against a closed
// crawl's database, with no live crawl to control).
func New(st *store.Store, g *graph.Graph, alerts *alert.Manager, eng *engine.CrawlEngine, sink logging.Sink) *Boundary {
	if sink == nil {
		sink = logging.NopSink{}
	}
	return &Boundary{store: st, graph: g, alerts: alerts, engine: eng, sink: sink, metrics: newMetrics()}
}

// ---- reads ----

// Stats returns the durable store aggregate plus the in-process crawl
// counters and lifecycle state, pushing the same numbers into the
// in-process Prometheus gauges before reading them back — so the gauge
// values and the returned snapshot can never disagree.
func (b *Boundary) Stats() Result {
	storeStats, err := b.store.GetStats()
	if err != nil {
		return fail("stats: " + err.Error())
	}

	snap := StatsSnapshot{
		TotalPages:    storeStats.TotalPages,
		PagesByStatus: storeStats.PagesByStatus,
		AverageRisk:   storeStats.AverageRisk,
		DomainsSeen:   storeStats.DomainsSeen,
	}

	if b.engine != nil {
		crawlStats := b.engine.Stats()
		snap.TotalErrors = crawlStats.TotalErrors
		snap.TotalAlerts = crawlStats.TotalAlerts
		snap.RunDurationMs = crawlStats.DurationMs
		snap.QueueDepth = b.engine.QueueDepth()
		snap.State = b.engine.State().String()
		snap.RunID = b.engine.RunID()
	}

	// Push the freshly computed counts into the gauges, then read them back
	// out rather than returning snap's fields directly — Stats() is the
	// one place this module proves the Prometheus registry and the
	// returned numbers never drift apart.
	b.metrics.observeCrawlCounters(snap.QueueDepth, snap.TotalPages, snap.TotalAlerts, snap.TotalErrors)
	snap.QueueDepth = int(gaugeValue(b.metrics.queueDepth))
	snap.TotalPages = int(gaugeValue(b.metrics.pages))
	snap.TotalAlerts = int(gaugeValue(b.metrics.alerts))
	snap.TotalErrors = int(gaugeValue(b.metrics.errors))
	snap.ExportsByKind = b.metrics.exportCounts()

	return ok("stats", snap)
}

// RecentPages returns up to limit pages ordered most-recently-crawled first.
func (b *Boundary) RecentPages(limit int) Result {
	if limit <= 0 {
		limit = 50
	}
	pages, err := b.store.RecentPages(limit)
	if err != nil {
		return fail("recent_pages: " + err.Error())
	}
	return ok(fmt.Sprintf("%d pages", len(pages)), pages)
}

// QueueContents lists the URLs currently admitted and waiting to be
// dequeued. Returns an empty list (not a failure) when there is no live
// engine to query.
func (b *Boundary) QueueContents() Result {
	if b.engine == nil {
		return ok("no live engine", []QueuedURL{})
	}
	tokens := b.engine.QueueSnapshot()
	out := make([]QueuedURL, len(tokens))
	for i, t := range tokens {
		out[i] = QueuedURL{URL: t.URL(), Depth: t.Depth()}
	}
	return ok(fmt.Sprintf("%d queued", len(out)), out)
}

// DomainList merges every domain with a stored policy with every domain
// intel has ever seen (which may still be on the implicit default policy),
// annotated with blacklist status.
func (b *Boundary) DomainList() Result {
	policies, err := b.store.AllDomainPolicies()
	if err != nil {
		return fail("domain_list: " + err.Error())
	}
	seen, err := b.store.DistinctDomains()
	if err != nil {
		return fail("domain_list: " + err.Error())
	}

	byDomain := map[string]*store.DomainPolicy{}
	for _, p := range policies {
		byDomain[p.Domain()] = p
	}
	for _, d := range seen {
		if _, ok := byDomain[d]; !ok {
			byDomain[d] = store.NewDomainPolicy(d)
		}
	}

	out := make([]DomainSummary, 0, len(byDomain))
	for domain, p := range byDomain {
		blacklisted, _ := b.store.IsBlacklisted(domain)
		out = append(out, DomainSummary{
			Domain:        domain,
			Status:        string(p.Status()),
			TrustLevel:    p.TrustLevel(),
			MaxDepth:      p.MaxDepth(),
			DelayMs:       p.DelayMs(),
			PriorityBoost: p.PriorityBoost(),
			Blacklisted:   blacklisted,
		})
	}
	return ok(fmt.Sprintf("%d domains", len(out)), out)
}

// EntityList lists graph nodes of one entity type (or every node when
// entityType is empty), most-occurrences-first.
func (b *Boundary) EntityList(entityType string, limit int) Result {
	nodes := b.graph.NodesByType(entityType)
	if limit > 0 && len(nodes) > limit {
		nodes = nodes[:limit]
	}
	out := make([]EntitySummary, len(nodes))
	for i, n := range nodes {
		out[i] = EntitySummary{
			ID: n.ID, Type: n.Type, Value: n.Value,
			OccurrenceCount: n.OccurrenceCount,
			DomainCount:     n.SourceDomains.Size(),
			URLCount:        n.SourceURLs.Size(),
			FirstSeen:       n.FirstSeen,
			LastSeen:        n.LastSeen,
		}
	}
	return ok(fmt.Sprintf("%d entities", len(out)), out)
}

// Timeline buckets crawl/alert activity into UTC calendar days over the
// trailing window.
func (b *Boundary) Timeline(days int) Result {
	if days <= 0 {
		days = 30
	}
	buckets, err := b.store.TimelineBuckets(days)
	if err != nil {
		return fail("timeline: " + err.Error())
	}
	return ok(fmt.Sprintf("%d days", len(buckets)), buckets)
}

// Correlations scores every pair of entities sharing at least two source
// domains — CrossDomain(2) bounds the candidate set to entities that could
// plausibly correlate at all — and returns pairs scoring at or above
// minScore.
func (b *Boundary) Correlations(minScore float64) Result {
	candidates := b.graph.CrossDomain(2)
	out := []CorrelationSummary{}
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			corr, found := b.graph.Correlate(candidates[i].ID, candidates[j].ID)
			if !found || corr.Score < minScore {
				continue
			}
			out = append(out, CorrelationSummary{
				EntityA:          candidates[i].Value,
				EntityB:          candidates[j].Value,
				Score:            corr.Score,
				Confidence:       corr.Confidence,
				Band:             string(corr.Band),
				RelationshipType: string(corr.RelationshipType),
			})
		}
	}
	return ok(fmt.Sprintf("%d correlations", len(out)), out)
}

// AlertHistory returns the alert manager's bounded in-memory history,
// oldest first.
func (b *Boundary) AlertHistory() Result {
	history := b.alerts.History()
	return ok(fmt.Sprintf("%d alerts", len(history)), history)
}

// AcknowledgeAlert flips an alert's acknowledged flag.
func (b *Boundary) AcknowledgeAlert(id int64, who string) Result {
	if !b.alerts.Acknowledge(id, who) {
		return fail(fmt.Sprintf("acknowledge_alert: no alert with id %d", id))
	}
	return ok(fmt.Sprintf("acknowledged alert %d", id), nil)
}

// ---- writes ----

// AddSeeds validates and persists operator-submitted URLs. A URL that
// fails validation is skipped (not a hard failure of the whole batch);
// the returned details report which ones were actually admitted.
func (b *Boundary) AddSeeds(urls []string) Result {
	admitted := make([]string, 0, len(urls))
	for _, raw := range urls {
		if !analyzer.ValidateOnionURL(raw, nil) {
			continue
		}
		normalized, err := analyzer.NormalizeURL(raw)
		if err != nil {
			continue
		}
		domain := hostOf(normalized)
		if domain == "" {
			continue
		}
		if err := b.store.AddPendingURL(normalized, domain, 0); err != nil {
			continue
		}
		if b.engine != nil {
			b.engine.AddSeed(normalized)
		}
		admitted = append(admitted, normalized)
	}
	return ok(fmt.Sprintf("%d/%d seeds admitted", len(admitted), len(urls)), admitted)
}

// MarkIntel records an operator's triage decision against an
// already-crawled URL.
func (b *Boundary) MarkIntel(url, mark string) Result {
	if mark != store.ReviewImportant && mark != store.ReviewFalsePositive && mark != "" {
		return fail("mark_intel: unknown mark " + mark)
	}
	if err := b.store.MarkIntel(url, mark); err != nil {
		return fail("mark_intel: " + err.Error())
	}
	return ok("marked "+url+" as "+mark, nil)
}

// UpdateDomainPolicy persists a fully-formed domain policy, replacing
// whatever was stored for that domain.
func (b *Boundary) UpdateDomainPolicy(p *store.DomainPolicy) Result {
	if err := b.store.SaveDomainPolicy(p); err != nil {
		return fail("update_domain_policy: " + err.Error())
	}
	return ok("updated policy for "+p.Domain(), nil)
}

// BoostDomain raises a domain's priority both durably (domain_policy) and,
// when a crawl is live, against entries already sitting in the frontier.
func (b *Boundary) BoostDomain(domain string, delta int) Result {
	policy, err := b.store.DomainPolicyFor(domain)
	if err != nil {
		return fail("boost_domain: " + err.Error())
	}
	policy.SetPriorityBoost(policy.PriorityBoost() + delta)
	if err := b.store.SaveDomainPolicy(policy); err != nil {
		return fail("boost_domain: " + err.Error())
	}
	if b.engine != nil {
		b.engine.BoostDomain(domain, delta)
	}
	return ok(fmt.Sprintf("boosted %s by %d", domain, delta), nil)
}

// FreezeDomain marks a domain frozen both durably and (when live) in the
// frontier, so no further URLs for it are ever admitted.
func (b *Boundary) FreezeDomain(domain string) Result {
	policy, err := b.store.DomainPolicyFor(domain)
	if err != nil {
		return fail("freeze_domain: " + err.Error())
	}
	policy.SetStatus(store.DomainStatusFrozen)
	if err := b.store.SaveDomainPolicy(policy); err != nil {
		return fail("freeze_domain: " + err.Error())
	}
	if b.engine != nil {
		b.engine.FreezeDomain(domain)
	}
	return ok("froze "+domain, nil)
}

// UnfreezeDomain reverses FreezeDomain.
func (b *Boundary) UnfreezeDomain(domain string) Result {
	policy, err := b.store.DomainPolicyFor(domain)
	if err != nil {
		return fail("unfreeze_domain: " + err.Error())
	}
	policy.SetStatus(store.DomainStatusNormal)
	if err := b.store.SaveDomainPolicy(policy); err != nil {
		return fail("unfreeze_domain: " + err.Error())
	}
	if b.engine != nil {
		b.engine.UnfreezeDomain(domain)
	}
	return ok("unfroze "+domain, nil)
}

// ControlCrawler dispatches a pause/resume/drain/stop action against the
// live engine. Fails cleanly (not a panic) when there is no live engine.
func (b *Boundary) ControlCrawler(action string) Result {
	if b.engine == nil {
		return fail("control_crawler: no live engine")
	}
	switch action {
	case "pause":
		b.engine.Pause()
	case "resume":
		b.engine.Resume()
	case "drain":
		b.engine.Drain()
	case "stop":
		b.engine.Stop()
	default:
		return fail("control_crawler: unknown action " + action)
	}
	return ok("crawler "+action, nil)
}

// ExportKind selects one of Store's four export formats.
type ExportKind string

const (
	ExportKindJSON   ExportKind = "json"
	ExportKindCSV    ExportKind = "csv"
	ExportKindEmails ExportKind = "emails"
	ExportKindCrypto ExportKind = "crypto"
)

// Export writes one of the four documented export formats to path,
// creating any missing parent directory first, and logs a checksum of the
// written bytes so an operator can verify the file wasn't truncated
// mid-write.
func (b *Boundary) Export(kind ExportKind, path string, filter store.ExportFilter) Result {
	if dir := filepath.Dir(path); dir != "." {
		if err := fileutil.EnsureDir(dir); err != nil {
			return fail("export: " + err.Error())
		}
	}

	var rows int
	var err error
	switch kind {
	case ExportKindJSON:
		rows, err = b.store.ExportJSON(path, filter)
	case ExportKindCSV:
		rows, err = b.store.ExportCSV(path, filter)
	case ExportKindEmails:
		rows, err = b.store.ExportEmails(path)
	case ExportKindCrypto:
		rows, err = b.store.ExportCrypto(path)
	default:
		return fail("export: unknown kind " + string(kind))
	}
	if err != nil {
		return fail("export: " + err.Error())
	}

	b.metrics.recordExport(string(kind))

	if sum, sumErr := checksumFile(path); sumErr == nil {
		b.sink.RecordArtifact(logging.NewArtifactRecord(path + " checksum=" + sum))
	}

	return ok(fmt.Sprintf("%d rows exported to %s", rows, path), nil)
}

// Purge deletes (or anonymizes) rows older than days.
func (b *Boundary) Purge(days int, anonymize bool) Result {
	n, err := b.store.Purge(days, anonymize)
	if err != nil {
		return fail("purge: " + err.Error())
	}
	return ok(fmt.Sprintf("%d rows purged", n), nil)
}

// Vacuum reclaims SQLite free space after a Purge.
func (b *Boundary) Vacuum() Result {
	if err := b.store.Vacuum(); err != nil {
		return fail("vacuum: " + err.Error())
	}
	return ok("vacuumed", nil)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func checksumFile(path string) (string, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return hashutil.HashBytes(body, hashutil.HashAlgoBLAKE3)
}
