// Package engine owns the crawl lifecycle: it is the only component
// allowed to decide whether a URL enters internal/engine/frontier, the
// only component that calls the fetcher, and the only component that
// turns extracted intel into store.Page rows and alert.Manager
// evaluations. Generalized from the teacher's internal/scheduler
// package — same single-authority-over-admission design, widened from
// one synchronous worker to a worker pool.
package engine

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/onionwatch/onionwatch/internal/alert"
	"github.com/onionwatch/onionwatch/internal/analyzer"
	"github.com/onionwatch/onionwatch/internal/config"
	"github.com/onionwatch/onionwatch/internal/engine/fetcher"
	"github.com/onionwatch/onionwatch/internal/engine/frontier"
	"github.com/onionwatch/onionwatch/internal/entityextractor"
	"github.com/onionwatch/onionwatch/internal/graph"
	"github.com/onionwatch/onionwatch/internal/logging"
	"github.com/onionwatch/onionwatch/internal/store"
	"github.com/onionwatch/onionwatch/pkg/hashutil"
	"github.com/onionwatch/onionwatch/pkg/limiter"
	"github.com/onionwatch/onionwatch/pkg/retry"
	"github.com/onionwatch/onionwatch/pkg/timeutil"
)

// State is the engine's lifecycle state machine. Transitions only move
// forward; Stop is terminal.
type State int32

const (
	StateInit State = iota
	StateVerifyProxy
	StateLoadState
	StateSeed
	StateRun
	StateDrain
	StateStop
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateVerifyProxy:
		return "verify_proxy"
	case StateLoadState:
		return "load_state"
	case StateSeed:
		return "seed"
	case StateRun:
		return "run"
	case StateDrain:
		return "drain"
	case StateStop:
		return "stop"
	default:
		return "unknown"
	}
}

// recrawlSeedLimit bounds how many previously-successful pages get
// reopened to mine fresh links when both the frontier and pending_urls
// are empty, per the bootstrap fallback spec.md names.
const recrawlSeedLimit = 50

// recrawlLinkCap bounds how many newly-discovered links a recrawl pass
// may submit, so a stale high-fanout page can't re-explode the frontier.
const recrawlLinkCap = 200

// pausePollInterval is how often a paused worker re-checks Paused()
// before attempting its next dequeue.
const pausePollInterval = 200 * time.Millisecond

// userAgent is fixed rather than configurable: spec.md's admission
// contract never exposes one, and rotating user agents is out of scope.
const userAgent = "Mozilla/5.0 (compatible; onionwatch-crawler/1.0)"

// CrawlEngine runs the crawl: one admission choke point (submitCandidate),
// a worker pool pulling from the frontier, and one place intel becomes a
// store.Page and an alert.Manager evaluation.
type CrawlEngine struct {
	cfg     config.Config
	store   *store.Store
	graph   *graph.Graph
	alerts  *alert.Manager
	fetch   fetcher.Fetcher
	limiter limiter.RateLimiter
	sink    logging.Sink

	front *frontier.Frontier

	state      atomic.Int32
	totalPages atomic.Int64
	totalErrs  atomic.Int64
	totalAlts  atomic.Int64
	startedAt  time.Time

	clientMu     sync.Mutex
	client       *http.Client
	fetchesSince int

	domainMu       sync.Mutex
	domainEntities map[string]int

	contentMu     sync.Mutex
	contentHashes map[string]string

	runID  string
	cancel context.CancelFunc

	pauseMu  sync.Mutex
	paused   bool
	draining atomic.Bool
}

// New assembles a CrawlEngine from its already-opened dependencies. The
// caller owns store/graph/alerts lifecycles; CrawlEngine never closes them.
func New(cfg config.Config, st *store.Store, g *graph.Graph, alerts *alert.Manager, sink logging.Sink) *CrawlEngine {
	if sink == nil {
		sink = logging.NopSink{}
	}
	rl := limiter.NewConcurrentRateLimiter()
	rl.SetBaseDelay(cfg.BaseDelay())
	rl.SetJitter(cfg.Jitter())
	rl.SetRandomSeed(cfg.RandomSeed())

	return &CrawlEngine{
		cfg:            cfg,
		store:          st,
		graph:          g,
		alerts:         alerts,
		fetch:          fetcher.NewHTMLFetcher(),
		limiter:        rl,
		sink:           sink,
		front:          frontier.New(cfg.MaxPages()),
		domainEntities: map[string]int{},
		contentHashes:  map[string]string{},
		runID:          uuid.New().String(),
	}
}

// RunID is the crawl instance's unique identifier, attached to every
// classified error so log aggregation can group by run.
func (e *CrawlEngine) RunID() string { return e.runID }

// State reports the current lifecycle state.
func (e *CrawlEngine) State() State { return State(e.state.Load()) }

func (e *CrawlEngine) setState(s State) { e.state.Store(int32(s)) }

// Stats is a point-in-time snapshot of crawl progress.
func (e *CrawlEngine) Stats() logging.CrawlStats {
	return logging.CrawlStats{
		TotalPages:  int(e.totalPages.Load()),
		TotalErrors: int(e.totalErrs.Load()),
		TotalAlerts: int(e.totalAlts.Load()),
		DurationMs:  time.Since(e.startedAt).Milliseconds(),
	}
}

// QueueDepth reports how many admitted URLs are still waiting to be
// dequeued, for the unusual_crawl_activity and queue_milestone triggers.
func (e *CrawlEngine) QueueDepth() int { return e.front.Size() }

// pagesPerMinute is the crawl's running throughput, for the
// unusual_crawl_activity trigger's ">100 pages/unit-time" check. Before a
// full minute has elapsed it reports the raw page count rather than
// inflating a partial-minute rate, so the trigger can't fire on a burst of
// admission-time work before the crawl has been running long enough to
// measure a real rate.
func (e *CrawlEngine) pagesPerMinute() int {
	total := e.totalPages.Load()
	minutes := int64(time.Since(e.startedAt) / time.Minute)
	if minutes < 1 {
		return int(total)
	}
	return int(total / minutes)
}

// Run drives the engine through its full state machine: proxy
// verification, state load, seeding, the worker pool, then drain and
// stop. It blocks until the crawl terminates (context cancellation,
// frontier exhaustion, or a fatal error) and returns the terminal error,
// if any.
func (e *CrawlEngine) Run(ctx context.Context) error {
	e.startedAt = time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	defer cancel()

	e.setState(StateVerifyProxy)
	client, err := e.verifyProxy()
	if err != nil {
		return err
	}
	e.client = client

	e.setState(StateLoadState)
	if err := e.loadVisited(); err != nil {
		return err
	}

	e.setState(StateSeed)
	if err := e.seed(); err != nil {
		return err
	}

	e.setState(StateRun)
	g, gctx := errgroup.WithContext(runCtx)
	workers := e.cfg.MaxWorkers()
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			e.workerLoop(gctx)
			return nil
		})
	}
	_ = g.Wait()

	e.setState(StateDrain)
	e.setState(StateStop)
	e.sink.RecordFinalCrawlStats(e.Stats())
	return nil
}

// Stop cancels the crawl cooperatively; workers finish their current
// fetch and exit on the next dequeue.
func (e *CrawlEngine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

// Pause gates workerLoop's next dequeue without cancelling the run
// context — unlike Stop, a paused engine can be Resumed.
func (e *CrawlEngine) Pause() {
	e.pauseMu.Lock()
	e.paused = true
	e.pauseMu.Unlock()
}

// Resume un-gates workerLoop. A no-op if the engine wasn't paused.
func (e *CrawlEngine) Resume() {
	e.pauseMu.Lock()
	e.paused = false
	e.pauseMu.Unlock()
}

// Paused reports whether Pause has been called without a matching Resume.
func (e *CrawlEngine) Paused() bool {
	e.pauseMu.Lock()
	defer e.pauseMu.Unlock()
	return e.paused
}

// Drain stops admission of new candidates (seeds, discovered links, and
// recrawl refills are all rejected from this point on) while letting
// already-queued work finish, rather than cancelling the run context.
// The frontier drains itself down to empty and the worker pool exits
// the normal way once Dequeue starts timing out.
func (e *CrawlEngine) Drain() {
	e.draining.Store(true)
}

// Draining reports whether Drain has been called.
func (e *CrawlEngine) Draining() bool { return e.draining.Load() }

// BoostDomain raises the queue priority of a domain's already-admitted
// entries, delegating to the frontier.
func (e *CrawlEngine) BoostDomain(domain string, delta int) { e.front.BoostDomain(domain, delta) }

// FreezeDomain stops future admission for a domain, delegating to the
// frontier. Entries already queued are left to drain naturally.
func (e *CrawlEngine) FreezeDomain(domain string) { e.front.FreezeDomain(domain) }

// UnfreezeDomain reverses FreezeDomain.
func (e *CrawlEngine) UnfreezeDomain(domain string) { e.front.UnfreezeDomain(domain) }

// QueueSnapshot returns the currently queued tokens, for the boundary's
// queue-contents read.
func (e *CrawlEngine) QueueSnapshot() []frontier.CrawlToken { return e.front.Snapshot() }

// AddSeed runs an operator-submitted URL through the same admission choke
// point as any crawl-discovered link, for the boundary's add_seeds write.
func (e *CrawlEngine) AddSeed(raw string) bool {
	return e.submitCandidate(raw, frontier.SourceSeed, 0, 0)
}

// verifyProxy builds a SOCKS client against the primary port, falling
// back to the secondary port once on failure. Two consecutive failures
// abort startup — this is the one place the engine returns an error
// before StateRun is ever reached.
func (e *CrawlEngine) verifyProxy() (*http.Client, error) {
	client, err := fetcher.NewSOCKSClient(e.cfg.SocksPrimaryPort(), e.cfg.Timeout())
	if err == nil {
		if pingErr := e.pingProxy(client); pingErr == nil {
			return client, nil
		}
	}

	e.recordError("engine", "verify_proxy_primary", logging.CauseNetworkFailure, "primary socks port unreachable")

	client, err = fetcher.NewSOCKSClient(e.cfg.SocksFallbackPort(), e.cfg.Timeout())
	if err != nil {
		e.recordError("engine", "verify_proxy_fallback", logging.CauseNetworkFailure, err.Error())
		return nil, err
	}
	if pingErr := e.pingProxy(client); pingErr != nil {
		e.recordError("engine", "verify_proxy_fallback", logging.CauseNetworkFailure, pingErr.Error())
		return nil, pingErr
	}
	return client, nil
}

// pingProxy dials the proxy against the first configured seed so a dead
// Tor daemon is caught at startup rather than on the first worker fetch.
func (e *CrawlEngine) pingProxy(client *http.Client) error {
	if len(e.cfg.SeedURLs()) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.Timeout())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, e.cfg.SeedURLs()[0], nil)
	if err != nil {
		return nil
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// loadVisited replays the store's visited-URL set into the frontier so a
// restarted crawl never re-admits pages it has already seen.
func (e *CrawlEngine) loadVisited() error {
	urls, err := e.store.VisitedURLs()
	if err != nil {
		e.recordError("engine", "load_visited", logging.CauseStorageFailure, err.Error())
		return nil
	}
	for _, u := range urls {
		e.front.MarkVisited(u)
	}
	return nil
}

// seed injects the configured seed URLs at the base priority. When the
// frontier ends up empty (a restart with every seed already visited) it
// falls back to pending_urls, then to mining links out of a bounded
// sample of previously-successful pages.
func (e *CrawlEngine) seed() error {
	for _, raw := range e.cfg.SeedURLs() {
		e.submitCandidate(raw, frontier.SourceSeed, 0, 0)
	}
	if e.front.Size() > 0 {
		return nil
	}
	return e.refillFromStore()
}

// refillFromStore is the bootstrap fallback chain: pending_urls first,
// then mining links from already-crawled pages, else the engine starts
// with an empty frontier and Run drains immediately.
func (e *CrawlEngine) refillFromStore() error {
	pending, err := e.store.PendingURLs(500)
	if err != nil {
		e.recordError("engine", "refill_pending", logging.CauseStorageFailure, err.Error())
	}
	for _, p := range pending {
		e.submitCandidate(p.URL, frontier.SourceCrawl, p.Depth, 0)
	}
	if e.front.Size() > 0 {
		return nil
	}

	urls, err := e.store.SuccessfulURLsForRecrawl(0, recrawlSeedLimit)
	if err != nil {
		e.recordError("engine", "refill_recrawl", logging.CauseStorageFailure, err.Error())
		return nil
	}

	discovered := 0
	for _, u := range urls {
		if discovered >= recrawlLinkCap {
			break
		}
		result, fetchErr := e.fetch.Fetch(context.Background(), e.client, fetcher.NewFetchParam(u, userAgent), e.retryParam())
		if fetchErr != nil {
			continue
		}
		links := e.discoverLinks(result)
		for _, link := range links {
			if discovered >= recrawlLinkCap {
				break
			}
			if e.submitCandidate(link, frontier.SourceCrawl, 1, 0) {
				discovered++
			}
		}
	}
	return nil
}

// submitCandidate is the sole admission choke point: every semantic
// check (validity, scope, domain policy, depth, dedup) happens here
// before a URL ever reaches the frontier. No other method calls
// e.front.Submit.
func (e *CrawlEngine) submitCandidate(raw string, source frontier.SourceContext, depth, boost int) bool {
	if e.draining.Load() {
		return false
	}
	if !analyzer.ValidateOnionURL(raw, e.cfg.IgnoredExtensions()) {
		return false
	}
	normalized, err := analyzer.NormalizeURL(raw)
	if err != nil {
		return false
	}

	domain := hostOf(normalized)
	if domain == "" {
		return false
	}

	policy, polErr := e.store.DomainPolicyFor(domain)
	if polErr == nil && policy != nil {
		if policy.Frozen() {
			return false
		}
		if policy.MaxDepth() > 0 && depth > policy.MaxDepth() {
			return false
		}
		boost += policy.PriorityBoost()
	}
	if maxDepth := e.cfg.MaxDepth(); maxDepth > 0 && depth > maxDepth {
		return false
	}

	candidate := frontier.NewCrawlAdmissionCandidate(normalized, domain, source, frontier.DiscoveryMetadata{
		Depth:         depth,
		PriorityBoost: boost,
	})
	return e.front.Submit(candidate)
}

// workerLoop pops one URL at a time and runs it through fetch, extract,
// persist, alert. A panic in one iteration is contained so it never
// takes down the rest of the pool.
func (e *CrawlEngine) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if e.Paused() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pausePollInterval):
			}
			continue
		}

		token, ok := e.front.Dequeue(e.cfg.QueueTimeout())
		if !ok {
			return
		}

		e.safeguard(func() { e.processOne(ctx, token) })
	}
}

// safeguard recovers from a panic in fn, counting it as an error rather
// than letting it escape the worker goroutine.
func (e *CrawlEngine) safeguard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.totalErrs.Add(1)
			e.recordError("engine", "worker_panic", logging.CauseInvariantViolation, "recovered panic in worker")
		}
	}()
	fn()
}

func (e *CrawlEngine) processOne(ctx context.Context, token frontier.CrawlToken) {
	domain := hostOf(token.URL())

	delay := e.limiter.ResolveDelay(domain)
	if delay > 0 {
		time.Sleep(delay)
	}

	client := e.clientFor()
	start := time.Now()
	result, fetchErr := e.fetch.Fetch(ctx, client, fetcher.NewFetchParam(token.URL(), userAgent), e.retryParam())

	if fetchErr != nil {
		e.limiter.Backoff(domain)
		e.totalErrs.Add(1)
		status := 0
		e.sink.RecordFetch(logging.NewFetchEvent(token.URL(), status, time.Since(start), "", 0, token.Depth()))
		e.recordError("engine", "fetch", logging.CauseNetworkFailure, fetchErr.Error())
		page := store.NewPage(token.URL(), domain, "", status, token.Depth(), 0)
		if saveErr := e.store.SavePage(page); saveErr != nil {
			e.recordError("engine", "save_page_status_only", logging.CauseStorageFailure, saveErr.Error())
		}
		return
	}
	e.limiter.ResetBackoff(domain)
	e.limiter.MarkLastFetchAsNow(domain)

	e.sink.RecordFetch(logging.NewFetchEvent(token.URL(), result.StatusCode(), result.Elapsed(), result.ContentType(), 0, token.Depth()))

	if !fetcher.IsHTML(result.ContentType()) {
		page := store.NewPage(token.URL(), domain, "", result.StatusCode(), token.Depth(), result.SizeBytes())
		if saveErr := e.store.SavePage(page); saveErr != nil {
			e.recordError("engine", "save_page_non_html", logging.CauseStorageFailure, saveErr.Error())
		}
		e.totalPages.Add(1)
		return
	}

	doc, parseErr := goquery.NewDocumentFromReader(strings.NewReader(string(result.Body())))
	if parseErr != nil {
		e.recordError("engine", "parse", logging.CauseContentInvalid, parseErr.Error())
		page := store.NewPage(token.URL(), domain, "", result.StatusCode(), token.Depth(), result.SizeBytes())
		if saveErr := e.store.SavePage(page); saveErr != nil {
			e.recordError("engine", "save_page_parse_failed", logging.CauseStorageFailure, saveErr.Error())
		}
		e.totalPages.Add(1)
		return
	}

	title := analyzer.ExtractTitle(doc)
	text := analyzer.ExtractText(doc)
	entities := entityextractor.ExtractAll(text)

	links := analyzer.ExtractLinks(token.URL(), doc, e.cfg.IgnoredExtensions())
	for _, link := range links {
		e.submitCandidate(link, frontier.SourceCrawl, token.Depth()+1, 0)
	}

	page := buildPage(token, domain, title, result, entities, links, text)
	if saveErr := e.store.SavePage(page); saveErr != nil {
		e.recordError("engine", "save_page", logging.CauseStorageFailure, saveErr.Error())
	}

	e.totalPages.Add(1)
	e.graph.IngestPage(toGraphEntities(entities), domain, token.URL())

	delta := e.contentDeltaPercent(token.URL(), result.Body())
	e.raiseAlerts(domain, token.URL(), title, text, entities, page, delta)
}

// clientFor returns the shared client, recycling it for a fresh circuit
// every session_recycle fetches. Recycling lives here in the worker, not
// in the fetcher, per fetcher's stateless-by-design doc comment.
func (e *CrawlEngine) clientFor() *http.Client {
	e.clientMu.Lock()
	defer e.clientMu.Unlock()

	recycle := e.cfg.SessionRecycle()
	if recycle > 0 {
		e.fetchesSince++
		if e.fetchesSince >= recycle {
			if fresh, err := fetcher.NewSOCKSClient(e.cfg.SocksPrimaryPort(), e.cfg.Timeout()); err == nil {
				e.client = fresh
			}
			e.fetchesSince = 0
		}
	}
	return e.client
}

func (e *CrawlEngine) retryParam() retry.RetryParam {
	backoff := timeutil.NewBackoffParam(e.cfg.BaseDelay(), 2.0, 30*time.Second)
	return retry.NewRetryParam(e.cfg.BaseDelay(), e.cfg.Jitter(), e.cfg.RandomSeed(), e.cfg.MaxRetries(), backoff)
}

func (e *CrawlEngine) discoverLinks(result fetcher.FetchResult) []string {
	if !fetcher.IsHTML(result.ContentType()) {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(result.Body())))
	if err != nil {
		return nil
	}
	return analyzer.ExtractLinks(result.URL(), doc, e.cfg.IgnoredExtensions())
}

func (e *CrawlEngine) raiseAlerts(domain, pageURL, title, text string, entities []entityextractor.Entity, page *store.Page, contentDeltaPercent float64) {
	hits := make([]alert.EntityHit, 0, len(entities))
	for _, ent := range entities {
		hits = append(hits, alert.EntityHit{Subtype: ent.Subtype, RawValue: ent.RawValue})
	}

	e.domainMu.Lock()
	e.domainEntities[domain] += len(entities)
	entityCountSameDomain := e.domainEntities[domain]
	e.domainMu.Unlock()

	raised := e.alerts.Evaluate(alert.EvaluateInput{
		Domain:                domain,
		URL:                   pageURL,
		Title:                 title,
		Content:               text,
		Entities:              hits,
		SiteCategory:          page.Category(),
		RiskScore:             page.RiskScore(),
		QueueDepth:            e.QueueDepth(),
		EntityCountSameDomain: entityCountSameDomain,
		ContentDeltaPercent:   contentDeltaPercent,
		PagesPerUnitTime:      e.pagesPerMinute(),
		TotalPagesCrawled:     int(e.totalPages.Load()),
	})
	if len(raised) == 0 {
		return
	}
	e.totalAlts.Add(int64(len(raised)))
	for _, a := range raised {
		row := store.AlertRow{
			Type:      string(a.Trigger),
			Message:   a.Title + ": " + a.Description,
			URL:       a.URL,
			Domain:    a.Domain,
			Severity:  string(a.Severity),
			CreatedAt: a.CreatedAt,
		}
		if err := e.store.SaveAlert(row); err != nil {
			e.recordError("engine", "save_alert", logging.CauseStorageFailure, err.Error())
		}
	}
}

func (e *CrawlEngine) recordError(pkg, action string, cause logging.ErrorCause, msg string) {
	e.sink.RecordError(logging.NewErrorRecord(pkg, action, cause, msg, time.Now(), logging.NewAttr(logging.AttrRunID, e.runID)))
}

// contentDeltaPercent hashes body with blake3 and compares it against the
// last hash seen for this URL, returning 100 on any change (including the
// first sighting) and 0 when the content is byte-identical to last crawl.
// A coarse two-value delta rather than a diff percentage — the catalog
// trigger only needs to know "changed" vs "unchanged".
func (e *CrawlEngine) contentDeltaPercent(pageURL string, body []byte) float64 {
	sum, err := hashutil.HashBytes(body, hashutil.HashAlgoBLAKE3)
	if err != nil {
		return 0
	}

	e.contentMu.Lock()
	defer e.contentMu.Unlock()
	prev, seen := e.contentHashes[pageURL]
	e.contentHashes[pageURL] = sum
	if !seen || prev != sum {
		return 100
	}
	return 0
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// buildPage assembles a store.Page from one successful HTML fetch,
// bucketing extracted entities into the page's typed intel columns and
// running the analyzer's language/category/tech-stack passes.
func buildPage(token frontier.CrawlToken, domain, title string, result fetcher.FetchResult, entities []entityextractor.Entity, links []string, text string) *store.Page {
	p := store.NewPage(token.URL(), domain, title, result.StatusCode(), token.Depth(), result.SizeBytes())

	secrets := map[string][]string{}
	cryptos := map[string][]string{}
	socials := map[string][]string{}
	var emails, ipLeaks, onionLinks, keywords []string

	for _, ent := range entities {
		switch {
		case ent.Group == entityextractor.GroupUsername:
			secrets[ent.Subtype] = append(secrets[ent.Subtype], ent.Value)
		case ent.Group == entityextractor.GroupCrypto:
			cryptos[ent.Subtype] = append(cryptos[ent.Subtype], ent.Value)
		case ent.Group == entityextractor.GroupSocial:
			socials[ent.Subtype] = append(socials[ent.Subtype], ent.Value)
		case ent.Group == entityextractor.GroupContact && ent.Subtype == "email":
			emails = append(emails, ent.Value)
		case ent.Group == entityextractor.GroupContact:
			socials[ent.Subtype] = append(socials[ent.Subtype], ent.Value)
		case ent.Group == entityextractor.GroupAddress && ent.Subtype == "ip_address":
			if analyzer.IsPublicIP(ent.Value) {
				ipLeaks = append(ipLeaks, ent.Value)
			}
		case ent.Group == entityextractor.GroupAddress && ent.Subtype == "onion_address":
			onionLinks = append(onionLinks, ent.Value)
		case ent.Group == entityextractor.GroupDocument:
			keywords = append(keywords, ent.Subtype)
		}
	}
	for _, link := range links {
		if host := hostOf(link); host != domain {
			onionLinks = append(onionLinks, link)
		}
	}

	p.SetSecrets(secrets).
		SetCryptos(cryptos).
		SetSocials(socials).
		SetEmails(emails).
		SetIPLeaks(ipLeaks).
		SetOnionLinks(onionLinks).
		SetKeywords(keywords).
		SetLanguage(analyzer.DetectLanguage(text)).
		SetCategory(analyzer.ClassifyCategory(title, text)).
		SetTechStack(analyzer.FingerprintTechStack(result.Headers(), result.CookieNames()))

	return p
}

func toGraphEntities(entities []entityextractor.Entity) []graph.Entity {
	out := make([]graph.Entity, 0, len(entities))
	for _, e := range entities {
		out = append(out, graph.Entity{Type: string(e.Group), Value: e.Value})
	}
	return out
}
