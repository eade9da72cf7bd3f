package alert

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const historyCapacity = 1000

// WebhookTargets are the configured fanout destinations; an empty field
// is a silent no-op, per spec.
type WebhookTargets struct {
	Generic string
	Slack   string
	Discord string

	TelegramBotToken string
	TelegramChatID   string
}

// Sender posts one alert to one webhook target. The zero value of
// AlertManager uses httpSender, a thin JSON POST over net/http; tests
// inject a stub.
type Sender interface {
	Send(target string, a Alert) error
}

type httpSender struct {
	client *http.Client
}

func (h httpSender) Send(target string, a Alert) error {
	body, err := json.Marshal(a)
	if err != nil {
		return err
	}
	resp, err := h.client.Post(target, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// Manager maintains the bounded alert history, watchlists, and webhook
// fanout. All mutating operations serialize under a single lock; fanout
// itself runs off-thread so it never blocks the crawl loop.
type Manager struct {
	mu sync.Mutex

	history    []Alert
	writeIndex int
	filled     bool
	nextID     int64

	watchlists      Watchlists
	notifySeverities map[Severity]bool
	targets         WebhookTargets
	sender          Sender
	limiter         *rate.Limiter

	callbacks []func(Alert)
}

// New builds a Manager. notifySeverities controls which severities ever
// reach webhook fanout; ratePerMinute configures the token bucket (default
// 10/minute per spec).
func New(watchlists Watchlists, notifySeverities map[Severity]bool, targets WebhookTargets, ratePerMinute int) *Manager {
	if ratePerMinute <= 0 {
		ratePerMinute = 10
	}
	return &Manager{
		history:          make([]Alert, 0, historyCapacity),
		watchlists:       watchlists,
		notifySeverities: notifySeverities,
		targets:          targets,
		sender:           httpSender{client: &http.Client{Timeout: 10 * time.Second}},
		limiter:          rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60.0), ratePerMinute),
	}
}

// SetSender overrides the webhook transport — used by tests and by
// callers wiring Slack/Discord-specific formatting.
func (m *Manager) SetSender(s Sender) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sender = s
}

// OnAlert registers a synchronous callback invoked on every CreateAlert,
// before webhook fanout is scheduled.
func (m *Manager) OnAlert(cb func(Alert)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// CreateAlert assigns a monotonic id, appends to the ring-buffer history,
// invokes registered callbacks synchronously, and — when the configured
// notify-level set contains this severity — schedules webhook fanout
// asynchronously.
func (m *Manager) CreateAlert(severity Severity, trigger Trigger, title, description, domain, url string, context map[string]string) Alert {
	m.mu.Lock()
	m.nextID++
	a := Alert{
		ID:          m.nextID,
		Severity:    severity,
		Trigger:     trigger,
		Title:       title,
		Description: description,
		Domain:      domain,
		URL:         url,
		Context:     context,
		CreatedAt:   time.Now(),
	}
	m.appendHistoryLocked(a)
	callbacks := append([]func(Alert){}, m.callbacks...)
	notify := m.notifySeverities[severity]
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb(a)
	}

	if notify {
		m.scheduleFanout(a)
	}

	return a
}

func (m *Manager) appendHistoryLocked(a Alert) {
	if len(m.history) < historyCapacity {
		m.history = append(m.history, a)
		return
	}
	m.history[m.writeIndex] = a
	m.writeIndex = (m.writeIndex + 1) % historyCapacity
	m.filled = true
}

// History returns the current ring-buffer contents, oldest first.
func (m *Manager) History() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.filled {
		out := make([]Alert, len(m.history))
		copy(out, m.history)
		return out
	}
	out := make([]Alert, 0, historyCapacity)
	out = append(out, m.history[m.writeIndex:]...)
	out = append(out, m.history[:m.writeIndex]...)
	return out
}

// Acknowledge idempotently flips the acknowledged flag on a past alert.
func (m *Manager) Acknowledge(id int64, who string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.history {
		if m.history[i].ID == id {
			m.history[i].Acknowledged = true
			m.history[i].AcknowledgedBy = who
			return true
		}
	}
	return false
}

// scheduleFanout drops the event (not queues it) when the rate limiter
// is exhausted — best-effort, never blocks the crawl loop.
func (m *Manager) scheduleFanout(a Alert) {
	m.mu.Lock()
	targets := m.targets
	sender := m.sender
	limiter := m.limiter
	m.mu.Unlock()

	for _, target := range []string{targets.Generic, targets.Slack, targets.Discord} {
		if target == "" {
			continue
		}
		if !limiter.Allow() {
			continue
		}
		go sender.Send(target, a)
	}
}

// Evaluate runs every applicable trigger against one page's signal and
// returns the alerts raised — CreateAlert is called for each, so the
// history and fanout side effects happen as part of evaluation.
func (m *Manager) Evaluate(in EvaluateInput) []Alert {
	var raised []Alert
	raise := func(severity Severity, trigger Trigger, title, description string) {
		raised = append(raised, m.CreateAlert(severity, trigger, title, description, in.Domain, in.URL, nil))
	}

	lowerContent := strings.ToLower(in.Content)
	for _, kw := range ransomwareKeywords {
		if strings.Contains(lowerContent, kw) {
			raise(SeverityCritical, TriggerRansomwareGroupMentioned, "Ransomware group mentioned", "matched keyword: "+kw)
			break
		}
	}
	for _, kw := range malwareC2Keywords {
		if strings.Contains(lowerContent, kw) {
			raise(SeverityCritical, TriggerKnownMalwareC2, "Known malware C2 indicator", "matched keyword: "+kw)
			break
		}
	}

	indicatorHits := 0
	for _, e := range in.Entities {
		for _, term := range credentialIndicatorTerms {
			if strings.Contains(strings.ToLower(e.RawValue), term) {
				indicatorHits++
				break
			}
		}
	}
	if indicatorHits >= credentialsDumpMinIndicatorHits {
		raise(SeverityCritical, TriggerCredentialsDumpDetected, "Credentials dump detected", "indicator term hits across extracted entities")
	}

	if containsDomain(m.watchlists.InternalDomains, in.Domain) {
		raise(SeverityCritical, TriggerInternalDomainFound, "Internal domain found", in.Domain)
	}

	if in.WalletTxBTC >= walletMajorTransactionDefaultBTC {
		raise(SeverityCritical, TriggerWalletMajorTransaction, "Major wallet transaction observed", in.Domain)
	}

	if in.SiteCategory == "breach_market" {
		raise(SeverityHigh, TriggerNewBreachSite, "New breach marketplace", in.Domain)
	}
	if containsDomain(m.watchlists.WatchlistDomains, in.Domain) {
		raise(SeverityHigh, TriggerDomainInWatchlist, "Watchlisted domain seen", in.Domain)
	}
	if in.EntityCountSameDomain >= multiplePatternsSameDomainThreshold {
		raise(SeverityHigh, TriggerMultiplePatternsSameDomain, "Multiple patterns on same domain", in.Domain)
	}
	if in.MirrorsFound {
		raise(SeverityHigh, TriggerDomainMirrorsFound, "Domain mirrors found", in.Domain)
	}
	if in.IsNewVendorListing {
		raise(SeverityHigh, TriggerNewMarketplaceVendor, "New marketplace vendor", in.Domain)
	}

	if in.IsNewDomain {
		raise(SeverityMedium, TriggerNewDomainDiscovered, "New domain discovered", in.Domain)
	}
	if in.PagesPerUnitTime > unusualCrawlActivityThreshold {
		raise(SeverityMedium, TriggerUnusualCrawlActivity, "Unusual crawl activity", in.Domain)
	}
	if in.ContentDeltaPercent > domainContentChangedDeltaPct {
		raise(SeverityMedium, TriggerDomainContentChanged, "Domain content changed", in.Domain)
	}
	for _, e := range in.Entities {
		if e.Subtype == "email" {
			raise(SeverityMedium, TriggerNewEmailPattern, "New email pattern observed", in.Domain)
			break
		}
	}
	if in.RiskScore >= highRiskScoreThreshold {
		raise(SeverityMedium, TriggerHighRiskScore, "High risk score", in.Domain)
	}

	for _, milestone := range queueMilestones {
		if in.QueueDepth == milestone {
			raise(SeverityLow, TriggerQueueMilestone, "Queue milestone reached", in.Domain)
			break
		}
	}
	for _, milestone := range queueMilestones {
		if in.TotalPagesCrawled == milestone {
			raise(SeverityLow, TriggerCrawlerStatsUpdate, "Crawler stats update", in.Domain)
			break
		}
	}
	if len(in.Entities) > 0 {
		raise(SeverityLow, TriggerPatternDetected, "Pattern detected", in.Domain)
	}
	raise(SeverityLow, TriggerDomainNewPage, "New page crawled", in.URL)

	return raised
}

// SeverityOf returns the fixed severity for a trigger name.
func SeverityOf(t Trigger) Severity {
	return triggerSeverity[t]
}
