// Package alert runs the fixed trigger taxonomy against crawl output,
// keeps a bounded in-memory history, and fans webhook notifications out
// to whatever targets are configured — best-effort, rate-limited, and
// never on the critical path of the crawl loop.
package alert

import "time"

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Trigger names every member of the fixed taxonomy, grouped by severity.
type Trigger string

const (
	TriggerRansomwareGroupMentioned Trigger = "ransomware_group_mentioned"
	TriggerCredentialsDumpDetected  Trigger = "credentials_dump_detected"
	TriggerInternalDomainFound      Trigger = "internal_domain_found"
	TriggerKnownMalwareC2           Trigger = "known_malware_c2"
	TriggerWalletMajorTransaction   Trigger = "wallet_major_transaction"

	TriggerNewBreachSite           Trigger = "new_breach_site"
	TriggerDomainInWatchlist       Trigger = "domain_in_watchlist"
	TriggerMultiplePatternsSameDomain Trigger = "multiple_patterns_same_domain"
	TriggerDomainMirrorsFound       Trigger = "domain_mirrors_found"
	TriggerNewMarketplaceVendor     Trigger = "new_marketplace_vendor"

	TriggerNewDomainDiscovered   Trigger = "new_domain_discovered"
	TriggerUnusualCrawlActivity  Trigger = "unusual_crawl_activity"
	TriggerDomainContentChanged  Trigger = "domain_content_changed"
	TriggerNewEmailPattern       Trigger = "new_email_pattern"
	TriggerHighRiskScore         Trigger = "high_risk_score"

	TriggerCrawlerStatsUpdate Trigger = "crawler_stats_update"
	TriggerPatternDetected    Trigger = "pattern_detected"
	TriggerDomainNewPage      Trigger = "domain_new_page"
	TriggerQueueMilestone     Trigger = "queue_milestone"
)

var triggerSeverity = map[Trigger]Severity{
	TriggerRansomwareGroupMentioned:   SeverityCritical,
	TriggerCredentialsDumpDetected:    SeverityCritical,
	TriggerInternalDomainFound:        SeverityCritical,
	TriggerKnownMalwareC2:             SeverityCritical,
	TriggerWalletMajorTransaction:     SeverityCritical,

	TriggerNewBreachSite:              SeverityHigh,
	TriggerDomainInWatchlist:          SeverityHigh,
	TriggerMultiplePatternsSameDomain: SeverityHigh,
	TriggerDomainMirrorsFound:         SeverityHigh,
	TriggerNewMarketplaceVendor:       SeverityHigh,

	TriggerNewDomainDiscovered:  SeverityMedium,
	TriggerUnusualCrawlActivity: SeverityMedium,
	TriggerDomainContentChanged: SeverityMedium,
	TriggerNewEmailPattern:      SeverityMedium,
	TriggerHighRiskScore:        SeverityMedium,

	TriggerCrawlerStatsUpdate: SeverityLow,
	TriggerPatternDetected:    SeverityLow,
	TriggerDomainNewPage:      SeverityLow,
	TriggerQueueMilestone:     SeverityLow,
}

// ransomwareKeywords and malwareC2Keywords are the fixed substring lists
// ransomware_group_mentioned and known_malware_c2 check against page
// content (case-insensitive).
var ransomwareKeywords = []string{
	"lockbit", "alphv", "blackcat", "conti", "revil", "cl0p", "darkside", "hive", "royal", "akira",
}

var malwareC2Keywords = []string{
	"cobalt strike", "command and control", "c2 panel", "beacon callback", "botnet panel",
}

// credentialIndicatorTerms are the terms credentials_dump_detected counts
// against each extracted entity's raw value — substring match, never a
// stringified-collection match.
var credentialIndicatorTerms = []string{
	"password", "passwd", "login:", "user:", "combo", "dump", "leaked", "credential",
}

const credentialsDumpMinIndicatorHits = 3
const multiplePatternsSameDomainThreshold = 5
const highRiskScoreThreshold = 70
const unusualCrawlActivityThreshold = 100
const domainContentChangedDeltaPct = 50.0
const walletMajorTransactionDefaultBTC = 10.0

// queueMilestones is shared by queue_milestone (checked against queue depth)
// and crawler_stats_update (checked against total pages crawled) — both are
// round-number progress pings at the same cadence.
var queueMilestones = []int{100, 500, 1000, 5000}

// Watchlists are user-configured domain/email/wallet sets checked by the
// HIGH/CRITICAL triggers.
type Watchlists struct {
	InternalDomains  []string
	WatchlistDomains []string
	WatchlistEmails  []string
	WatchlistWallets []string
}

func containsDomain(list []string, domain string) bool {
	for _, d := range list {
		if d == domain {
			return true
		}
	}
	return false
}

// EntityHit is the minimal view of an extracted entity AlertManager needs
// — subtype plus raw value — independent of entityextractor's richer type
// so this package has no import-time coupling to the extraction layer.
type EntityHit struct {
	Subtype  string
	RawValue string
}

// EvaluateInput bundles everything evaluate(...) needs to run every
// applicable trigger for one page.
type EvaluateInput struct {
	Domain              string
	URL                 string
	Title               string
	Content              string
	Entities            []EntityHit
	SiteCategory         string
	RiskScore            int
	IsNewDomain          bool
	PagesPerUnitTime     int
	ContentDeltaPercent  float64
	WalletTxBTC          float64
	QueueDepth           int
	EntityCountSameDomain int
	MirrorsFound         bool
	IsNewVendorListing   bool
	TotalPagesCrawled    int
}

// Alert is one raised or manually created alert, persisted as a
// store.AlertRow by the engine and displayed verbatim by the dashboard.
type Alert struct {
	ID             int64
	Severity       Severity
	Trigger        Trigger
	Title          string
	Description    string
	Domain         string
	URL            string
	Context        map[string]string
	CreatedAt      time.Time
	Acknowledged   bool
	AcknowledgedBy string
}
