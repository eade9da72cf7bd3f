package store

import "time"

// suspiciousKeywords is the fixed set scored against a page's title for
// risk_score, per spec.
var suspiciousKeywords = []string{
	"market", "shop", "buy", "sell", "drug", "weapon", "hack", "leak", "dump", "card", "fraud", "exploit",
}

// Page is the primary crawl record, keyed by canonical URL.
type Page struct {
	url           string
	domain        string
	title         string
	httpStatus    int
	crawlDepth    int
	contentLength int
	secrets       map[string][]string
	cryptos       map[string][]string
	socials       map[string][]string
	emails        []string
	ipLeaks       []string
	techStack     []string
	onionLinks    []string
	language      string
	category      string
	keywords      []string
	riskScore     int
	foundAt       time.Time
	lastCrawl     time.Time
	review        string
}

// Review marks of an operator's intel triage, per the mark_intel boundary
// operation. Empty string means unreviewed.
const (
	ReviewImportant     = "important"
	ReviewFalsePositive = "false_positive"
)

// NewPage builds a Page with risk_score left uncomputed; Store.SavePage
// recomputes it before every write, so callers never need to call
// computeRiskScore themselves.
func NewPage(url, domain, title string, httpStatus, crawlDepth, contentLength int) *Page {
	return &Page{
		url:           url,
		domain:        domain,
		title:         title,
		httpStatus:    httpStatus,
		crawlDepth:    crawlDepth,
		contentLength: contentLength,
		secrets:       map[string][]string{},
		cryptos:       map[string][]string{},
		socials:       map[string][]string{},
	}
}

func (p *Page) URL() string              { return p.url }
func (p *Page) Domain() string           { return p.domain }
func (p *Page) Title() string            { return p.title }
func (p *Page) HTTPStatus() int          { return p.httpStatus }
func (p *Page) CrawlDepth() int          { return p.crawlDepth }
func (p *Page) ContentLength() int       { return p.contentLength }
func (p *Page) Secrets() map[string][]string { return p.secrets }
func (p *Page) Cryptos() map[string][]string { return p.cryptos }
func (p *Page) Socials() map[string][]string { return p.socials }
func (p *Page) Emails() []string         { return p.emails }
func (p *Page) IPLeaks() []string        { return p.ipLeaks }
func (p *Page) TechStack() []string      { return p.techStack }
func (p *Page) OnionLinks() []string     { return p.onionLinks }
func (p *Page) Language() string         { return p.language }
func (p *Page) Category() string         { return p.category }
func (p *Page) Keywords() []string       { return p.keywords }
func (p *Page) RiskScore() int           { return p.riskScore }
func (p *Page) FoundAt() time.Time       { return p.foundAt }
func (p *Page) LastCrawl() time.Time     { return p.lastCrawl }
func (p *Page) Review() string           { return p.review }

func (p *Page) SetHTTPStatus(status int) *Page        { p.httpStatus = status; return p }
func (p *Page) SetTitle(title string) *Page           { p.title = title; return p }
func (p *Page) SetContentLength(n int) *Page          { p.contentLength = n; return p }
func (p *Page) SetSecrets(v map[string][]string) *Page { p.secrets = v; return p }
func (p *Page) SetCryptos(v map[string][]string) *Page { p.cryptos = v; return p }
func (p *Page) SetSocials(v map[string][]string) *Page { p.socials = v; return p }
func (p *Page) SetEmails(v []string) *Page            { p.emails = v; return p }
func (p *Page) SetIPLeaks(v []string) *Page           { p.ipLeaks = v; return p }
func (p *Page) SetTechStack(v []string) *Page         { p.techStack = v; return p }
func (p *Page) SetOnionLinks(v []string) *Page        { p.onionLinks = v; return p }
func (p *Page) SetLanguage(v string) *Page            { p.language = v; return p }
func (p *Page) SetCategory(v string) *Page            { p.category = v; return p }
func (p *Page) SetKeywords(v []string) *Page          { p.keywords = v; return p }
func (p *Page) SetFoundAt(t time.Time) *Page          { p.foundAt = t; return p }
func (p *Page) SetLastCrawl(t time.Time) *Page        { p.lastCrawl = t; return p }
func (p *Page) SetReview(v string) *Page              { p.review = v; return p }

// computeRiskScore is a pure function of a Page's stored fields, bounded to
// [0,100]. It is recomputed on every write — never stored stale.
func computeRiskScore(p *Page) int {
	score := 0

	score += min(10*len(p.secrets), 30)

	cryptoCount := 0
	for _, list := range p.cryptos {
		cryptoCount += len(list)
	}
	score += min(2*cryptoCount, 20)

	score += min(len(p.emails), 10)

	// ipLeaks only ever holds public addresses — private/loopback/link-local
	// hits are filtered out before SetIPLeaks, in the engine's entity
	// bucketing step — so any non-empty entry here already satisfies "any
	// public IP leak".
	for _, leak := range p.ipLeaks {
		if leak != "" {
			score += 20
			break
		}
	}

	titleLower := toLowerASCII(p.title)
	for _, kw := range suspiciousKeywords {
		if containsASCII(titleLower, kw) {
			score += 5
		}
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

func containsASCII(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

// DomainPolicy is per-domain crawl behavior.
type DomainPolicy struct {
	domain        string
	status        DomainStatus
	trustLevel    int
	maxDepth      int
	delayMs       int
	priorityBoost int
	notes         string
}

type DomainStatus string

const (
	DomainStatusNormal   DomainStatus = "normal"
	DomainStatusFrozen   DomainStatus = "frozen"
	DomainStatusPriority DomainStatus = "priority"
)

func NewDomainPolicy(domain string) *DomainPolicy {
	return &DomainPolicy{domain: domain, status: DomainStatusNormal, trustLevel: 50, maxDepth: 10, delayMs: 2000}
}

func (d *DomainPolicy) Domain() string          { return d.domain }
func (d *DomainPolicy) Status() DomainStatus     { return d.status }
func (d *DomainPolicy) TrustLevel() int          { return d.trustLevel }
func (d *DomainPolicy) MaxDepth() int            { return d.maxDepth }
func (d *DomainPolicy) DelayMs() int             { return d.delayMs }
func (d *DomainPolicy) PriorityBoost() int       { return d.priorityBoost }
func (d *DomainPolicy) Notes() string            { return d.notes }
func (d *DomainPolicy) Frozen() bool             { return d.status == DomainStatusFrozen }

func (d *DomainPolicy) SetStatus(s DomainStatus) *DomainPolicy     { d.status = s; return d }
func (d *DomainPolicy) SetTrustLevel(v int) *DomainPolicy          { d.trustLevel = v; return d }
func (d *DomainPolicy) SetMaxDepth(v int) *DomainPolicy            { d.maxDepth = v; return d }
func (d *DomainPolicy) SetDelayMs(v int) *DomainPolicy             { d.delayMs = v; return d }
func (d *DomainPolicy) SetPriorityBoost(v int) *DomainPolicy       { d.priorityBoost = v; return d }
func (d *DomainPolicy) SetNotes(v string) *DomainPolicy            { d.notes = v; return d }

// AlertRow is the Store's persisted projection of an alert (§6: auto
// increment id, type, message, url, domain, severity, read flag, created_at).
type AlertRow struct {
	ID        int64
	Type      string
	Message   string
	URL       string
	Domain    string
	Severity  string
	Read      bool
	CreatedAt time.Time
}

// Stats is the aggregate counts/averages used by the dashboard and the
// engine's progress logs.
type Stats struct {
	TotalPages      int
	PagesByStatus   map[int]int
	AverageRisk     float64
	TotalEntitiesSeen int
	DomainsSeen     int
}
