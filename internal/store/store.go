package store

import (
	"bufio"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/onionwatch/onionwatch/pkg/failure"
)

// Store is durable, concurrency-safe persistence over a single embedded
// SQLite file. All mutating operations serialize under writeMu (the
// teacher's "Scheduler is the sole control-plane authority" discipline,
// generalized from in-memory state to the DB handle); reads use a
// separate connection and may overlap freely.
type Store struct {
	writeMu sync.Mutex
	writeDB *sqlx.DB
	readDB  *sqlx.DB
	cipher  FieldCipher

	pageInsertHook func(*Page)
}

// Open creates or opens the SQLite file at path, running additive-only
// schema migration, and returns a ready Store. cipher may be nil, in which
// case PlaintextCipher is used.
func Open(path string, cipher FieldCipher) (*Store, error) {
	if cipher == nil {
		cipher = PlaintextCipher{}
	}

	writeDB, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, &StoreError{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailed}
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, &StoreError{Message: err.Error(), Retryable: false, Cause: ErrCauseOpenFailed}
	}

	s := &Store{writeDB: writeDB, readDB: readDB, cipher: cipher}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	werr := s.writeDB.Close()
	rerr := s.readDB.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// SetPageInsertHook registers the callback invoked after SavePage inserts a
// brand-new row with status 200 — the "emits domain-derived signals to
// AlertManager" hook from spec.md §4.1. Called outside the write lock.
func (s *Store) SetPageInsertHook(hook func(*Page)) {
	s.pageInsertHook = hook
}

const expectedIntelColumns = `
url TEXT PRIMARY KEY,
domain TEXT NOT NULL,
title TEXT,
http_status INTEGER NOT NULL DEFAULT 0,
crawl_depth INTEGER NOT NULL DEFAULT 0,
content_length INTEGER NOT NULL DEFAULT 0,
secrets TEXT NOT NULL DEFAULT '{}',
cryptos TEXT NOT NULL DEFAULT '{}',
socials TEXT NOT NULL DEFAULT '{}',
emails TEXT NOT NULL DEFAULT '[]',
ip_leaks TEXT NOT NULL DEFAULT '[]',
tech_stack TEXT NOT NULL DEFAULT '[]',
onion_links TEXT NOT NULL DEFAULT '[]',
language TEXT NOT NULL DEFAULT '',
category TEXT NOT NULL DEFAULT '',
keywords TEXT NOT NULL DEFAULT '[]',
risk_score INTEGER NOT NULL DEFAULT 0,
found_at TEXT NOT NULL DEFAULT '',
last_crawl TEXT NOT NULL DEFAULT ''
`

// ensureSchema creates tables if absent and adds any missing columns to
// intel without touching existing data or narrowing/renaming anything —
// the additive-only discipline spec.md §4.1 requires.
func (s *Store) ensureSchema() error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS intel (%s)`, expectedIntelColumns),
		`CREATE INDEX IF NOT EXISTS idx_intel_domain ON intel(domain)`,
		`CREATE INDEX IF NOT EXISTS idx_intel_status ON intel(http_status)`,
		`CREATE INDEX IF NOT EXISTS idx_intel_risk ON intel(risk_score)`,
		`CREATE TABLE IF NOT EXISTS domain_lists (
			domain TEXT PRIMARY KEY,
			list_type TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			added_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS domain_policy (
			domain TEXT PRIMARY KEY,
			status TEXT NOT NULL DEFAULT 'normal',
			trust_level INTEGER NOT NULL DEFAULT 50,
			max_depth INTEGER NOT NULL DEFAULT 10,
			delay_ms INTEGER NOT NULL DEFAULT 2000,
			priority_boost INTEGER NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			message TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			domain TEXT NOT NULL DEFAULT '',
			severity TEXT NOT NULL,
			read INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for _, stmt := range stmts {
		if _, err := s.writeDB.Exec(stmt); err != nil {
			return &StoreError{Message: err.Error(), Retryable: false, Cause: ErrCauseMigration}
		}
	}

	return s.addMissingIntelColumns()
}

func (s *Store) addMissingIntelColumns() error {
	rows, err := s.writeDB.Query(`PRAGMA table_info(intel)`)
	if err != nil {
		return &StoreError{Message: err.Error(), Retryable: false, Cause: ErrCauseMigration}
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return &StoreError{Message: err.Error(), Retryable: false, Cause: ErrCauseMigration}
		}
		existing[name] = struct{}{}
	}

	wanted := map[string]string{
		"tech_stack":  `TEXT NOT NULL DEFAULT '[]'`,
		"onion_links": `TEXT NOT NULL DEFAULT '[]'`,
		"keywords":    `TEXT NOT NULL DEFAULT '[]'`,
		"review":      `TEXT NOT NULL DEFAULT ''`,
	}
	for col, ddl := range wanted {
		if _, ok := existing[col]; ok {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE intel ADD COLUMN %s %s", col, ddl)
		if _, err := s.writeDB.Exec(stmt); err != nil {
			return &StoreError{Message: err.Error(), Retryable: false, Cause: ErrCauseMigration}
		}
	}
	return nil
}

type intelRow struct {
	URL           string `db:"url"`
	Domain        string `db:"domain"`
	Title         string `db:"title"`
	HTTPStatus    int    `db:"http_status"`
	CrawlDepth    int    `db:"crawl_depth"`
	ContentLength int    `db:"content_length"`
	Secrets       string `db:"secrets"`
	Cryptos       string `db:"cryptos"`
	Socials       string `db:"socials"`
	Emails        string `db:"emails"`
	IPLeaks       string `db:"ip_leaks"`
	TechStack     string `db:"tech_stack"`
	OnionLinks    string `db:"onion_links"`
	Language      string `db:"language"`
	Category      string `db:"category"`
	Keywords      string `db:"keywords"`
	RiskScore     int    `db:"risk_score"`
	FoundAt       string `db:"found_at"`
	LastCrawl     string `db:"last_crawl"`
	Review        string `db:"review"`
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func (s *Store) toRow(p *Page) intelRow {
	return intelRow{
		URL:           p.url,
		Domain:        p.domain,
		Title:         p.title,
		HTTPStatus:    p.httpStatus,
		CrawlDepth:    p.crawlDepth,
		ContentLength: p.contentLength,
		Secrets:       marshalJSON(p.secrets),
		Cryptos:       marshalJSON(p.cryptos),
		Socials:       marshalJSON(p.socials),
		Emails:        marshalJSON(p.emails),
		IPLeaks:       marshalJSON(p.ipLeaks),
		TechStack:     marshalJSON(p.techStack),
		OnionLinks:    marshalJSON(p.onionLinks),
		Language:      p.language,
		Category:      p.category,
		Keywords:      marshalJSON(p.keywords),
		RiskScore:     p.riskScore,
		FoundAt:       p.foundAt.UTC().Format(time.RFC3339),
		LastCrawl:     p.lastCrawl.UTC().Format(time.RFC3339),
		Review:        p.review,
	}
}

func fromRow(r intelRow) *Page {
	p := NewPage(r.URL, r.Domain, r.Title, r.HTTPStatus, r.CrawlDepth, r.ContentLength)
	json.Unmarshal([]byte(r.Secrets), &p.secrets)
	json.Unmarshal([]byte(r.Cryptos), &p.cryptos)
	json.Unmarshal([]byte(r.Socials), &p.socials)
	json.Unmarshal([]byte(r.Emails), &p.emails)
	json.Unmarshal([]byte(r.IPLeaks), &p.ipLeaks)
	json.Unmarshal([]byte(r.TechStack), &p.techStack)
	json.Unmarshal([]byte(r.OnionLinks), &p.onionLinks)
	p.language = r.Language
	p.category = r.Category
	json.Unmarshal([]byte(r.Keywords), &p.keywords)
	p.riskScore = r.RiskScore
	p.foundAt, _ = time.Parse(time.RFC3339, r.FoundAt)
	p.lastCrawl, _ = time.Parse(time.RFC3339, r.LastCrawl)
	p.review = r.Review
	return p
}

// SavePage upserts a page by URL, recomputing risk_score before the write.
// On insert (not update) of a status==200 page, the registered insert hook
// fires after the write lock is released.
func (s *Store) SavePage(p *Page) failure.ClassifiedError {
	if p.url == "" {
		return &StoreError{Message: "page url is empty", Retryable: false, Cause: ErrCauseInvalidInput}
	}

	now := time.Now()
	if p.foundAt.IsZero() {
		p.foundAt = now
	}
	p.lastCrawl = now
	p.riskScore = computeRiskScore(p)

	row := s.toRow(p)

	s.writeMu.Lock()
	var existed int
	_ = s.writeDB.Get(&existed, `SELECT COUNT(1) FROM intel WHERE url = ?`, p.url)

	// review is intentionally excluded from the ON CONFLICT UPDATE SET list:
	// it is an operator-set triage mark (mark_intel), and a re-crawl of an
	// already-marked page must never silently wipe that mark back to ''.
	_, err := s.writeDB.NamedExec(`
		INSERT INTO intel (url, domain, title, http_status, crawl_depth, content_length, secrets, cryptos,
			socials, emails, ip_leaks, tech_stack, onion_links, language, category, keywords, risk_score,
			found_at, last_crawl, review)
		VALUES (:url, :domain, :title, :http_status, :crawl_depth, :content_length, :secrets, :cryptos,
			:socials, :emails, :ip_leaks, :tech_stack, :onion_links, :language, :category, :keywords, :risk_score,
			:found_at, :last_crawl, :review)
		ON CONFLICT(url) DO UPDATE SET
			domain=excluded.domain, title=excluded.title, http_status=excluded.http_status,
			crawl_depth=excluded.crawl_depth, content_length=excluded.content_length,
			secrets=excluded.secrets, cryptos=excluded.cryptos, socials=excluded.socials,
			emails=excluded.emails, ip_leaks=excluded.ip_leaks, tech_stack=excluded.tech_stack,
			onion_links=excluded.onion_links, language=excluded.language, category=excluded.category,
			keywords=excluded.keywords, risk_score=excluded.risk_score, last_crawl=excluded.last_crawl
	`, row)
	s.writeMu.Unlock()

	if err != nil {
		return &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteFailed}
	}

	if existed == 0 && p.httpStatus == 200 && s.pageInsertHook != nil {
		s.pageInsertHook(p)
	}
	return nil
}

// VisitedURLs returns the set of every known URL, read once at engine
// startup to reconstruct the visited-set.
func (s *Store) VisitedURLs() ([]string, failure.ClassifiedError) {
	var urls []string
	if err := s.readDB.Select(&urls, `SELECT url FROM intel`); err != nil {
		return nil, &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseReadFailed}
	}
	return urls, nil
}

type PendingURL struct {
	URL   string
	Depth int
}

// PendingURLs returns (url, depth) pairs for rows not yet successfully
// fetched, bounded and ordered (depth asc, found_at desc).
func (s *Store) PendingURLs(limit int) ([]PendingURL, failure.ClassifiedError) {
	var rows []struct {
		URL   string `db:"url"`
		Depth int    `db:"crawl_depth"`
	}
	err := s.readDB.Select(&rows, `
		SELECT url, crawl_depth FROM intel
		WHERE http_status = 0 OR http_status >= 400
		ORDER BY crawl_depth ASC, found_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseReadFailed}
	}
	out := make([]PendingURL, len(rows))
	for i, r := range rows {
		out[i] = PendingURL{URL: r.URL, Depth: r.Depth}
	}
	return out, nil
}

// AddPendingURL inserts a not-yet-fetched row for the boundary's add_seeds
// operation, so an operator-submitted URL survives a restart even before
// the engine's frontier ever admits it. A no-op if the URL is already
// known (crawled or pending) — ON CONFLICT DO NOTHING preserves whatever
// status the existing row already carries.
func (s *Store) AddPendingURL(url, domain string, depth int) failure.ClassifiedError {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.writeDB.Exec(`
		INSERT INTO intel (url, domain, crawl_depth, found_at, last_crawl)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING
	`, url, domain, depth, time.Now().UTC().Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteFailed}
	}
	return nil
}

// MarkIntel records an operator's triage decision (important/false_positive)
// against an already-crawled URL. Unlike SavePage's upsert, this never
// touches any other column.
func (s *Store) MarkIntel(url, mark string) failure.ClassifiedError {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.writeDB.Exec(`UPDATE intel SET review = ? WHERE url = ?`, mark, url)
	if err != nil {
		return &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteFailed}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &StoreError{Message: "no such url: " + url, Retryable: false, Cause: ErrCauseInvalidInput}
	}
	return nil
}

// RecentPages returns up to limit pages ordered by most-recently-crawled
// first, for the boundary's recent-pages read.
func (s *Store) RecentPages(limit int) ([]*Page, failure.ClassifiedError) {
	var rows []intelRow
	err := s.readDB.Select(&rows, `SELECT * FROM intel ORDER BY last_crawl DESC LIMIT ?`, limit)
	if err != nil {
		return nil, &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseReadFailed}
	}
	pages := make([]*Page, len(rows))
	for i, r := range rows {
		pages[i] = fromRow(r)
	}
	return pages, nil
}

// TimelineBucket is one day's worth of crawl/alert activity.
type TimelineBucket struct {
	Date       string
	PagesFound int
	Alerts     int
}

// TimelineBuckets groups found_at/created_at timestamps into UTC calendar
// days across both intel and alerts, for the boundary's timeline read.
func (s *Store) TimelineBuckets(days int) ([]TimelineBucket, failure.ClassifiedError) {
	cutoff := time.Now().AddDate(0, 0, -days).UTC().Format(time.RFC3339)

	var pageRows []struct {
		Date  string `db:"date"`
		Count int    `db:"count"`
	}
	err := s.readDB.Select(&pageRows, `
		SELECT substr(found_at, 1, 10) AS date, COUNT(1) AS count
		FROM intel WHERE found_at >= ? GROUP BY date ORDER BY date
	`, cutoff)
	if err != nil {
		return nil, &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseReadFailed}
	}

	var alertRows []struct {
		Date  string `db:"date"`
		Count int    `db:"count"`
	}
	err = s.readDB.Select(&alertRows, `
		SELECT substr(created_at, 1, 10) AS date, COUNT(1) AS count
		FROM alerts WHERE created_at >= ? GROUP BY date ORDER BY date
	`, cutoff)
	if err != nil {
		return nil, &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseReadFailed}
	}

	byDate := map[string]*TimelineBucket{}
	order := []string{}
	get := func(date string) *TimelineBucket {
		b, ok := byDate[date]
		if !ok {
			b = &TimelineBucket{Date: date}
			byDate[date] = b
			order = append(order, date)
		}
		return b
	}
	for _, r := range pageRows {
		get(r.Date).PagesFound = r.Count
	}
	for _, r := range alertRows {
		get(r.Date).Alerts = r.Count
	}
	sort.Strings(order)

	out := make([]TimelineBucket, len(order))
	for i, d := range order {
		out[i] = *byDate[d]
	}
	return out, nil
}

// SuccessfulURLsForRecrawl returns recent status==200 URLs at or beyond
// minDepth, used to mine links when the frontier runs dry.
func (s *Store) SuccessfulURLsForRecrawl(minDepth, limit int) ([]string, failure.ClassifiedError) {
	var urls []string
	err := s.readDB.Select(&urls, `
		SELECT url FROM intel
		WHERE http_status = 200 AND crawl_depth >= ?
		ORDER BY last_crawl DESC
		LIMIT ?
	`, minDepth, limit)
	if err != nil {
		return nil, &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseReadFailed}
	}
	return urls, nil
}

// AllPages returns every persisted page, used by Graph.Rehydrate on
// startup to replay extracted entities back into the in-memory graph.
func (s *Store) AllPages() ([]*Page, failure.ClassifiedError) {
	var rows []intelRow
	if err := s.readDB.Select(&rows, `SELECT * FROM intel`); err != nil {
		return nil, &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseReadFailed}
	}
	pages := make([]*Page, len(rows))
	for i, r := range rows {
		pages[i] = fromRow(r)
	}
	return pages, nil
}

func (s *Store) GetStats() (Stats, failure.ClassifiedError) {
	var rows []intelRow
	if err := s.readDB.Select(&rows, `SELECT * FROM intel`); err != nil {
		return Stats{}, &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseReadFailed}
	}

	stats := Stats{PagesByStatus: map[int]int{}}
	domains := map[string]struct{}{}
	var riskSum int
	for _, r := range rows {
		stats.TotalPages++
		stats.PagesByStatus[r.HTTPStatus]++
		riskSum += r.RiskScore
		domains[r.Domain] = struct{}{}
	}
	stats.DomainsSeen = len(domains)
	if stats.TotalPages > 0 {
		stats.AverageRisk = float64(riskSum) / float64(stats.TotalPages)
	}
	return stats, nil
}

// BlacklistAdd/Remove/IsBlacklisted and WhitelistAdd manage domain_lists.
func (s *Store) BlacklistAdd(domain, reason string) failure.ClassifiedError {
	return s.domainListUpsert(domain, "blacklist", reason)
}

func (s *Store) WhitelistAdd(domain, reason string) failure.ClassifiedError {
	return s.domainListUpsert(domain, "whitelist", reason)
}

func (s *Store) domainListUpsert(domain, listType, reason string) failure.ClassifiedError {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.writeDB.Exec(`
		INSERT INTO domain_lists (domain, list_type, reason, added_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET list_type=excluded.list_type, reason=excluded.reason
	`, domain, listType, reason, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteFailed}
	}
	return nil
}

func (s *Store) BlacklistRemove(domain string) failure.ClassifiedError {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.writeDB.Exec(`DELETE FROM domain_lists WHERE domain = ? AND list_type = 'blacklist'`, domain)
	if err != nil {
		return &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteFailed}
	}
	return nil
}

func (s *Store) IsBlacklisted(domain string) (bool, failure.ClassifiedError) {
	var count int
	err := s.readDB.Get(&count, `SELECT COUNT(1) FROM domain_lists WHERE domain = ? AND list_type = 'blacklist'`, domain)
	if err != nil {
		return false, &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseReadFailed}
	}
	return count > 0, nil
}

// DomainPolicyFor returns the stored policy for a domain, or a default
// normal-status policy if none is stored yet.
func (s *Store) DomainPolicyFor(domain string) (*DomainPolicy, failure.ClassifiedError) {
	var row struct {
		Domain        string `db:"domain"`
		Status        string `db:"status"`
		TrustLevel    int    `db:"trust_level"`
		MaxDepth      int    `db:"max_depth"`
		DelayMs       int    `db:"delay_ms"`
		PriorityBoost int    `db:"priority_boost"`
		Notes         string `db:"notes"`
	}
	err := s.readDB.Get(&row, `SELECT * FROM domain_policy WHERE domain = ?`, domain)
	if err != nil {
		if err == sql.ErrNoRows {
			return NewDomainPolicy(domain), nil
		}
		return nil, &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseReadFailed}
	}

	policy := NewDomainPolicy(row.Domain).
		SetStatus(DomainStatus(row.Status)).
		SetTrustLevel(row.TrustLevel).
		SetMaxDepth(row.MaxDepth).
		SetDelayMs(row.DelayMs).
		SetPriorityBoost(row.PriorityBoost).
		SetNotes(row.Notes)
	return policy, nil
}

// AllDomainPolicies returns every domain with a stored policy row, for the
// boundary's domain-list read. Domains never explicitly configured (still
// on the default policy) are not included — the boundary joins those in
// from intel's distinct domains separately if it wants full coverage.
func (s *Store) AllDomainPolicies() ([]*DomainPolicy, failure.ClassifiedError) {
	var rows []struct {
		Domain        string `db:"domain"`
		Status        string `db:"status"`
		TrustLevel    int    `db:"trust_level"`
		MaxDepth      int    `db:"max_depth"`
		DelayMs       int    `db:"delay_ms"`
		PriorityBoost int    `db:"priority_boost"`
		Notes         string `db:"notes"`
	}
	if err := s.readDB.Select(&rows, `SELECT * FROM domain_policy ORDER BY domain`); err != nil {
		return nil, &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseReadFailed}
	}
	out := make([]*DomainPolicy, len(rows))
	for i, r := range rows {
		out[i] = NewDomainPolicy(r.Domain).
			SetStatus(DomainStatus(r.Status)).
			SetTrustLevel(r.TrustLevel).
			SetMaxDepth(r.MaxDepth).
			SetDelayMs(r.DelayMs).
			SetPriorityBoost(r.PriorityBoost).
			SetNotes(r.Notes)
	}
	return out, nil
}

// DistinctDomains returns every domain intel has ever seen, for the
// boundary's domain-list read to cover domains still on the implicit
// default policy.
func (s *Store) DistinctDomains() ([]string, failure.ClassifiedError) {
	var domains []string
	if err := s.readDB.Select(&domains, `SELECT DISTINCT domain FROM intel ORDER BY domain`); err != nil {
		return nil, &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseReadFailed}
	}
	return domains, nil
}

func (s *Store) SaveDomainPolicy(p *DomainPolicy) failure.ClassifiedError {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.writeDB.Exec(`
		INSERT INTO domain_policy (domain, status, trust_level, max_depth, delay_ms, priority_boost, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			status=excluded.status, trust_level=excluded.trust_level, max_depth=excluded.max_depth,
			delay_ms=excluded.delay_ms, priority_boost=excluded.priority_boost, notes=excluded.notes
	`, p.domain, string(p.status), p.trustLevel, p.maxDepth, p.delayMs, p.priorityBoost, p.notes)
	if err != nil {
		return &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteFailed}
	}
	return nil
}

// SaveAlert persists an alert row (the durable counterpart of
// AlertManager's in-memory bounded history).
func (s *Store) SaveAlert(row AlertRow) failure.ClassifiedError {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.writeDB.Exec(`
		INSERT INTO alerts (type, message, url, domain, severity, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, row.Type, row.Message, row.URL, row.Domain, row.Severity, row.Read, row.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteFailed}
	}
	return nil
}

// Purge deletes rows older than `days`, or — when anonymize is true —
// nulls out sensitive fields in place instead of deleting the row.
func (s *Store) Purge(days int, anonymize bool) (int64, failure.ClassifiedError) {
	cutoff := time.Now().AddDate(0, 0, -days).UTC().Format(time.RFC3339)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var res sql.Result
	var err error
	if anonymize {
		res, err = s.writeDB.Exec(`
			UPDATE intel SET secrets='{}', cryptos='{}', socials='{}', emails='[]', ip_leaks='[]'
			WHERE found_at < ?
		`, cutoff)
	} else {
		res, err = s.writeDB.Exec(`DELETE FROM intel WHERE found_at < ?`, cutoff)
	}
	if err != nil {
		return 0, &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteFailed}
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) Vacuum() failure.ClassifiedError {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.writeDB.Exec(`VACUUM`); err != nil {
		return &StoreError{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteFailed}
	}
	return nil
}

// ExportFilter narrows which pages an export covers; a zero-value filter
// exports every row.
type ExportFilter struct {
	StatusEquals   *int
	DomainEquals   string
	MinRiskScore   int
}

func (s *Store) matchingPages(filter ExportFilter) ([]*Page, failure.ClassifiedError) {
	pages, err := s.AllPages()
	if err != nil {
		return nil, err
	}
	out := pages[:0]
	for _, p := range pages {
		if filter.StatusEquals != nil && p.httpStatus != *filter.StatusEquals {
			continue
		}
		if filter.DomainEquals != "" && p.domain != filter.DomainEquals {
			continue
		}
		if p.riskScore < filter.MinRiskScore {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ExportJSON writes an array of page records, 2-space indent, non-ASCII
// preserved, to path. Returns the number of rows written.
func (s *Store) ExportJSON(path string, filter ExportFilter) (int, failure.ClassifiedError) {
	pages, err := s.matchingPages(filter)
	if err != nil {
		return 0, err
	}

	type jsonPage struct {
		URL           string              `json:"url"`
		Domain        string              `json:"domain"`
		Title         string              `json:"title"`
		HTTPStatus    int                 `json:"http_status"`
		CrawlDepth    int                 `json:"crawl_depth"`
		ContentLength int                 `json:"content_length"`
		Secrets       map[string][]string `json:"secrets"`
		Cryptos       map[string][]string `json:"cryptos"`
		Socials       map[string][]string `json:"socials"`
		Emails        []string            `json:"emails"`
		IPLeaks       []string            `json:"ip_leaks"`
		TechStack     []string            `json:"tech_stack"`
		OnionLinks    []string            `json:"onion_links"`
		Language      string              `json:"language"`
		Category      string              `json:"category"`
		Keywords      []string            `json:"keywords"`
		RiskScore     int                 `json:"risk_score"`
		FoundAt       time.Time           `json:"found_at"`
		LastCrawl     time.Time           `json:"last_crawl"`
	}

	out := make([]jsonPage, len(pages))
	for i, p := range pages {
		out[i] = jsonPage{
			URL: p.url, Domain: p.domain, Title: p.title, HTTPStatus: p.httpStatus,
			CrawlDepth: p.crawlDepth, ContentLength: p.contentLength, Secrets: p.secrets,
			Cryptos: p.cryptos, Socials: p.socials, Emails: p.emails, IPLeaks: p.ipLeaks,
			TechStack: p.techStack, OnionLinks: p.onionLinks, Language: p.language,
			Category: p.category, Keywords: p.keywords, RiskScore: p.riskScore,
			FoundAt: p.foundAt, LastCrawl: p.lastCrawl,
		}
	}

	f, osErr := os.Create(path)
	if osErr != nil {
		return 0, &StoreError{Message: osErr.Error(), Retryable: false, Cause: ErrCauseWriteFailed}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if encErr := enc.Encode(out); encErr != nil {
		return 0, &StoreError{Message: encErr.Error(), Retryable: false, Cause: ErrCauseWriteFailed}
	}
	return len(out), nil
}

// ExportCSV writes the documented header and one row per matching page.
func (s *Store) ExportCSV(path string, filter ExportFilter) (int, failure.ClassifiedError) {
	pages, err := s.matchingPages(filter)
	if err != nil {
		return 0, err
	}

	f, osErr := os.Create(path)
	if osErr != nil {
		return 0, &StoreError{Message: osErr.Error(), Retryable: false, Cause: ErrCauseWriteFailed}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{"URL", "Domain", "Title", "Status", "Risk Score", "Emails", "Crypto", "Secrets", "Socials", "Found At"})
	for _, p := range pages {
		title := p.title
		if len(title) > 100 {
			title = title[:100]
		}
		w.Write([]string{
			p.url,
			p.domain,
			title,
			fmt.Sprintf("%d", p.httpStatus),
			fmt.Sprintf("%d", p.riskScore),
			strings.Join(p.emails, "; "),
			joinMapValues(p.cryptos),
			joinMapValues(p.secrets),
			joinMapValues(p.socials),
			p.foundAt.UTC().Format(time.RFC3339),
		})
	}
	return len(pages), nil
}

func joinMapValues(m map[string][]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		parts = append(parts, strings.Join(m[k], "; "))
	}
	return strings.Join(parts, "; ")
}

// ExportEmails writes a plain text file, per-domain sections, sorted
// unique emails.
func (s *Store) ExportEmails(path string) (int, failure.ClassifiedError) {
	pages, err := s.matchingPages(ExportFilter{})
	if err != nil {
		return 0, err
	}

	byDomain := map[string]map[string]struct{}{}
	for _, p := range pages {
		if len(p.emails) == 0 {
			continue
		}
		set, ok := byDomain[p.domain]
		if !ok {
			set = map[string]struct{}{}
			byDomain[p.domain] = set
		}
		for _, e := range p.emails {
			set[e] = struct{}{}
		}
	}

	f, osErr := os.Create(path)
	if osErr != nil {
		return 0, &StoreError{Message: osErr.Error(), Retryable: false, Cause: ErrCauseWriteFailed}
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	domains := make([]string, 0, len(byDomain))
	for d := range byDomain {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	total := 0
	for _, d := range domains {
		fmt.Fprintf(w, "## %s\n", d)
		emails := make([]string, 0, len(byDomain[d]))
		for e := range byDomain[d] {
			emails = append(emails, e)
		}
		sort.Strings(emails)
		for _, e := range emails {
			fmt.Fprintln(w, e)
			total++
		}
		fmt.Fprintln(w)
	}
	return total, nil
}

// ExportCrypto writes a plain text file, per-coin sections, sorted unique
// addresses.
func (s *Store) ExportCrypto(path string) (int, failure.ClassifiedError) {
	pages, err := s.matchingPages(ExportFilter{})
	if err != nil {
		return 0, err
	}

	byCoin := map[string]map[string]struct{}{}
	for _, p := range pages {
		for coin, addrs := range p.cryptos {
			set, ok := byCoin[coin]
			if !ok {
				set = map[string]struct{}{}
				byCoin[coin] = set
			}
			for _, a := range addrs {
				set[a] = struct{}{}
			}
		}
	}

	f, osErr := os.Create(path)
	if osErr != nil {
		return 0, &StoreError{Message: osErr.Error(), Retryable: false, Cause: ErrCauseWriteFailed}
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	coins := make([]string, 0, len(byCoin))
	for c := range byCoin {
		coins = append(coins, c)
	}
	sort.Strings(coins)

	total := 0
	for _, c := range coins {
		addrs := make([]string, 0, len(byCoin[c]))
		for a := range byCoin[c] {
			addrs = append(addrs, a)
		}
		sort.Strings(addrs)
		fmt.Fprintf(w, "## %s (%d)\n", strings.ToUpper(c), len(addrs))
		for _, a := range addrs {
			fmt.Fprintln(w, a)
			total++
		}
		fmt.Fprintln(w)
	}
	return total, nil
}
