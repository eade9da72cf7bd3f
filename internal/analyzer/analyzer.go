package analyzer

import (
	"net"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/onionwatch/onionwatch/pkg/urlutil"
)

// ValidateOnionURL reports whether raw is a crawlable hidden-service URL:
// scheme http/https, host ending in ".onion" with a 16- or 56-char base32
// label, and a path suffix not in the configured ignored-extension set.
func ValidateOnionURL(raw string, ignoredExtensions map[string]struct{}) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := u.Hostname()
	if !strings.HasSuffix(host, ".onion") {
		return false
	}
	label := strings.TrimSuffix(host, ".onion")
	if len(label) != onionV2LabelLen && len(label) != onionV3LabelLen {
		return false
	}
	if !onionLabelPattern.MatchString(label) {
		return false
	}

	if ext := pathExtension(u.Path); ext != "" {
		if _, ignored := ignoredExtensions[ext]; ignored {
			return false
		}
	}

	return true
}

func pathExtension(path string) string {
	last := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		last = path[idx+1:]
	}
	dot := strings.LastIndex(last, ".")
	if dot < 0 {
		return ""
	}
	return strings.ToLower(last[dot:])
}

// NormalizeURL builds on pkg/urlutil.Canonicalize, layering the
// .onion-specific rules: drop the fragment (already handled by
// Canonicalize), drop the query when it exceeds 100 characters, and
// ensure a trailing slash when the last path segment carries no dot.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	originalQuery := u.RawQuery
	canonical := urlutil.Canonicalize(*u)

	if len(originalQuery) > 0 && len(originalQuery) <= 100 {
		canonical.RawQuery = originalQuery
	}

	canonical.Path = ensureTrailingSlash(canonical.Path)

	return canonical.String(), nil
}

func ensureTrailingSlash(path string) string {
	if path == "" {
		return "/"
	}
	last := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		last = path[idx+1:]
	}
	if strings.Contains(last, ".") {
		return path
	}
	if strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}

// ExtractLinks walks every anchor and <link> element in doc, resolves
// relative URLs against base, discards fragment-only/javascript:/mailto:/
// tel: targets, and keeps only validated .onion URLs.
func ExtractLinks(base string, doc *goquery.Document, ignoredExtensions map[string]struct{}) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}

	seen := map[string]struct{}{}
	var out []string

	collect := func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			href, ok = sel.Attr("src")
		}
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") {
			return
		}

		resolved, err := baseURL.Parse(href)
		if err != nil {
			return
		}

		if !ValidateOnionURL(resolved.String(), ignoredExtensions) {
			return
		}

		normalized, err := NormalizeURL(resolved.String())
		if err != nil {
			return
		}
		if _, dup := seen[normalized]; dup {
			return
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}

	doc.Find("a[href]").Each(collect)
	doc.Find("link[href]").Each(collect)

	return out
}

// ExtractText returns the document's visible body text, whitespace
// collapsed to single spaces.
func ExtractText(doc *goquery.Document) string {
	raw := doc.Find("body").Text()
	return strings.Join(strings.Fields(raw), " ")
}

// ExtractTitle returns the document's <title>, trimmed.
func ExtractTitle(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// DetectLanguage tokenizes ASCII word characters and scores the token set
// against fixed per-language stopword lists, returning the argmax
// language name. Returns "" when text is under 50 characters or no
// stopword hits at all.
func DetectLanguage(text string) string {
	if len(text) < 50 {
		return ""
	}

	tokens := tokenizeASCIIWords(strings.ToLower(text))
	if len(tokens) == 0 {
		return ""
	}

	counts := map[string]int{}
	for _, tok := range tokens {
		for lang, words := range stopwords {
			for _, w := range words {
				if tok == w {
					counts[lang]++
				}
			}
		}
	}

	best := ""
	bestScore := 0
	langs := make([]string, 0, len(counts))
	for lang := range counts {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if counts[lang] > bestScore {
			best = lang
			bestScore = counts[lang]
		}
	}
	if bestScore == 0 {
		return ""
	}
	return best
}

func tokenizeASCIIWords(s string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// ClassifyCategory scores title and body text against the fixed
// weighted-regex category taxonomy, title hits carrying 3x weight, and
// returns the argmax category (empty string when nothing matches).
func ClassifyCategory(title, text string) string {
	scores := map[string]int{}
	for _, cp := range categoryPatterns {
		titleHits := len(cp.pattern.FindAllString(title, -1))
		bodyHits := len(cp.pattern.FindAllString(text, -1))
		scores[cp.category] += titleHits*3 + bodyHits
	}

	best := ""
	bestScore := 0
	for _, cp := range categoryPatterns {
		if scores[cp.category] > bestScore {
			best = cp.category
			bestScore = scores[cp.category]
		}
	}
	return best
}

// privateIPBlocks is the loopback/private/link-local range set an
// extracted IP is checked against before it counts as a leak.
var privateIPBlocks = mustParseCIDRs(
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, ipnet, err := net.ParseCIDR(c)
		if err != nil {
			panic("analyzer: invalid private IP block literal " + c)
		}
		out = append(out, ipnet)
	}
	return out
}

// IsPublicIP reports whether raw parses as an IP address outside every
// loopback/private/link-local range — only public addresses are real
// leaks worth scoring or alerting on.
func IsPublicIP(raw string) bool {
	ip := net.ParseIP(raw)
	if ip == nil {
		return false
	}
	for _, block := range privateIPBlocks {
		if block.Contains(ip) {
			return false
		}
	}
	return true
}

// FingerprintTechStack inspects a fixed set of response headers and
// known cookie names, returning the set of identified frameworks/servers.
func FingerprintTechStack(headers map[string]string, cookieNames []string) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	for _, h := range techHeaderNames {
		for key, val := range headers {
			if strings.EqualFold(key, h) && val != "" {
				add(val)
			}
		}
	}

	for _, cookie := range cookieNames {
		for sig, tech := range techCookieSignatures {
			if strings.EqualFold(cookie, sig) {
				add(tech)
			}
		}
	}

	return out
}
