// Package analyzer turns a fetched response into the structured signal
// the rest of the pipeline consumes: a validated/normalized URL, its
// extracted outbound links, plain text and title, a detected language, a
// content category, and a tech-stack fingerprint.
//
// Every exported function here is pure — no shared state, no I/O. Inputs
// are raw bytes, parsed DOM, and response headers; outputs are plain Go
// values. This mirrors the teacher's internal/extractor and
// internal/normalize packages, just retargeted from "isolate doc content"
// to "extract links, title, and category signal" from arbitrary hidden
// service pages.
package analyzer

import "regexp"

// onionV2LabelLen and onionV3LabelLen are the only two legal lengths for
// the base32 label preceding ".onion" (16 chars for legacy v2 addresses,
// 56 chars for v3 ed25519 addresses).
const (
	onionV2LabelLen = 16
	onionV3LabelLen = 56
)

var onionLabelPattern = regexp.MustCompile(`^[a-z2-7]+$`)

// categoryPattern pairs one regex per content category signal. Groups and
// weights follow the fixed taxonomy: marketplace, forum, leak_dump,
// hacking, carding, drugs, documents, weapons, crypto_service, hosting.
type categoryPattern struct {
	category string
	pattern  *regexp.Regexp
}

var categoryPatterns = []categoryPattern{
	{"marketplace", regexp.MustCompile(`(?i)\b(market|vendor|escrow|add to cart|shipping|listing|buyer|seller)\b`)},
	{"forum", regexp.MustCompile(`(?i)\b(forum|thread|reply|post a comment|topic|board|moderator)\b`)},
	{"leak_dump", regexp.MustCompile(`(?i)\b(leak|dump|breach|database for sale|combo list|pastebin)\b`)},
	{"hacking", regexp.MustCompile(`(?i)\b(exploit|hacking|rat |ddos|botnet|0day|zero.day|malware)\b`)},
	{"carding", regexp.MustCompile(`(?i)\b(cvv|fullz|dumps\+pin|card cloning|bin list|carding)\b`)},
	{"drugs", regexp.MustCompile(`(?i)\b(cocaine|heroin|mdma|lsd|fentanyl|cannabis|weed|psychedelic)\b`)},
	{"documents", regexp.MustCompile(`(?i)\b(passport|id card|driver.s license|fake documents|ssn|counterfeit)\b`)},
	{"weapons", regexp.MustCompile(`(?i)\b(firearm|ammunition|pistol|rifle|explosive|weapon)\b`)},
	{"crypto_service", regexp.MustCompile(`(?i)\b(mixer|tumbler|crypto exchange|wallet service|laundering)\b`)},
	{"hosting", regexp.MustCompile(`(?i)\b(bulletproof hosting|vps|dedicated server|hidden service hosting)\b`)},
}

// stopwords are small, fixed, ASCII-only per-language sets used for a
// cheap frequency-based language guess. Not meant to be exhaustive —
// just distinctive enough to separate a handful of common languages.
var stopwords = map[string][]string{
	"english":    {"the", "and", "is", "are", "you", "this", "with", "for", "have", "that"},
	"spanish":    {"el", "la", "de", "que", "y", "en", "los", "para", "con", "una"},
	"german":     {"der", "die", "und", "das", "ist", "mit", "fur", "von", "ein", "nicht"},
	"french":     {"le", "la", "les", "et", "des", "pour", "dans", "avec", "une", "est"},
	"portuguese": {"o", "a", "de", "que", "e", "para", "com", "uma", "os", "nao"},
	"russian_tr": {"privet", "spasibo", "da", "net", "dlya", "chto", "eto", "kak", "vse", "ochen"},
}

// techCookieSignatures maps a cookie name to the framework it implies.
var techCookieSignatures = map[string]string{
	"PHPSESSID":      "PHP",
	"JSESSIONID":     "Java",
	"csrftoken":      "Django",
	"laravel_session": "Laravel",
	"rack.session":   "Ruby",
	"connect.sid":    "Express",
	"XSRF-TOKEN":     "Angular/Laravel",
}

// techHeaderNames lists the response headers inspected for a direct
// tech-stack signal; the header's value (verbatim) becomes the fingerprint
// entry.
var techHeaderNames = []string{"Server", "X-Powered-By", "X-AspNet-Version", "X-Generator"}
