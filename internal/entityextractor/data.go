// Package entityextractor pulls structured intelligence — credentials,
// crypto addresses, contact handles, and other PII — out of raw page
// text using a flat, compile-time table of regex patterns. There is no
// interface hierarchy: every pattern is a plain patternDef value, and
// every validator is a plain function over an Entity. Small concrete
// types over class clusters, same preference the rest of this codebase
// shows.
package entityextractor

import "regexp"

// Group names the seven fixed pattern groups the boundary contract
// names: crypto, contact, document, social, username, address, hash.
type Group string

const (
	GroupCrypto   Group = "crypto"
	GroupContact  Group = "contact"
	GroupDocument Group = "document"
	GroupSocial   Group = "social"
	GroupUsername Group = "username"
	GroupAddress  Group = "address"
	GroupHash     Group = "hash"
)

// patternDef is one entry in the flat catalog: a compiled regex, its
// stable subtype key, a human description, a base confidence in [0,1],
// and whether hits of this subtype are flagged sensitive.
type patternDef struct {
	group       Group
	subtype     string
	regex       *regexp.Regexp
	description string
	confidence  float64
	sensitive   bool
}

// catalog is the complete pattern table. Regex semantics for the subtypes
// named in the boundary contract (aws_key, github_token, jwt, bearer_token,
// iban, bic, credit_card, monero, bitcoin_bech32, bitcoin_legacy, ethereum,
// session_id, tox_id, telegram_handle) are preserved exactly; the rest
// (email, ip_address, phone, onion_address, document_kind) are a refined
// single-pattern-per-subtype simplification of the broader catalog they
// were distilled from.
var catalog = []patternDef{
	{GroupCrypto, "monero", regexp.MustCompile(`(?i)\b4[0-9AB][1-9A-HJ-NP-Za-km-z]{93}\b`), "Monero address", 0.90, true},
	{GroupCrypto, "bitcoin_bech32", regexp.MustCompile(`(?i)\bbc1[a-z0-9]{39,59}\b`), "Bitcoin Bech32 address", 0.85, true},
	{GroupCrypto, "bitcoin_legacy", regexp.MustCompile(`(?i)\b[13][1-9A-HJ-NP-Za-km-z]{25,34}\b`), "Bitcoin legacy address", 0.80, true},
	{GroupCrypto, "ethereum", regexp.MustCompile(`(?i)\b0x[a-fA-F0-9]{40}\b`), "Ethereum/ERC-20 address", 0.85, true},

	{GroupContact, "email", regexp.MustCompile(`(?i)\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`), "Email address", 0.90, true},
	{GroupContact, "phone", regexp.MustCompile(`\+[0-9]{1,3}\s?[0-9\s.-]{9,15}\b`), "International phone number", 0.70, true},
	{GroupContact, "session_id", regexp.MustCompile(`(?i)\b05[a-f0-9]{64}\b`), "Session messenger ID", 0.90, true},
	{GroupContact, "tox_id", regexp.MustCompile(`\b[A-F0-9]{76}\b`), "Tox ID", 0.85, true},

	{GroupDocument, "credit_card", regexp.MustCompile(`\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13}|6(?:011|5[0-9]{2})[0-9]{12})\b`), "Credit card number", 0.80, true},
	{GroupDocument, "iban", regexp.MustCompile(`(?i)\b[A-Z]{2}[0-9]{2}[A-Z0-9]{1,30}\b`), "IBAN", 0.75, true},
	{GroupDocument, "bic", regexp.MustCompile(`(?i)\b[A-Z]{4}[A-Z]{2}[A-Z0-9]{2}(?:[A-Z0-9]{3})?\b`), "BIC/SWIFT code", 0.70, false},
	{GroupDocument, "document_kind", regexp.MustCompile(`\b[A-Z]{1,2}[0-9]{6,9}\b`), "Generic document/ID number", 0.50, true},

	{GroupSocial, "telegram_handle", regexp.MustCompile(`@[a-zA-Z][a-zA-Z0-9_]{4,31}\b`), "Telegram handle", 0.85, false},

	{GroupUsername, "aws_key", regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), "AWS Access Key ID", 0.95, true},
	{GroupUsername, "github_token", regexp.MustCompile(`\b(?:ghp|gho|ghu|ghs|ghr)_[A-Za-z0-9_]{36}\b`), "GitHub token", 0.95, true},
	{GroupUsername, "jwt", regexp.MustCompile(`\beyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*\b`), "JWT token", 0.95, true},
	{GroupUsername, "bearer_token", regexp.MustCompile(`[Bb]earer\s+([a-zA-Z0-9._-]{20,500})`), "Bearer token", 0.90, true},

	{GroupAddress, "ip_address", regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`), "IPv4 address", 0.95, false},
	{GroupAddress, "onion_address", regexp.MustCompile(`(?i)\b[a-z2-7]{16}\.onion\b|\b[a-z2-7]{56}\.onion\b`), "Hidden service address", 0.95, false},
}

// telegramBotSuffix excludes handles ending in "_by_bot" — RE2 has no
// negative lookahead, so this is applied as a post-match filter instead
// of baked into the pattern.
const telegramBotSuffix = "_by_bot"
