package entityextractor

import (
	"sort"
	"strings"

	"github.com/mr-tron/base58"
)

// Entity is a single extracted hit, carrying enough context to be
// persisted, correlated, and displayed without re-scanning the source
// text.
type Entity struct {
	Group       Group
	Subtype     string
	Value       string
	RawValue    string
	Confidence  float64
	Context     string
	Position    int
	Sensitive   bool
	Validated   bool
	Description string
}

// ExtractAll scans text once per catalog pattern, dedupes by
// (subtype, lowercased value), records ±50 characters of surrounding
// context, runs the confidence-adjusting validators, and returns the
// result sorted by source position.
func ExtractAll(text string) []Entity {
	if text == "" {
		return nil
	}

	seen := map[string]struct{}{}
	var out []Entity

	for _, def := range catalog {
		matches := def.regex.FindAllStringSubmatchIndex(text, -1)
		for _, m := range matches {
			start, end := m[0], m[1]
			raw := text[start:end]
			value := raw
			if len(m) >= 4 && m[2] >= 0 {
				value = text[m[2]:m[3]]
			}

			if def.subtype == "telegram_handle" && strings.HasSuffix(value, telegramBotSuffix) {
				continue
			}

			key := def.subtype + "\x00" + strings.ToLower(value)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			ctxStart := start - 50
			if ctxStart < 0 {
				ctxStart = 0
			}
			ctxEnd := end + 50
			if ctxEnd > len(text) {
				ctxEnd = len(text)
			}
			context := strings.TrimSpace(strings.ReplaceAll(text[ctxStart:ctxEnd], "\n", " "))

			entity := Entity{
				Group:       def.group,
				Subtype:     def.subtype,
				Value:       value,
				RawValue:    raw,
				Confidence:  def.confidence,
				Context:     context,
				Position:    start,
				Sensitive:   def.sensitive,
				Description: def.description,
			}
			out = append(out, validate(entity))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// ExtractByType extracts only the patterns belonging to one group.
func ExtractByType(text string, group Group) []Entity {
	all := ExtractAll(text)
	var out []Entity
	for _, e := range all {
		if e.Group == group {
			out = append(out, e)
		}
	}
	return out
}

func validate(e Entity) Entity {
	switch e.Group {
	case GroupCrypto:
		return validateCrypto(e)
	case GroupDocument:
		return validateDocument(e)
	case GroupContact:
		return validateContact(e)
	default:
		return e
	}
}

// validateCrypto adjusts confidence for bitcoin-like and ethereum hits;
// legacy bitcoin addresses additionally get a base58-decode sanity check
// (strengthens confidence without ever changing match/no-match — the
// regex is the boundary contract, the decode only moves the needle).
func validateCrypto(e Entity) Entity {
	switch e.Subtype {
	case "bitcoin_legacy", "bitcoin_bech32":
		if len(e.Value) < 26 || len(e.Value) > 35 {
			e.Confidence *= 0.5
		}
		if e.Subtype == "bitcoin_legacy" {
			if _, err := base58.Decode(e.Value); err != nil {
				e.Confidence *= 0.5
			}
		}
	case "ethereum":
		if !strings.HasPrefix(e.Value, "0x") {
			e.Confidence *= 0.5
		}
	}
	e.Validated = true
	return e
}

// validateDocument runs the Luhn checksum against credit_card hits.
func validateDocument(e Entity) Entity {
	if e.Subtype == "credit_card" {
		if luhnCheck(e.Value) {
			e.Confidence = 0.95
			e.Validated = true
		} else {
			e.Confidence *= 0.3
		}
	}
	return e
}

// validateContact requires a dot somewhere after the "@" for emails.
func validateContact(e Entity) Entity {
	if e.Subtype == "email" {
		at := strings.Index(e.Value, "@")
		if at >= 0 && strings.Contains(e.Value[at+1:], ".") {
			e.Validated = true
		} else {
			e.Confidence *= 0.5
		}
	}
	return e
}

// luhnCheck implements the standard Luhn checksum over a string's digits.
func luhnCheck(value string) bool {
	var digits []int
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) == 0 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Summary aggregates ExtractAll's output the way the dashboard and
// AlertManager consume it.
type Summary struct {
	Total          int
	ByGroup        map[Group]int
	BySubtype      map[string]int
	HighConfidence int
	Sensitive      int
	Validated      int
}

const highConfidenceThreshold = 0.8

func Summarize(entities []Entity) Summary {
	s := Summary{ByGroup: map[Group]int{}, BySubtype: map[string]int{}}
	for _, e := range entities {
		s.Total++
		s.ByGroup[e.Group]++
		s.BySubtype[e.Subtype]++
		if e.Confidence >= highConfidenceThreshold {
			s.HighConfidence++
		}
		if e.Sensitive {
			s.Sensitive++
		}
		if e.Validated {
			s.Validated++
		}
	}
	return s
}
