package etfx

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizedHolding is a holding ready to be matched across ETFs.
//
// Two holdings are the same instrument iff their Identifier are equal.
type NormalizedHolding struct {
	Identifier string          `json:"identifier"`
	Ticker     *string         `json:"ticker"`
	Name       string          `json:"name"`
	Weight     decimal.Decimal `json:"weight"`
}

var (
	whitespaces = regexp.MustCompile(`[\s\p{Zs}]+`)
	// corporate suffixes and share classes, as whole words with an optional period.
	suffixes    = regexp.MustCompile(`(?i)\b(INC|CORP|CORPORATION|CO|LTD|LLC|PLC|AG|SA|NV|AB|CLASS A|CLASS B|CLASS C)\b\.?`)
	punctuation = regexp.MustCompile(`[^A-Za-z0-9\s]`)
)

// NormalizeName returns the matching key for a company name.
//
// "Apple Inc." and "APPLE INC" both normalize to "APPLE".
// NormalizeName is idempotent.
func NormalizeName(name string) string {
	s := normalizeNameOnce(name)
	for {
		// removing a suffix or a punctuation can reveal another one ("CO.INC"),
		// or leave a double space.
		next := normalizeNameOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func normalizeNameOnce(name string) string {
	s := strings.ToUpper(name)
	s = whitespaces.ReplaceAllString(s, " ")
	s = suffixes.ReplaceAllString(s, "")
	s = punctuation.ReplaceAllString(s, "")
	s = whitespaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IsCatchAll reports whether a holding is a residual bucket ("Others",
// "Other Holdings") rather than a real instrument.
func IsCatchAll(h RawHolding) bool {
	if h.Ticker != nil {
		switch strings.ToUpper(strings.TrimSpace(*h.Ticker)) {
		case "OTHERS", "OTHER":
			return true
		}
	}
	if h.Name != nil {
		name := strings.ToUpper(*h.Name)
		if strings.Contains(name, "OTHER HOLDINGS") || strings.Contains(name, "OTHERS") {
			return true
		}
	}
	return false
}

// Normalize returns the normalized form of h, ok is false if h cannot be
// identified or is a catch-all entry.
func Normalize(h RawHolding) (n NormalizedHolding, ok bool) {
	if IsCatchAll(h) {
		return n, false
	}
	if h.Ticker != nil {
		if t := strings.ToUpper(strings.TrimSpace(*h.Ticker)); t != "" {
			n.Ticker = &t
		}
	}
	if h.Name != nil {
		n.Name = *h.Name
	}
	if n.Ticker != nil {
		n.Identifier = *n.Ticker
	} else {
		n.Identifier = NormalizeName(n.Name)
	}
	if n.Identifier == "" {
		return n, false
	}
	n.Weight = h.Weight
	return n, true
}

// NormalizeHoldings normalizes a list of holdings, preserving their order.
// Catch-all and unidentifiable holdings are dropped.
func NormalizeHoldings(holdings []RawHolding) []NormalizedHolding {
	res := make([]NormalizedHolding, 0, len(holdings))
	for _, h := range holdings {
		if n, ok := Normalize(h); ok {
			res = append(res, n)
		}
	}
	return res
}
