package etfx

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ETFSummary is a search result.
type ETFSummary struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// NewSummary returns a summary with an uppercased and trimmed symbol.
func NewSummary(symbol, name string) ETFSummary {
	return ETFSummary{Symbol: NormalizeSymbol(symbol), Name: strings.TrimSpace(name)}
}

// NormalizeSymbol returns the canonical form of a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// RawHolding is a holding as reported by the ETF service.
// Weight is in percentage points (5 means 5%).
type RawHolding struct {
	Ticker *string         `json:"ticker,omitempty"`
	Name   *string         `json:"name,omitempty"`
	Weight decimal.Decimal `json:"weight"`
}

// Holding is a convenience constructor for RawHolding, an empty ticker or name
// is considered absent.
func Holding(ticker, name string, weight float64) RawHolding {
	h := RawHolding{Weight: decimal.NewFromFloat(weight)}
	if ticker != "" {
		h.Ticker = &ticker
	}
	if name != "" {
		h.Name = &name
	}
	return h
}

// Label returns the best human readable label for this holding.
func (h RawHolding) Label() string {
	switch {
	case h.Name != nil && *h.Name != "":
		return *h.Name
	case h.Ticker != nil && *h.Ticker != "":
		return *h.Ticker
	}
	return "N/A"
}

// Dividend is a single dividend distribution.
type Dividend struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// ETFDetail is the canonical detail record of an ETF.
type ETFDetail struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
	// ExpenseRatio is a fraction (0.0009 is 0.09%), nil when unknown.
	ExpenseRatio *decimal.Decimal `json:"expense_ratio,omitempty"`
	// TopHoldings are in the order returned by the service.
	TopHoldings []RawHolding `json:"top_holdings,omitempty"`
	// Dividends are sorted most recent first.
	Dividends []Dividend `json:"recent_dividends,omitempty"`
	// SectorWeightings maps a sector to its fraction of the fund (0..1).
	SectorWeightings map[string]decimal.Decimal `json:"sector_weightings,omitempty"`
}

// Top returns at most the n first holdings.
func (d *ETFDetail) Top(n int) []RawHolding {
	if d == nil {
		return nil
	}
	if n < 0 || n > len(d.TopHoldings) {
		n = len(d.TopHoldings)
	}
	return d.TopHoldings[:n]
}

// MostRecentDividend returns the amount of the latest dividend, if it is positive.
func (d *ETFDetail) MostRecentDividend() (decimal.Decimal, bool) {
	if d == nil || len(d.Dividends) == 0 {
		return decimal.Zero, false
	}
	amount := d.Dividends[0].Amount
	if !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}

// RecentDividends returns at most the n most recent dividends.
func (d *ETFDetail) RecentDividends(n int) []Dividend {
	if d == nil {
		return nil
	}
	if n < 0 || n > len(d.Dividends) {
		n = len(d.Dividends)
	}
	return d.Dividends[:n]
}

// Sector is a sector weighting.
type Sector struct {
	Name   string
	Weight decimal.Decimal
}

// TopSectors returns at most n sectors, heaviest first.
func (d *ETFDetail) TopSectors(n int) []Sector {
	if d == nil {
		return nil
	}
	sectors := make([]Sector, 0, len(d.SectorWeightings))
	for name, w := range d.SectorWeightings {
		sectors = append(sectors, Sector{Name: name, Weight: w})
	}
	sort.Slice(sectors, func(i, j int) bool {
		if c := sectors[i].Weight.Cmp(sectors[j].Weight); c != 0 {
			return c > 0
		}
		return sectors[i].Name < sectors[j].Name
	})
	if n >= 0 && n < len(sectors) {
		sectors = sectors[:n]
	}
	return sectors
}

// SelectedETF is an ETF chosen in a tool, with its detail.
// Detail is nil when it could not be restored or fetched.
type SelectedETF struct {
	Symbol string     `json:"symbol"`
	Name   string     `json:"name"`
	Detail *ETFDetail `json:"-"`
}
