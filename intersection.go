package etfx

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// BaseAllocation is the notional amount invested in each selected ETF to
// compute SharedHolding.WeightedValue.
var BaseAllocation = decimal.NewFromInt(100)

// SubsetSeparator joins the symbols of an ETF subset into its key.
const SubsetSeparator = " & "

// ETFWeight is the weight of a shared holding in one ETF.
type ETFWeight struct {
	Weight decimal.Decimal `json:"weight"`
	Name   string          `json:"name"`
}

// SharedHolding is a holding present in two or more selected ETFs.
type SharedHolding struct {
	Identifier string `json:"identifier"`
	// Ticker and Name are for display, they fall back to the Identifier.
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	// Subset lists the symbols of the ETFs holding it, sorted.
	Subset []string `json:"subset"`
	// Key is the Subset joined with SubsetSeparator.
	Key     string               `json:"etfs"`
	Weights map[string]ETFWeight `json:"weights"`
	// WeightedValue is the amount held in this company if BaseAllocation is
	// invested in each ETF of the Subset.
	WeightedValue decimal.Decimal `json:"weighted_value"`
}

// Intersection is the result of the intersection analysis.
type Intersection struct {
	Shared        []SharedHolding                `json:"shared_holdings"`
	HoldingsByETF map[string][]NormalizedHolding `json:"holdings_by_etf"`
	// Missing lists the selected ETFs without detail, they contributed no holdings.
	Missing []string `json:"missing,omitempty"`
}

// SubsetKey returns the canonical key of a set of symbols.
func SubsetKey(symbols ...string) string {
	s := append([]string(nil), symbols...)
	sort.Strings(s)
	return strings.Join(s, SubsetSeparator)
}

// Intersect computes the holdings shared by at least two of the given ETFs.
//
// The result is empty when less than two ETFs are given. An ETF without
// detail contributes no holdings and is reported in Missing.
// Within one ETF, the first holding with a given identifier is used.
// Shared holdings are sorted by decreasing WeightedValue, ties keep the order
// in which identifiers were discovered. An ETF given twice counts once.
func Intersect(etfs ...SelectedETF) Intersection {
	res := Intersection{HoldingsByETF: make(map[string][]NormalizedHolding)}
	etfs = uniqueETFs(etfs)
	if len(etfs) < 2 {
		return res
	}

	// per ETF index from identifier to its first holding.
	index := make(map[string]map[string]NormalizedHolding, len(etfs))
	var identifiers []string
	seen := make(map[string]bool)
	for _, etf := range etfs {
		var holdings []NormalizedHolding
		if etf.Detail == nil {
			res.Missing = append(res.Missing, etf.Symbol)
			holdings = []NormalizedHolding{}
		} else {
			holdings = NormalizeHoldings(etf.Detail.TopHoldings)
		}
		res.HoldingsByETF[etf.Symbol] = holdings

		byID := make(map[string]NormalizedHolding, len(holdings))
		for _, h := range holdings {
			if _, exists := byID[h.Identifier]; !exists {
				byID[h.Identifier] = h
			}
			if !seen[h.Identifier] {
				seen[h.Identifier] = true
				identifiers = append(identifiers, h.Identifier)
			}
		}
		index[etf.Symbol] = byID
	}

	for _, id := range identifiers {
		sh := SharedHolding{
			Identifier:    id,
			Weights:       make(map[string]ETFWeight),
			WeightedValue: decimal.Zero,
		}
		for _, etf := range etfs {
			h, ok := index[etf.Symbol][id]
			if !ok {
				continue
			}
			sh.Subset = append(sh.Subset, etf.Symbol)
			sh.Weights[etf.Symbol] = ETFWeight{Weight: h.Weight, Name: h.Name}
			if sh.Name == "" && h.Name != "" {
				sh.Name = h.Name
			}
			if sh.Ticker == "" && h.Ticker != nil {
				sh.Ticker = *h.Ticker
			}
			sh.WeightedValue = sh.WeightedValue.Add(BaseAllocation.Mul(h.Weight).Div(decimal.NewFromInt(100)))
		}
		if len(sh.Subset) < 2 {
			continue
		}
		sort.Strings(sh.Subset)
		sh.Key = strings.Join(sh.Subset, SubsetSeparator)
		if sh.Name == "" {
			sh.Name = id
		}
		if sh.Ticker == "" {
			sh.Ticker = id
		}
		res.Shared = append(res.Shared, sh)
	}

	sort.SliceStable(res.Shared, func(i, j int) bool {
		return res.Shared[i].WeightedValue.GreaterThan(res.Shared[j].WeightedValue)
	})
	return res
}

// Region is the set of holdings shared by exactly the same ETFs (a region of
// the Venn diagram).
type Region struct {
	Key      string          `json:"etfs"`
	Subset   []string        `json:"subset"`
	Holdings []SharedHolding `json:"holdings"`
	Total    decimal.Decimal `json:"total"`
}

// Regions groups the shared holdings by ETF subset. Regions are sorted by
// decreasing Total, then by Key.
func (x Intersection) Regions() []Region {
	byKey := make(map[string]*Region)
	var regions []*Region
	for _, sh := range x.Shared {
		r, ok := byKey[sh.Key]
		if !ok {
			r = &Region{Key: sh.Key, Subset: sh.Subset, Total: decimal.Zero}
			byKey[sh.Key] = r
			regions = append(regions, r)
		}
		r.Holdings = append(r.Holdings, sh)
		r.Total = r.Total.Add(sh.WeightedValue)
	}
	res := make([]Region, 0, len(regions))
	for _, r := range regions {
		res = append(res, *r)
	}
	sort.SliceStable(res, func(i, j int) bool {
		if c := res[i].Total.Cmp(res[j].Total); c != 0 {
			return c > 0
		}
		return res[i].Key < res[j].Key
	})
	return res
}

// Total returns the sum of all shared WeightedValue.
func (x Intersection) Total() decimal.Decimal {
	total := decimal.Zero
	for _, sh := range x.Shared {
		total = total.Add(sh.WeightedValue)
	}
	return total
}

// uniqueETFs drops the ETFs whose symbol was already seen.
func uniqueETFs(etfs []SelectedETF) []SelectedETF {
	seen := make(map[string]bool, len(etfs))
	unique := make([]SelectedETF, 0, len(etfs))
	for _, etf := range etfs {
		if seen[etf.Symbol] {
			continue
		}
		seen[etf.Symbol] = true
		unique = append(unique, etf)
	}
	return unique
}
