package client

// The ETF service returned several shapes over time for the same response,
// this file maps all of them to the canonical etfx types.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/etfx"
	"github.com/shopspring/decimal"
)

// parse decodes any JSON value, keeping numbers as json.Number.
func parse(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// lookup returns the first non null value found at one of the paths.
func lookup(v any, paths ...string) (any, bool) {
	for _, path := range paths {
		jval, err := jsonpath.Get(path, v)
		if err != nil || jval == nil {
			continue
		}
		return jval, true
	}
	return nil, false
}

// lookupString returns the first non empty string found at one of the paths.
func lookupString(v any, paths ...string) string {
	for _, path := range paths {
		if s, ok := lookup(v, path); ok {
			if s, ok := s.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

// lookupDecimal returns the first number found at one of the paths.
func lookupDecimal(v any, paths ...string) *decimal.Decimal {
	for _, path := range paths {
		jval, ok := lookup(v, path)
		if !ok {
			continue
		}
		if d, ok := toDecimal(jval); ok {
			return &d
		}
	}
	return nil
}

// lookupList returns the first list found at one of the paths.
func lookupList(v any, paths ...string) []any {
	for _, path := range paths {
		if jval, ok := lookup(v, path); ok {
			if list, ok := jval.([]any); ok {
				return list
			}
		}
	}
	return nil
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	}
	return decimal.Zero, false
}

func decodeSearch(body []byte) ([]etfx.ETFSummary, error) {
	v, err := parse(body)
	if err != nil {
		return nil, &etfx.DataShapeError{Op: "search", Reason: err.Error()}
	}
	list, ok := v.([]any)
	if !ok {
		list = lookupList(v, "$.results")
	}
	results := make([]etfx.ETFSummary, 0, len(list))
	for _, item := range list {
		symbol := lookupString(item, "$.symbol", "$.ticker")
		if symbol == "" {
			continue
		}
		results = append(results, etfx.NewSummary(symbol, lookupString(item, "$.name")))
	}
	return results, nil
}

func decodeDetail(symbol string, body []byte) (*etfx.ETFDetail, error) {
	op := "detail " + symbol
	v, err := parse(body)
	if err != nil {
		return nil, &etfx.DataShapeError{Op: op, Reason: err.Error()}
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, &etfx.DataShapeError{Op: op, Reason: fmt.Sprintf("expected an object, got %T", v)}
	}

	d := &etfx.ETFDetail{
		Symbol:       symbol,
		Name:         lookupString(v, "$.name", "$.long_name"),
		ExpenseRatio: lookupDecimal(v, "$.expense_ratio", "$.fund_operations.expense_ratio"),
	}
	if s := lookupString(v, "$.symbol"); s != "" {
		d.Symbol = etfx.NormalizeSymbol(s)
	}

	for _, item := range lookupList(v, "$.top_holdings", "$.holdings") {
		if _, ok := item.(map[string]any); !ok {
			continue
		}
		var h etfx.RawHolding
		if t := lookupString(item, "$.ticker", "$.symbol"); t != "" {
			h.Ticker = &t
		}
		if n := lookupString(item, "$.name"); n != "" {
			h.Name = &n
		}
		if h.Ticker == nil && h.Name == nil {
			continue
		}
		if w := lookupDecimal(item, "$.weight"); w != nil {
			h.Weight = *w
		}
		d.TopHoldings = append(d.TopHoldings, h)
	}

	if sectors, ok := lookup(v, "$.sector_weightings"); ok {
		if m, ok := sectors.(map[string]any); ok {
			d.SectorWeightings = make(map[string]decimal.Decimal, len(m))
			for name, w := range m {
				if w, ok := toDecimal(w); ok {
					d.SectorWeightings[name] = w
				}
			}
		}
	}

	for _, item := range lookupList(v, "$.dividend_info.recent_dividends") {
		var div etfx.Dividend
		div.Date = lookupString(item, "$.date")
		if a := lookupDecimal(item, "$.amount"); a != nil {
			div.Amount = *a
		}
		d.Dividends = append(d.Dividends, div)
	}
	return d, nil
}

func decodePortfolio(body []byte) (*etfx.PortfolioSummary, error) {
	v, err := parse(body)
	if err != nil {
		return nil, &etfx.DataShapeError{Op: "compare", Reason: err.Error()}
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, &etfx.DataShapeError{Op: "compare", Reason: fmt.Sprintf("expected an object, got %T", v)}
	}

	s := &etfx.PortfolioSummary{
		WeightedExpenseRatio: lookupDecimal(v, "$.weighted_expense_ratio", "$.weighted_average_expense_ratio"),
	}
	for _, item := range lookupList(v, "$.allocations", "$.portfolio_breakdown") {
		b := etfx.BreakdownItem{
			Symbol:        etfx.NormalizeSymbol(lookupString(item, "$.symbol")),
			WeightPercent: lookupDecimal(item, "$.weight_percent", "$.percentage"),
			ExpenseRatio:  lookupDecimal(item, "$.expense_ratio"),
		}
		if dollars := lookupDecimal(item, "$.dollars"); dollars != nil {
			b.Dollars = *dollars
		}
		s.Breakdown = append(s.Breakdown, b)
	}
	for _, item := range lookupList(v, "$.merged_holdings") {
		s.MergedHoldings = append(s.MergedHoldings, etfx.MergedHolding{
			Ticker:         lookupString(item, "$.ticker", "$.symbol"),
			Name:           lookupString(item, "$.name"),
			Weight:         lookupDecimal(item, "$.weight"),
			CombinedWeight: lookupDecimal(item, "$.combined_weight"),
		})
	}
	if s.WeightedExpenseRatio == nil && s.Breakdown == nil && s.MergedHoldings == nil {
		return nil, &etfx.DataShapeError{Op: "compare", Reason: "no expense ratio, allocations nor holdings"}
	}
	return s, nil
}

// decodeServiceError extracts what it can from an error body.
func decodeServiceError(body []byte) *etfx.ServiceError {
	serr := &etfx.ServiceError{}
	v, err := parse(body)
	if err != nil {
		serr.Message = strings.TrimSpace(string(body))
		if len(serr.Message) > 200 {
			serr.Message = serr.Message[:200]
		}
		return serr
	}
	if _, ok := v.(map[string]any); !ok {
		return serr
	}
	serr.Message = lookupString(v, "$.message", "$.error")
	if detail, ok := lookup(v, "$.detail"); ok {
		if s, ok := detail.(string); ok {
			serr.Detail = s
		} else if b, err := json.Marshal(detail); err == nil {
			serr.Detail = string(b)
		}
	}
	for _, s := range lookupList(v, "$.failed_symbols", "$.detail.failed_symbols") {
		if s, ok := s.(string); ok && s != "" {
			serr.FailedSymbols = append(serr.FailedSymbols, etfx.NormalizeSymbol(s))
		}
	}
	return serr
}
