package etfx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Allocation is the amount of dollars invested in an ETF.
type Allocation struct {
	Symbol  string          `json:"symbol"`
	Name    string          `json:"name,omitempty"`
	Dollars decimal.Decimal `json:"dollars"`
}

// MergedHolding is a holding of the whole portfolio, as computed by the ETF service.
type MergedHolding struct {
	Ticker         string           `json:"ticker,omitempty"`
	Name           string           `json:"name,omitempty"`
	Weight         *decimal.Decimal `json:"weight,omitempty"`
	CombinedWeight *decimal.Decimal `json:"combined_weight,omitempty"`
}

// Label returns the best human readable label for this holding.
func (h MergedHolding) Label() string {
	switch {
	case h.Name != "":
		return h.Name
	case h.Ticker != "":
		return h.Ticker
	}
	return "N/A"
}

// BreakdownItem is the part of the portfolio invested in one ETF.
type BreakdownItem struct {
	Symbol        string           `json:"symbol"`
	Dollars       decimal.Decimal  `json:"dollars"`
	WeightPercent *decimal.Decimal `json:"weight_percent,omitempty"`
	ExpenseRatio  *decimal.Decimal `json:"expense_ratio,omitempty"`
}

// PortfolioSummary is the result of a portfolio comparison.
type PortfolioSummary struct {
	WeightedExpenseRatio *decimal.Decimal `json:"weighted_expense_ratio,omitempty"`
	MergedHoldings       []MergedHolding  `json:"merged_holdings,omitempty"`
	Breakdown            []BreakdownItem  `json:"allocations,omitempty"`
}

// Comparer asks the ETF service to compare a portfolio.
type Comparer interface {
	Compare(ctx context.Context, allocations []Allocation) (*PortfolioSummary, error)
}

// Builder is the state of the portfolio builder tool.
type Builder struct {
	store Store
	log   zerolog.Logger

	mu          sync.Mutex
	allocations []Allocation
	summary     *PortfolioSummary
	comparing   bool
}

// builderState is the persisted form of a Builder.
type builderState struct {
	Allocations   []Allocation      `json:"allocations"`
	PortfolioData *PortfolioSummary `json:"portfolioData"`
}

// OpenBuilder restores the portfolio builder from store.
//
// A missing or corrupt entry results in an empty builder.
func OpenBuilder(store Store, log zerolog.Logger) (*Builder, error) {
	b := &Builder{
		store: store,
		log:   log.With().Str("component", "builder").Logger(),
	}
	data, err := store.Get(string(Portfolio))
	if errors.Is(err, ErrNotFound) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read portfolio state: %w", err)
	}
	var st builderState
	if err := json.Unmarshal(data, &st); err != nil {
		b.log.Warn().Err(err).Msg("ignoring corrupt saved state")
		return b, nil
	}
	seen := make(map[string]bool)
	for _, a := range st.Allocations {
		a.Symbol = NormalizeSymbol(a.Symbol)
		if a.Symbol == "" || seen[a.Symbol] {
			continue
		}
		seen[a.Symbol] = true
		b.allocations = append(b.allocations, a)
	}
	b.summary = st.PortfolioData
	return b, nil
}

// Allocations returns a copy of all allocations, in the order they were added.
func (b *Builder) Allocations() []Allocation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Allocation(nil), b.allocations...)
}

// Summary returns the last comparison result, nil if none is valid.
func (b *Builder) Summary() *PortfolioSummary {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.summary
}

// Valid returns the allocations with a positive amount of dollars.
func (b *Builder) Valid() []Allocation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.valid()
}

func (b *Builder) valid() []Allocation {
	var res []Allocation
	for _, a := range b.allocations {
		if a.Dollars.IsPositive() {
			res = append(res, a)
		}
	}
	return res
}

// Total returns the total amount of dollars allocated.
func (b *Builder) Total() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := decimal.Zero
	for _, a := range b.allocations {
		total = total.Add(a.Dollars)
	}
	return total
}

func (b *Builder) index(symbol string) int {
	for i, a := range b.allocations {
		if a.Symbol == symbol {
			return i
		}
	}
	return -1
}

// Add appends etf with zero dollars. Adding an existing ETF does nothing.
func (b *Builder) Add(etf ETFSummary) error {
	etf.Symbol = NormalizeSymbol(etf.Symbol)
	if etf.Symbol == "" {
		return errors.New("empty symbol")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index(etf.Symbol) >= 0 {
		return nil
	}
	name := etf.Name
	if name == "" {
		name = etf.Symbol
	}
	allocations := append(b.allocations[:len(b.allocations):len(b.allocations)], Allocation{Symbol: etf.Symbol, Name: name, Dollars: decimal.Zero})
	return b.save(allocations, b.summary)
}

// Remove removes the allocation for symbol, and the last comparison result.
func (b *Builder) Remove(symbol string) error {
	symbol = NormalizeSymbol(symbol)
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(symbol)
	if i < 0 {
		return nil
	}
	return b.save(append(b.allocations[:i:i], b.allocations[i+1:]...), nil)
}

// SetDollars sets the amount allocated to symbol, an invalid amount counts as
// zero. It discards the last comparison result.
func (b *Builder) SetDollars(symbol string, amount string) error {
	symbol = NormalizeSymbol(symbol)
	dollars, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(amount), "$"))
	if err != nil {
		dollars = decimal.Zero
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(symbol)
	if i < 0 {
		return fmt.Errorf("%s is not in the portfolio", symbol)
	}
	allocations := append([]Allocation(nil), b.allocations...)
	allocations[i].Dollars = dollars
	return b.save(allocations, nil)
}

// Compare asks comparer to analyze the valid allocations.
//
// It returns ErrNoAllocation if there is none, and a *CompareError if the
// comparison failed, in which case allocations are left unchanged.
func (b *Builder) Compare(ctx context.Context, comparer Comparer) (*PortfolioSummary, error) {
	b.mu.Lock()
	valid := b.valid()
	if len(valid) == 0 {
		b.mu.Unlock()
		return nil, ErrNoAllocation
	}
	if b.comparing {
		b.mu.Unlock()
		return nil, ErrBusy
	}
	b.comparing = true
	b.mu.Unlock()

	summary, err := comparer.Compare(ctx, valid)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.comparing = false
	if err != nil {
		b.log.Error().Err(err).Int("allocations", len(valid)).Msg("portfolio comparison failed")
		return nil, &CompareError{Message: CompareMessage(err, valid), Err: err}
	}
	if err := b.save(b.allocations, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// Reset removes every allocation and clears the Store entry.
func (b *Builder) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allocations = nil
	b.summary = nil
	if err := b.store.Clear(string(Portfolio)); err != nil {
		return fmt.Errorf("cannot clear portfolio state: %w", err)
	}
	return nil
}

// save writes allocations and summary to the store and makes them the
// builder's state, which is left unchanged if the write fails. b.mu must be
// held.
func (b *Builder) save(allocations []Allocation, summary *PortfolioSummary) error {
	st := builderState{
		Allocations:   append([]Allocation{}, allocations...),
		PortfolioData: summary,
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("cannot encode portfolio state: %w", err)
	}
	if err := b.store.Set(string(Portfolio), data); err != nil {
		return fmt.Errorf("cannot save portfolio state: %w", err)
	}
	b.allocations = allocations
	b.summary = summary
	return nil
}
