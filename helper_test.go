package etfx

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ctx    = context.Background()
	nopLog = zerolog.Nop()
)

// etf creates a selected ETF whose detail has holdings.
func etf(symbol string, holdings ...RawHolding) SelectedETF {
	return SelectedETF{
		Symbol: symbol,
		Name:   symbol + " fund",
		Detail: &ETFDetail{Symbol: symbol, Name: symbol + " fund", TopHoldings: holdings},
	}
}

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// memStore is an in-memory Store.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
	// failSet, if not nil, is returned by Set which then writes nothing.
	failSet error
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (m *memStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (m *memStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return m.failSet
	}
	m.data[key] = append([]byte(nil), value...)
	m.sets++
	return nil
}

func (m *memStore) Clear(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// fakeFetcher serves details from a map, and counts calls.
type fakeFetcher struct {
	mu      sync.Mutex
	details map[string]*ETFDetail
	calls   int
	// block, if not nil, is waited for before answering.
	block chan struct{}
}

func (f *fakeFetcher) Detail(ctx context.Context, symbol string) (*ETFDetail, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	d, ok := f.details[symbol]
	if !ok {
		return nil, &ServiceError{Op: "detail " + symbol, StatusCode: 404, Detail: fmt.Sprintf("%s not found", symbol)}
	}
	return d, nil
}

// fakeComparer returns a fixed summary or error.
type fakeComparer struct {
	summary *PortfolioSummary
	err     error
	got     []Allocation
}

func (f *fakeComparer) Compare(ctx context.Context, allocations []Allocation) (*PortfolioSummary, error) {
	f.got = allocations
	return f.summary, f.err
}
