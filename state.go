package etfx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Store is a key-value store holding one state per tool.
//
// Get returns ErrNotFound for an absent key.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Clear(key string) error
}

// Tool identifies a tool, and its key in the Store.
type Tool string

const (
	Comparator   Tool = "etf_comparator_state"
	Analyzer     Tool = "intersection_analyzer_state"
	Portfolio    Tool = "portfolio_builder_state"
	toolNotFound Tool = ""
)

// ParseTool returns the Tool from its short name: "comparator",
// "intersection" or "portfolio".
func ParseTool(name string) (Tool, error) {
	switch name {
	case "comparator", "compare":
		return Comparator, nil
	case "intersection", "intersect", "analyzer":
		return Analyzer, nil
	case "portfolio", "builder":
		return Portfolio, nil
	}
	return toolNotFound, fmt.Errorf("unknown tool %q, expected comparator, intersection or portfolio", name)
}

// Fetcher fetches the detail of an ETF.
type Fetcher interface {
	Detail(ctx context.Context, symbol string) (*ETFDetail, error)
}

// Selection is the list of ETFs chosen in a tool, along with their detail.
//
// Every mutation is written through to the Store. Selection is safe for
// concurrent use, but only one Add can be in flight at a time.
type Selection struct {
	tool  Tool
	store Store
	log   zerolog.Logger

	mu      sync.Mutex
	etfs    []SelectedETF
	loading bool
	closed  bool
}

// selectionState is the persisted form of a Selection.
type selectionState struct {
	SelectedETFs []SelectedETF         `json:"selectedETFs"`
	ETFData      map[string]*ETFDetail `json:"etfData"`
}

// OpenSelection restores the selection of tool from store.
//
// A missing or corrupt entry results in an empty selection.
func OpenSelection(store Store, tool Tool, log zerolog.Logger) (*Selection, error) {
	s := &Selection{
		tool:  tool,
		store: store,
		log:   log.With().Str("component", "selection").Str("tool", string(tool)).Logger(),
	}
	data, err := store.Get(string(tool))
	if errors.Is(err, ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %s state: %w", tool, err)
	}

	var st selectionState
	if err := json.Unmarshal(data, &st); err != nil {
		s.log.Warn().Err(err).Msg("ignoring corrupt saved state")
		return s, nil
	}
	if st.SelectedETFs == nil || st.ETFData == nil {
		return s, nil
	}
	seen := make(map[string]bool)
	for _, e := range st.SelectedETFs {
		e.Symbol = NormalizeSymbol(e.Symbol)
		if e.Symbol == "" || seen[e.Symbol] {
			continue
		}
		seen[e.Symbol] = true
		e.Detail = st.ETFData[e.Symbol]
		if e.Detail == nil {
			s.log.Warn().Str("symbol", e.Symbol).Msg("no saved detail")
		}
		s.etfs = append(s.etfs, e)
	}
	return s, nil
}

// Tool returns the tool owning this selection.
func (s *Selection) Tool() Tool { return s.tool }

// ETFs returns a copy of the selected ETFs, in the order they were added.
func (s *Selection) ETFs() []SelectedETF {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SelectedETF(nil), s.etfs...)
}

// Len returns the number of selected ETFs.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.etfs)
}

// Has reports whether symbol is selected.
func (s *Selection) Has(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index(NormalizeSymbol(symbol)) >= 0
}

// Loading reports whether an Add is in flight.
func (s *Selection) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Selection) index(symbol string) int {
	for i, e := range s.etfs {
		if e.Symbol == symbol {
			return i
		}
	}
	return -1
}

// Add fetches the detail of etf and appends it to the selection.
//
// Adding an already selected ETF does nothing. If the fetch fails the
// selection is unchanged and the error is returned. Add returns ErrBusy if
// another Add is in flight.
func (s *Selection) Add(ctx context.Context, etf ETFSummary, fetcher Fetcher) error {
	etf.Symbol = NormalizeSymbol(etf.Symbol)
	if etf.Symbol == "" {
		return errors.New("empty symbol")
	}

	s.mu.Lock()
	if s.index(etf.Symbol) >= 0 {
		s.mu.Unlock()
		return nil
	}
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.loading = true
	s.mu.Unlock()

	detail, err := fetcher.Detail(ctx, etf.Symbol)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if s.closed {
		s.log.Debug().Str("symbol", etf.Symbol).Msg("selection closed, discarding fetched detail")
		return nil
	}
	if err != nil {
		return err
	}
	if s.index(etf.Symbol) >= 0 {
		return nil
	}

	name := etf.Name
	if name == "" && detail != nil {
		name = detail.Name
	}
	if name == "" {
		name = etf.Symbol
	}
	etfs := append(s.etfs[:len(s.etfs):len(s.etfs)], SelectedETF{Symbol: etf.Symbol, Name: name, Detail: detail})
	return s.save(etfs)
}

// Remove removes symbol from the selection.
func (s *Selection) Remove(symbol string) error {
	symbol = NormalizeSymbol(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(symbol)
	if i < 0 {
		return nil
	}
	return s.save(append(s.etfs[:i:i], s.etfs[i+1:]...))
}

// Reset empties the selection and clears its Store entry.
func (s *Selection) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.etfs = nil
	if err := s.store.Clear(string(s.tool)); err != nil {
		return fmt.Errorf("cannot clear %s state: %w", s.tool, err)
	}
	return nil
}

// Close detaches the selection, details fetched after Close are discarded.
func (s *Selection) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Intersect runs the intersection analysis on the current selection.
func (s *Selection) Intersect() Intersection {
	x := Intersect(s.ETFs()...)
	for _, symbol := range x.Missing {
		s.log.Warn().Str("symbol", symbol).Msg("no detail, it contributes no holdings")
	}
	return x
}

// save writes etfs to the store and makes them the selection, which is left
// unchanged if the write fails. s.mu must be held.
func (s *Selection) save(etfs []SelectedETF) error {
	st := selectionState{
		SelectedETFs: make([]SelectedETF, 0, len(etfs)),
		ETFData:      make(map[string]*ETFDetail, len(etfs)),
	}
	for _, e := range etfs {
		st.SelectedETFs = append(st.SelectedETFs, e)
		if e.Detail != nil {
			st.ETFData[e.Symbol] = e.Detail
		}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("cannot encode %s state: %w", s.tool, err)
	}
	if err := s.store.Set(string(s.tool), data); err != nil {
		return fmt.Errorf("cannot save %s state: %w", s.tool, err)
	}
	s.etfs = etfs
	return nil
}
