package etfx

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Service is the remote ETF service.
type Service interface {
	Search(ctx context.Context, query string, maxResults int) ([]ETFSummary, error)
	Fetcher
	Comparer
}

// Workspace holds the state of every tool, restored from the same Store.
type Workspace struct {
	Comparator *Selection
	Analyzer   *Selection
	Builder    *Builder
}

// OpenWorkspace restores all tools from store.
func OpenWorkspace(store Store, log zerolog.Logger) (*Workspace, error) {
	comparator, err := OpenSelection(store, Comparator, log)
	if err != nil {
		return nil, err
	}
	analyzer, err := OpenSelection(store, Analyzer, log)
	if err != nil {
		return nil, err
	}
	builder, err := OpenBuilder(store, log)
	if err != nil {
		return nil, err
	}
	return &Workspace{Comparator: comparator, Analyzer: analyzer, Builder: builder}, nil
}

// Selection returns the selection of tool, which must be Comparator or Analyzer.
func (w *Workspace) Selection(tool Tool) (*Selection, error) {
	switch tool {
	case Comparator:
		return w.Comparator, nil
	case Analyzer:
		return w.Analyzer, nil
	}
	return nil, fmt.Errorf("%s has no ETF selection", tool)
}

// Close discards any detail fetched from now on.
func (w *Workspace) Close() {
	w.Comparator.Close()
	w.Analyzer.Close()
}
