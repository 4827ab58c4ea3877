package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/etnz/etfx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, zerolog.Nop())
}

func TestSearch_ObjectShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/etf/search", r.URL.Path)
		assert.Equal(t, "spy", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("max_results"))
		w.Write([]byte(`{"query":"spy","results":[{"symbol":"spy","name":"SPDR S&P 500"},{"name":"no symbol"}]}`))
	})

	results, err := c.Search(context.Background(), " spy ", 0)
	require.NoError(t, err)
	assert.Equal(t, []etfx.ETFSummary{{Symbol: "SPY", Name: "SPDR S&P 500"}}, results)
}

func TestSearch_ArrayShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("max_results"))
		w.Write([]byte(`[{"symbol":"QQQ","name":"Invesco QQQ"},{"symbol":"VOO","name":"Vanguard S&P 500"}]`))
	})

	results, err := c.Search(context.Background(), "q", 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "QQQ", results[0].Symbol)
	assert.Equal(t, "VOO", results[1].Symbol)
}

func TestSearch_EmptyQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	results, err := c.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_ServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"message":"search is down"}`))
	})

	_, err := c.Search(context.Background(), "spy", 10)
	var serr *etfx.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusServiceUnavailable, serr.StatusCode)
	assert.Equal(t, "search is down", etfx.UserMessage(err))
}

func TestSearch_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	c := New(server.URL, zerolog.Nop())

	_, err := c.Search(context.Background(), "spy", 10)
	var nerr *etfx.NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Contains(t, etfx.UserMessage(err), "could not be reached")
}

func TestDetail_Cached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/etf/SPY", r.URL.Path)
		w.Write([]byte(`{"name":"SPDR S&P 500","fund_operations":{"expense_ratio":0.000945},
			"top_holdings":[{"ticker":"AAPL","name":"Apple Inc.","weight":7.1},{"symbol":"msft","name":"Microsoft Corp","weight":6.5},{"weight":1}],
			"sector_weightings":{"technology":0.31,"healthcare":0.12},
			"dividend_info":{"recent_dividends":[{"date":"2025-06-20","amount":1.76},{"date":"2025-03-21","amount":1.69}]}}`))
	})

	d, err := c.Detail(context.Background(), "spy")
	require.NoError(t, err)
	assert.Equal(t, "SPY", d.Symbol)
	assert.Equal(t, "SPDR S&P 500", d.Name)
	require.NotNil(t, d.ExpenseRatio)
	assert.True(t, d.ExpenseRatio.Equal(decimal.RequireFromString("0.000945")))
	require.Len(t, d.TopHoldings, 2)
	assert.Equal(t, "AAPL", *d.TopHoldings[0].Ticker)
	assert.Equal(t, "msft", *d.TopHoldings[1].Ticker)
	assert.Len(t, d.SectorWeightings, 2)
	require.Len(t, d.Dividends, 2)
	assert.Equal(t, "2025-06-20", d.Dividends[0].Date)

	_, err = c.Detail(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDetail_NotAnObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1,2,3]`))
	})
	_, err := c.Detail(context.Background(), "SPY")
	var derr *etfx.DataShapeError
	require.ErrorAs(t, err, &derr)
}

func TestDetails_Concurrent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Path[len("/v1/etf/"):]
		json.NewEncoder(w).Encode(map[string]any{"name": symbol + " fund"})
	})

	details, err := c.Details(context.Background(), "spy", "QQQ", "VOO")
	require.NoError(t, err)
	require.Len(t, details, 3)
	assert.Equal(t, "QQQ fund", details["QQQ"].Name)
	assert.Equal(t, "SPY fund", details["SPY"].Name)
}

func TestDetails_OneFails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/etf/BAD" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{}`))
	})
	_, err := c.Details(context.Background(), "SPY", "BAD")
	require.Error(t, err)
}

func TestCompare(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/portfolio/compare", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Allocations []struct {
				Symbol  string  `json:"symbol"`
				Dollars float64 `json:"dollars"`
			} `json:"allocations"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Allocations, 2)
		assert.Equal(t, "SPY", req.Allocations[0].Symbol)
		assert.Equal(t, 1000.0, req.Allocations[0].Dollars)

		w.Write([]byte(`{"weighted_average_expense_ratio":0.0012,
			"portfolio_breakdown":[{"symbol":"SPY","dollars":1000,"percentage":66.67,"expense_ratio":0.0009},{"symbol":"QQQ","dollars":500,"percentage":33.33}],
			"merged_holdings":[{"ticker":"AAPL","name":"Apple","weight":7.0,"combined_weight":0.07}]}`))
	})

	summary, err := c.Compare(context.Background(), []etfx.Allocation{
		{Symbol: "SPY", Dollars: decimal.NewFromInt(1000)},
		{Symbol: "QQQ", Dollars: decimal.NewFromInt(500)},
	})
	require.NoError(t, err)
	require.NotNil(t, summary.WeightedExpenseRatio)
	assert.True(t, summary.WeightedExpenseRatio.Equal(decimal.RequireFromString("0.0012")))
	require.Len(t, summary.Breakdown, 2)
	assert.True(t, summary.Breakdown[0].WeightPercent.Equal(decimal.RequireFromString("66.67")))
	assert.Nil(t, summary.Breakdown[1].ExpenseRatio)
	require.Len(t, summary.MergedHoldings, 1)
	assert.Equal(t, "Apple", summary.MergedHoldings[0].Label())
}

func TestCompare_FailedSymbols(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Could not fetch data","failed_symbols":["xyz"]}`))
	})
	allocations := []etfx.Allocation{{Symbol: "XYZ", Dollars: decimal.NewFromInt(10)}}
	_, err := c.Compare(context.Background(), allocations)
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch data for XYZ. Please check the symbols and try again.", etfx.CompareMessage(err, allocations))
}

func TestWithDiskCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[{"symbol":"SPY","name":"SPDR"}]`))
	}))
	defer server.Close()

	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		// a new client each time, to bypass the in-memory cache.
		c := New(server.URL, zerolog.Nop(), WithDiskCache(dir))
		results, err := c.Search(context.Background(), "spy", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestWithRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()
	c := New(server.URL, zerolog.Nop(), WithRateLimit(rate.Every(time.Hour), 1))

	_, err := c.Search(context.Background(), "spy", 10)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Search(ctx, "qqq", 10)
	var nerr *etfx.NetworkError
	require.ErrorAs(t, err, &nerr)
}
