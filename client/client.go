// Package client provides access to the remote ETF service: search, ETF
// details and portfolio comparison.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/etfx"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public ETF service.
	DefaultBaseURL = "https://ampyfin-website-pyj4.onrender.com"
	// DefaultMaxResults is the number of search results requested by default.
	DefaultMaxResults = 10

	detailTTL     = 10 * time.Minute
	parallelFetch = 4
)

// DefaultRateLimit is the request rate allowed against the service.
var DefaultRateLimit = rate.Every(100 * time.Millisecond)

// Client is the ETF service client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
	details    *cache.Cache
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the http.Client used for all requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit limits the requests sent to the service to r per second,
// with bursts of burst requests.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithDiskCache caches successful GET responses in dir for the day.
func WithDiskCache(dir string) Option {
	return func(c *Client) {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc := *c.httpClient
		hc.Transport = &diskCache{base: base, dir: dir, log: c.log}
		c.httpClient = &hc
	}
}

// New creates a client for the service at baseURL, DefaultBaseURL if empty.
func New(baseURL string, log zerolog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("component", "client").Logger(),
		details:    cache.New(detailTTL, 2*detailTTL),
		limiter:    rate.NewLimiter(DefaultRateLimit, parallelFetch),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search searches ETFs by ticker or name. maxResults <= 0 means DefaultMaxResults.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]etfx.ETFSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("max_results", strconv.Itoa(maxResults))

	body, err := c.do(ctx, "search", http.MethodGet, "/v1/etf/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	results, err := decodeSearch(body)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		c.log.Info().Str("query", query).Msg("no results found")
	}
	return results, nil
}

// Detail fetches the detail of the ETF symbol.
// Details are kept in memory for a few minutes.
func (c *Client) Detail(ctx context.Context, symbol string) (*etfx.ETFDetail, error) {
	symbol = etfx.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}
	if v, ok := c.details.Get(symbol); ok {
		c.log.Debug().Str("symbol", symbol).Msg("detail cache hit")
		return v.(*etfx.ETFDetail), nil
	}
	body, err := c.do(ctx, "detail "+symbol, http.MethodGet, "/v1/etf/"+url.PathEscape(symbol), nil)
	if err != nil {
		return nil, err
	}
	detail, err := decodeDetail(symbol, body)
	if err != nil {
		return nil, err
	}
	c.details.Set(symbol, detail, cache.DefaultExpiration)
	return detail, nil
}

// Details fetches several ETF details concurrently. It fails if any fetch fails.
func (c *Client) Details(ctx context.Context, symbols ...string) (map[string]*etfx.ETFDetail, error) {
	details := make([]*etfx.ETFDetail, len(symbols))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelFetch)
	for i, symbol := range symbols {
		g.Go(func() error {
			d, err := c.Detail(ctx, symbol)
			if err != nil {
				return err
			}
			details[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res := make(map[string]*etfx.ETFDetail, len(symbols))
	for i, symbol := range symbols {
		res[etfx.NormalizeSymbol(symbol)] = details[i]
	}
	return res, nil
}

// Compare asks the service to analyze a portfolio made of allocations.
func (c *Client) Compare(ctx context.Context, allocations []etfx.Allocation) (*etfx.PortfolioSummary, error) {
	type jallocation struct {
		Symbol  string  `json:"symbol"`
		Dollars float64 `json:"dollars"`
	}
	req := struct {
		Allocations []jallocation `json:"allocations"`
	}{Allocations: make([]jallocation, 0, len(allocations))}
	for _, a := range allocations {
		req.Allocations = append(req.Allocations, jallocation{Symbol: a.Symbol, Dollars: a.Dollars.InexactFloat64()})
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("cannot encode allocations: %w", err)
	}
	body, err := c.do(ctx, "compare", http.MethodPost, "/v1/portfolio/compare", payload)
	if err != nil {
		return nil, err
	}
	return decodePortfolio(body)
}

// do performs a request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &etfx.NetworkError{Op: op, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("op", op).Msg("request failed")
		return nil, &etfx.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &etfx.NetworkError{Op: op, Err: err}
	}
	c.log.Debug().
		Str("method", method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := decodeServiceError(body)
		serr.Op = op
		serr.StatusCode = resp.StatusCode
		c.log.Warn().Str("op", op).Int("status", resp.StatusCode).Str("detail", serr.Text()).Msg("service error")
		return nil, serr
	}
	return body, nil
}
