package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/etnz/etfx"
	"github.com/etnz/etfx/renderer"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const defaultMaxResults = 10

// selectedETF is the JSON view of a selected ETF, with its detail.
type selectedETF struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Detail *etfx.ETFDetail `json:"detail,omitempty"`
}

type selectionResponse struct {
	Tool    etfx.Tool     `json:"tool"`
	ETFs    []selectedETF `json:"etfs"`
	Loading bool          `json:"loading"`
}

type portfolioResponse struct {
	Allocations []etfx.Allocation      `json:"allocations"`
	Total       decimal.Decimal        `json:"total"`
	Summary     *etfx.PortfolioSummary `json:"summary,omitempty"`
}

type addRequest struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

type setRequest struct {
	// Dollars is either a JSON number or a string as typed by the user.
	Dollars json.RawMessage `json:"dollars"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeJSON(w, http.StatusOK, []etfx.ETFSummary{})
		return
	}
	maxResults := defaultMaxResults
	if v := r.URL.Query().Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "max must be a positive integer")
			return
		}
		maxResults = n
	}
	results, err := s.svc.Search(r.Context(), query, maxResults)
	if err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("search failed")
		s.writeError(w, http.StatusBadGateway, etfx.UserMessage(err))
		return
	}
	if results == nil {
		results = []etfx.ETFSummary{}
	}
	s.writeJSON(w, http.StatusOK, results)
}

// selection returns the selection named in the URL, or writes a 404.
func (s *Server) selection(w http.ResponseWriter, r *http.Request) *etfx.Selection {
	tool, err := etfx.ParseTool(chi.URLParam(r, "tool"))
	if err == nil {
		var sel *etfx.Selection
		if sel, err = s.ws.Selection(tool); err == nil {
			return sel
		}
	}
	s.writeError(w, http.StatusNotFound, err.Error())
	return nil
}

func (s *Server) writeSelection(w http.ResponseWriter, status int, sel *etfx.Selection) {
	res := selectionResponse{Tool: sel.Tool(), ETFs: []selectedETF{}, Loading: sel.Loading()}
	for _, e := range sel.ETFs() {
		res.ETFs = append(res.ETFs, selectedETF{Symbol: e.Symbol, Name: e.Name, Detail: e.Detail})
	}
	s.writeJSON(w, status, res)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	if sel := s.selection(w, r); sel != nil {
		s.writeSelection(w, http.StatusOK, sel)
	}
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	sel := s.selection(w, r)
	if sel == nil {
		return
	}
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	etf := etfx.NewSummary(req.Symbol, req.Name)
	if etf.Symbol == "" {
		s.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	err := sel.Add(r.Context(), etf, s.svc)
	switch {
	case errors.Is(err, etfx.ErrBusy):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.log.Error().Err(err).Str("symbol", etf.Symbol).Msg("cannot add ETF")
		s.writeError(w, http.StatusBadGateway, etfx.AddMessage(etf.Symbol))
		return
	}
	s.writeSelection(w, http.StatusOK, sel)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	sel := s.selection(w, r)
	if sel == nil {
		return
	}
	if err := sel.Remove(chi.URLParam(r, "symbol")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeSelection(w, http.StatusOK, sel)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sel := s.selection(w, r)
	if sel == nil {
		return
	}
	if err := sel.Reset(); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sel := s.selection(w, r)
	if sel == nil {
		return
	}
	var report string
	switch sel.Tool() {
	case etfx.Analyzer:
		report = renderer.IntersectionMarkdown(sel.ETFs(), sel.Intersect())
	default:
		report = renderer.ComparisonMarkdown(sel.ETFs())
	}
	s.writeMarkdown(w, report)
}

func (s *Server) handleShared(w http.ResponseWriter, r *http.Request) {
	x := s.ws.Analyzer.Intersect()
	if x.Shared == nil {
		x.Shared = []etfx.SharedHolding{}
	}
	s.writeJSON(w, http.StatusOK, x)
}

func (s *Server) writePortfolio(w http.ResponseWriter, status int) {
	b := s.ws.Builder
	res := portfolioResponse{Allocations: b.Allocations(), Total: b.Total(), Summary: b.Summary()}
	if res.Allocations == nil {
		res.Allocations = []etfx.Allocation{}
	}
	s.writeJSON(w, status, res)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	s.writePortfolio(w, http.StatusOK)
}

func (s *Server) handlePortfolioReport(w http.ResponseWriter, r *http.Request) {
	s.writeMarkdown(w, renderer.PortfolioMarkdown(s.ws.Builder.Allocations(), s.ws.Builder.Summary()))
}

func (s *Server) handlePortfolioReset(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Builder.Reset(); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAllocationAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	etf := etfx.NewSummary(req.Symbol, req.Name)
	if etf.Symbol == "" {
		s.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if err := s.ws.Builder.Add(etf); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writePortfolio(w, http.StatusOK)
}

func (s *Server) handleAllocationSet(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount := strings.Trim(string(req.Dollars), `"`)
	if err := s.ws.Builder.SetDollars(chi.URLParam(r, "symbol"), amount); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writePortfolio(w, http.StatusOK)
}

func (s *Server) handleAllocationRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Builder.Remove(chi.URLParam(r, "symbol")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writePortfolio(w, http.StatusOK)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	_, err := s.ws.Builder.Compare(r.Context(), s.svc)
	var cerr *etfx.CompareError
	switch {
	case errors.Is(err, etfx.ErrNoAllocation):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, etfx.ErrBusy):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case errors.As(err, &cerr):
		s.writeError(w, http.StatusBadGateway, cerr.Message)
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writePortfolio(w, http.StatusOK)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}

func (s *Server) writeMarkdown(w http.ResponseWriter, report string) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(report)); err != nil {
		s.log.Error().Err(err).Msg("Failed to write markdown response")
	}
}
