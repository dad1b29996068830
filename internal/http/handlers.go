package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	metrics := s.tracer.GetMetrics()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"uptime":           time.Since(s.started).String(),
		"requests_total":   metrics.TotalRequests,
		"last_response_ms": metrics.LastResponseMs,
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	page, err := parsePositiveInt(r, "page", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	perPage, err := parsePositiveInt(r, "perPage", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := s.queryContext(r)
	defer cancel()

	result, err := s.reports.ListTransactions(ctx,
		r.URL.Query().Get("month"),
		r.URL.Query().Get("search"),
		page, perPage)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	s.serveAggregate(w, r, func(ctx context.Context, month string) (any, error) {
		return s.reports.Statistics(ctx, month)
	})
}

func (s *Server) handleBarChart(w http.ResponseWriter, r *http.Request) {
	s.serveAggregate(w, r, func(ctx context.Context, month string) (any, error) {
		return s.reports.PriceHistogram(ctx, month)
	})
}

func (s *Server) handlePieChart(w http.ResponseWriter, r *http.Request) {
	s.serveAggregate(w, r, func(ctx context.Context, month string) (any, error) {
		return s.reports.CategoryDistribution(ctx, month)
	})
}

func (s *Server) handleCombined(w http.ResponseWriter, r *http.Request) {
	s.serveAggregate(w, r, func(ctx context.Context, month string) (any, error) {
		return s.reports.Combined(ctx, month)
	})
}

// serveAggregate runs a month-scoped aggregate query through the cache-aside
// response cache. The dataset only changes on reseed, so a short TTL keeps
// cached payloads acceptably fresh.
func (s *Server) serveAggregate(w http.ResponseWriter, r *http.Request, query func(context.Context, string) (any, error)) {
	ctx, cancel := s.queryContext(r)
	defer cancel()

	key := r.URL.RequestURI()
	if s.respCache != nil {
		if body, ok := s.respCache.Get(ctx, key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}
	}

	result, err := query(ctx, r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s.respCache != nil {
		s.respCache.Set(ctx, key, body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
