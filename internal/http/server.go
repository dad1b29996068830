// Package http exposes the reporting API over JSON endpoints.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"salestats/internal/cache"
	"salestats/internal/middleware/trace"
	"salestats/internal/report"
)

func init() {
	// Prices serialize as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Server struct {
	http.Server

	reports      *report.Service
	respCache    cache.ResponseCache
	queryTimeout time.Duration
	started      time.Time
	tracer       *trace.Middleware
}

// NewServer wires routes, tracing and the response cache. respCache may be
// nil, in which case every request hits the store.
func NewServer(addr string, reports *report.Service, respCache cache.ResponseCache, queryTimeout time.Duration) *Server {
	s := &Server{
		reports:      reports,
		respCache:    respCache,
		queryTimeout: queryTimeout,
		started:      time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/transactions", s.handleTransactions)
	mux.HandleFunc("GET /api/statistics", s.handleStatistics)
	mux.HandleFunc("GET /api/bar-chart", s.handleBarChart)
	mux.HandleFunc("GET /api/pie-chart", s.handlePieChart)
	mux.HandleFunc("GET /api/combined", s.handleCombined)

	s.tracer = trace.NewMiddleware()

	s.Server = http.Server{
		Addr:           addr,
		Handler:        s.tracer.Middleware(mux),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	return s
}

// queryContext bounds a single report query so one slow store call cannot
// hold the connection open indefinitely.
func (s *Server) queryContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.queryTimeout)
}
