// Package http serves the JSON API over the tracker. All responses are
// JSON; invalid numeric input follows the domain's leniency policy and
// coerces to 0 instead of erroring.
package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"cheltuieli/internal/rates"
	"cheltuieli/internal/tracker"
)

// Server wires the tracker and the rate provider behind a stdlib mux.
type Server struct {
	httpServer *http.Server
	tracker    *tracker.Tracker
	rates      *rates.Provider
	limiter    *rateLimiter
	logger     *slog.Logger
}

// NewServer builds the server on the given listen address.
func NewServer(addr string, tr *tracker.Tracker, rp *rates.Provider, logger *slog.Logger) *Server {
	s := &Server{
		tracker: tr,
		rates:   rp,
		limiter: newRateLimiter(),
		logger:  logger,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/state", s.handleState)

	mux.HandleFunc("GET /api/rates", s.handleGetRates)
	mux.HandleFunc("PUT /api/rates", s.handleSetRates)
	mux.HandleFunc("POST /api/rates/refresh", s.handleRefreshRates)
	mux.HandleFunc("PUT /api/language", s.handleSetLanguage)

	mux.HandleFunc("POST /api/ledgers/{scope}/services", s.handleAddService)
	mux.HandleFunc("POST /api/ledgers/{scope}/categories", s.handleAddCategory)
	mux.HandleFunc("POST /api/ledgers/{scope}/entries/{index}/toggle", s.handleToggleEntry)
	mux.HandleFunc("PATCH /api/ledgers/{scope}/entries/{index}", s.handlePatchEntry)
	mux.HandleFunc("DELETE /api/ledgers/{scope}/entries/{index}", s.handleDeleteEntry)

	mux.HandleFunc("POST /api/utilities/payments", s.handleAddUtilityPayment)
	mux.HandleFunc("DELETE /api/utilities/payments/{id}", s.handleDeleteUtilityPayment)
	mux.HandleFunc("PUT /api/utilities/electricity", s.handleUpsertElectricity)
	mux.HandleFunc("DELETE /api/utilities/electricity/{id}", s.handleDeleteElectricity)
	mux.HandleFunc("PUT /api/utilities/gas", s.handleUpsertGas)
	mux.HandleFunc("DELETE /api/utilities/gas/{id}", s.handleDeleteGas)

	mux.HandleFunc("POST /api/administration/payments", s.handleAddAdministrationPayment)
	mux.HandleFunc("DELETE /api/administration/payments/{id}", s.handleDeleteAdministrationPayment)
	mux.HandleFunc("PUT /api/administration/water", s.handleUpsertWater)
	mux.HandleFunc("PATCH /api/administration/water/{id}/invoice", s.handleSetWaterInvoice)
	mux.HandleFunc("DELETE /api/administration/water/{id}", s.handleDeleteWater)
	mux.HandleFunc("PUT /api/administration/cost-per-m3", s.handleSetCostPerM3)

	mux.HandleFunc("POST /api/daily/purchases", s.handleAddSupermarketPurchase)
	mux.HandleFunc("POST /api/car/fuel", s.handleAddCarFuel)
	mux.HandleFunc("POST /api/car/expenses", s.handleAddCarExpense)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleAmendTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
}

// middleware applies rate limiting and request logging to every route.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.limiter.allow(ip) {
			s.logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// clientIP extracts the remote address without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks serving requests until the listener fails or
// Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.stop()
	return s.httpServer.Shutdown(ctx)
}
