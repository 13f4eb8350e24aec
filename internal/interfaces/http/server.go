package httpinterface

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/tonmarket-network/sale-daemon/internal/core/application"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Server exposes the sale record over a small read-only HTTP API, along
// with health and metrics endpoints.
type Server struct {
	saleService application.SaleService
	httpServer  *http.Server
}

// NewServer returns a Server listening on addr once started.
func NewServer(addr string, saleService application.SaleService) *Server {
	s := &Server{saleService: saleService}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sale", s.handleGetSale)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      logRequests(mux),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown is called or the
// listener fails.
func (s *Server) ListenAndServe() error {
	log.Infof("http interface listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// handleGetSale mirrors the contract's getter: it never fails on sale
// state and reports the record as-is, whatever the current phase.
func (s *Server) handleGetSale(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	saleData, err := s.saleService.GetSaleData(r.Context())
	if err != nil {
		log.WithError(err).Error("failed to read sale record")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, saleData)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("failed to write http response")
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debugf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
