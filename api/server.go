/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

// Package api exposes the serving store over HTTP. Endpoints mirror the
// collections the pipeline publishes: clients, products, monthly sales and
// refresh metadata.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/clansou/medallion/ctxlog"
	"github.com/clansou/medallion/docstore"
	mederrors "github.com/clansou/medallion/errors"
)

// Server serves the analytics API.
type Server struct {
	store docstore.Analytics
	log   *slog.Logger
	http  *http.Server
}

// NewServer builds a Server listening on addr.
func NewServer(addr string, store docstore.Analytics, log *slog.Logger) *Server {
	s := &Server{store: store, log: log}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the routed handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /clients", s.handleListClients)
	mux.HandleFunc("GET /clients/{id}", s.handleGetClient)
	mux.HandleFunc("GET /clients/stats/by-country", s.handleClientCountryStats)
	mux.HandleFunc("GET /clients/top/{n}", s.handleTopClients)

	mux.HandleFunc("GET /products", s.handleListProducts)
	mux.HandleFunc("GET /products/{name}", s.handleGetProduct)

	mux.HandleFunc("GET /sales/monthly", s.handleMonthlySales)
	mux.HandleFunc("GET /sales/monthly/{month}", s.handleSalesByMonth)
	mux.HandleFunc("GET /sales/summary", s.handleSalesSummary)

	mux.HandleFunc("GET /metadata/refresh", s.handleRefreshInfo)

	return s.withLogging(withCORS(mux))
}

// ListenAndServe blocks serving requests until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.log.Info("api listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// withCORS allows cross-origin reads, for the dashboard.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging logs each request and stashes the logger in the context.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		ctx := ctxlog.WithLogger(r.Context(), s.log)
		next.ServeHTTP(rec, r.WithContext(ctx))

		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Microsecond).String())
	})
}

// listResponse is the envelope for collection endpoints.
type listResponse struct {
	Data  any `json:"data"`
	Count int `json:"count,omitempty"`
}

// errorResponse matches the {"detail": ...} error shape.
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case mederrors.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: err.Error()})
	case mederrors.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
	case mederrors.IsBackendUnavailable(err):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Detail: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
	}
}
