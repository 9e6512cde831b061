/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package api

import (
	"net/http"
	"strconv"

	mederrors "github.com/clansou/medallion/errors"
	"github.com/clansou/medallion/storagemodels"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "store": "connected"})
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	filter := storagemodels.ClientFilter{
		Country: r.URL.Query().Get("country"),
		Limit:   defaultLimit,
	}

	if raw := r.URL.Query().Get("min_total"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, mederrors.NewValidationError("min_total", "must be a number"))
			return
		}
		filter.MinTotal = &v
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, mederrors.NewValidationError("limit", "must be a non-negative integer"))
			return
		}
		if v > maxLimit {
			writeError(w, mederrors.NewValidationError("limit", "must be at most 1000"))
			return
		}
		filter.Limit = v
	}
	if raw := r.URL.Query().Get("skip"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, mederrors.NewValidationError("skip", "must be a non-negative integer"))
			return
		}
		filter.Skip = v
	}

	clients, err := s.store.ListClients(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: clients, Count: len(clients)})
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, mederrors.NewValidationError("id", "must be an integer"))
		return
	}

	client, err := s.store.Client(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Server) handleClientCountryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.ClientCountryStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: stats})
}

func (s *Server) handleTopClients(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n <= 0 {
		writeError(w, mederrors.NewValidationError("n", "must be a positive integer"))
		return
	}
	if n > maxLimit {
		writeError(w, mederrors.NewValidationError("n", "must be at most 1000"))
		return
	}

	clients, err := s.store.TopClients(r.Context(), n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: clients})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: products, Count: len(products)})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.store.Product(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleMonthlySales(w http.ResponseWriter, r *http.Request) {
	sales, err := s.store.MonthlySales(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: sales, Count: len(sales)})
}

func (s *Server) handleSalesByMonth(w http.ResponseWriter, r *http.Request) {
	sale, err := s.store.SalesByMonth(r.Context(), r.PathValue("month"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (s *Server) handleSalesSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.SalesSummary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRefreshInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.store.RefreshInfo(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
