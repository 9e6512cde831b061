/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

// Package memory provides an in-memory serving store implementing both the
// publish sink and the analytics query surface, for tests.
package memory

import (
	"context"
	"math"
	"sort"
	"strconv"
	"sync"

	mederrors "github.com/clansou/medallion/errors"
	"github.com/clansou/medallion/storagemodels"
)

// Store is an in-memory docstore.Sink and docstore.Analytics.
type Store struct {
	mu       sync.RWMutex
	clients  []storagemodels.ClientSummary
	products []storagemodels.ProductStats
	monthly  []storagemodels.MonthlySales
	refresh  *storagemodels.RefreshMetadata

	replaceError error
	pingError    error
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// WithReplaceError makes Replace* operations fail, for error-path tests.
func (s *Store) WithReplaceError(err error) *Store {
	s.replaceError = err
	return s
}

// WithPingError makes Ping fail, for error-path tests.
func (s *Store) WithPingError(err error) *Store {
	s.pingError = err
	return s
}

// --- Sink ---

func (s *Store) ReplaceClients(ctx context.Context, records []storagemodels.ClientSummary) (storagemodels.CollectionLoad, error) {
	if s.replaceError != nil {
		return storagemodels.CollectionLoad{Collection: "clients"}, s.replaceError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = append([]storagemodels.ClientSummary(nil), records...)
	return storagemodels.CollectionLoad{Collection: "clients", Count: len(records)}, nil
}

func (s *Store) ReplaceProducts(ctx context.Context, records []storagemodels.ProductStats) (storagemodels.CollectionLoad, error) {
	if s.replaceError != nil {
		return storagemodels.CollectionLoad{Collection: "products"}, s.replaceError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append([]storagemodels.ProductStats(nil), records...)
	return storagemodels.CollectionLoad{Collection: "products", Count: len(records)}, nil
}

func (s *Store) ReplaceMonthlySales(ctx context.Context, records []storagemodels.MonthlySales) (storagemodels.CollectionLoad, error) {
	if s.replaceError != nil {
		return storagemodels.CollectionLoad{Collection: "monthly_sales"}, s.replaceError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monthly = append([]storagemodels.MonthlySales(nil), records...)
	return storagemodels.CollectionLoad{Collection: "monthly_sales", Count: len(records)}, nil
}

func (s *Store) PutRefreshMetadata(ctx context.Context, meta storagemodels.RefreshMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = &meta
	return nil
}

// --- Analytics ---

func (s *Store) Ping(ctx context.Context) error {
	if s.pingError != nil {
		return mederrors.NewBackendUnavailableError("memory", s.pingError)
	}
	return nil
}

func (s *Store) ListClients(ctx context.Context, filter storagemodels.ClientFilter) ([]storagemodels.ClientSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storagemodels.ClientSummary
	for _, c := range s.clients {
		if filter.Country != "" && c.Country != filter.Country {
			continue
		}
		if filter.MinTotal != nil && c.TotalSpent < *filter.MinTotal {
			continue
		}
		out = append(out, c)
	}

	if filter.Skip > 0 {
		if filter.Skip >= len(out) {
			return nil, nil
		}
		out = out[filter.Skip:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) Client(ctx context.Context, clientID int) (*storagemodels.ClientSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.ClientID == clientID {
			rec := c
			return &rec, nil
		}
	}
	return nil, mederrors.NewNotFoundError("Client", strconv.Itoa(clientID))
}

func (s *Store) ClientCountryStats(ctx context.Context) ([]storagemodels.CountryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type acc struct {
		clients   int
		revenue   float64
		avgBasket float64
	}
	byCountry := make(map[string]*acc)
	for _, c := range s.clients {
		a, ok := byCountry[c.Country]
		if !ok {
			a = &acc{}
			byCountry[c.Country] = a
		}
		a.clients++
		a.revenue += c.TotalSpent
		a.avgBasket += c.AvgBasket
	}

	out := make([]storagemodels.CountryStats, 0, len(byCountry))
	for country, a := range byCountry {
		out = append(out, storagemodels.CountryStats{
			Country:      country,
			TotalClients: a.clients,
			TotalRevenue: round2(a.revenue),
			AvgRevenue:   round2(a.revenue / float64(a.clients)),
			AvgBasket:    round2(a.avgBasket / float64(a.clients)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalRevenue > out[j].TotalRevenue })
	return out, nil
}

func (s *Store) TopClients(ctx context.Context, n int) ([]storagemodels.ClientSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]storagemodels.ClientSummary(nil), s.clients...)
	sort.Slice(out, func(i, j int) bool { return out[i].TotalSpent > out[j].TotalSpent })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]storagemodels.ProductStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]storagemodels.ProductStats(nil), s.products...)
	sort.Slice(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
	return out, nil
}

func (s *Store) Product(ctx context.Context, name string) (*storagemodels.ProductStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.Product == name {
			rec := p
			return &rec, nil
		}
	}
	return nil, mederrors.NewNotFoundError("Product", name)
}

func (s *Store) MonthlySales(ctx context.Context) ([]storagemodels.MonthlySales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]storagemodels.MonthlySales(nil), s.monthly...)
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (s *Store) SalesByMonth(ctx context.Context, month string) (*storagemodels.MonthlySales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.monthly {
		if m.Month == month {
			rec := m
			return &rec, nil
		}
	}
	return nil, mederrors.NewNotFoundError("MonthlySales", month)
}

func (s *Store) SalesSummary(ctx context.Context) (storagemodels.SalesSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summary storagemodels.SalesSummary
	if len(s.monthly) == 0 {
		return summary, nil
	}
	var basketSum float64
	for _, m := range s.monthly {
		summary.TotalRevenue += m.Revenue
		summary.TotalPurchases += m.PurchaseCount
		basketSum += m.AvgBasket
	}
	summary.MonthCount = len(s.monthly)
	summary.TotalRevenue = round2(summary.TotalRevenue)
	summary.AvgBasket = round2(basketSum / float64(len(s.monthly)))
	return summary, nil
}

func (s *Store) RefreshInfo(ctx context.Context) (*storagemodels.RefreshMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.refresh == nil {
		return nil, mederrors.NewNotFoundError("RefreshMetadata", "refresh_info")
	}
	rec := *s.refresh
	return &rec, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
