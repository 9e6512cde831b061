/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package docstore

import (
	"context"

	"github.com/clansou/medallion/storagemodels"
)

// Sink receives gold-layer records during publish. Loads are full
// replacements: the previous generation of each collection is dropped before
// the new records are inserted.
type Sink interface {
	ReplaceClients(ctx context.Context, records []storagemodels.ClientSummary) (storagemodels.CollectionLoad, error)

	ReplaceProducts(ctx context.Context, records []storagemodels.ProductStats) (storagemodels.CollectionLoad, error)

	ReplaceMonthlySales(ctx context.Context, records []storagemodels.MonthlySales) (storagemodels.CollectionLoad, error)

	// PutRefreshMetadata upserts the refresh record under its fixed id.
	PutRefreshMetadata(ctx context.Context, meta storagemodels.RefreshMetadata) error
}

// Analytics is the query surface the API serves from. Implementations return
// errors.ErrNotFound-matching errors for missing records.
type Analytics interface {
	ListClients(ctx context.Context, filter storagemodels.ClientFilter) ([]storagemodels.ClientSummary, error)

	Client(ctx context.Context, clientID int) (*storagemodels.ClientSummary, error)

	// ClientCountryStats aggregates clients per country, sorted by total
	// revenue descending. Monetary values are rounded to 2 decimals.
	ClientCountryStats(ctx context.Context) ([]storagemodels.CountryStats, error)

	// TopClients returns the n biggest clients by total spent.
	TopClients(ctx context.Context, n int) ([]storagemodels.ClientSummary, error)

	// ListProducts returns all products sorted by revenue descending.
	ListProducts(ctx context.Context) ([]storagemodels.ProductStats, error)

	Product(ctx context.Context, name string) (*storagemodels.ProductStats, error)

	// MonthlySales returns all monthly records ascending by month.
	MonthlySales(ctx context.Context) ([]storagemodels.MonthlySales, error)

	SalesByMonth(ctx context.Context, month string) (*storagemodels.MonthlySales, error)

	// SalesSummary rolls up all months; an empty store yields a zero summary.
	SalesSummary(ctx context.Context) (storagemodels.SalesSummary, error)

	RefreshInfo(ctx context.Context) (*storagemodels.RefreshMetadata, error)

	// Ping verifies connectivity to the backing store.
	Ping(ctx context.Context) error
}
