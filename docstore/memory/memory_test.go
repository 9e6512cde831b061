/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mederrors "github.com/clansou/medallion/errors"
	"github.com/clansou/medallion/storagemodels"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	store := New()

	_, err := store.ReplaceClients(ctx, []storagemodels.ClientSummary{
		{ClientID: 1, Country: "France", TotalSpent: 500, AvgBasket: 50},
		{ClientID: 2, Country: "France", TotalSpent: 1500, AvgBasket: 150},
		{ClientID: 3, Country: "Canada", TotalSpent: 300, AvgBasket: 30},
	})
	require.NoError(t, err)

	_, err = store.ReplaceProducts(ctx, []storagemodels.ProductStats{
		{Product: "Laptop Pro", Revenue: 900},
		{Product: "Webcam HD", Revenue: 1200},
	})
	require.NoError(t, err)

	_, err = store.ReplaceMonthlySales(ctx, []storagemodels.MonthlySales{
		{Month: "2024-02", Revenue: 800, PurchaseCount: 8, AvgBasket: 100},
		{Month: "2024-01", Revenue: 1000, PurchaseCount: 10, AvgBasket: 100},
	})
	require.NoError(t, err)
	return store
}

func TestListClientsFilters(t *testing.T) {
	ctx := context.Background()
	store := seeded(t)

	out, err := store.ListClients(ctx, storagemodels.ClientFilter{Country: "France"})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	minTotal := 400.0
	out, err = store.ListClients(ctx, storagemodels.ClientFilter{MinTotal: &minTotal})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = store.ListClients(ctx, storagemodels.ClientFilter{Limit: 1, Skip: 1})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].ClientID)
}

func TestClientNotFound(t *testing.T) {
	store := seeded(t)
	_, err := store.Client(context.Background(), 999)
	assert.True(t, mederrors.IsNotFound(err))
}

func TestClientCountryStatsSortedByRevenue(t *testing.T) {
	store := seeded(t)

	stats, err := store.ClientCountryStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "France", stats[0].Country)
	assert.Equal(t, 2000.0, stats[0].TotalRevenue)
	assert.Equal(t, 1000.0, stats[0].AvgRevenue)
	assert.Equal(t, "Canada", stats[1].Country)
}

func TestTopClients(t *testing.T) {
	store := seeded(t)

	top, err := store.TopClients(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 2, top[0].ClientID)
	assert.Equal(t, 1, top[1].ClientID)
}

func TestProductsSortedByRevenue(t *testing.T) {
	store := seeded(t)

	products, err := store.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Webcam HD", products[0].Product)
}

func TestMonthlySalesAscending(t *testing.T) {
	store := seeded(t)

	months, err := store.MonthlySales(context.Background())
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, "2024-01", months[0].Month)
	assert.Equal(t, "2024-02", months[1].Month)
}

func TestSalesSummary(t *testing.T) {
	store := seeded(t)

	summary, err := store.SalesSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1800.0, summary.TotalRevenue)
	assert.Equal(t, 18, summary.TotalPurchases)
	assert.Equal(t, 2, summary.MonthCount)

	empty, err := New().SalesSummary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, empty.TotalRevenue)
}

func TestRefreshInfoRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New()

	_, err := store.RefreshInfo(ctx)
	assert.True(t, mederrors.IsNotFound(err))

	require.NoError(t, store.PutRefreshMetadata(ctx, storagemodels.RefreshMetadata{RunID: "abc"}))
	meta, err := store.RefreshInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", meta.RunID)
}
