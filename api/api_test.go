/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clansou/medallion/docstore/memory"
	"github.com/clansou/medallion/storagemodels"
)

func newTestServer(t *testing.T) (*memory.Store, http.Handler) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	_, err := store.ReplaceClients(ctx, []storagemodels.ClientSummary{
		{ClientID: 1, Name: "Alice Martin", Country: "France", TotalSpent: 900, AvgBasket: 90, Segment: storagemodels.SegmentVIP},
		{ClientID: 2, Name: "Bob Stone", Country: "Canada", TotalSpent: 400, AvgBasket: 40, Segment: storagemodels.SegmentActive},
		{ClientID: 3, Name: "Carol Jones", Country: "France", TotalSpent: 150, AvgBasket: 30, Segment: storagemodels.SegmentInactive},
	})
	require.NoError(t, err)

	_, err = store.ReplaceProducts(ctx, []storagemodels.ProductStats{
		{Product: "Laptop", ProductID: 1, Revenue: 800, SalesCount: 4},
		{Product: "Phone", ProductID: 2, Revenue: 650, SalesCount: 5},
	})
	require.NoError(t, err)

	_, err = store.ReplaceMonthlySales(ctx, []storagemodels.MonthlySales{
		{Month: "2025-03", Revenue: 700, PurchaseCount: 7, AvgBasket: 100},
		{Month: "2025-04", Revenue: 750, PurchaseCount: 6, AvgBasket: 125},
	})
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return store, NewServer("localhost:0", store, log).Handler()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)
	rec := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]string](t, rec)
	assert.Equal(t, "healthy", body["status"])
}

func TestHealthBackendDown(t *testing.T) {
	store, _ := newTestServer(t)
	store.WithPingError(errors.New("connection refused"))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewServer("localhost:0", store, log).Handler()

	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type clientList struct {
	Data  []storagemodels.ClientSummary `json:"data"`
	Count int                           `json:"count"`
}

func TestListClients(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(t, h, "/clients")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[clientList](t, rec)
	assert.Equal(t, 3, body.Count)

	rec = get(t, h, "/clients?country=France")
	body = decode[clientList](t, rec)
	assert.Equal(t, 2, body.Count)

	rec = get(t, h, "/clients?min_total=300")
	body = decode[clientList](t, rec)
	assert.Equal(t, 2, body.Count)

	rec = get(t, h, "/clients?limit=1&skip=1")
	body = decode[clientList](t, rec)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, 2, body.Data[0].ClientID)
}

func TestListClientsValidation(t *testing.T) {
	_, h := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/clients?limit=5000").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/clients?limit=abc").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/clients?skip=-1").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/clients?min_total=oops").Code)
}

func TestGetClient(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(t, h, "/clients/1")
	require.Equal(t, http.StatusOK, rec.Code)
	client := decode[storagemodels.ClientSummary](t, rec)
	assert.Equal(t, "Alice Martin", client.Name)

	rec = get(t, h, "/clients/999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	detail := decode[map[string]string](t, rec)
	assert.Contains(t, detail["detail"], "999")

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/clients/abc").Code)
}

func TestClientCountryStats(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(t, h, "/clients/stats/by-country")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []storagemodels.CountryStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "France", body.Data[0].Country)
	assert.Equal(t, 1050.0, body.Data[0].TotalRevenue)
}

func TestTopClients(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(t, h, "/clients/top/2")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []storagemodels.ClientSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, 1, body.Data[0].ClientID)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/clients/top/0").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/clients/top/xyz").Code)
}

func TestProducts(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(t, h, "/products")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data  []storagemodels.ProductStats `json:"data"`
		Count int                          `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "Laptop", body.Data[0].Product)

	rec = get(t, h, "/products/Phone")
	require.Equal(t, http.StatusOK, rec.Code)
	product := decode[storagemodels.ProductStats](t, rec)
	assert.Equal(t, 650.0, product.Revenue)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/products/Toaster").Code)
}

func TestSales(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(t, h, "/sales/monthly")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []storagemodels.MonthlySales `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "2025-03", body.Data[0].Month)

	rec = get(t, h, "/sales/monthly/2025-04")
	require.Equal(t, http.StatusOK, rec.Code)
	month := decode[storagemodels.MonthlySales](t, rec)
	assert.Equal(t, 750.0, month.Revenue)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/sales/monthly/1999-01").Code)

	rec = get(t, h, "/sales/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[storagemodels.SalesSummary](t, rec)
	assert.Equal(t, 1450.0, summary.TotalRevenue)
	assert.Equal(t, 13, summary.TotalPurchases)
	assert.Equal(t, 2, summary.MonthCount)
}

func TestRefreshInfo(t *testing.T) {
	store, h := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/metadata/refresh").Code)

	require.NoError(t, store.PutRefreshMetadata(context.Background(), storagemodels.RefreshMetadata{RunID: "run-1", TotalRecords: 7}))
	rec := get(t, h, "/metadata/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	meta := decode[storagemodels.RefreshMetadata](t, rec)
	assert.Equal(t, "run-1", meta.RunID)
}

func TestCORSHeaders(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(t, h, "/health")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/clients", nil)
	optRec := httptest.NewRecorder()
	h.ServeHTTP(optRec, req)
	assert.Equal(t, http.StatusNoContent, optRec.Code)
}
