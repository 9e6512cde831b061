/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package storagemodels

import (
	"github.com/go-openapi/strfmt"
)

// ClientSummary is the per-client gold record served by the API. It carries
// the RFM-style behavior metrics computed by the gold stage.
type ClientSummary struct {
	ClientID          int             `json:"client_id" bson:"client_id"`
	Name              string          `json:"name" bson:"name"`
	Email             string          `json:"email" bson:"email"`
	Country           string          `json:"country" bson:"country"`
	TotalSpent        float64         `json:"total_spent" bson:"total_spent"`
	AvgBasket         float64         `json:"avg_basket" bson:"avg_basket"`
	MinPurchase       float64         `json:"min_purchase" bson:"min_purchase"`
	MaxPurchase       float64         `json:"max_purchase" bson:"max_purchase"`
	StdPurchase       float64         `json:"std_purchase" bson:"std_purchase"`
	PurchaseCount     int             `json:"purchase_count" bson:"purchase_count"`
	UniqueProducts    int             `json:"unique_products" bson:"unique_products"`
	FirstPurchase     strfmt.DateTime `json:"first_purchase" bson:"first_purchase"`
	LastPurchase      strfmt.DateTime `json:"last_purchase" bson:"last_purchase"`
	RecencyDays       int             `json:"recency_days" bson:"recency_days"`
	LifetimeDays      int             `json:"lifetime_days" bson:"lifetime_days"`
	PurchaseFrequency float64         `json:"purchase_frequency" bson:"purchase_frequency"`
	Segment           string          `json:"segment" bson:"segment"`
}

// Client segments assigned by the gold stage.
const (
	SegmentVIP      = "VIP"
	SegmentActive   = "Active"
	SegmentAtRisk   = "At Risk"
	SegmentInactive = "Inactive"
)

// ProductStats is the per-product gold record served by the API.
type ProductStats struct {
	Product         string  `json:"product" bson:"product"`
	ProductID       int     `json:"product_id" bson:"product_id"`
	Revenue         float64 `json:"revenue" bson:"revenue"`
	AvgPrice        float64 `json:"avg_price" bson:"avg_price"`
	SalesCount      int     `json:"sales_count" bson:"sales_count"`
	UniqueBuyers    int     `json:"unique_buyers" bson:"unique_buyers"`
	RevenueSharePct float64 `json:"revenue_share_pct" bson:"revenue_share_pct"`
}

// MonthlySales is the per-month gold record served by the API. Month uses the
// YYYY-MM label. Growth percentages are nil for the first month.
type MonthlySales struct {
	Month             string   `json:"month" bson:"month"`
	Revenue           float64  `json:"revenue" bson:"revenue"`
	AvgBasket         float64  `json:"avg_basket" bson:"avg_basket"`
	PurchaseCount     int      `json:"purchase_count" bson:"purchase_count"`
	UniqueClients     int      `json:"unique_clients" bson:"unique_clients"`
	UniqueProducts    int      `json:"unique_products" bson:"unique_products"`
	RevenueGrowthPct  *float64 `json:"revenue_mom_growth_pct,omitempty" bson:"revenue_mom_growth_pct,omitempty"`
	PurchaseGrowthPct *float64 `json:"purchases_mom_growth_pct,omitempty" bson:"purchases_mom_growth_pct,omitempty"`
	ClientsGrowthPct  *float64 `json:"clients_mom_growth_pct,omitempty" bson:"clients_mom_growth_pct,omitempty"`
	CumulativeRevenue float64  `json:"cumulative_revenue" bson:"cumulative_revenue"`
}

// CollectionLoad records one collection load during publish.
type CollectionLoad struct {
	Collection     string  `json:"collection" bson:"collection"`
	Count          int     `json:"count" bson:"count"`
	ElapsedSeconds float64 `json:"elapsed_seconds" bson:"elapsed_seconds"`
}

// RefreshMetadata is the serving store's record of the last publish run,
// upserted under a fixed id so the API and dashboard can display freshness.
type RefreshMetadata struct {
	LastRefresh         strfmt.DateTime  `json:"last_refresh" bson:"last_refresh"`
	TotalRefreshSeconds float64          `json:"total_refresh_time_seconds" bson:"total_refresh_time_seconds"`
	TotalRecords        int              `json:"total_records_loaded" bson:"total_records_loaded"`
	Collections         []string         `json:"collections_refreshed" bson:"collections_refreshed"`
	Details             []CollectionLoad `json:"details" bson:"details"`
	RunID               string           `json:"run_id,omitempty" bson:"run_id,omitempty"`
}

// CountryStats is the by-country aggregation computed at query time.
type CountryStats struct {
	Country      string  `json:"country" bson:"country"`
	TotalClients int     `json:"total_clients" bson:"total_clients"`
	TotalRevenue float64 `json:"total_revenue" bson:"total_revenue"`
	AvgRevenue   float64 `json:"avg_revenue" bson:"avg_revenue"`
	AvgBasket    float64 `json:"avg_basket" bson:"avg_basket"`
}

// SalesSummary is the all-months rollup computed at query time.
type SalesSummary struct {
	TotalRevenue   float64 `json:"total_revenue" bson:"total_revenue"`
	TotalPurchases int     `json:"total_purchases" bson:"total_purchases"`
	AvgBasket      float64 `json:"avg_basket" bson:"avg_basket"`
	MonthCount     int     `json:"month_count" bson:"month_count"`
}

// ClientFilter narrows ListClients results.
type ClientFilter struct {
	Country  string
	MinTotal *float64
	Limit    int
	Skip     int
}
