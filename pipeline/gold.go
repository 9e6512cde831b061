/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/clansou/medallion/config"
	"github.com/clansou/medallion/ctxlog"
	"github.com/clansou/medallion/dataset"
	"github.com/clansou/medallion/objectstore"
	"github.com/clansou/medallion/storagemodels"
)

// Gold object keys. The gold_* trio feeds the serving store; the rest are
// analytical extracts kept in the lake.
const (
	GoldClientSummaryObject = "gold_client_summary.jsonl"
	GoldProductStatsObject  = "gold_product_stats.jsonl"
	GoldMonthlySalesObject  = "gold_monthly_sales.jsonl"

	GoldFactPurchasesObject = "fact_purchases.jsonl"
	GoldDimClientsObject    = "dim_clients.jsonl"
	GoldDimProductsObject   = "dim_products.jsonl"
	GoldKPIObject           = "kpi_global.jsonl"
	GoldCountryAggObject    = "agg_by_country.jsonl"
	GoldDailyAggObject      = "agg_by_day.jsonl"
	GoldWeeklyAggObject     = "agg_by_week.jsonl"
	GoldQuarterlyAggObject  = "agg_by_quarter.jsonl"
	GoldDistributionObject  = "statistical_distributions.jsonl"
	GoldCountryMatrixObject = "matrix_country_product.jsonl"
)

// Client dimension segments, based on account age.
const (
	DimSegmentNew    = "New"
	DimSegmentActive = "Active"
	DimSegmentLoyal  = "Loyal"
)

// FactPurchase is a denormalized purchase row with client and calendar
// dimensions attached.
type FactPurchase struct {
	PurchaseID int       `json:"purchase_id"`
	ClientID   int       `json:"client_id"`
	Date       time.Time `json:"date_purchase"`
	Amount     float64   `json:"amount"`
	Product    string    `json:"product"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Country    string    `json:"country"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Quarter    int       `json:"quarter"`
	DayOfWeek  int       `json:"day_of_week"`
	YearMonth  string    `json:"year_month"`
	YearWeek   string    `json:"year_week"`
}

// DimClient enriches a cleaned client with account-age attributes.
type DimClient struct {
	ClientID           int       `json:"client_id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Country            string    `json:"country"`
	Inscribed          time.Time `json:"date_inscription"`
	InscriptionYear    int       `json:"inscription_year"`
	InscriptionMonth   int       `json:"inscription_month"`
	InscriptionQuarter int       `json:"inscription_quarter"`
	AgeDays            int       `json:"client_age_days"`
	Segment            string    `json:"client_segment"`
}

// DimProduct assigns stable ids to distinct products, in first-purchase order.
type DimProduct struct {
	ProductID int    `json:"product_id"`
	Product   string `json:"product"`
}

// GlobalKPI is one platform-wide metric.
type GlobalKPI struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
	Type   string  `json:"type"`
}

// CountryAgg aggregates revenue and volume per country.
type CountryAgg struct {
	Country         string  `json:"country"`
	TotalRevenue    float64 `json:"total_revenue"`
	AvgTransaction  float64 `json:"avg_transaction_value"`
	Transactions    int     `json:"total_transactions"`
	UniqueClients   int     `json:"unique_clients"`
	UniqueProducts  int     `json:"unique_products"`
	RevenueSharePct float64 `json:"revenue_share_pct"`
}

// DailyAgg aggregates per calendar day, with 7-day moving averages.
type DailyAgg struct {
	Date            string  `json:"date"`
	Revenue         float64 `json:"daily_revenue"`
	AvgTransaction  float64 `json:"avg_transaction_value"`
	Transactions    int     `json:"daily_transactions"`
	UniqueClients   int     `json:"daily_unique_clients"`
	RevenueMA7      float64 `json:"revenue_ma7"`
	TransactionsMA7 float64 `json:"transactions_ma7"`
}

// WeeklyAgg aggregates per ISO week.
type WeeklyAgg struct {
	YearWeek       string  `json:"year_week"`
	Revenue        float64 `json:"weekly_revenue"`
	AvgTransaction float64 `json:"avg_transaction_value"`
	Transactions   int     `json:"weekly_transactions"`
	UniqueClients  int     `json:"weekly_unique_clients"`
	UniqueProducts int     `json:"weekly_unique_products"`
}

// QuarterlyAgg aggregates per quarter with quarter-over-quarter growth.
type QuarterlyAgg struct {
	YearQuarter   string   `json:"year_quarter"`
	Revenue       float64  `json:"quarterly_revenue"`
	AvgTransact   float64  `json:"avg_transaction_value"`
	Transactions  int      `json:"quarterly_transactions"`
	UniqueClients int      `json:"quarterly_unique_clients"`
	QoQGrowthPct  *float64 `json:"revenue_qoq_growth_pct,omitempty"`
}

// AmountDistribution describes the statistical shape of purchase amounts.
type AmountDistribution struct {
	Metric   string  `json:"metric"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Std      float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
}

// CountryProductRevenue is one cell of the country x product revenue matrix.
type CountryProductRevenue struct {
	Country string  `json:"country"`
	Product string  `json:"product"`
	Revenue float64 `json:"revenue"`
}

// GoldTables holds every gold-layer output of one run.
type GoldTables struct {
	ClientSummaries []storagemodels.ClientSummary
	Products        []storagemodels.ProductStats
	Monthly         []storagemodels.MonthlySales

	Facts         []FactPurchase
	DimClients    []DimClient
	DimProducts   []DimProduct
	KPIs          []GlobalKPI
	Countries     []CountryAgg
	Daily         []DailyAgg
	Weekly        []WeeklyAgg
	Quarterly     []QuarterlyAgg
	Distribution  []AmountDistribution
	CountryMatrix []CountryProductRevenue
}

// GoldStage derives business aggregates from the silver datasets and writes
// them to the gold bucket.
type GoldStage struct {
	Store   objectstore.Store
	Buckets config.Buckets

	// Now anchors client account ages; zero means time.Now.
	Now time.Time
}

// Run computes all gold tables and uploads them.
func (s *GoldStage) Run(ctx context.Context, clients []dataset.Client, purchases []dataset.Purchase) (GoldTables, error) {
	log := ctxlog.FromContext(ctx)

	now := s.Now
	if now.IsZero() {
		now = time.Now()
	}
	tables := ComputeGold(clients, purchases, now)

	if err := s.Store.EnsureBucket(ctx, s.Buckets.Gold); err != nil {
		return tables, fmt.Errorf("ensure bucket %s: %w", s.Buckets.Gold, err)
	}

	writes := []struct {
		key string
		put func() error
	}{
		{GoldClientSummaryObject, func() error {
			return putJSONLines(ctx, s.Store, s.Buckets.Gold, GoldClientSummaryObject, tables.ClientSummaries)
		}},
		{GoldProductStatsObject, func() error {
			return putJSONLines(ctx, s.Store, s.Buckets.Gold, GoldProductStatsObject, tables.Products)
		}},
		{GoldMonthlySalesObject, func() error {
			return putJSONLines(ctx, s.Store, s.Buckets.Gold, GoldMonthlySalesObject, tables.Monthly)
		}},
		{GoldFactPurchasesObject, func() error {
			return putJSONLines(ctx, s.Store, s.Buckets.Gold, GoldFactPurchasesObject, tables.Facts)
		}},
		{GoldDimClientsObject, func() error {
			return putJSONLines(ctx, s.Store, s.Buckets.Gold, GoldDimClientsObject, tables.DimClients)
		}},
		{GoldDimProductsObject, func() error {
			return putJSONLines(ctx, s.Store, s.Buckets.Gold, GoldDimProductsObject, tables.DimProducts)
		}},
		{GoldKPIObject, func() error {
			return putJSONLines(ctx, s.Store, s.Buckets.Gold, GoldKPIObject, tables.KPIs)
		}},
		{GoldCountryAggObject, func() error {
			return putJSONLines(ctx, s.Store, s.Buckets.Gold, GoldCountryAggObject, tables.Countries)
		}},
		{GoldDailyAggObject, func() error {
			return putJSONLines(ctx, s.Store, s.Buckets.Gold, GoldDailyAggObject, tables.Daily)
		}},
		{GoldWeeklyAggObject, func() error {
			return putJSONLines(ctx, s.Store, s.Buckets.Gold, GoldWeeklyAggObject, tables.Weekly)
		}},
		{GoldQuarterlyAggObject, func() error {
			return putJSONLines(ctx, s.Store, s.Buckets.Gold, GoldQuarterlyAggObject, tables.Quarterly)
		}},
		{GoldDistributionObject, func() error {
			return putJSONLines(ctx, s.Store, s.Buckets.Gold, GoldDistributionObject, tables.Distribution)
		}},
		{GoldCountryMatrixObject, func() error {
			return putJSONLines(ctx, s.Store, s.Buckets.Gold, GoldCountryMatrixObject, tables.CountryMatrix)
		}},
	}
	for _, w := range writes {
		if err := withRetry(ctx, w.put); err != nil {
			return tables, fmt.Errorf("save gold object %s: %w", w.key, err)
		}
	}

	log.Info("gold layer built",
		"clients", len(tables.ClientSummaries),
		"products", len(tables.Products),
		"months", len(tables.Monthly),
		"fact_rows", len(tables.Facts))
	return tables, nil
}

// ComputeGold derives every gold table from cleaned inputs. Recency metrics
// are anchored on the newest purchase date; client account ages on now.
func ComputeGold(clients []dataset.Client, purchases []dataset.Purchase, now time.Time) GoldTables {
	var tables GoldTables

	clientByID := make(map[int]dataset.Client, len(clients))
	for _, c := range clients {
		clientByID[c.ID] = c
	}

	tables.Facts = buildFacts(purchases, clientByID)
	tables.DimClients = buildDimClients(clients, now)
	tables.DimProducts = buildDimProducts(purchases)
	tables.ClientSummaries = buildClientSummaries(purchases, clientByID)
	tables.Products = buildProductStats(purchases, tables.DimProducts)
	tables.Monthly = buildMonthlySales(purchases)
	tables.KPIs = buildKPIs(purchases)
	tables.Countries = buildCountryAgg(tables.Facts)
	tables.Daily = buildDailyAgg(purchases)
	tables.Weekly = buildWeeklyAgg(tables.Facts)
	tables.Quarterly = buildQuarterlyAgg(tables.Facts)
	tables.Distribution = buildDistribution(purchases)
	tables.CountryMatrix = buildCountryMatrix(tables.Facts)

	return tables
}

func buildFacts(purchases []dataset.Purchase, clientByID map[int]dataset.Client) []FactPurchase {
	facts := make([]FactPurchase, 0, len(purchases))
	for _, p := range purchases {
		c := clientByID[p.ClientID]
		isoYear, isoWeek := p.Date.ISOWeek()
		facts = append(facts, FactPurchase{
			PurchaseID: p.ID,
			ClientID:   p.ClientID,
			Date:       p.Date,
			Amount:     p.Amount,
			Product:    p.Product,
			Name:       c.Name,
			Email:      c.Email,
			Country:    c.Country,
			Year:       p.Date.Year(),
			Month:      int(p.Date.Month()),
			Quarter:    (int(p.Date.Month())-1)/3 + 1,
			DayOfWeek:  int(p.Date.Weekday()),
			YearMonth:  p.Date.Format("2006-01"),
			YearWeek:   fmt.Sprintf("%d-W%02d", isoYear, isoWeek),
		})
	}
	return facts
}

func buildDimClients(clients []dataset.Client, now time.Time) []DimClient {
	dims := make([]DimClient, 0, len(clients))
	for _, c := range clients {
		ageDays := int(now.Sub(c.Inscribed).Hours() / 24)
		segment := DimSegmentLoyal
		switch {
		case ageDays < 90:
			segment = DimSegmentNew
		case ageDays < 365:
			segment = DimSegmentActive
		}
		dims = append(dims, DimClient{
			ClientID:           c.ID,
			Name:               c.Name,
			Email:              c.Email,
			Country:            c.Country,
			Inscribed:          c.Inscribed,
			InscriptionYear:    c.Inscribed.Year(),
			InscriptionMonth:   int(c.Inscribed.Month()),
			InscriptionQuarter: (int(c.Inscribed.Month())-1)/3 + 1,
			AgeDays:            ageDays,
			Segment:            segment,
		})
	}
	return dims
}

func buildDimProducts(purchases []dataset.Purchase) []DimProduct {
	seen := make(map[string]bool)
	var dims []DimProduct
	for _, p := range purchases {
		if seen[p.Product] {
			continue
		}
		seen[p.Product] = true
		dims = append(dims, DimProduct{ProductID: len(dims) + 1, Product: p.Product})
	}
	return dims
}

func buildClientSummaries(purchases []dataset.Purchase, clientByID map[int]dataset.Client) []storagemodels.ClientSummary {
	if len(purchases) == 0 {
		return nil
	}

	type acc struct {
		count       int
		sum         float64
		min, max    float64
		amounts     []float64
		first, last time.Time
		products    map[string]bool
	}
	byClient := make(map[int]*acc)
	var newest time.Time
	for _, p := range purchases {
		a, ok := byClient[p.ClientID]
		if !ok {
			a = &acc{min: p.Amount, max: p.Amount, first: p.Date, last: p.Date, products: make(map[string]bool)}
			byClient[p.ClientID] = a
		}
		a.count++
		a.sum += p.Amount
		a.amounts = append(a.amounts, p.Amount)
		a.min = math.Min(a.min, p.Amount)
		a.max = math.Max(a.max, p.Amount)
		if p.Date.Before(a.first) {
			a.first = p.Date
		}
		if p.Date.After(a.last) {
			a.last = p.Date
		}
		a.products[p.Product] = true
		if p.Date.After(newest) {
			newest = p.Date
		}
	}

	summaries := make([]storagemodels.ClientSummary, 0, len(byClient))
	for clientID, a := range byClient {
		c := clientByID[clientID]
		recency := int(newest.Sub(a.last).Hours() / 24)
		lifetime := int(a.last.Sub(a.first).Hours() / 24)

		segment := storagemodels.SegmentInactive
		switch {
		case recency <= 30 && a.count >= 5:
			segment = storagemodels.SegmentVIP
		case recency <= 90 && a.count >= 3:
			segment = storagemodels.SegmentActive
		case recency <= 180:
			segment = storagemodels.SegmentAtRisk
		}

		summaries = append(summaries, storagemodels.ClientSummary{
			ClientID:          clientID,
			Name:              c.Name,
			Email:             c.Email,
			Country:           c.Country,
			TotalSpent:        round2(a.sum),
			AvgBasket:         round2(a.sum / float64(a.count)),
			MinPurchase:       round2(a.min),
			MaxPurchase:       round2(a.max),
			StdPurchase:       round2(sampleStd(a.amounts)),
			PurchaseCount:     a.count,
			UniqueProducts:    len(a.products),
			FirstPurchase:     strfmt.DateTime(a.first),
			LastPurchase:      strfmt.DateTime(a.last),
			RecencyDays:       recency,
			LifetimeDays:      lifetime,
			PurchaseFrequency: float64(a.count) / float64(lifetime+1),
			Segment:           segment,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].TotalSpent > summaries[j].TotalSpent })
	return summaries
}

func buildProductStats(purchases []dataset.Purchase, dims []DimProduct) []storagemodels.ProductStats {
	idByProduct := make(map[string]int, len(dims))
	for _, d := range dims {
		idByProduct[d.Product] = d.ProductID
	}

	type acc struct {
		revenue float64
		count   int
		buyers  map[int]bool
	}
	byProduct := make(map[string]*acc)
	var totalRevenue float64
	for _, p := range purchases {
		a, ok := byProduct[p.Product]
		if !ok {
			a = &acc{buyers: make(map[int]bool)}
			byProduct[p.Product] = a
		}
		a.revenue += p.Amount
		a.count++
		a.buyers[p.ClientID] = true
		totalRevenue += p.Amount
	}

	stats := make([]storagemodels.ProductStats, 0, len(byProduct))
	for product, a := range byProduct {
		share := 0.0
		if totalRevenue > 0 {
			share = a.revenue / totalRevenue * 100
		}
		stats = append(stats, storagemodels.ProductStats{
			Product:         product,
			ProductID:       idByProduct[product],
			Revenue:         round2(a.revenue),
			AvgPrice:        round2(a.revenue / float64(a.count)),
			SalesCount:      a.count,
			UniqueBuyers:    len(a.buyers),
			RevenueSharePct: round2(share),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Revenue > stats[j].Revenue })
	return stats
}

func buildMonthlySales(purchases []dataset.Purchase) []storagemodels.MonthlySales {
	type acc struct {
		revenue  float64
		count    int
		clients  map[int]bool
		products map[string]bool
	}
	byMonth := make(map[string]*acc)
	for _, p := range purchases {
		month := p.Date.Format("2006-01")
		a, ok := byMonth[month]
		if !ok {
			a = &acc{clients: make(map[int]bool), products: make(map[string]bool)}
			byMonth[month] = a
		}
		a.revenue += p.Amount
		a.count++
		a.clients[p.ClientID] = true
		a.products[p.Product] = true
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]storagemodels.MonthlySales, 0, len(months))
	var cumulative float64
	for i, m := range months {
		a := byMonth[m]
		cumulative += a.revenue
		rec := storagemodels.MonthlySales{
			Month:             m,
			Revenue:           round2(a.revenue),
			AvgBasket:         round2(a.revenue / float64(a.count)),
			PurchaseCount:     a.count,
			UniqueClients:     len(a.clients),
			UniqueProducts:    len(a.products),
			CumulativeRevenue: round2(cumulative),
		}
		if i > 0 {
			prev := byMonth[months[i-1]]
			rec.RevenueGrowthPct = growthPct(prev.revenue, a.revenue)
			rec.PurchaseGrowthPct = growthPct(float64(prev.count), float64(a.count))
			rec.ClientsGrowthPct = growthPct(float64(len(prev.clients)), float64(len(a.clients)))
		}
		out = append(out, rec)
	}
	return out
}

func buildKPIs(purchases []dataset.Purchase) []GlobalKPI {
	if len(purchases) == 0 {
		return nil
	}
	amounts := make([]float64, len(purchases))
	clients := make(map[int]bool)
	products := make(map[string]bool)
	var total float64
	for i, p := range purchases {
		amounts[i] = p.Amount
		total += p.Amount
		clients[p.ClientID] = true
		products[p.Product] = true
	}
	sort.Float64s(amounts)

	return []GlobalKPI{
		{Metric: "Total Revenue", Value: round2(total), Type: "financial"},
		{Metric: "Total Transactions", Value: float64(len(purchases)), Type: "volume"},
		{Metric: "Average Transaction Value", Value: round2(total / float64(len(purchases))), Type: "financial"},
		{Metric: "Median Transaction Value", Value: round2(quantile(amounts, 0.5)), Type: "financial"},
		{Metric: "Total Unique Clients", Value: float64(len(clients)), Type: "clients"},
		{Metric: "Total Unique Products", Value: float64(len(products)), Type: "products"},
		{Metric: "Average Transactions per Client", Value: round2(float64(len(purchases)) / float64(len(clients))), Type: "behavior"},
	}
}

func buildCountryAgg(facts []FactPurchase) []CountryAgg {
	type acc struct {
		revenue  float64
		count    int
		clients  map[int]bool
		products map[string]bool
	}
	byCountry := make(map[string]*acc)
	var total float64
	for _, f := range facts {
		a, ok := byCountry[f.Country]
		if !ok {
			a = &acc{clients: make(map[int]bool), products: make(map[string]bool)}
			byCountry[f.Country] = a
		}
		a.revenue += f.Amount
		a.count++
		a.clients[f.ClientID] = true
		a.products[f.Product] = true
		total += f.Amount
	}

	out := make([]CountryAgg, 0, len(byCountry))
	for country, a := range byCountry {
		share := 0.0
		if total > 0 {
			share = a.revenue / total * 100
		}
		out = append(out, CountryAgg{
			Country:         country,
			TotalRevenue:    round2(a.revenue),
			AvgTransaction:  round2(a.revenue / float64(a.count)),
			Transactions:    a.count,
			UniqueClients:   len(a.clients),
			UniqueProducts:  len(a.products),
			RevenueSharePct: round2(share),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalRevenue > out[j].TotalRevenue })
	return out
}

func buildDailyAgg(purchases []dataset.Purchase) []DailyAgg {
	type acc struct {
		revenue float64
		count   int
		clients map[int]bool
	}
	byDay := make(map[string]*acc)
	for _, p := range purchases {
		day := p.Date.Format(dataset.DateLayout)
		a, ok := byDay[day]
		if !ok {
			a = &acc{clients: make(map[int]bool)}
			byDay[day] = a
		}
		a.revenue += p.Amount
		a.count++
		a.clients[p.ClientID] = true
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	out := make([]DailyAgg, 0, len(days))
	for i, d := range days {
		a := byDay[d]
		// 7-day trailing window over observed days.
		var maRevenue, maCount float64
		window := 0
		for j := max(0, i-6); j <= i; j++ {
			w := byDay[days[j]]
			maRevenue += w.revenue
			maCount += float64(w.count)
			window++
		}
		out = append(out, DailyAgg{
			Date:            d,
			Revenue:         round2(a.revenue),
			AvgTransaction:  round2(a.revenue / float64(a.count)),
			Transactions:    a.count,
			UniqueClients:   len(a.clients),
			RevenueMA7:      round2(maRevenue / float64(window)),
			TransactionsMA7: round2(maCount / float64(window)),
		})
	}
	return out
}

func buildWeeklyAgg(facts []FactPurchase) []WeeklyAgg {
	type acc struct {
		revenue  float64
		count    int
		clients  map[int]bool
		products map[string]bool
	}
	byWeek := make(map[string]*acc)
	for _, f := range facts {
		a, ok := byWeek[f.YearWeek]
		if !ok {
			a = &acc{clients: make(map[int]bool), products: make(map[string]bool)}
			byWeek[f.YearWeek] = a
		}
		a.revenue += f.Amount
		a.count++
		a.clients[f.ClientID] = true
		a.products[f.Product] = true
	}

	weeks := make([]string, 0, len(byWeek))
	for w := range byWeek {
		weeks = append(weeks, w)
	}
	sort.Strings(weeks)

	out := make([]WeeklyAgg, 0, len(weeks))
	for _, w := range weeks {
		a := byWeek[w]
		out = append(out, WeeklyAgg{
			YearWeek:       w,
			Revenue:        round2(a.revenue),
			AvgTransaction: round2(a.revenue / float64(a.count)),
			Transactions:   a.count,
			UniqueClients:  len(a.clients),
			UniqueProducts: len(a.products),
		})
	}
	return out
}

func buildQuarterlyAgg(facts []FactPurchase) []QuarterlyAgg {
	type acc struct {
		revenue float64
		count   int
		clients map[int]bool
	}
	byQuarter := make(map[string]*acc)
	for _, f := range facts {
		label := fmt.Sprintf("%d-Q%d", f.Year, f.Quarter)
		a, ok := byQuarter[label]
		if !ok {
			a = &acc{clients: make(map[int]bool)}
			byQuarter[label] = a
		}
		a.revenue += f.Amount
		a.count++
		a.clients[f.ClientID] = true
	}

	quarters := make([]string, 0, len(byQuarter))
	for q := range byQuarter {
		quarters = append(quarters, q)
	}
	sort.Strings(quarters)

	out := make([]QuarterlyAgg, 0, len(quarters))
	for i, q := range quarters {
		a := byQuarter[q]
		rec := QuarterlyAgg{
			YearQuarter:   q,
			Revenue:       round2(a.revenue),
			AvgTransact:   round2(a.revenue / float64(a.count)),
			Transactions:  a.count,
			UniqueClients: len(a.clients),
		}
		if i > 0 {
			rec.QoQGrowthPct = growthPct(byQuarter[quarters[i-1]].revenue, a.revenue)
		}
		out = append(out, rec)
	}
	return out
}

func buildDistribution(purchases []dataset.Purchase) []AmountDistribution {
	if len(purchases) == 0 {
		return nil
	}
	amounts := make([]float64, len(purchases))
	var sum float64
	for i, p := range purchases {
		amounts[i] = p.Amount
		sum += p.Amount
	}
	sort.Float64s(amounts)
	mean := sum / float64(len(amounts))

	return []AmountDistribution{{
		Metric:   "Transaction Amount",
		Mean:     round2(mean),
		Median:   round2(quantile(amounts, 0.5)),
		Std:      round2(sampleStd(amounts)),
		Min:      amounts[0],
		Max:      amounts[len(amounts)-1],
		Q25:      round2(quantile(amounts, 0.25)),
		Q75:      round2(quantile(amounts, 0.75)),
		Skewness: skewness(amounts, mean),
		Kurtosis: kurtosis(amounts, mean),
	}}
}

func buildCountryMatrix(facts []FactPurchase) []CountryProductRevenue {
	type key struct{ country, product string }
	cells := make(map[key]float64)
	for _, f := range facts {
		cells[key{f.Country, f.Product}] += f.Amount
	}

	out := make([]CountryProductRevenue, 0, len(cells))
	for k, revenue := range cells {
		out = append(out, CountryProductRevenue{Country: k.country, Product: k.product, Revenue: round2(revenue)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Country != out[j].Country {
			return out[i].Country < out[j].Country
		}
		return out[i].Product < out[j].Product
	})
	return out
}

// growthPct is the percentage change from prev to cur; nil when prev is zero.
func growthPct(prev, cur float64) *float64 {
	if prev == 0 {
		return nil
	}
	v := round2((cur - prev) / prev * 100)
	return &v
}

// sampleStd is the Bessel-corrected standard deviation; zero for fewer than
// two samples.
func sampleStd(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(n-1))
}

// skewness is the adjusted Fisher-Pearson sample skewness.
func skewness(values []float64, mean float64) float64 {
	n := float64(len(values))
	if n < 3 {
		return 0
	}
	s := sampleStd(values)
	if s == 0 {
		return 0
	}
	var m3 float64
	for _, v := range values {
		d := (v - mean) / s
		m3 += d * d * d
	}
	return n / ((n - 1) * (n - 2)) * m3
}

// kurtosis is the sample excess kurtosis.
func kurtosis(values []float64, mean float64) float64 {
	n := float64(len(values))
	if n < 4 {
		return 0
	}
	s := sampleStd(values)
	if s == 0 {
		return 0
	}
	var m4 float64
	for _, v := range values {
		d := (v - mean) / s
		m4 += d * d * d * d
	}
	return n*(n+1)/((n-1)*(n-2)*(n-3))*m4 - 3*(n-1)*(n-1)/((n-2)*(n-3))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
